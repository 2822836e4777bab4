package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tyrowin/chatrelay/internal/metrics"
	"github.com/Tyrowin/chatrelay/internal/notify"
)

// Options configures a Relay. Store is required; the other fields have
// usable defaults.
type Options struct {
	Config   Config
	Logger   *zap.Logger
	Store    Store
	Verifier IdentityVerifier
	Notifier OfflineNotifier
	Metrics  *metrics.Metrics
}

// Relay accepts websocket connections, turns them into sessions and
// routes their events to the coordinators.
type Relay struct {
	cfg      Config
	log      *zap.Logger
	store    Store
	verifier IdentityVerifier
	metrics  *metrics.Metrics
	origins  originPolicy
	upgrader websocket.Upgrader

	hub        *Hub
	presence   *Presence
	dispatcher *Dispatcher
	reactions  *Reactions
	deletions  *Deletions
	typing     *Typing
	events     map[string]eventHandler

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// NewRelay wires the hub, the presence tracker and the coordinators.
func NewRelay(opts Options) (*Relay, error) {
	if opts.Store == nil {
		return nil, errors.New("relay requires a store")
	}
	cfg := opts.Config.Sanitize()
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	verifier := opts.Verifier
	if verifier == nil {
		verifier = NewStoreVerifier(opts.Store, cfg.TokenSecret)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	hub := NewHub(log.Named("hub"), m)
	r := &Relay{
		cfg:        cfg,
		log:        log,
		store:      opts.Store,
		verifier:   verifier,
		metrics:    m,
		origins:    newOriginPolicy(cfg.AllowedOrigins, log),
		hub:        hub,
		presence:   NewPresence(opts.Store, hub, log.Named("presence")),
		dispatcher: NewDispatcher(opts.Store, hub, notifier, log.Named("dispatcher")),
		reactions:  NewReactions(opts.Store, hub, log.Named("reactions")),
		deletions:  NewDeletions(opts.Store, hub, log.Named("deletions")),
		typing:     NewTyping(hub),
	}
	r.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     r.origins.checkOrigin,
	}
	r.events = r.eventHandlers()
	return r, nil
}

// Hub returns the membership registry.
func (r *Relay) Hub() *Hub { return r.hub }

// Presence returns the presence tracker.
func (r *Relay) Presence() *Presence { return r.presence }

// WebSocketHandler verifies the claimed identity and upgrades the request.
// Unverified requests are refused before the upgrade and leave no state.
func (r *Relay) WebSocketHandler(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}
	if r.isClosing() {
		r.refuse(w, "shutdown", "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	if !r.origins.checkOrigin(req) {
		r.refuse(w, "origin", "Origin not allowed", http.StatusForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), r.cfg.StoreTimeout)
	identity, err := r.verifier.Verify(ctx, claimFromRequest(req))
	cancel()
	if err != nil {
		f := classify(err, "Authentication failed")
		status := http.StatusUnauthorized
		if f.Kind == KindStore {
			status = http.StatusServiceUnavailable
		}
		r.log.Info("refused websocket connection",
			zap.String("addr", req.RemoteAddr),
			zap.String("reason", f.Reason),
			zap.Error(f.Err))
		r.refuse(w, string(f.Kind), f.Reason, status)
		return
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn("websocket upgrade failed", zap.String("user", identity.UserID), zap.Error(err))
		return
	}

	r.open(conn, identity, req.RemoteAddr)
}

func (r *Relay) refuse(w http.ResponseWriter, reason, message string, status int) {
	r.metrics.Refused.WithLabelValues(reason).Inc()
	http.Error(w, message, status)
}

// open registers a session and starts its pumps.
func (r *Relay) open(conn *websocket.Conn, identity Identity, addr string) {
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		_ = conn.Close()
		return
	}
	r.wg.Add(2)
	r.mu.Unlock()

	session := newSession(identity)
	c := NewClient(conn, session, addr, r.cfg, r.log, r.route)
	sessions := r.hub.Register(c)

	ctx, cancel := r.storeContext()
	if _, err := r.presence.Connect(ctx, session); err != nil {
		c.log.Warn("failed to mark user online", zap.Error(err))
	}
	cancel()

	c.log.Info("session connected", zap.Int("sessions", sessions))

	go func() {
		defer r.wg.Done()
		c.writePump()
	}()
	go func() {
		defer r.wg.Done()
		c.readPump()
		r.close(c)
	}()
}

// close tears a session down: rooms, directory, then presence.
func (r *Relay) close(c *Client) {
	remaining, ok := r.hub.Unregister(c)
	if !ok {
		return
	}

	ctx, cancel := r.storeContext()
	defer cancel()
	if _, err := r.presence.Disconnect(ctx, c.Session()); err != nil {
		c.log.Warn("failed to mark user offline", zap.Error(err))
	}
	c.log.Info("session disconnected", zap.Int("sessions", remaining))
}

func (r *Relay) storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.cfg.StoreTimeout)
}

func (r *Relay) isClosing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closing
}

// Shutdown refuses new sessions, closes every live connection and waits
// for the pumps to exit or ctx to end.
func (r *Relay) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closing = true
	r.mu.Unlock()

	clients := r.hub.Clients()
	r.log.Info("closing sessions", zap.Int("count", len(clients)))

	deadline := time.Now().Add(writeWait)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range clients {
		if c.conn == nil {
			continue
		}
		if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !isExpectedCloseError(err) {
			c.log.Debug("error writing close frame", zap.Error(err))
		}
		_ = c.conn.Close()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.log.Info("all sessions closed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
