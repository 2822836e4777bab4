package server

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Tyrowin/chatrelay/internal/model"
)

// Presence tracks online state per user. A user is online while at least
// one session is live; only the 0→1 and 1→0 transitions are written to
// the store and broadcast.
type Presence struct {
	store Store
	hub   *Hub
	log   *zap.Logger
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*presenceEntry
	cache   map[string]model.UserStatus
}

type presenceEntry struct {
	mu       sync.Mutex
	sessions int
}

func NewPresence(st Store, hub *Hub, log *zap.Logger) *Presence {
	if log == nil {
		log = zap.NewNop()
	}
	return &Presence{
		store:   st,
		hub:     hub,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[string]*presenceEntry),
		cache:   make(map[string]model.UserStatus),
	}
}

func (p *Presence) entry(userID string) *presenceEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[userID]
	if !ok {
		e = &presenceEntry{}
		p.entries[userID] = e
	}
	return e
}

// Connect counts a new session and marks its user online when it is the
// first one. transitioned reports whether the user came online.
func (p *Presence) Connect(ctx context.Context, s Session) (transitioned bool, err error) {
	e := p.entry(s.UserID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sessions++
	if e.sessions != 1 {
		return false, nil
	}
	return true, p.mark(ctx, s.UserID, true)
}

// Disconnect forgets a session and marks its user offline when it was the
// last one.
func (p *Presence) Disconnect(ctx context.Context, s Session) (transitioned bool, err error) {
	e := p.entry(s.UserID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessions == 0 {
		return false, nil
	}
	e.sessions--
	if e.sessions != 0 {
		return false, nil
	}
	return true, p.mark(ctx, s.UserID, false)
}

// mark records the transition locally, then in the store. The change is
// broadcast to every session only once the store accepted it.
func (p *Presence) mark(ctx context.Context, userID string, online bool) error {
	status := model.UserStatus{UserID: userID, IsOnline: online, LastActive: p.now()}

	p.mu.Lock()
	p.cache[userID] = status
	p.mu.Unlock()

	if err := p.store.SetPresence(ctx, userID, online, status.LastActive); err != nil {
		p.log.Error("failed to persist presence",
			zap.String("user", userID),
			zap.Bool("online", online),
			zap.Error(err))
		return err
	}

	n := p.hub.Broadcast(Outbound{Event: EventUserStatusChanged, Data: status})
	p.log.Debug("presence changed",
		zap.String("user", userID),
		zap.Bool("online", online),
		zap.Int("recipients", n))
	return nil
}

// Online reports whether this process holds a live session for userID.
func (p *Presence) Online(userID string) bool {
	p.mu.Lock()
	e, ok := p.entries[userID]
	p.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions > 0
}

// QueryAll returns the status of every known user.
func (p *Presence) QueryAll(ctx context.Context) ([]model.UserStatus, error) {
	rows, err := p.store.UserStatuses(ctx, nil)
	if err != nil {
		return nil, err
	}
	return p.overlay(rows), nil
}

// QuerySome returns the status of the given users. Unknown ids are
// omitted and duplicates are answered once.
func (p *Presence) QuerySome(ctx context.Context, userIDs []string) ([]model.UserStatus, error) {
	ids := lo.Uniq(lo.Compact(userIDs))
	if len(ids) == 0 {
		return []model.UserStatus{}, nil
	}
	rows, err := p.store.UserStatuses(ctx, ids)
	if err != nil {
		return nil, err
	}
	return p.overlay(rows), nil
}

func (p *Presence) overlay(rows []model.UserStatus) []model.UserStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo.Map(rows, func(row model.UserStatus, _ int) model.UserStatus {
		if cached, ok := p.cache[row.UserID]; ok {
			return cached
		}
		return row
	})
}
