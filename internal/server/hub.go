// Package server coordinates session registration, room membership and
// event delivery for the relay via the Hub type.
package server

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Tyrowin/chatrelay/internal/metrics"
)

// Hub is the membership registry and session directory. It tracks which
// sessions belong to each user and which sessions joined each room.
//
// Lock order is Hub.mu before Client.mu. Deliveries to a room happen under
// Hub.mu, so every member observes events of one room in the same order.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	users   map[string]map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	metrics *metrics.Metrics
	log     *zap.Logger
}

// FanOutResult summarizes a message fan-out.
type FanOutResult struct {
	Delivered int
	Notified  int
	Offline   []string
}

// NewHub creates an empty Hub.
func NewHub(log *zap.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		users:   make(map[string]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		metrics: m,
		log:     log,
	}
}

// Register adds c to the directory and returns the number of live sessions
// its user now has.
func (h *Hub) Register(c *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		h.clients[c] = struct{}{}
		h.metrics.Sessions.Inc()
	}
	set := h.users[c.session.UserID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.users[c.session.UserID] = set
	}
	set[c] = struct{}{}
	return len(set)
}

// Unregister removes c from every room and from the directory, then closes
// its send queue. ok is false when c was not registered.
func (h *Hub) Unregister(c *Client) (remaining int, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[c]; !exists {
		return len(h.users[c.session.UserID]), false
	}
	h.removeLocked(c)
	c.closeSend()
	return len(h.users[c.session.UserID]), true
}

func (h *Hub) removeLocked(c *Client) {
	for roomID := range c.rooms {
		h.leaveLocked(c, roomID)
	}
	delete(h.clients, c)
	h.metrics.Sessions.Dec()

	if set := h.users[c.session.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.session.UserID)
		}
	}
}

// Join adds c to a room. Joining twice is a no-op.
func (h *Hub) Join(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	members := h.rooms[roomID]
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[roomID] = members
		h.metrics.Rooms.Inc()
	}
	members[c] = struct{}{}
	c.rooms[roomID] = struct{}{}
}

// Leave removes c from a room. Leaving a room that was never joined is a
// no-op.
func (h *Hub) Leave(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, roomID)
}

func (h *Hub) leaveLocked(c *Client, roomID string) {
	delete(c.rooms, roomID)
	members := h.rooms[roomID]
	if members == nil {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, roomID)
		h.metrics.Rooms.Dec()
	}
}

// InRoom reports whether c joined roomID.
func (h *Hub) InRoom(c *Client, roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.rooms[roomID][c]
	return ok
}

// RoomSize returns the number of sessions in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

// SessionCount returns the number of live sessions for userID.
func (h *Hub) SessionCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.users[userID])
}

// ClientCount returns the total number of registered sessions.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Clients returns a snapshot of the registered sessions.
func (h *Hub) Clients() []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

// Multicast delivers evt to every session in roomID except one. It returns
// the number of sessions that received it.
func (h *Hub) Multicast(roomID string, evt Outbound, except *Client) int {
	payload, ok := h.encode(evt)
	if !ok {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for c := range h.rooms[roomID] {
		if c == except {
			continue
		}
		if h.deliverLocked(c, payload) {
			n++
		}
	}
	h.metrics.Outbound.WithLabelValues(evt.Event).Add(float64(n))
	return n
}

// Broadcast delivers evt to every registered session.
func (h *Hub) Broadcast(evt Outbound) int {
	payload, ok := h.encode(evt)
	if !ok {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for c := range h.clients {
		if h.deliverLocked(c, payload) {
			n++
		}
	}
	h.metrics.Outbound.WithLabelValues(evt.Event).Add(float64(n))
	return n
}

// SendTo delivers evt to a single session.
func (h *Hub) SendTo(c *Client, evt Outbound) bool {
	payload, ok := h.encode(evt)
	if !ok {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, registered := h.clients[c]; !registered {
		return false
	}
	if !h.deliverLocked(c, payload) {
		return false
	}
	h.metrics.Outbound.WithLabelValues(evt.Event).Inc()
	return true
}

// FanOut delivers roomEvt to every session in roomID, and notice to every
// session of the other participants that is not in the room. Participants
// without any live session are returned in Offline. The sender never
// receives notice.
func (h *Hub) FanOut(roomID string, participants []string, senderID string, roomEvt, notice Outbound) FanOutResult {
	roomPayload, ok := h.encode(roomEvt)
	if !ok {
		return FanOutResult{}
	}
	noticePayload, ok := h.encode(notice)
	if !ok {
		return FanOutResult{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var res FanOutResult
	members := h.rooms[roomID]
	for c := range members {
		if h.deliverLocked(c, roomPayload) {
			res.Delivered++
		}
	}

	for _, userID := range participants {
		if userID == senderID {
			continue
		}
		sessions := h.users[userID]
		if len(sessions) == 0 {
			res.Offline = append(res.Offline, userID)
			continue
		}
		for c := range sessions {
			if _, inRoom := members[c]; inRoom {
				continue
			}
			if h.deliverLocked(c, noticePayload) {
				res.Notified++
			}
		}
	}

	h.metrics.Outbound.WithLabelValues(roomEvt.Event).Add(float64(res.Delivered))
	h.metrics.Outbound.WithLabelValues(notice.Event).Add(float64(res.Notified))
	return res
}

// deliverLocked enqueues payload and evicts c when its buffer is full.
func (h *Hub) deliverLocked(c *Client, payload []byte) bool {
	delivered, evicted := c.enqueue(payload)
	if evicted {
		h.log.Warn("evicting slow session",
			zap.String("session", c.session.ID),
			zap.String("user", c.session.UserID))
		h.metrics.Evictions.Inc()
	}
	return delivered
}

func (h *Hub) encode(evt Outbound) ([]byte, bool) {
	payload, err := json.Marshal(evt)
	if err != nil {
		h.log.Error("failed to encode event", zap.String("event", evt.Event), zap.Error(err))
		return nil, false
	}
	return payload, true
}
