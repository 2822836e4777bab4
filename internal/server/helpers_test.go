package server

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/Tyrowin/chatrelay/internal/metrics"
	"github.com/Tyrowin/chatrelay/internal/model"
	"github.com/Tyrowin/chatrelay/internal/store"
)

// testEnv holds an in-memory store seeded with five users. Alice, Bob,
// Carol and Dave participate in "general"; Mallory participates in
// nothing.
type testEnv struct {
	store   *store.Store
	hub     *Hub
	metrics *metrics.Metrics
	log     *zap.Logger
	general model.Conversation
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	req := require.New(t)
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	st, err := store.OpenMemory(log)
	req.NoError(err)
	t.Cleanup(func() { _ = st.Close() })

	for _, name := range []string{"alice", "bob", "carol", "dave", "mallory"} {
		_, err := st.CreateUser(ctx, model.User{ID: name, Name: displayName(name), Email: name + "@example.com"})
		req.NoError(err)
	}
	general, err := st.CreateConversation(ctx, model.Conversation{ID: "general", IsGroup: true}, "alice", "bob", "carol", "dave")
	req.NoError(err)

	m := metrics.New(nil)
	return &testEnv{
		store:   st,
		hub:     NewHub(log, m),
		metrics: m,
		log:     log,
		general: general,
	}
}

func displayName(id string) string {
	return strings.ToUpper(id[:1]) + id[1:]
}

// connect registers a session without a websocket behind it.
func (e *testEnv) connect(t *testing.T, userID string) *Client {
	t.Helper()
	return connectClient(t, e.hub, userID, DefaultConfig())
}

func connectClient(t *testing.T, hub *Hub, userID string, cfg Config) *Client {
	t.Helper()
	s := Session{ID: uuid.NewString(), UserID: userID, UserName: displayName(userID), Email: userID + "@example.com"}
	c := NewClient(nil, s, "test", cfg, zaptest.NewLogger(t), nil)
	hub.Register(c)
	return c
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// drain returns every frame queued for c without blocking.
func drain(t *testing.T, c *Client) []frame {
	t.Helper()
	var out []frame
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return out
			}
			var f frame
			require.NoError(t, json.Unmarshal(payload, &f))
			out = append(out, f)
		default:
			return out
		}
	}
}

func eventNames(frames []frame) []string {
	names := make([]string, 0, len(frames))
	for _, f := range frames {
		names = append(names, f.Event)
	}
	return names
}

func decodeData[T any](t *testing.T, f frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Data, &v))
	return v
}
