package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/chatrelay/internal/model"
)

// offlineFailingStore rejects offline presence writes.
type offlineFailingStore struct {
	Store
}

func (s offlineFailingStore) SetPresence(ctx context.Context, userID string, online bool, at time.Time) error {
	if !online {
		return errors.New("database unavailable")
	}
	return s.Store.SetPresence(ctx, userID, online, at)
}

func statusOf(t *testing.T, statuses []model.UserStatus, userID string) model.UserStatus {
	t.Helper()
	for _, st := range statuses {
		if st.UserID == userID {
			return st
		}
	}
	t.Fatalf("no status for %s", userID)
	return model.UserStatus{}
}

// TestPresenceBroadcastsTransitionsOnly verifies that a second session
// of the same user does not announce the user again.
func TestPresenceBroadcastsTransitionsOnly(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()
	p := NewPresence(env.store, env.hub, env.log)

	watcher := env.connect(t, "bob")
	first := env.connect(t, "alice")
	second := env.connect(t, "alice")

	changed, err := p.Connect(ctx, first.Session())
	req.NoError(err)
	req.True(changed)

	changed, err = p.Connect(ctx, second.Session())
	req.NoError(err)
	req.False(changed)

	frames := drain(t, watcher)
	req.Equal([]string{EventUserStatusChanged}, eventNames(frames))
	online := decodeData[model.UserStatus](t, frames[0])
	req.Equal("alice", online.UserID)
	req.True(online.IsOnline)
	req.True(p.Online("alice"))

	changed, err = p.Disconnect(ctx, first.Session())
	req.NoError(err)
	req.False(changed)
	req.Empty(drain(t, watcher))

	changed, err = p.Disconnect(ctx, second.Session())
	req.NoError(err)
	req.True(changed)
	req.False(p.Online("alice"))

	frames = drain(t, watcher)
	req.Equal([]string{EventUserStatusChanged}, eventNames(frames))
	req.False(decodeData[model.UserStatus](t, frames[0]).IsOnline)

	changed, err = p.Disconnect(ctx, second.Session())
	req.NoError(err)
	req.False(changed, "extra disconnects are ignored")
}

// TestPresenceQueriesReportOfflineAfterLastSession verifies the status
// seen by other sessions after a user leaves.
func TestPresenceQueriesReportOfflineAfterLastSession(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()
	p := NewPresence(env.store, env.hub, env.log)

	alice := env.connect(t, "alice")
	_, err := p.Connect(ctx, alice.Session())
	req.NoError(err)

	all, err := p.QueryAll(ctx)
	req.NoError(err)
	req.Len(all, 5)
	req.True(statusOf(t, all, "alice").IsOnline)
	req.False(statusOf(t, all, "bob").IsOnline)

	_, err = p.Disconnect(ctx, alice.Session())
	req.NoError(err)

	some, err := p.QuerySome(ctx, []string{"alice", "alice", "", "unknown"})
	req.NoError(err)
	req.Len(some, 1)
	req.False(some[0].IsOnline)

	none, err := p.QuerySome(ctx, nil)
	req.NoError(err)
	req.Empty(none)
}

// TestPresenceFailedOfflineWrite verifies that a failed store write
// suppresses the broadcast but still reports the user offline locally.
func TestPresenceFailedOfflineWrite(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()
	p := NewPresence(offlineFailingStore{Store: env.store}, env.hub, env.log)

	watcher := env.connect(t, "bob")
	alice := env.connect(t, "alice")
	_, err := p.Connect(ctx, alice.Session())
	req.NoError(err)
	drain(t, watcher)

	changed, err := p.Disconnect(ctx, alice.Session())
	req.Error(err)
	req.True(changed)
	req.Empty(drain(t, watcher))

	all, err := p.QueryAll(ctx)
	req.NoError(err)
	req.False(statusOf(t, all, "alice").IsOnline)
}
