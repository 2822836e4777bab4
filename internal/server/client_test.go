package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestClientProcessMessage verifies envelope parsing before routing.
func TestClientProcessMessage(t *testing.T) {
	var routed []Envelope
	c := NewClient(nil, Session{UserID: "alice"}, "test", DefaultConfig(), nil, func(_ *Client, env Envelope) {
		routed = append(routed, env)
	})

	require.False(t, c.processMessage([]byte("plain text")))
	require.False(t, c.processMessage([]byte(`{"data":{}}`)))
	require.True(t, c.processMessage([]byte(`{"event":"typing_start","data":{"conversationId":"general"}}`)))

	require.Len(t, routed, 1)
	require.Equal(t, EventTypingStart, routed[0].Event)
	require.JSONEq(t, `{"conversationId":"general"}`, string(routed[0].Data))
}

// TestClientEnqueueAfterClose verifies that a closed queue drops payloads
// without panicking.
func TestClientEnqueueAfterClose(t *testing.T) {
	c := NewClient(nil, Session{UserID: "alice"}, "test", DefaultConfig(), nil, nil)

	delivered, evicted := c.enqueue([]byte("{}"))
	require.True(t, delivered)
	require.False(t, evicted)

	c.closeSend()
	c.closeSend()
	delivered, evicted = c.enqueue([]byte("{}"))
	require.False(t, delivered)
	require.False(t, evicted)
}

// TestNewSession verifies that sessions get distinct ids.
func TestNewSession(t *testing.T) {
	id := Identity{UserID: "alice", Name: "Alice", Email: "alice@example.com"}
	a, b := newSession(id), newSession(id)

	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, "Alice", a.UserName)
	require.False(t, a.ConnectedAt.IsZero())
}
