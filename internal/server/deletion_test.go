package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/chatrelay/internal/store"
)

// TestDeletionsRejectsNonSender verifies that only the sender may delete
// and that a refused deletion changes nothing.
func TestDeletionsRejectsNonSender(t *testing.T) {
	env := newTestEnv(t)
	d := NewDeletions(env.store, env.hub, env.log)
	msg := seedMessage(t, env, "alice")

	alice := env.connect(t, "alice")
	bob := env.connect(t, "bob")
	env.hub.Join(alice, "general")
	env.hub.Join(bob, "general")

	_, err := d.Delete(context.Background(), bob, DeleteMessageRequest{MessageID: msg.ID})
	requireFailure(t, err, KindAuthorization, "Not authorized to delete this message")

	require.Empty(t, drain(t, alice))
	require.Empty(t, drain(t, bob))

	_, err = env.store.MessageByID(context.Background(), msg.ID)
	require.NoError(t, err)
}

// TestDeletionsRemovesMessageAndReactions verifies the happy path.
func TestDeletionsRemovesMessageAndReactions(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	d := NewDeletions(env.store, env.hub, env.log)
	msg := seedMessage(t, env, "alice")

	_, err := env.store.ToggleReaction(context.Background(), msg.ID, "bob", "🎉")
	req.NoError(err)

	alice := env.connect(t, "alice")
	bob := env.connect(t, "bob")
	env.hub.Join(alice, "general")
	env.hub.Join(bob, "general")

	_, err = d.Delete(context.Background(), alice, DeleteMessageRequest{MessageID: msg.ID})
	req.NoError(err)

	for _, c := range []*Client{alice, bob} {
		frames := drain(t, c)
		req.Equal([]string{EventMessageDeleted}, eventNames(frames))
		req.Equal(MessageDeleted{MessageID: msg.ID, ConversationID: "general"}, decodeData[MessageDeleted](t, frames[0]))
	}

	_, err = env.store.MessageByID(context.Background(), msg.ID)
	req.ErrorIs(err, store.ErrNotFound)
	n, err := env.store.CountReactions(context.Background(), msg.ID, "bob", "🎉")
	req.NoError(err)
	req.Zero(n)

	_, err = d.Delete(context.Background(), alice, DeleteMessageRequest{MessageID: msg.ID})
	requireFailure(t, err, KindNotFound, "Message not found")
}
