package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	req := require.New(t)
	req.Equal("chat.notify.u1", Subject("", "u1"))
	req.Equal("push.users.u1", Subject("push.users.", "u1"))
	req.Equal("push.u2", Subject(" push ", "u2"))
}

func TestSignalWireFormat(t *testing.T) {
	req := require.New(t)
	sig := Signal{
		UserID:         "u1",
		ConversationID: "c1",
		MessageID:      "m1",
		FromID:         "u2",
		FromName:       "Bob",
		SentAt:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(sig)
	req.NoError(err)

	var fields map[string]any
	req.NoError(json.Unmarshal(data, &fields))
	req.Equal("u1", fields["userId"])
	req.Equal("c1", fields["conversationId"])
	req.Equal("m1", fields["messageId"])
	req.Equal("Bob", fields["fromName"])
}

func TestNopNotifier(t *testing.T) {
	require.NoError(t, Nop{}.NotifyOffline(context.Background(), Signal{UserID: "u1"}))
}

func TestConnectFailsWithoutServer(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "", nil)
	require.Error(t, err)
}
