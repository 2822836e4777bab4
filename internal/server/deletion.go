package server

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Tyrowin/chatrelay/internal/model"
	"github.com/Tyrowin/chatrelay/internal/store"
)

// Deletions removes messages on behalf of their senders.
type Deletions struct {
	store Store
	hub   *Hub
	log   *zap.Logger
}

func NewDeletions(st Store, hub *Hub, log *zap.Logger) *Deletions {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deletions{store: st, hub: hub, log: log}
}

// Delete removes a message and its reactions when the acting user sent
// it, then tells the conversation room.
func (d *Deletions) Delete(ctx context.Context, from *Client, req DeleteMessageRequest) (model.Message, error) {
	if err := validatePayload(&req); err != nil {
		return model.Message{}, err
	}

	userID := from.Session().UserID
	msg, err := d.store.DeleteMessage(ctx, req.MessageID, userID)
	switch {
	case errors.Is(err, store.ErrNotOwner):
		d.log.Info("refused deletion by non-sender",
			zap.String("message", req.MessageID),
			zap.String("user", userID))
		return model.Message{}, fail(KindAuthorization, "Not authorized to delete this message", err)
	case errors.Is(err, store.ErrNotFound):
		return model.Message{}, fail(KindNotFound, "Message not found", err)
	case err != nil:
		d.log.Error("failed to delete message", zap.String("message", req.MessageID), zap.Error(err))
		return model.Message{}, fail(KindStore, "Failed to delete message", err)
	}

	d.hub.Multicast(msg.ConversationID, Outbound{Event: EventMessageDeleted, Data: MessageDeleted{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
	}}, nil)
	return msg, nil
}
