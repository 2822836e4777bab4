package server

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Tyrowin/chatrelay/internal/model"
)

// Reactions toggles reactions and announces the result to the room of the
// message's conversation.
type Reactions struct {
	store Store
	hub   *Hub
	log   *zap.Logger
}

func NewReactions(st Store, hub *Hub, log *zap.Logger) *Reactions {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reactions{store: st, hub: hub, log: log}
}

// Toggle adds the acting user's emoji to a message, or removes it when
// already present.
func (r *Reactions) Toggle(ctx context.Context, from *Client, req ToggleReactionRequest) (model.ReactionToggle, error) {
	req.Emoji = strings.TrimSpace(req.Emoji)
	if err := validatePayload(&req); err != nil {
		return model.ReactionToggle{}, err
	}

	userID := from.Session().UserID
	out, err := r.store.ToggleReaction(ctx, req.MessageID, userID, req.Emoji)
	if err != nil {
		f := lookupFailure(err, "Message not found", "Failed to toggle reaction")
		if f.Kind == KindStore {
			r.log.Error("failed to toggle reaction",
				zap.String("message", req.MessageID),
				zap.String("user", userID),
				zap.Error(err))
		}
		return model.ReactionToggle{}, f
	}

	if out.Added {
		r.hub.Multicast(out.ConversationID, Outbound{Event: EventReactionAdded, Data: ReactionAdded{
			Reaction:       out.Reaction,
			MessageID:      req.MessageID,
			ConversationID: out.ConversationID,
		}}, nil)
	} else {
		r.hub.Multicast(out.ConversationID, Outbound{Event: EventReactionRemoved, Data: ReactionRemoved{
			MessageID:      req.MessageID,
			UserID:         userID,
			Emoji:          req.Emoji,
			ConversationID: out.ConversationID,
		}}, nil)
	}
	return out, nil
}
