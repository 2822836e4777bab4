package server

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// eventHandler handles one inbound event. Failures are reported to the
// sending session on errorEvent; an empty errorEvent drops them.
type eventHandler struct {
	errorEvent string
	handle     func(ctx context.Context, c *Client, data json.RawMessage) error
}

func (r *Relay) eventHandlers() map[string]eventHandler {
	return map[string]eventHandler{
		EventJoinConversation:            {EventConversationError, r.join},
		EventLeaveConversation:           {"", r.leave},
		EventSendMessage:                 {EventMessageError, r.sendMessage},
		EventToggleReaction:              {EventReactionError, r.toggleReaction},
		EventDeleteMessage:               {EventDeleteError, r.deleteMessage},
		EventTypingStart:                 {"", r.typingHandler(true)},
		EventTypingStop:                  {"", r.typingHandler(false)},
		EventRequestUserStatuses:         {EventStatusError, r.userStatuses},
		EventRequestSpecificUserStatuses: {EventStatusError, r.specificUserStatuses},
	}
}

// route runs on the session's read goroutine.
func (r *Relay) route(c *Client, env Envelope) {
	h, ok := r.events[env.Event]
	if !ok {
		c.log.Debug("ignoring unknown event", zap.String("event", env.Event))
		return
	}
	r.metrics.Inbound.WithLabelValues(env.Event).Inc()

	ctx, cancel := r.storeContext()
	defer cancel()

	err := h.handle(ctx, c, env.Data)
	if err == nil {
		return
	}

	f := classify(err, "Internal error")
	r.metrics.Failures.WithLabelValues(string(f.Kind)).Inc()
	c.log.Info("event failed",
		zap.String("event", env.Event),
		zap.String("kind", string(f.Kind)),
		zap.String("reason", f.Reason))

	if h.errorEvent != "" {
		r.hub.SendTo(c, Outbound{Event: h.errorEvent, Data: ErrorPayload{Message: f.Reason, Kind: f.Kind}})
	}
}

// join adds the session to a conversation room once the store confirms
// that its user participates.
func (r *Relay) join(ctx context.Context, c *Client, data json.RawMessage) error {
	var req ConversationRequest
	if err := decodePayload(data, &req); err != nil {
		return err
	}

	conv, err := r.store.Conversation(ctx, req.ConversationID)
	if err != nil {
		return lookupFailure(err, "Conversation not found", "Failed to join conversation")
	}
	if !conv.HasParticipant(c.Session().UserID) {
		return fail(KindAuthorization, "User is not a participant of this conversation", nil)
	}

	r.hub.Join(c, conv.ID)
	r.hub.SendTo(c, Outbound{Event: EventConversationJoined, Data: ConversationJoined{ConversationID: conv.ID}})
	return nil
}

func (r *Relay) leave(_ context.Context, c *Client, data json.RawMessage) error {
	var req ConversationRequest
	if err := decodePayload(data, &req); err != nil {
		return err
	}
	r.hub.Leave(c, req.ConversationID)
	return nil
}

func (r *Relay) sendMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	var req SendMessageRequest
	if err := decodePayload(data, &req); err != nil {
		return err
	}
	_, err := r.dispatcher.Send(ctx, c, req)
	return err
}

func (r *Relay) toggleReaction(ctx context.Context, c *Client, data json.RawMessage) error {
	var req ToggleReactionRequest
	if err := decodePayload(data, &req); err != nil {
		return err
	}
	_, err := r.reactions.Toggle(ctx, c, req)
	return err
}

func (r *Relay) deleteMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	var req DeleteMessageRequest
	if err := decodePayload(data, &req); err != nil {
		return err
	}
	_, err := r.deletions.Delete(ctx, c, req)
	return err
}

func (r *Relay) typingHandler(typing bool) func(context.Context, *Client, json.RawMessage) error {
	return func(_ context.Context, c *Client, data json.RawMessage) error {
		var req ConversationRequest
		if err := decodePayload(data, &req); err != nil {
			return err
		}
		r.typing.Relay(c, req, typing)
		return nil
	}
}

func (r *Relay) userStatuses(ctx context.Context, c *Client, _ json.RawMessage) error {
	statuses, err := r.presence.QueryAll(ctx)
	if err != nil {
		return fail(KindStore, "Failed to get user statuses", err)
	}
	r.hub.SendTo(c, Outbound{Event: EventUserStatuses, Data: statuses})
	return nil
}

func (r *Relay) specificUserStatuses(ctx context.Context, c *Client, data json.RawMessage) error {
	var req UserStatusesRequest
	if err := decodePayload(data, &req); err != nil {
		return err
	}
	statuses, err := r.presence.QuerySome(ctx, req.UserIDs)
	if err != nil {
		return fail(KindStore, "Failed to get user statuses", err)
	}
	r.hub.SendTo(c, Outbound{Event: EventUserStatuses, Data: statuses})
	return nil
}
