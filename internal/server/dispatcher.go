package server

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Tyrowin/chatrelay/internal/model"
	"github.com/Tyrowin/chatrelay/internal/notify"
)

// Dispatcher persists messages and fans them out to the conversation room
// and to participants that have not joined it.
type Dispatcher struct {
	store    Store
	hub      *Hub
	notifier OfflineNotifier
	log      *zap.Logger
}

func NewDispatcher(st Store, hub *Hub, notifier OfflineNotifier, log *zap.Logger) *Dispatcher {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{store: st, hub: hub, notifier: notifier, log: log}
}

// Send validates and persists a message from the session of from, then
// delivers it. Nothing is delivered unless the message was stored.
func (d *Dispatcher) Send(ctx context.Context, from *Client, req SendMessageRequest) (model.Message, error) {
	if err := validatePayload(&req); err != nil {
		return model.Message{}, err
	}

	content := nonBlank(req.Content)
	attachment := nonBlank(req.AttachmentRef)
	if content == nil && attachment == nil {
		return model.Message{}, fail(KindValidation, "Message must have either content or an attachment", nil)
	}

	sender := from.Session()
	conv, err := d.store.Conversation(ctx, req.ConversationID)
	if err != nil {
		return model.Message{}, lookupFailure(err, "Conversation not found", "Failed to send message")
	}
	if !conv.HasParticipant(sender.UserID) {
		return model.Message{}, fail(KindAuthorization, "User is not a participant of this conversation", nil)
	}

	msg, err := d.store.CreateMessage(ctx, model.Message{
		ConversationID: conv.ID,
		SenderID:       sender.UserID,
		Content:        content,
		AttachmentRef:  attachment,
	})
	if err != nil {
		d.log.Error("failed to persist message",
			zap.String("conversation", conv.ID),
			zap.String("user", sender.UserID),
			zap.Error(err))
		return model.Message{}, fail(KindStore, "Failed to send message", err)
	}

	res := d.hub.FanOut(conv.ID, conv.ParticipantIDs(), sender.UserID,
		Outbound{Event: EventNewMessage, Data: msg},
		Outbound{Event: EventMessageNotification, Data: MessageNotification{
			Message:        msg,
			ConversationID: conv.ID,
			From:           msg.Sender,
		}},
	)
	d.signalOffline(ctx, msg, res.Offline)

	d.hub.SendTo(from, Outbound{Event: EventMessageSent, Data: MessageSent{MessageID: msg.ID}})

	d.log.Debug("message dispatched",
		zap.String("message", msg.ID),
		zap.String("conversation", conv.ID),
		zap.Int("room", res.Delivered),
		zap.Int("notified", res.Notified),
		zap.Int("offline", len(res.Offline)))
	return msg, nil
}

func (d *Dispatcher) signalOffline(ctx context.Context, msg model.Message, userIDs []string) {
	for _, userID := range userIDs {
		sig := notify.Signal{
			UserID:         userID,
			ConversationID: msg.ConversationID,
			MessageID:      msg.ID,
			FromID:         msg.SenderID,
			FromName:       msg.Sender.Name,
			SentAt:         msg.CreatedAt,
		}
		if err := d.notifier.NotifyOffline(ctx, sig); err != nil {
			d.log.Warn("failed to signal offline participant",
				zap.String("user", userID),
				zap.String("message", msg.ID),
				zap.Error(err))
		}
	}
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}
