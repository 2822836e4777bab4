// Package server defines the wire envelope, event payloads and utility
// helpers that are reused across client and hub logic.
package server

import (
	"encoding/json"
	"strings"

	"github.com/Tyrowin/chatrelay/internal/model"
)

// Inbound event names.
const (
	EventJoinConversation            = "join_conversation"
	EventLeaveConversation           = "leave_conversation"
	EventSendMessage                 = "send_message"
	EventToggleReaction              = "toggle_reaction"
	EventDeleteMessage               = "delete_message"
	EventTypingStart                 = "typing_start"
	EventTypingStop                  = "typing_stop"
	EventRequestUserStatuses         = "request_user_statuses"
	EventRequestSpecificUserStatuses = "request_specific_user_statuses"
)

// Outbound event names.
const (
	EventNewMessage          = "new_message"
	EventMessageNotification = "message_notification"
	EventMessageSent         = "message_sent"
	EventMessageError        = "message_error"
	EventReactionAdded       = "reaction_added"
	EventReactionRemoved     = "reaction_removed"
	EventReactionError       = "reaction_error"
	EventMessageDeleted      = "message_deleted"
	EventDeleteError         = "delete_error"
	EventUserTyping          = "user_typing"
	EventUserStatusChanged   = "user_status_changed"
	EventUserStatuses        = "user_statuses_response"
	EventConversationJoined  = "conversation_joined"
	EventConversationError   = "conversation_error"
	EventStatusError         = "status_error"
)

// Envelope is one inbound frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is one outbound frame.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type ConversationRequest struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
}

type SendMessageRequest struct {
	ConversationID string  `json:"conversationId" validate:"required,max=64"`
	Content        *string `json:"content,omitempty" validate:"omitempty,max=4000"`
	AttachmentRef  *string `json:"attachmentRef,omitempty" validate:"omitempty,max=2048"`
}

type ToggleReactionRequest struct {
	MessageID string `json:"messageId" validate:"required,max=64"`
	Emoji     string `json:"emoji" validate:"required,max=64"`
}

type DeleteMessageRequest struct {
	MessageID string `json:"messageId" validate:"required,max=64"`
}

type UserStatusesRequest struct {
	UserIDs []string `json:"userIds" validate:"required,max=500,dive,required,max=64"`
}

type MessageNotification struct {
	Message        model.Message `json:"message"`
	ConversationID string        `json:"conversationId"`
	From           model.User    `json:"from"`
}

type MessageSent struct {
	MessageID string `json:"messageId"`
}

// ErrorPayload is the body of every scoped error event.
type ErrorPayload struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

type ReactionAdded struct {
	Reaction       model.Reaction `json:"reaction"`
	MessageID      string         `json:"messageId"`
	ConversationID string         `json:"conversationId"`
}

type ReactionRemoved struct {
	MessageID      string `json:"messageId"`
	UserID         string `json:"userId"`
	Emoji          string `json:"emoji"`
	ConversationID string `json:"conversationId"`
}

type MessageDeleted struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

type UserTyping struct {
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

type ConversationJoined struct {
	ConversationID string `json:"conversationId"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
