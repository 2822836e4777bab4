package server

import (
	"context"
	"time"

	"github.com/Tyrowin/chatrelay/internal/model"
	"github.com/Tyrowin/chatrelay/internal/notify"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mock_notifier_test.go -package=server . OfflineNotifier
//go:generate go run go.uber.org/mock/mockgen -destination=mock_identity_test.go -package=server . IdentityVerifier

// UserLookup resolves users by id.
type UserLookup interface {
	UserByID(ctx context.Context, id string) (model.User, error)
}

// Store is the system of record the relay reads and writes through.
type Store interface {
	UserLookup
	SetPresence(ctx context.Context, userID string, online bool, at time.Time) error
	UserStatuses(ctx context.Context, ids []string) ([]model.UserStatus, error)
	Conversation(ctx context.Context, id string) (model.Conversation, error)
	CreateMessage(ctx context.Context, msg model.Message) (model.Message, error)
	ToggleReaction(ctx context.Context, messageID, userID, emoji string) (model.ReactionToggle, error)
	DeleteMessage(ctx context.Context, messageID, userID string) (model.Message, error)
}

// OfflineNotifier signals participants that have no live session.
type OfflineNotifier interface {
	NotifyOffline(ctx context.Context, sig notify.Signal) error
}
