package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tyrowin/chatrelay/internal/model"
)

// ToggleReaction removes the (message, user, emoji) reaction when present
// and creates it otherwise. The unique index on the triple serializes
// concurrent toggles: the loser of an insert or delete race is replayed
// against the winner's result, so every toggle flips the state once.
func (s *Store) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (model.ReactionToggle, error) {
	var (
		out model.ReactionToggle
		err error
	)
	for attempt := 1; attempt <= toggleAttempts; attempt++ {
		out, err = s.toggleReaction(ctx, messageID, userID, emoji)
		if !isDuplicate(err) && !errors.Is(err, errToggleRaced) {
			break
		}
		s.log.Debug("reaction toggle raced, replaying",
			zap.String("message", messageID),
			zap.String("user", userID),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ReactionToggle{}, err
		}
		return model.ReactionToggle{}, fmt.Errorf("toggle reaction: %w", err)
	}
	return out, nil
}

func (s *Store) toggleReaction(ctx context.Context, messageID, userID, emoji string) (model.ReactionToggle, error) {
	var out model.ReactionToggle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg model.Message
		if err := tx.Select("id", "conversation_id").First(&msg, "id = ?", messageID).Error; err != nil {
			return notFound(err)
		}
		out.ConversationID = msg.ConversationID

		var existing model.Reaction
		found := tx.
			Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
			Limit(1).
			Find(&existing)
		if found.Error != nil {
			return found.Error
		}

		if found.RowsAffected > 0 {
			del := tx.Where("id = ?", existing.ID).Delete(&model.Reaction{})
			if del.Error != nil {
				return del.Error
			}
			if del.RowsAffected == 0 {
				return errToggleRaced
			}
			out.Reaction = existing
			return nil
		}

		r := model.Reaction{
			ID:        uuid.NewString(),
			MessageID: messageID,
			UserID:    userID,
			Emoji:     emoji,
			CreatedAt: s.now(),
		}
		if err := tx.Omit(clause.Associations).Create(&r).Error; err != nil {
			return err
		}
		if err := tx.Preload("User").First(&r, "id = ?", r.ID).Error; err != nil {
			return err
		}
		out.Added = true
		out.Reaction = r
		return nil
	})
	return out, err
}
