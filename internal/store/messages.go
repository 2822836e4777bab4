package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tyrowin/chatrelay/internal/model"
)

func withMessageRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sender").
		Preload("Reactions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Reactions.User")
}

// CreateMessage persists a new message with an empty reaction set and
// returns it with its sender loaded.
func (s *Store) CreateMessage(ctx context.Context, msg model.Message) (model.Message, error) {
	msg.ID = uuid.NewString()
	msg.CreatedAt = s.now()
	msg.Reactions = nil

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&msg).Error; err != nil {
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}
	return s.MessageByID(ctx, msg.ID)
}

// MessageByID returns a message with its sender and reactions.
func (s *Store) MessageByID(ctx context.Context, id string) (model.Message, error) {
	var msg model.Message
	if err := withMessageRelations(s.db.WithContext(ctx)).First(&msg, "id = ?", id).Error; err != nil {
		return model.Message{}, notFound(err)
	}
	if msg.Reactions == nil {
		msg.Reactions = []model.Reaction{}
	}
	return msg, nil
}

// DeleteMessage removes a message and its reactions when userID sent it.
// It returns ErrNotFound for unknown messages and ErrNotOwner otherwise.
func (s *Store) DeleteMessage(ctx context.Context, messageID, userID string) (model.Message, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&msg, "id = ?", messageID).Error; err != nil {
			return notFound(err)
		}
		if msg.SenderID != userID {
			return ErrNotOwner
		}
		if err := tx.Where("message_id = ?", messageID).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", messageID).Delete(&model.Message{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotOwner) {
			return model.Message{}, err
		}
		return model.Message{}, fmt.Errorf("delete message %s: %w", messageID, err)
	}
	return msg, nil
}

// CountReactions returns how many reactions exist for the triple. It is
// zero or one while the unique index holds.
func (s *Store) CountReactions(ctx context.Context, messageID, userID, emoji string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.Reaction{}).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Count(&n).Error
	return n, err
}

// CountMessages returns the number of messages stored for a conversation.
func (s *Store) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&n).Error
	return n, err
}
