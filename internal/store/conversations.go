package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tyrowin/chatrelay/internal/model"
)

// CreateConversation inserts a conversation with the given participants.
func (s *Store) CreateConversation(ctx context.Context, c model.Conversation, userIDs ...string) (model.Conversation, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Participants = nil

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&c).Error; err != nil {
			return err
		}
		for _, userID := range lo.Uniq(userIDs) {
			p := model.Participant{ConversationID: c.ID, UserID: userID}
			if err := tx.Omit(clause.Associations).Create(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return s.Conversation(ctx, c.ID)
}

// Conversation returns the conversation with its current participants.
func (s *Store) Conversation(ctx context.Context, id string) (model.Conversation, error) {
	var c model.Conversation
	err := s.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("user_id") }).
		First(&c, "id = ?", id).Error
	if err != nil {
		return model.Conversation{}, notFound(err)
	}
	return c, nil
}

// RemoveParticipant drops a user from a conversation.
func (s *Store) RemoveParticipant(ctx context.Context, conversationID, userID string) error {
	res := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&model.Participant{})
	if res.Error != nil {
		return fmt.Errorf("remove participant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
