package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm/clause"

	"github.com/Tyrowin/chatrelay/internal/model"
)

// CreateUser inserts a user, generating an id when none is given.
func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&u).Error; err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UserByID returns the user with the given id or ErrNotFound.
func (s *Store) UserByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return model.User{}, notFound(err)
	}
	return u, nil
}

// SetPresence records the online flag and last-active time of a user.
func (s *Store) SetPresence(ctx context.Context, userID string, online bool, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"is_online": online, "last_active": at})
	if res.Error != nil {
		return fmt.Errorf("set presence of %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPresence marks every user offline and returns how many were online.
func (s *Store) ResetPresence(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("is_online = ?", true).
		Update("is_online", false)
	if res.Error != nil {
		return 0, fmt.Errorf("reset presence: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UserStatuses returns the presence of the given users, or of every user
// when ids is nil. Unknown ids are skipped.
func (s *Store) UserStatuses(ctx context.Context, ids []string) ([]model.UserStatus, error) {
	if ids != nil && len(ids) == 0 {
		return []model.UserStatus{}, nil
	}

	q := s.db.WithContext(ctx).
		Model(&model.User{}).
		Select("id", "is_online", "last_active").
		Order("id")
	if ids != nil {
		q = q.Where("id IN ?", lo.Uniq(ids))
	}

	var users []model.User
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list user statuses: %w", err)
	}

	now := s.now()
	return lo.Map(users, func(u model.User, _ int) model.UserStatus {
		last := now
		if u.LastActive != nil {
			last = *u.LastActive
		}
		return model.UserStatus{UserID: u.ID, IsOnline: u.IsOnline, LastActive: last}
	}), nil
}
