package notify

import (
	"context"

	"github.com/uptrace/bun"

	"ms-marketplace/internal/models"
)

// Store reads and flips the durable notification rows the ledger writes.
type Store struct {
	Bun *bun.DB
}

func NewStore(bunDB *bun.DB) *Store {
	return &Store{Bun: bunDB}
}

func (s *Store) ListByUser(userID string, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	q := s.Bun.NewSelect().
		Model(&notifications).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if err := q.Scan(context.Background()); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *Store) MarkRead(userID, notificationID string) error {
	_, err := s.Bun.NewUpdate().
		Model((*models.Notification)(nil)).
		Set("is_read = ?", true).
		Where("notification_id = ?", notificationID).
		Where("user_id = ?", userID).
		Exec(context.Background())
	return err
}

func (s *Store) MarkAllRead(userID string) error {
	_, err := s.Bun.NewUpdate().
		Model((*models.Notification)(nil)).
		Set("is_read = ?", true).
		Where("user_id = ?", userID).
		Where("is_read = ?", false).
		Exec(context.Background())
	return err
}

func (s *Store) UnreadCount(userID string) (int, error) {
	return s.Bun.NewSelect().
		Model((*models.Notification)(nil)).
		Where("user_id = ?", userID).
		Where("is_read = ?", false).
		Count(context.Background())
}
