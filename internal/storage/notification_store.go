package storage

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jpresto/eventpass/internal/models"
)

type NotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// CreateIfAbsent leans on the (user_id, event_id) unique index: a conflict
// means a row already exists and the insert becomes a no-op, which makes
// created-mode dispatch idempotent even across concurrent triggers.
func (s *NotificationStore) CreateIfAbsent(notification *models.Notification) (bool, error) {
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
		DoNothing: true,
	}).Create(notification)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Replace deletes any existing row for the pair and inserts the fresh one
// inside a single transaction, so no observer sees the pair settle at zero
// rows and simultaneous update triggers cannot double-insert.
func (s *NotificationStore) Replace(notification *models.Notification) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND event_id = ?", notification.UserID, notification.EventID).
			Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Create(notification).Error
	})
}
