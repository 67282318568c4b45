package storage

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jpresto/eventpass/internal/models"
)

type AttendanceStore struct {
	db *gorm.DB
}

func NewAttendanceStore(db *gorm.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

// Find returns (nil, nil) when no record exists for the pair.
func (s *AttendanceStore) Find(userID, eventID uuid.UUID) (*models.Attendance, error) {
	var record models.Attendance
	err := s.db.Where("user_id = ? AND event_id = ?", userID, eventID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *AttendanceStore) Create(record *models.Attendance) error {
	return s.db.Create(record).Error
}

func (s *AttendanceStore) Save(record *models.Attendance) error {
	return s.db.Save(record).Error
}
