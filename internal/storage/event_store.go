// Package storage provides the GORM-backed implementations of the narrow
// store interfaces the core services accept.
package storage

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jpresto/eventpass/internal/models"
)

type EventStore struct {
	db *gorm.DB
}

func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) ListActive() ([]models.Event, error) {
	var events []models.Event
	err := s.db.Where("status <> ?", models.StatusCancelled).Find(&events).Error
	return events, err
}

func (s *EventStore) UpdateStatus(id uuid.UUID, status models.EventStatus) error {
	return s.db.Model(&models.Event{}).Where("id = ?", id).Update("status", status).Error
}
