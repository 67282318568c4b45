package storage

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/jpresto/eventpass/internal/models"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) ListAll() ([]models.User, error) {
	var users []models.User
	err := s.db.Find(&users).Error
	return users, err
}

func (s *UserStore) ListByEducationLevel(level models.EducationLevel) ([]models.User, error) {
	var users []models.User
	err := s.db.Where("education_level = ?", level).Find(&users).Error
	return users, err
}

// ListCollege filters College users, optionally narrowed to one course.
// Departments are stored upper-cased, but both sides are upper-cased in the
// query so a stray lower-case row still matches.
func (s *UserStore) ListCollege(course string) ([]models.User, error) {
	query := s.db.Where("education_level = ?", models.LevelCollege)
	if course = strings.TrimSpace(course); course != "" {
		query = query.Where("UPPER(department) = UPPER(?)", course)
	}

	var users []models.User
	err := query.Find(&users).Error
	return users, err
}

// FindByCard returns (nil, nil) when the card id is unknown.
func (s *UserStore) FindByCard(cardID string) (*models.User, error) {
	var user models.User
	err := s.db.Where("rfid_card_id = ?", cardID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
