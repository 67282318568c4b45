package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EducationLevel string

const (
	LevelElementary EducationLevel = "Elementary"
	LevelHighSchool EducationLevel = "High School"
	LevelSeniorHigh EducationLevel = "Senior High School"
	LevelCollege    EducationLevel = "College"
)

type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name           string         `gorm:"not null" json:"name"`
	Email          string         `gorm:"unique;not null" json:"email"`
	Password       string         `gorm:"not null" json:"-"`
	EducationLevel EducationLevel `gorm:"not null" json:"education_level"`
	// Department is only meaningful for College users and is stored
	// upper-cased so course targeting can compare it directly.
	Department string    `json:"department"`
	RFIDCardID *string   `gorm:"unique" json:"rfid_card_id"`
	PrintedID  *string   `json:"printed_id"`
	RoleID     uuid.UUID `gorm:"type:uuid" json:"role_id"`
	Role       Role      `json:"role,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return
}
