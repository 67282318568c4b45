package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

type TargetAudience string

const (
	AudienceAllStudents TargetAudience = "all_students"
	AudienceElementary  TargetAudience = "elementary"
	AudienceHighSchool  TargetAudience = "high_school"
	AudienceSeniorHigh  TargetAudience = "senior_high"
	AudienceCollege     TargetAudience = "college"
)

// AllCollegeSentinel marks a college event open to every course. It is
// normalized to a NULL course at write time and must never be stored.
const AllCollegeSentinel = "all_college"

type Event struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `gorm:"not null" json:"description"`
	StartTime      time.Time      `gorm:"not null" json:"start_time"`
	EndTime        time.Time      `gorm:"not null" json:"end_time"`
	Location       string         `gorm:"not null" json:"location"`
	Status         EventStatus    `gorm:"not null;default:'upcoming';index" json:"status"`
	TargetAudience TargetAudience `gorm:"not null" json:"target_audience"`
	Course         *string        `json:"course"`
	VenueID        *uuid.UUID     `gorm:"type:uuid" json:"venue_id"`
	Venue          *Venue         `gorm:"foreignKey:VenueID" json:"venue,omitempty"`
	CategoryID     *uuid.UUID     `gorm:"type:uuid" json:"category_id"`
	Category       *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	OrganizerID    uuid.UUID      `gorm:"type:uuid;not null" json:"organizer_id"`
	Organizer      *User          `gorm:"foreignKey:OrganizerID" json:"organizer,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}

// NormalizeCourse enforces the course rules at write time: a course only
// means anything for college events, and the "all_college" sentinel stands
// for "no course restriction" so it is collapsed to nil rather than stored.
func (event *Event) NormalizeCourse() {
	if event.TargetAudience != AudienceCollege || event.Course == nil {
		event.Course = nil
		return
	}
	course := strings.ToUpper(strings.TrimSpace(*event.Course))
	if course == "" || strings.EqualFold(course, AllCollegeSentinel) {
		event.Course = nil
		return
	}
	event.Course = &course
}
