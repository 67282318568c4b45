package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttendanceStatus string

const (
	AttendancePending AttendanceStatus = "pending"
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Attendance records one user's check-in state for one event. The composite
// unique index keeps at most one row per (user, event) pair; the row is
// created on the first join/decline/tap and mutated in place after that.
type Attendance struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_user_event" json:"user_id"`
	EventID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_user_event" json:"event_id"`
	User          *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Event         *Event           `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Status        AttendanceStatus `gorm:"not null;default:'pending'" json:"status"`
	CheckedInAt   *time.Time       `json:"checked_in_at"`
	DeclinedAt    *time.Time       `json:"declined_at"`
	Reason        string           `json:"reason"`
	EvidenceImage string           `json:"evidence_image"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (attendance *Attendance) BeforeCreate(tx *gorm.DB) (err error) {
	if attendance.ID == uuid.Nil {
		attendance.ID = uuid.New()
	}
	return
}
