package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID       uuid.UUID `gorm:"type:uuid;index;not null" json:"student_id"`
	ObserverID      uuid.UUID `gorm:"type:uuid;index;not null" json:"observer_id"`
	ScheduledAt     time.Time `gorm:"index;not null" json:"scheduled_at"`
	DurationMinutes int       `gorm:"default:30" json:"duration_minutes"`
	Status          string    `gorm:"size:20;default:scheduled" json:"status"`
	Notes           *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// SessionNote is the observer's record of a check-in. Parents only see
// notes the observer marked as shared.
type SessionNote struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID        uuid.UUID `gorm:"type:uuid;index;not null" json:"student_id"`
	ObserverID       uuid.UUID `gorm:"type:uuid;index;not null" json:"observer_id"`
	SessionDate      time.Time `gorm:"index;not null" json:"session_date"`
	Summary          string    `gorm:"type:text;not null" json:"summary"`
	SharedWithParent bool      `gorm:"default:false" json:"shared_with_parent"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (n *SessionNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
