package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ConsultationRequested = "requested"
	ConsultationScheduled = "scheduled"
	ConsultationCompleted = "completed"
	ConsultationCancelled = "cancelled"
)

// Consultation is a meeting between a principal and a parent about a
// student's progress.
type Consultation struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"student_id"`
	ParentID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"parent_id"`
	PrincipalID *uuid.UUID `gorm:"type:uuid;index" json:"principal_id,omitempty"`
	Topic       string     `gorm:"size:200;not null" json:"topic"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Status      string     `gorm:"size:20;default:requested" json:"status"`
	Notes       *string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Consultation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Payment amounts are stored in minor units (cents).
type Payment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ParentID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"parent_id"`
	StudentID   *uuid.UUID `gorm:"type:uuid;index" json:"student_id,omitempty"`
	Amount      int64      `gorm:"not null" json:"amount"`
	Currency    string     `gorm:"size:3;default:USD" json:"currency"`
	Description string     `gorm:"size:200" json:"description"`
	Status      string     `gorm:"size:20;default:pending;index" json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
