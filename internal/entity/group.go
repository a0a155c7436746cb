package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GroupSession capacity is enforced the same way observer capacity is: a
// conditional check inside the registration transaction.
type GroupSession struct {
	ID            uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string               `gorm:"size:200;not null" json:"title"`
	Description   *string              `gorm:"type:text" json:"description,omitempty"`
	School        string               `gorm:"size:100;index;not null" json:"school"`
	HostID        uuid.UUID            `gorm:"type:uuid;not null" json:"host_id"`
	HostRole      string               `gorm:"size:20;not null" json:"host_role"`
	Capacity      int                  `gorm:"not null" json:"capacity"`
	ScheduledAt   time.Time            `gorm:"index;not null" json:"scheduled_at"`
	CreatedAt     time.Time            `gorm:"autoCreateTime" json:"created_at"`
	Registrations []*GroupRegistration `gorm:"foreignKey:GroupSessionID;constraint:OnDelete:CASCADE" json:"registrations,omitempty"`
}

func (g *GroupSession) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type GroupRegistration struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupSessionID uuid.UUID `gorm:"type:uuid;index:idx_group_student,unique;not null" json:"group_session_id"`
	StudentID      uuid.UUID `gorm:"type:uuid;index:idx_group_student,unique;not null" json:"student_id"`
	ParentID       uuid.UUID `gorm:"type:uuid;index;not null" json:"parent_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *GroupRegistration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
