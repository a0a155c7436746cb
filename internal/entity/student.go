package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Student is the enrolled child. ObserverID is nullable: a student without
// an observer is "unassigned" and shows up in the principal's assignment
// queue. The observer-capacity invariant is checked by the assignment
// workflow, not here.
type Student struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FullName    string     `gorm:"size:100;not null" json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	School      string     `gorm:"size:100;index;not null" json:"school"`
	Grade       string     `gorm:"size:20" json:"grade"`
	ObserverID  *uuid.UUID `gorm:"type:uuid;index" json:"observer_id,omitempty"`
	Observer    *Observer  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"observer,omitempty"`
	Parents     []*Parent  `gorm:"many2many:parent_students" json:"parents,omitempty"`
	Active      bool       `gorm:"default:true" json:"active"`
	EnrolledAt  time.Time  `gorm:"autoCreateTime" json:"enrolled_at"`
}

func (Student) TableName() string {
	return "children"
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
