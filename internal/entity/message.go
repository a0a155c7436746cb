package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a direct parent/observer message, optionally tied to a
// student. Delivery fan-out happens over Redis pub/sub; the row here is the
// durable copy.
type Message struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"sender_id"`
	SenderRole    string     `gorm:"size:20;not null" json:"sender_role"`
	RecipientID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"recipient_id"`
	RecipientRole string     `gorm:"size:20;not null" json:"recipient_role"`
	StudentID     *uuid.UUID `gorm:"type:uuid;index" json:"student_id,omitempty"`
	Body          string     `gorm:"type:text;not null" json:"body"`
	Read          bool       `gorm:"default:false;index" json:"read"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
