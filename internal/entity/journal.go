package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GoalActive    = "active"
	GoalAchieved  = "achieved"
	GoalAbandoned = "abandoned"
)

type Goal struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"student_id"`
	CreatedByRole string     `gorm:"size:20;not null" json:"created_by_role"`
	CreatedByID   uuid.UUID  `gorm:"type:uuid;not null" json:"created_by_id"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Description   *string    `gorm:"type:text" json:"description,omitempty"`
	Progress      int        `gorm:"default:0" json:"progress"`
	Status        string     `gorm:"size:20;default:active" json:"status"`
	TargetDate    *time.Time `json:"target_date,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// MoodEntry scores run 1 (very low) to 10. Entries scoring at or below the
// safety threshold are flagged at write time and surfaced on the admin
// safety dashboard.
type MoodEntry struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID      uuid.UUID `gorm:"type:uuid;index;not null" json:"student_id"`
	RecordedByRole string    `gorm:"size:20;not null" json:"recorded_by_role"`
	RecordedByID   uuid.UUID `gorm:"type:uuid;not null" json:"recorded_by_id"`
	Score          int       `gorm:"not null" json:"score"`
	Emotion        string    `gorm:"size:50" json:"emotion"`
	Note           *string   `gorm:"type:text" json:"note,omitempty"`
	Flagged        bool      `gorm:"default:false;index" json:"flagged"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (m *MoodEntry) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
