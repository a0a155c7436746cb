package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog rows are append-only; every admin mutation writes one.
type AuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActorRole string    `gorm:"size:20;index;not null" json:"actor_role"`
	ActorID   uuid.UUID `gorm:"type:uuid;index;not null" json:"actor_id"`
	Action    string    `gorm:"size:50;index;not null" json:"action"`
	Entity    string    `gorm:"size:50;not null" json:"entity"`
	EntityID  string    `gorm:"size:64" json:"entity_id"`
	Detail    *string   `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

const (
	ReportPending = "pending"
	ReportReady   = "ready"
	ReportFailed  = "failed"
)

// ReportDraft is an AI-drafted progress summary. Generation runs as a
// detached task; Status tracks its outcome.
type ReportDraft struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID     uuid.UUID `gorm:"type:uuid;index;not null" json:"student_id"`
	RequestedBy   uuid.UUID `gorm:"type:uuid;not null" json:"requested_by"`
	RequestedRole string    `gorm:"size:20;not null" json:"requested_role"`
	Status        string    `gorm:"size:20;default:pending" json:"status"`
	Content       *string   `gorm:"type:text" json:"content,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *ReportDraft) TableName() string {
	return "reports"
}

func (r *ReportDraft) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
