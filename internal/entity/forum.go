package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ForumThread struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID   uuid.UUID    `gorm:"type:uuid;index;not null" json:"author_id"`
	AuthorRole string       `gorm:"size:20;not null" json:"author_role"`
	AuthorName string       `gorm:"size:100;not null" json:"author_name"`
	Title      string       `gorm:"size:200;not null" json:"title"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
	Posts      []*ForumPost `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
}

func (t *ForumThread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type ForumPost struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID      uuid.UUID `gorm:"type:uuid;index;not null" json:"thread_id"`
	AuthorID      uuid.UUID `gorm:"type:uuid;index;not null" json:"author_id"`
	AuthorRole    string    `gorm:"size:20;not null" json:"author_role"`
	AuthorName    string    `gorm:"size:100;not null" json:"author_name"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	AttachmentURL *string   `gorm:"type:text" json:"attachment_url,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *ForumPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
