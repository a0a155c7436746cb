package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateThreadRequest struct {
	Title   string `json:"title" binding:"required,min=3,max=200"`
	Content string `json:"content" binding:"required,min=3"`
}

type CreatePostRequest struct {
	Content       string  `json:"content" binding:"required,min=1"`
	AttachmentURL *string `json:"attachment_url,omitempty"`
}

type ThreadFilter struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Query string `form:"q"`
}

type SendMessageRequest struct {
	RecipientID   uuid.UUID  `json:"recipient_id" binding:"required"`
	RecipientRole string     `json:"recipient_role" binding:"required,oneof=parent observer"`
	StudentID     *uuid.UUID `json:"student_id,omitempty"`
	Body          string     `json:"body" binding:"required,min=1"`
}

type CreateGroupSessionRequest struct {
	Title       string    `json:"title" binding:"required,min=3,max=200"`
	Description *string   `json:"description,omitempty"`
	School      string    `json:"school" binding:"required,max=100"`
	Capacity    int       `json:"capacity" binding:"required,min=1"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type RegisterGroupRequest struct {
	StudentID uuid.UUID `json:"student_id" binding:"required"`
}

type AuditQuery struct {
	ActorID *uuid.UUID `form:"actor_id"`
	Action  string     `form:"action"`
	From    *time.Time `form:"from" time_format:"2006-01-02"`
	To      *time.Time `form:"to" time_format:"2006-01-02"`
	Limit   int        `form:"limit"`
	Offset  int        `form:"offset"`
}
