package dto

import (
	"time"

	"github.com/google/uuid"
)

type DateRangeQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

type BookAppointmentRequest struct {
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,min=10,max=180"`
}

type CompleteAppointmentRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type CreateSessionNoteRequest struct {
	SessionDate      time.Time `json:"session_date" binding:"required"`
	Summary          string    `json:"summary" binding:"required,min=3"`
	SharedWithParent bool      `json:"shared_with_parent"`
}

type UpdateSessionNoteRequest struct {
	Summary          *string `json:"summary,omitempty" binding:"omitempty,min=3"`
	SharedWithParent *bool   `json:"shared_with_parent,omitempty"`
}

type CreateGoalRequest struct {
	Title       string     `json:"title" binding:"required,min=3,max=200"`
	Description *string    `json:"description,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
}

type UpdateGoalProgressRequest struct {
	Progress *int    `json:"progress" binding:"required,min=0,max=100"`
	Status   *string `json:"status,omitempty" binding:"omitempty,oneof=active achieved abandoned"`
}

type CreateMoodEntryRequest struct {
	Score   int     `json:"score" binding:"required,min=1,max=10"`
	Emotion string  `json:"emotion" binding:"required,max=50"`
	Note    *string `json:"note,omitempty"`
}

type RequestConsultationRequest struct {
	StudentID uuid.UUID `json:"student_id" binding:"required"`
	Topic     string    `json:"topic" binding:"required,min=3,max=200"`
}

type ScheduleConsultationRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type CompleteConsultationRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type EnrollStudentRequest struct {
	FullName    string     `json:"full_name" binding:"required,min=2,max=100"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	School      string     `json:"school" binding:"required,max=100"`
	Grade       string     `json:"grade" binding:"omitempty,max=20"`
	ParentIDs   []uuid.UUID `json:"parent_ids,omitempty"`
}

type UpdateStudentRequest struct {
	FullName *string `json:"full_name,omitempty" binding:"omitempty,min=2,max=100"`
	School   *string `json:"school,omitempty" binding:"omitempty,max=100"`
	Grade    *string `json:"grade,omitempty" binding:"omitempty,max=20"`
}

type LinkParentRequest struct {
	ParentID uuid.UUID `json:"parent_id" binding:"required"`
}

type RecordPaymentRequest struct {
	ParentID    uuid.UUID  `json:"parent_id" binding:"required"`
	StudentID   *uuid.UUID `json:"student_id,omitempty"`
	Amount      int64      `json:"amount" binding:"required,min=1"`
	Currency    string     `json:"currency" binding:"omitempty,len=3"`
	Description string     `json:"description" binding:"omitempty,max=200"`
	Status      string     `json:"status" binding:"omitempty,oneof=pending paid failed refunded"`
}
