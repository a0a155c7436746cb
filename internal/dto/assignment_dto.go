package dto

import (
	"github.com/calmroots/backend/internal/entity"
	"github.com/google/uuid"
)

type AssignRequest struct {
	StudentID  uuid.UUID `json:"student_id" binding:"required"`
	ObserverID uuid.UUID `json:"observer_id" binding:"required"`
}

// ObserverAvailability is a point-in-time load snapshot; counts are
// recomputed on every call, never cached.
type ObserverAvailability struct {
	Observer      *entity.Observer `json:"observer"`
	AssignedCount int64            `json:"assigned_count"`
	Capacity      int              `json:"capacity"`
	FreeSlots     int64            `json:"free_slots"`
}

type AssignResult struct {
	Student  *entity.Student       `json:"student"`
	Observer *ObserverAvailability `json:"observer"`
}

const (
	PerformanceExcellent      = "excellent"
	PerformanceGood           = "good"
	PerformanceNeedsAttention = "needs-attention"
)

// ObserverPerformance is descriptive reporting over the trailing 30-day
// window; it feeds no control logic.
type ObserverPerformance struct {
	Observer         *entity.Observer `json:"observer"`
	AssignedCount    int64            `json:"assigned_count"`
	SessionsHeld     int64            `json:"sessions_held"`
	ConsistencyScore int              `json:"consistency_score"`
	Rating           string           `json:"rating"`
}
