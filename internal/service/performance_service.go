package service

import (
	"context"
	"time"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/repository"
)

const performanceWindow = 30 * 24 * time.Hour

// Consistency-score cut points for the rating buckets.
const (
	excellentThreshold = 85
	goodThreshold      = 60
)

type PerformanceService interface {
	ObserverReport(ctx context.Context, school string) ([]*dto.ObserverPerformance, error)
}

type performanceService struct {
	accounts repository.AccountRepository
	students repository.StudentRepository
	sessions repository.SessionRepository
	now      func() time.Time
}

func NewPerformanceService(accounts repository.AccountRepository, students repository.StudentRepository, sessions repository.SessionRepository) PerformanceService {
	return &performanceService{
		accounts: accounts,
		students: students,
		sessions: sessions,
		now:      time.Now,
	}
}

// ObserverReport aggregates each observer's trailing-30-day activity into a
// rating bucket. Purely descriptive; assignment never consults it.
func (s *performanceService) ObserverReport(ctx context.Context, school string) ([]*dto.ObserverPerformance, error) {
	observers, err := s.accounts.ListActiveObserversBySchool(ctx, school)
	if err != nil {
		return nil, err
	}

	counts, err := s.students.AssignedCounts(ctx, school)
	if err != nil {
		return nil, err
	}

	stats, err := s.sessions.StatsByObserverSince(ctx, school, s.now().Add(-performanceWindow))
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ObserverPerformance, 0, len(observers))
	for _, obs := range observers {
		st := stats[obs.ID]
		score := consistencyScore(st.Completed, st.Scheduled)

		out = append(out, &dto.ObserverPerformance{
			Observer:         obs,
			AssignedCount:    counts[obs.ID],
			SessionsHeld:     st.Completed,
			ConsistencyScore: score,
			Rating:           rating(score),
		})
	}
	return out, nil
}

// consistencyScore is the completed/scheduled ratio as a percentage. An
// observer with nothing scheduled hasn't missed anything, so they score 100.
func consistencyScore(completed, scheduled int64) int {
	if scheduled == 0 {
		return 100
	}
	return int(completed * 100 / scheduled)
}

func rating(score int) string {
	switch {
	case score >= excellentThreshold:
		return dto.PerformanceExcellent
	case score >= goodThreshold:
		return dto.PerformanceGood
	default:
		return dto.PerformanceNeedsAttention
	}
}
