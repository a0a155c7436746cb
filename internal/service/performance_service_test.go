package service

import (
	"context"
	"testing"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
)

func TestConsistencyScore(t *testing.T) {
	cases := []struct {
		name      string
		completed int64
		scheduled int64
		want      int
	}{
		{"all held", 10, 10, 100},
		{"most held", 17, 20, 85},
		{"just good", 6, 10, 60},
		{"poor", 1, 10, 10},
		{"nothing scheduled", 0, 0, 100},
		{"truncates", 2, 3, 66},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := consistencyScore(tc.completed, tc.scheduled); got != tc.want {
				t.Errorf("consistencyScore(%d, %d) = %d, want %d", tc.completed, tc.scheduled, got, tc.want)
			}
		})
	}
}

func TestRatingBuckets(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, dto.PerformanceExcellent},
		{85, dto.PerformanceExcellent},
		{84, dto.PerformanceGood},
		{60, dto.PerformanceGood},
		{59, dto.PerformanceNeedsAttention},
		{0, dto.PerformanceNeedsAttention},
	}
	for _, tc := range cases {
		if got := rating(tc.score); got != tc.want {
			t.Errorf("rating(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestObserverReport(t *testing.T) {
	accounts := newFakeAccountRepo()
	steady := &entity.Observer{Email: "steady@greenwood.edu", FullName: "Steady", School: testSchool, Capacity: 5, Active: true}
	slipping := &entity.Observer{Email: "slipping@greenwood.edu", FullName: "Slipping", School: testSchool, Capacity: 5, Active: true}
	idle := &entity.Observer{Email: "idle@greenwood.edu", FullName: "Idle", School: testSchool, Capacity: 5, Active: true}
	for _, o := range []*entity.Observer{steady, slipping, idle} {
		if err := accounts.CreateObserver(context.Background(), o); err != nil {
			t.Fatalf("seed observer: %v", err)
		}
	}

	students := newFakeStudentRepo(accounts)
	sessions := newFakeSessionRepo()
	sessions.stats[steady.ID] = repository.ObserverSessionStats{ObserverID: steady.ID, Scheduled: 20, Completed: 19}
	sessions.stats[slipping.ID] = repository.ObserverSessionStats{ObserverID: slipping.ID, Scheduled: 10, Completed: 4}

	svc := NewPerformanceService(accounts, students, sessions)
	report, err := svc.ObserverReport(context.Background(), testSchool)
	if err != nil {
		t.Fatalf("observer report: %v", err)
	}
	if len(report) != 3 {
		t.Fatalf("got %d rows, want 3", len(report))
	}

	byEmail := make(map[string]*dto.ObserverPerformance)
	for _, row := range report {
		byEmail[row.Observer.Email] = row
	}

	if got := byEmail["steady@greenwood.edu"]; got.Rating != dto.PerformanceExcellent || got.ConsistencyScore != 95 {
		t.Errorf("steady: score=%d rating=%q, want 95/excellent", got.ConsistencyScore, got.Rating)
	}
	if got := byEmail["slipping@greenwood.edu"]; got.Rating != dto.PerformanceNeedsAttention || got.ConsistencyScore != 40 {
		t.Errorf("slipping: score=%d rating=%q, want 40/needs-attention", got.ConsistencyScore, got.Rating)
	}
	// No sessions scheduled means nothing missed.
	if got := byEmail["idle@greenwood.edu"]; got.Rating != dto.PerformanceExcellent || got.ConsistencyScore != 100 {
		t.Errorf("idle: score=%d rating=%q, want 100/excellent", got.ConsistencyScore, got.Rating)
	}
}
