package service

import (
	"context"
	"time"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
)

// Mood scores at or below this are flagged for the safety dashboard.
const moodFlagThreshold = 3

type JournalService interface {
	CreateGoal(ctx context.Context, actorRole string, actorID, studentID uuid.UUID, req dto.CreateGoalRequest) (*entity.Goal, error)
	UpdateGoalProgress(ctx context.Context, actorRole string, actorID, goalID uuid.UUID, req dto.UpdateGoalProgressRequest) (*entity.Goal, error)
	ListGoals(ctx context.Context, actorRole string, actorID, studentID uuid.UUID) ([]*entity.Goal, error)

	RecordMood(ctx context.Context, actorRole string, actorID, studentID uuid.UUID, req dto.CreateMoodEntryRequest) (*entity.MoodEntry, error)
	ListMoods(ctx context.Context, actorRole string, actorID, studentID uuid.UUID, from, to *time.Time) ([]*entity.MoodEntry, error)
}

type journalService struct {
	journal  repository.JournalRepository
	students repository.StudentRepository
}

func NewJournalService(journal repository.JournalRepository, students repository.StudentRepository) JournalService {
	return &journalService{
		journal:  journal,
		students: students,
	}
}

func (s *journalService) CreateGoal(ctx context.Context, actorRole string, actorID, studentID uuid.UUID, req dto.CreateGoalRequest) (*entity.Goal, error) {
	if err := s.requireScope(ctx, actorRole, actorID, studentID); err != nil {
		return nil, err
	}

	goal := &entity.Goal{
		StudentID:     studentID,
		CreatedByRole: actorRole,
		CreatedByID:   actorID,
		Title:         req.Title,
		Description:   req.Description,
		TargetDate:    req.TargetDate,
		Status:        entity.GoalActive,
	}
	if err := s.journal.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *journalService) UpdateGoalProgress(ctx context.Context, actorRole string, actorID, goalID uuid.UUID, req dto.UpdateGoalProgressRequest) (*entity.Goal, error) {
	goal, err := s.journal.FindGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if err := s.requireScope(ctx, actorRole, actorID, goal.StudentID); err != nil {
		return nil, err
	}

	goal.Progress = *req.Progress
	if req.Status != nil {
		goal.Status = *req.Status
	} else if goal.Progress == 100 {
		goal.Status = entity.GoalAchieved
	}

	if err := s.journal.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *journalService) ListGoals(ctx context.Context, actorRole string, actorID, studentID uuid.UUID) ([]*entity.Goal, error) {
	if err := s.requireScope(ctx, actorRole, actorID, studentID); err != nil {
		return nil, err
	}
	return s.journal.ListGoalsByStudent(ctx, studentID)
}

func (s *journalService) RecordMood(ctx context.Context, actorRole string, actorID, studentID uuid.UUID, req dto.CreateMoodEntryRequest) (*entity.MoodEntry, error) {
	if err := s.requireScope(ctx, actorRole, actorID, studentID); err != nil {
		return nil, err
	}

	entry := &entity.MoodEntry{
		StudentID:      studentID,
		RecordedByRole: actorRole,
		RecordedByID:   actorID,
		Score:          req.Score,
		Emotion:        req.Emotion,
		Note:           req.Note,
		Flagged:        req.Score <= moodFlagThreshold,
	}
	if err := s.journal.CreateMoodEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *journalService) ListMoods(ctx context.Context, actorRole string, actorID, studentID uuid.UUID, from, to *time.Time) ([]*entity.MoodEntry, error) {
	if err := s.requireScope(ctx, actorRole, actorID, studentID); err != nil {
		return nil, err
	}
	return s.journal.ListMoodsByStudent(ctx, studentID, from, to)
}

func (s *journalService) requireScope(ctx context.Context, actorRole string, actorID, studentID uuid.UUID) error {
	switch actorRole {
	case entity.RoleParent:
		ok, err := s.students.IsParentOf(ctx, actorID, studentID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.ErrNotFound
		}
		return nil
	case entity.RoleObserver:
		student, err := s.students.FindByID(ctx, studentID)
		if err != nil {
			return err
		}
		if student.ObserverID == nil || *student.ObserverID != actorID {
			return apperror.ErrNotFound
		}
		return nil
	}
	return apperror.ErrForbidden
}
