package service

import (
	"context"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/google/uuid"
)

// AssignmentService is the principal-only workflow matching unassigned
// students to observers with spare capacity. Everything is scoped to the
// principal's school.
type AssignmentService interface {
	ListUnassigned(ctx context.Context, school string) ([]*entity.Student, error)
	ListAvailableObservers(ctx context.Context, school string) ([]*dto.ObserverAvailability, error)
	Assign(ctx context.Context, school string, studentID, observerID uuid.UUID) (*dto.AssignResult, error)
	Unassign(ctx context.Context, school string, studentID uuid.UUID) (*entity.Student, error)
}

type assignmentService struct {
	students repository.StudentRepository
	accounts repository.AccountRepository
}

func NewAssignmentService(students repository.StudentRepository, accounts repository.AccountRepository) AssignmentService {
	return &assignmentService{
		students: students,
		accounts: accounts,
	}
}

func (s *assignmentService) ListUnassigned(ctx context.Context, school string) ([]*entity.Student, error) {
	return s.students.ListUnassigned(ctx, school)
}

// ListAvailableObservers recounts assignments on every call, so the report
// is consistent with the student collection at the moment of the call.
func (s *assignmentService) ListAvailableObservers(ctx context.Context, school string) ([]*dto.ObserverAvailability, error) {
	observers, err := s.accounts.ListActiveObserversBySchool(ctx, school)
	if err != nil {
		return nil, err
	}

	counts, err := s.students.AssignedCounts(ctx, school)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ObserverAvailability, 0, len(observers))
	for _, obs := range observers {
		count := counts[obs.ID]
		free := int64(obs.Capacity) - count
		if free < 0 {
			free = 0
		}
		out = append(out, &dto.ObserverAvailability{
			Observer:      obs,
			AssignedCount: count,
			Capacity:      obs.Capacity,
			FreeSlots:     free,
		})
	}
	return out, nil
}

func (s *assignmentService) Assign(ctx context.Context, school string, studentID, observerID uuid.UUID) (*dto.AssignResult, error) {
	student, newCount, err := s.students.Assign(ctx, school, studentID, observerID)
	if err != nil {
		return nil, err
	}

	free := int64(student.Observer.Capacity) - newCount
	if free < 0 {
		free = 0
	}

	return &dto.AssignResult{
		Student: student,
		Observer: &dto.ObserverAvailability{
			Observer:      student.Observer,
			AssignedCount: newCount,
			Capacity:      student.Observer.Capacity,
			FreeSlots:     free,
		},
	}, nil
}

func (s *assignmentService) Unassign(ctx context.Context, school string, studentID uuid.UUID) (*entity.Student, error) {
	return s.students.Unassign(ctx, school, studentID)
}
