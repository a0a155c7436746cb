package service

import (
	"context"

	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
)

// StudentService serves the read side of the portals: a parent's children,
// an observer's caseload, a principal's school roster.
type StudentService interface {
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]*entity.Student, error)
	GetChild(ctx context.Context, parentID, studentID uuid.UUID) (*entity.Student, error)
	Caseload(ctx context.Context, observerID uuid.UUID) ([]*entity.Student, error)
	ListSchoolStudents(ctx context.Context, school string) ([]*entity.Student, error)

	RecordConsent(ctx context.Context, parentID uuid.UUID) error
}

type studentService struct {
	students repository.StudentRepository
	accounts repository.AccountRepository
}

func NewStudentService(students repository.StudentRepository, accounts repository.AccountRepository) StudentService {
	return &studentService{students: students, accounts: accounts}
}

func (s *studentService) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*entity.Student, error) {
	return s.students.ListByParent(ctx, parentID)
}

func (s *studentService) GetChild(ctx context.Context, parentID, studentID uuid.UUID) (*entity.Student, error) {
	ok, err := s.students.IsParentOf(ctx, parentID, studentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return s.students.FindByID(ctx, studentID)
}

func (s *studentService) Caseload(ctx context.Context, observerID uuid.UUID) ([]*entity.Student, error) {
	return s.students.ListByObserver(ctx, observerID)
}

func (s *studentService) ListSchoolStudents(ctx context.Context, school string) ([]*entity.Student, error) {
	return s.students.ListBySchool(ctx, school)
}

func (s *studentService) RecordConsent(ctx context.Context, parentID uuid.UUID) error {
	return s.accounts.RecordParentConsent(ctx, parentID)
}
