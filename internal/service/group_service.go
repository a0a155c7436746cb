package service

import (
	"context"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
)

type GroupService interface {
	Create(ctx context.Context, observerID uuid.UUID, req dto.CreateGroupSessionRequest) (*entity.GroupSession, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.GroupSession, error)
	ListUpcomingForParent(ctx context.Context, parentID uuid.UUID) ([]*entity.GroupSession, error)
	ListUpcomingForObserver(ctx context.Context, observerID uuid.UUID) ([]*entity.GroupSession, error)

	Register(ctx context.Context, parentID, sessionID, studentID uuid.UUID) error
	CancelRegistration(ctx context.Context, parentID, sessionID, studentID uuid.UUID) error
}

type groupService struct {
	groups   repository.GroupRepository
	students repository.StudentRepository
	accounts repository.AccountRepository
}

func NewGroupService(groups repository.GroupRepository, students repository.StudentRepository, accounts repository.AccountRepository) GroupService {
	return &groupService{
		groups:   groups,
		students: students,
		accounts: accounts,
	}
}

func (s *groupService) Create(ctx context.Context, observerID uuid.UUID, req dto.CreateGroupSessionRequest) (*entity.GroupSession, error) {
	observer, err := s.accounts.FindObserverByID(ctx, observerID)
	if err != nil {
		return nil, err
	}
	// Observers only host sessions at their own school.
	if req.School != observer.School {
		return nil, apperror.ErrForbidden
	}

	g := &entity.GroupSession{
		HostID:      observerID,
		HostRole:    entity.RoleObserver,
		Title:       req.Title,
		Description: req.Description,
		School:      req.School,
		Capacity:    req.Capacity,
		ScheduledAt: req.ScheduledAt,
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *groupService) Get(ctx context.Context, id uuid.UUID) (*entity.GroupSession, error) {
	return s.groups.Find(ctx, id)
}

// ListUpcomingForParent returns sessions at every school the parent has a
// child enrolled in, deduplicated when siblings share a school.
func (s *groupService) ListUpcomingForParent(ctx context.Context, parentID uuid.UUID) ([]*entity.GroupSession, error) {
	children, err := s.students.ListByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []*entity.GroupSession
	for _, c := range children {
		if seen[c.School] {
			continue
		}
		seen[c.School] = true

		sessions, err := s.groups.ListUpcoming(ctx, c.School)
		if err != nil {
			return nil, err
		}
		out = append(out, sessions...)
	}
	return out, nil
}

func (s *groupService) ListUpcomingForObserver(ctx context.Context, observerID uuid.UUID) ([]*entity.GroupSession, error) {
	observer, err := s.accounts.FindObserverByID(ctx, observerID)
	if err != nil {
		return nil, err
	}
	return s.groups.ListUpcoming(ctx, observer.School)
}

func (s *groupService) Register(ctx context.Context, parentID, sessionID, studentID uuid.UUID) error {
	if err := s.requireParentOf(ctx, parentID, studentID); err != nil {
		return err
	}

	session, err := s.groups.Find(ctx, sessionID)
	if err != nil {
		return err
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return err
	}
	if student.School != session.School {
		return apperror.ErrForbidden
	}

	return s.groups.Register(ctx, sessionID, studentID, parentID)
}

func (s *groupService) CancelRegistration(ctx context.Context, parentID, sessionID, studentID uuid.UUID) error {
	if err := s.requireParentOf(ctx, parentID, studentID); err != nil {
		return err
	}
	return s.groups.CancelRegistration(ctx, sessionID, studentID)
}

func (s *groupService) requireParentOf(ctx context.Context, parentID, studentID uuid.UUID) error {
	ok, err := s.students.IsParentOf(ctx, parentID, studentID)
	if err != nil {
		return err
	}
	if !ok {
		// Hide the student's existence from non-parents.
		return apperror.ErrNotFound
	}
	return nil
}
