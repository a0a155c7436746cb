package service

import (
	"context"
	"fmt"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/calmroots/backend/pkg/mailer"
	"github.com/calmroots/backend/pkg/tasks"
	"github.com/google/uuid"
)

type ConsultationService interface {
	Request(ctx context.Context, parentID uuid.UUID, req dto.RequestConsultationRequest) (*entity.Consultation, error)
	Schedule(ctx context.Context, principalID uuid.UUID, school string, consultationID uuid.UUID, req dto.ScheduleConsultationRequest) (*entity.Consultation, error)
	Complete(ctx context.Context, principalID uuid.UUID, consultationID uuid.UUID, req dto.CompleteConsultationRequest) (*entity.Consultation, error)
	ListForParent(ctx context.Context, parentID uuid.UUID) ([]*entity.Consultation, error)
	ListForSchool(ctx context.Context, school string) ([]*entity.Consultation, error)

	PaymentsForParent(ctx context.Context, parentID uuid.UUID) ([]*entity.Payment, error)
}

type consultationService struct {
	consultations repository.ConsultationRepository
	students      repository.StudentRepository
	accounts      repository.AccountRepository
	mail          mailer.Mailer
	runner        *tasks.Runner
}

func NewConsultationService(
	consultations repository.ConsultationRepository,
	students repository.StudentRepository,
	accounts repository.AccountRepository,
	mail mailer.Mailer,
	runner *tasks.Runner,
) ConsultationService {
	return &consultationService{
		consultations: consultations,
		students:      students,
		accounts:      accounts,
		mail:          mail,
		runner:        runner,
	}
}

func (s *consultationService) Request(ctx context.Context, parentID uuid.UUID, req dto.RequestConsultationRequest) (*entity.Consultation, error) {
	ok, err := s.students.IsParentOf(ctx, parentID, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrNotFound
	}

	c := &entity.Consultation{
		StudentID: req.StudentID,
		ParentID:  parentID,
		Topic:     req.Topic,
		Status:    entity.ConsultationRequested,
	}
	if err := s.consultations.CreateConsultation(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *consultationService) Schedule(ctx context.Context, principalID uuid.UUID, school string, consultationID uuid.UUID, req dto.ScheduleConsultationRequest) (*entity.Consultation, error) {
	c, err := s.consultations.FindConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	// Scope to the principal's school via the student record.
	if _, err := s.students.FindByIDInSchool(ctx, school, c.StudentID); err != nil {
		return nil, err
	}

	c.PrincipalID = &principalID
	c.ScheduledAt = &req.ScheduledAt
	c.Status = entity.ConsultationScheduled
	if err := s.consultations.UpdateConsultation(ctx, c); err != nil {
		return nil, err
	}

	if s.mail != nil && s.runner != nil {
		parentID := c.ParentID
		when := req.ScheduledAt
		topic := c.Topic
		s.runner.Spawn("consultation-scheduled", func(ctx context.Context) error {
			parent, err := s.accounts.FindParentByID(ctx, parentID)
			if err != nil {
				return err
			}
			body := fmt.Sprintf("<p>Your consultation (%s) is scheduled for %s.</p>",
				topic, when.Format("Mon, 2 Jan 2006 15:04"))
			return s.mail.Send(parent.Email, "Consultation scheduled", body)
		})
	}

	return c, nil
}

func (s *consultationService) Complete(ctx context.Context, principalID uuid.UUID, consultationID uuid.UUID, req dto.CompleteConsultationRequest) (*entity.Consultation, error) {
	c, err := s.consultations.FindConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if c.PrincipalID == nil || *c.PrincipalID != principalID {
		return nil, apperror.ErrNotFound
	}

	c.Status = entity.ConsultationCompleted
	if req.Notes != nil {
		c.Notes = req.Notes
	}
	if err := s.consultations.UpdateConsultation(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *consultationService) ListForParent(ctx context.Context, parentID uuid.UUID) ([]*entity.Consultation, error) {
	return s.consultations.ListConsultationsByParent(ctx, parentID)
}

func (s *consultationService) ListForSchool(ctx context.Context, school string) ([]*entity.Consultation, error) {
	return s.consultations.ListConsultationsBySchool(ctx, school)
}

func (s *consultationService) PaymentsForParent(ctx context.Context, parentID uuid.UUID) ([]*entity.Payment, error) {
	return s.consultations.ListPaymentsByParent(ctx, parentID)
}
