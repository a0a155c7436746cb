package service

import (
	"context"
	"fmt"
	"time"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/calmroots/backend/pkg/mailer"
	"github.com/calmroots/backend/pkg/tasks"
	"github.com/google/uuid"
)

// SessionService covers appointments and session notes for the parent and
// observer portals.
type SessionService interface {
	BookAppointment(ctx context.Context, parentID, studentID uuid.UUID, req dto.BookAppointmentRequest) (*entity.Appointment, error)
	CancelAppointment(ctx context.Context, parentID, appointmentID uuid.UUID) error
	CompleteAppointment(ctx context.Context, observerID, appointmentID uuid.UUID, req dto.CompleteAppointmentRequest) (*entity.Appointment, error)
	ListAppointmentsForChild(ctx context.Context, parentID, studentID uuid.UUID, from, to *time.Time) ([]*entity.Appointment, error)
	ListAppointmentsForObserver(ctx context.Context, observerID uuid.UUID, from, to *time.Time) ([]*entity.Appointment, error)

	CreateNote(ctx context.Context, observerID, studentID uuid.UUID, req dto.CreateSessionNoteRequest) (*entity.SessionNote, error)
	UpdateNote(ctx context.Context, observerID, noteID uuid.UUID, req dto.UpdateSessionNoteRequest) (*entity.SessionNote, error)
	ListNotesForObserver(ctx context.Context, observerID, studentID uuid.UUID) ([]*entity.SessionNote, error)
	ListSharedNotesForParent(ctx context.Context, parentID, studentID uuid.UUID) ([]*entity.SessionNote, error)
}

type sessionService struct {
	sessions repository.SessionRepository
	students repository.StudentRepository
	accounts repository.AccountRepository
	mail     mailer.Mailer
	runner   *tasks.Runner
}

func NewSessionService(
	sessions repository.SessionRepository,
	students repository.StudentRepository,
	accounts repository.AccountRepository,
	mail mailer.Mailer,
	runner *tasks.Runner,
) SessionService {
	return &sessionService{
		sessions: sessions,
		students: students,
		accounts: accounts,
		mail:     mail,
		runner:   runner,
	}
}

// BookAppointment books a check-in between the parent's child and the
// child's assigned observer. The confirmation email goes out as a detached
// task; a delivery failure is logged, never rolled back into the booking.
func (s *sessionService) BookAppointment(ctx context.Context, parentID, studentID uuid.UUID, req dto.BookAppointmentRequest) (*entity.Appointment, error) {
	if err := s.requireParentOf(ctx, parentID, studentID); err != nil {
		return nil, err
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.ObserverID == nil {
		return nil, apperror.New(0, "student has no assigned observer", apperror.ErrBadRequest)
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = 30
	}

	appt := &entity.Appointment{
		StudentID:       studentID,
		ObserverID:      *student.ObserverID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: duration,
		Status:          entity.AppointmentScheduled,
	}
	if err := s.sessions.CreateAppointment(ctx, appt); err != nil {
		return nil, err
	}

	if s.mail != nil && s.runner != nil {
		parentID := parentID
		when := appt.ScheduledAt
		childName := student.FullName
		s.runner.Spawn("appointment-confirmation", func(ctx context.Context) error {
			parent, err := s.accounts.FindParentByID(ctx, parentID)
			if err != nil {
				return err
			}
			subject := "Check-in confirmed for " + childName
			body := fmt.Sprintf("<p>Your check-in for %s on %s is confirmed.</p>",
				childName, when.Format("Mon, 2 Jan 2006 15:04"))
			return s.mail.Send(parent.Email, subject, body)
		})
	}

	return appt, nil
}

func (s *sessionService) CancelAppointment(ctx context.Context, parentID, appointmentID uuid.UUID) error {
	appt, err := s.sessions.FindAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if err := s.requireParentOf(ctx, parentID, appt.StudentID); err != nil {
		return err
	}

	appt.Status = entity.AppointmentCancelled
	return s.sessions.UpdateAppointment(ctx, appt)
}

func (s *sessionService) CompleteAppointment(ctx context.Context, observerID, appointmentID uuid.UUID, req dto.CompleteAppointmentRequest) (*entity.Appointment, error) {
	appt, err := s.sessions.FindAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.ObserverID != observerID {
		return nil, apperror.ErrNotFound
	}

	appt.Status = entity.AppointmentCompleted
	if req.Notes != nil {
		appt.Notes = req.Notes
	}
	if err := s.sessions.UpdateAppointment(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *sessionService) ListAppointmentsForChild(ctx context.Context, parentID, studentID uuid.UUID, from, to *time.Time) ([]*entity.Appointment, error) {
	if err := s.requireParentOf(ctx, parentID, studentID); err != nil {
		return nil, err
	}
	return s.sessions.ListAppointmentsByStudent(ctx, studentID, from, to)
}

func (s *sessionService) ListAppointmentsForObserver(ctx context.Context, observerID uuid.UUID, from, to *time.Time) ([]*entity.Appointment, error) {
	return s.sessions.ListAppointmentsByObserver(ctx, observerID, from, to)
}

func (s *sessionService) CreateNote(ctx context.Context, observerID, studentID uuid.UUID, req dto.CreateSessionNoteRequest) (*entity.SessionNote, error) {
	if err := s.requireAssignedTo(ctx, observerID, studentID); err != nil {
		return nil, err
	}

	note := &entity.SessionNote{
		StudentID:        studentID,
		ObserverID:       observerID,
		SessionDate:      req.SessionDate,
		Summary:          req.Summary,
		SharedWithParent: req.SharedWithParent,
	}
	if err := s.sessions.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *sessionService) UpdateNote(ctx context.Context, observerID, noteID uuid.UUID, req dto.UpdateSessionNoteRequest) (*entity.SessionNote, error) {
	note, err := s.sessions.FindNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.ObserverID != observerID {
		return nil, apperror.ErrNotFound
	}

	if req.Summary != nil {
		note.Summary = *req.Summary
	}
	if req.SharedWithParent != nil {
		note.SharedWithParent = *req.SharedWithParent
	}
	if err := s.sessions.UpdateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *sessionService) ListNotesForObserver(ctx context.Context, observerID, studentID uuid.UUID) ([]*entity.SessionNote, error) {
	if err := s.requireAssignedTo(ctx, observerID, studentID); err != nil {
		return nil, err
	}
	return s.sessions.ListNotesByStudent(ctx, studentID, false)
}

func (s *sessionService) ListSharedNotesForParent(ctx context.Context, parentID, studentID uuid.UUID) ([]*entity.SessionNote, error) {
	if err := s.requireParentOf(ctx, parentID, studentID); err != nil {
		return nil, err
	}
	return s.sessions.ListNotesByStudent(ctx, studentID, true)
}

// Scope checks surface as NotFound, not Forbidden: callers learn nothing
// about students outside their scope.
func (s *sessionService) requireParentOf(ctx context.Context, parentID, studentID uuid.UUID) error {
	ok, err := s.students.IsParentOf(ctx, parentID, studentID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.ErrNotFound
	}
	return nil
}

func (s *sessionService) requireAssignedTo(ctx context.Context, observerID, studentID uuid.UUID) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return err
	}
	if student.ObserverID == nil || *student.ObserverID != observerID {
		return apperror.ErrNotFound
	}
	return nil
}
