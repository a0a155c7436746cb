package repository

import (
	"context"
	"time"

	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ObserverSessionStats aggregates an observer's appointment activity inside
// a reporting window.
type ObserverSessionStats struct {
	ObserverID uuid.UUID
	Scheduled  int64
	Completed  int64
}

type SessionRepository interface {
	CreateAppointment(ctx context.Context, a *entity.Appointment) error
	FindAppointment(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	UpdateAppointment(ctx context.Context, a *entity.Appointment) error
	ListAppointmentsByStudent(ctx context.Context, studentID uuid.UUID, from, to *time.Time) ([]*entity.Appointment, error)
	ListAppointmentsByObserver(ctx context.Context, observerID uuid.UUID, from, to *time.Time) ([]*entity.Appointment, error)
	StatsByObserverSince(ctx context.Context, school string, since time.Time) (map[uuid.UUID]ObserverSessionStats, error)

	CreateNote(ctx context.Context, n *entity.SessionNote) error
	FindNote(ctx context.Context, id uuid.UUID) (*entity.SessionNote, error)
	UpdateNote(ctx context.Context, n *entity.SessionNote) error
	ListNotesByStudent(ctx context.Context, studentID uuid.UUID, sharedOnly bool) ([]*entity.SessionNote, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) CreateAppointment(ctx context.Context, a *entity.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *sessionRepository) FindAppointment(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	var a entity.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &a, nil
}

func (r *sessionRepository) UpdateAppointment(ctx context.Context, a *entity.Appointment) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func rangeScope(from, to *time.Time, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where(column+" >= ?", *from)
		}
		if to != nil {
			db = db.Where(column+" < ?", *to)
		}
		return db
	}
}

func (r *sessionRepository) ListAppointmentsByStudent(ctx context.Context, studentID uuid.UUID, from, to *time.Time) ([]*entity.Appointment, error) {
	var out []*entity.Appointment
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Scopes(rangeScope(from, to, "scheduled_at")).
		Order("scheduled_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepository) ListAppointmentsByObserver(ctx context.Context, observerID uuid.UUID, from, to *time.Time) ([]*entity.Appointment, error) {
	var out []*entity.Appointment
	if err := r.db.WithContext(ctx).
		Where("observer_id = ?", observerID).
		Scopes(rangeScope(from, to, "scheduled_at")).
		Order("scheduled_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepository) StatsByObserverSince(ctx context.Context, school string, since time.Time) (map[uuid.UUID]ObserverSessionStats, error) {
	type row struct {
		ObserverID uuid.UUID
		Scheduled  int64
		Completed  int64
	}
	var rows []row

	query := `
		SELECT a.observer_id,
		       COUNT(*) AS scheduled,
		       COUNT(*) FILTER (WHERE a.status = 'completed') AS completed
		FROM appointments a
		JOIN observers o ON o.id = a.observer_id
		WHERE o.school = ? AND a.scheduled_at >= ?
		GROUP BY a.observer_id
	`
	if err := r.db.WithContext(ctx).Raw(query, school, since).Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := make(map[uuid.UUID]ObserverSessionStats, len(rows))
	for _, rw := range rows {
		stats[rw.ObserverID] = ObserverSessionStats{
			ObserverID: rw.ObserverID,
			Scheduled:  rw.Scheduled,
			Completed:  rw.Completed,
		}
	}
	return stats, nil
}

func (r *sessionRepository) CreateNote(ctx context.Context, n *entity.SessionNote) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *sessionRepository) FindNote(ctx context.Context, id uuid.UUID) (*entity.SessionNote, error) {
	var n entity.SessionNote
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &n, nil
}

func (r *sessionRepository) UpdateNote(ctx context.Context, n *entity.SessionNote) error {
	res := r.db.WithContext(ctx).Save(n)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *sessionRepository) ListNotesByStudent(ctx context.Context, studentID uuid.UUID, sharedOnly bool) ([]*entity.SessionNote, error) {
	q := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if sharedOnly {
		q = q.Where("shared_with_parent = ?", true)
	}

	var out []*entity.SessionNote
	if err := q.Order("session_date DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
