package repository

import (
	"context"
	"time"

	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository interface {
	Create(ctx context.Context, g *entity.GroupSession) error
	Find(ctx context.Context, id uuid.UUID) (*entity.GroupSession, error)
	ListUpcoming(ctx context.Context, school string) ([]*entity.GroupSession, error)

	// Register checks capacity and inserts the registration in one
	// transaction, locking the session row. Re-registering the same student
	// is a no-op.
	Register(ctx context.Context, sessionID, studentID, parentID uuid.UUID) error
	// CancelRegistration is idempotent; cancelling an absent registration
	// is not an error.
	CancelRegistration(ctx context.Context, sessionID, studentID uuid.UUID) error
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, g *entity.GroupSession) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *groupRepository) Find(ctx context.Context, id uuid.UUID) (*entity.GroupSession, error) {
	var g entity.GroupSession
	if err := r.db.WithContext(ctx).
		Preload("Registrations").
		First(&g, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &g, nil
}

func (r *groupRepository) ListUpcoming(ctx context.Context, school string) ([]*entity.GroupSession, error) {
	var out []*entity.GroupSession
	if err := r.db.WithContext(ctx).
		Preload("Registrations").
		Where("school = ? AND scheduled_at >= ?", school, time.Now()).
		Order("scheduled_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *groupRepository) Register(ctx context.Context, sessionID, studentID, parentID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session entity.GroupSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&session, "id = ?", sessionID).Error; err != nil {
			return mapNotFound(err)
		}

		var existing int64
		if err := tx.Model(&entity.GroupRegistration{}).
			Where("group_session_id = ? AND student_id = ?", sessionID, studentID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		var count int64
		if err := tx.Model(&entity.GroupRegistration{}).
			Where("group_session_id = ?", sessionID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(session.Capacity) {
			return apperror.ErrCapacityExceeded
		}

		reg := &entity.GroupRegistration{
			GroupSessionID: sessionID,
			StudentID:      studentID,
			ParentID:       parentID,
		}
		return tx.Create(reg).Error
	})
}

func (r *groupRepository) CancelRegistration(ctx context.Context, sessionID, studentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("group_session_id = ? AND student_id = ?", sessionID, studentID).
		Delete(&entity.GroupRegistration{}).Error
}
