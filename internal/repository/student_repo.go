package repository

import (
	"context"
	"errors"

	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudentRepository interface {
	Create(ctx context.Context, s *entity.Student, parentIDs []uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Student, error)
	FindByIDInSchool(ctx context.Context, school string, id uuid.UUID) (*entity.Student, error)
	Update(ctx context.Context, s *entity.Student) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	LinkParent(ctx context.Context, studentID, parentID uuid.UUID) error

	ListAll(ctx context.Context) ([]*entity.Student, error)
	ListBySchool(ctx context.Context, school string) ([]*entity.Student, error)
	ListUnassigned(ctx context.Context, school string) ([]*entity.Student, error)
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]*entity.Student, error)
	ListByObserver(ctx context.Context, observerID uuid.UUID) ([]*entity.Student, error)
	IsParentOf(ctx context.Context, parentID, studentID uuid.UUID) (bool, error)

	AssignedCounts(ctx context.Context, school string) (map[uuid.UUID]int64, error)
	AssignedToInactiveObservers(ctx context.Context) ([]*entity.Student, error)

	// Assign performs the capacity check and the observer-id write in one
	// transaction, holding a row lock on the observer so two principals
	// cannot both take the last slot.
	Assign(ctx context.Context, school string, studentID, observerID uuid.UUID) (*entity.Student, int64, error)
	Unassign(ctx context.Context, school string, studentID uuid.UUID) (*entity.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, s *entity.Student, parentIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		for _, pid := range parentIDs {
			var parent entity.Parent
			if err := tx.First(&parent, "id = ?", pid).Error; err != nil {
				return mapNotFound(err)
			}
			if err := tx.Model(s).Association("Parents").Append(&parent); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *studentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Student, error) {
	var s entity.Student
	if err := r.db.WithContext(ctx).
		Preload("Observer").
		Preload("Parents").
		First(&s, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &s, nil
}

func (r *studentRepository) FindByIDInSchool(ctx context.Context, school string, id uuid.UUID) (*entity.Student, error) {
	var s entity.Student
	if err := r.db.WithContext(ctx).
		Preload("Observer").
		Where("id = ? AND school = ?", id, school).
		First(&s).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &s, nil
}

func (r *studentRepository) Update(ctx context.Context, s *entity.Student) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *studentRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).Model(&entity.Student{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *studentRepository) LinkParent(ctx context.Context, studentID, parentID uuid.UUID) error {
	var s entity.Student
	if err := r.db.WithContext(ctx).First(&s, "id = ?", studentID).Error; err != nil {
		return mapNotFound(err)
	}
	var p entity.Parent
	if err := r.db.WithContext(ctx).First(&p, "id = ?", parentID).Error; err != nil {
		return mapNotFound(err)
	}
	return r.db.WithContext(ctx).Model(&s).Association("Parents").Append(&p)
}

func (r *studentRepository) ListAll(ctx context.Context) ([]*entity.Student, error) {
	var out []*entity.Student
	if err := r.db.WithContext(ctx).Preload("Observer").Order("enrolled_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentRepository) ListBySchool(ctx context.Context, school string) ([]*entity.Student, error) {
	var out []*entity.Student
	if err := r.db.WithContext(ctx).
		Preload("Observer").
		Where("school = ?", school).
		Order("full_name").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentRepository) ListUnassigned(ctx context.Context, school string) ([]*entity.Student, error) {
	var out []*entity.Student
	if err := r.db.WithContext(ctx).
		Where("school = ? AND observer_id IS NULL AND active = ?", school, true).
		Order("enrolled_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentRepository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*entity.Student, error) {
	var out []*entity.Student
	if err := r.db.WithContext(ctx).
		Preload("Observer").
		Joins("JOIN parent_students ps ON ps.student_id = children.id").
		Where("ps.parent_id = ?", parentID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentRepository) ListByObserver(ctx context.Context, observerID uuid.UUID) ([]*entity.Student, error) {
	var out []*entity.Student
	if err := r.db.WithContext(ctx).
		Where("observer_id = ?", observerID).
		Order("full_name").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentRepository) IsParentOf(ctx context.Context, parentID, studentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("parent_students").
		Where("parent_id = ? AND student_id = ?", parentID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *studentRepository) AssignedCounts(ctx context.Context, school string) (map[uuid.UUID]int64, error) {
	type row struct {
		ObserverID uuid.UUID
		Count      int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&entity.Student{}).
		Select("observer_id, COUNT(*) AS count").
		Where("school = ? AND observer_id IS NOT NULL", school).
		Group("observer_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.ObserverID] = r.Count
	}
	return counts, nil
}

func (r *studentRepository) AssignedToInactiveObservers(ctx context.Context) ([]*entity.Student, error) {
	var out []*entity.Student
	if err := r.db.WithContext(ctx).
		Preload("Observer").
		Joins("JOIN observers o ON o.id = children.observer_id").
		Where("o.active = ?", false).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentRepository) Assign(ctx context.Context, school string, studentID, observerID uuid.UUID) (*entity.Student, int64, error) {
	var student entity.Student
	var newCount int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var observer entity.Observer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND school = ? AND active = ?", observerID, school, true).
			First(&observer).Error; err != nil {
			return mapNotFound(err)
		}

		if err := tx.Where("id = ? AND school = ?", studentID, school).
			First(&student).Error; err != nil {
			return mapNotFound(err)
		}

		var current int64
		if err := tx.Model(&entity.Student{}).
			Where("observer_id = ?", observerID).
			Count(&current).Error; err != nil {
			return err
		}

		if current >= int64(observer.Capacity) {
			return apperror.ErrCapacityExceeded
		}

		if err := tx.Model(&student).Update("observer_id", observerID).Error; err != nil {
			return err
		}

		student.ObserverID = &observerID
		student.Observer = &observer
		newCount = current + 1
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return &student, newCount, nil
}

func (r *studentRepository) Unassign(ctx context.Context, school string, studentID uuid.UUID) (*entity.Student, error) {
	var student entity.Student
	if err := r.db.WithContext(ctx).
		Where("id = ? AND school = ?", studentID, school).
		First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	// Unconditional null-out: already-unassigned students succeed too.
	if err := r.db.WithContext(ctx).Model(&student).Update("observer_id", nil).Error; err != nil {
		return nil, err
	}

	student.ObserverID = nil
	student.Observer = nil
	return &student, nil
}
