package repository

import (
	"context"
	"time"

	"github.com/calmroots/backend/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JournalRepository interface {
	CreateGoal(ctx context.Context, g *entity.Goal) error
	FindGoal(ctx context.Context, id uuid.UUID) (*entity.Goal, error)
	UpdateGoal(ctx context.Context, g *entity.Goal) error
	ListGoalsByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Goal, error)

	CreateMoodEntry(ctx context.Context, m *entity.MoodEntry) error
	ListMoodsByStudent(ctx context.Context, studentID uuid.UUID, from, to *time.Time) ([]*entity.MoodEntry, error)
	ListFlaggedMoods(ctx context.Context, since time.Time, limit int) ([]*entity.MoodEntry, error)
}

type journalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) CreateGoal(ctx context.Context, g *entity.Goal) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *journalRepository) FindGoal(ctx context.Context, id uuid.UUID) (*entity.Goal, error) {
	var g entity.Goal
	if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &g, nil
}

func (r *journalRepository) UpdateGoal(ctx context.Context, g *entity.Goal) error {
	return r.db.WithContext(ctx).Save(g).Error
}

func (r *journalRepository) ListGoalsByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Goal, error) {
	var out []*entity.Goal
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *journalRepository) CreateMoodEntry(ctx context.Context, m *entity.MoodEntry) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *journalRepository) ListMoodsByStudent(ctx context.Context, studentID uuid.UUID, from, to *time.Time) ([]*entity.MoodEntry, error) {
	var out []*entity.MoodEntry
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Scopes(rangeScope(from, to, "created_at")).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *journalRepository) ListFlaggedMoods(ctx context.Context, since time.Time, limit int) ([]*entity.MoodEntry, error) {
	var out []*entity.MoodEntry
	if err := r.db.WithContext(ctx).
		Where("flagged = ? AND created_at >= ?", true, since).
		Order("score ASC, created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
