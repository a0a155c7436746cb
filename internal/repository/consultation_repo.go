package repository

import (
	"context"
	"time"

	"github.com/calmroots/backend/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BillingSummary is a per-status rollup of payments inside a date range.
type BillingSummary struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Total  int64  `json:"total"`
}

type ConsultationRepository interface {
	CreateConsultation(ctx context.Context, c *entity.Consultation) error
	FindConsultation(ctx context.Context, id uuid.UUID) (*entity.Consultation, error)
	UpdateConsultation(ctx context.Context, c *entity.Consultation) error
	ListConsultationsByParent(ctx context.Context, parentID uuid.UUID) ([]*entity.Consultation, error)
	ListConsultationsBySchool(ctx context.Context, school string) ([]*entity.Consultation, error)

	CreatePayment(ctx context.Context, p *entity.Payment) error
	ListPaymentsByParent(ctx context.Context, parentID uuid.UUID) ([]*entity.Payment, error)
	BillingByStatus(ctx context.Context, from, to *time.Time) ([]BillingSummary, error)
}

type consultationRepository struct {
	db *gorm.DB
}

func NewConsultationRepository(db *gorm.DB) ConsultationRepository {
	return &consultationRepository{db: db}
}

func (r *consultationRepository) CreateConsultation(ctx context.Context, c *entity.Consultation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *consultationRepository) FindConsultation(ctx context.Context, id uuid.UUID) (*entity.Consultation, error) {
	var c entity.Consultation
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &c, nil
}

func (r *consultationRepository) UpdateConsultation(ctx context.Context, c *entity.Consultation) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *consultationRepository) ListConsultationsByParent(ctx context.Context, parentID uuid.UUID) ([]*entity.Consultation, error) {
	var out []*entity.Consultation
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *consultationRepository) ListConsultationsBySchool(ctx context.Context, school string) ([]*entity.Consultation, error) {
	var out []*entity.Consultation
	if err := r.db.WithContext(ctx).
		Joins("JOIN children c ON c.id = consultations.student_id").
		Where("c.school = ?", school).
		Order("consultations.created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *consultationRepository) CreatePayment(ctx context.Context, p *entity.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *consultationRepository) ListPaymentsByParent(ctx context.Context, parentID uuid.UUID) ([]*entity.Payment, error) {
	var out []*entity.Payment
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *consultationRepository) BillingByStatus(ctx context.Context, from, to *time.Time) ([]BillingSummary, error) {
	var out []BillingSummary
	if err := r.db.WithContext(ctx).
		Model(&entity.Payment{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Scopes(rangeScope(from, to, "created_at")).
		Group("status").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
