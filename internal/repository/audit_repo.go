package repository

import (
	"context"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Append(ctx context.Context, e *entity.AuditLog) error
	Query(ctx context.Context, q dto.AuditQuery) ([]*entity.AuditLog, error)

	CreateReport(ctx context.Context, r *entity.ReportDraft) error
	SetReportResult(ctx context.Context, id uuid.UUID, status string, content *string) error
	ListReportsByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.ReportDraft, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, e *entity.AuditLog) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *auditRepository) Query(ctx context.Context, q dto.AuditQuery) ([]*entity.AuditLog, error) {
	db := r.db.WithContext(ctx).Model(&entity.AuditLog{})
	if q.ActorID != nil {
		db = db.Where("actor_id = ?", *q.ActorID)
	}
	if q.Action != "" {
		db = db.Where("action = ?", q.Action)
	}
	db = db.Scopes(rangeScope(q.From, q.To, "created_at"))

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var out []*entity.AuditLog
	if err := db.Order("created_at DESC").Limit(limit).Offset(q.Offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *auditRepository) CreateReport(ctx context.Context, rep *entity.ReportDraft) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *auditRepository) SetReportResult(ctx context.Context, id uuid.UUID, status string, content *string) error {
	return r.db.WithContext(ctx).
		Model(&entity.ReportDraft{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "content": content}).Error
}

func (r *auditRepository) ListReportsByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.ReportDraft, error) {
	var out []*entity.ReportDraft
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
