package repository

import (
	"context"

	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ForumRepository interface {
	CreateThread(ctx context.Context, t *entity.ForumThread) error
	FindThread(ctx context.Context, id uuid.UUID) (*entity.ForumThread, error)
	ListThreads(ctx context.Context, page, limit int) ([]*entity.ForumThread, int64, error)
	DeleteThreadByAuthor(ctx context.Context, id, authorID uuid.UUID) error
	SearchThreads(ctx context.Context, query string, limit int) ([]*entity.ForumThread, error)

	CreatePost(ctx context.Context, p *entity.ForumPost) error
	DeletePostByAuthor(ctx context.Context, id, authorID uuid.UUID) error
}

type forumRepository struct {
	db *gorm.DB
}

func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

func (r *forumRepository) CreateThread(ctx context.Context, t *entity.ForumThread) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *forumRepository) FindThread(ctx context.Context, id uuid.UUID) (*entity.ForumThread, error) {
	var t entity.ForumThread
	if err := r.db.WithContext(ctx).
		Preload("Posts", func(db *gorm.DB) *gorm.DB {
			return db.Order("forum_posts.created_at")
		}).
		First(&t, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

func (r *forumRepository) ListThreads(ctx context.Context, page, limit int) ([]*entity.ForumThread, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.ForumThread{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*entity.ForumThread
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *forumRepository) DeleteThreadByAuthor(ctx context.Context, id, authorID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&entity.ForumThread{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

// SearchThreads is the SQL fallback used when Meilisearch is not configured.
func (r *forumRepository) SearchThreads(ctx context.Context, query string, limit int) ([]*entity.ForumThread, error) {
	var out []*entity.ForumThread
	pattern := "%" + query + "%"
	if err := r.db.WithContext(ctx).
		Where("title ILIKE ? OR content ILIKE ?", pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *forumRepository) CreatePost(ctx context.Context, p *entity.ForumPost) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.ForumThread{}).
			Where("id = ?", p.ThreadID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperror.ErrNotFound
		}
		return tx.Create(p).Error
	})
}

func (r *forumRepository) DeletePostByAuthor(ctx context.Context, id, authorID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&entity.ForumPost{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}
