package service

import (
	"context"
	"log"
	"time"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
)

const forumPostAction = "forum_post"

type ForumService interface {
	CreateThread(ctx context.Context, authorID uuid.UUID, role string, req dto.CreateThreadRequest) (*entity.ForumThread, error)
	GetThread(ctx context.Context, id uuid.UUID) (*entity.ForumThread, error)
	ListThreads(ctx context.Context, filter dto.ThreadFilter) ([]*entity.ForumThread, int64, error)
	DeleteThread(ctx context.Context, id, authorID uuid.UUID) error

	CreatePost(ctx context.Context, threadID, authorID uuid.UUID, role string, req dto.CreatePostRequest) (*entity.ForumPost, error)
	DeletePost(ctx context.Context, id, authorID uuid.UUID) error

	// PostCooldownRemaining reports how long the caller must wait before
	// posting again. Zero means no active cooldown.
	PostCooldownRemaining(ctx context.Context, authorID uuid.UUID) time.Duration
}

type forumService struct {
	forums    repository.ForumRepository
	accounts  repository.AccountRepository
	search    SearchService
	rdb       *redis.Client
	cooldown  time.Duration
	sanitizer *bluemonday.Policy
}

func NewForumService(
	forums repository.ForumRepository,
	accounts repository.AccountRepository,
	search SearchService,
	rdb *redis.Client,
	cooldown time.Duration,
) ForumService {
	return &forumService{
		forums:    forums,
		accounts:  accounts,
		search:    search,
		rdb:       rdb,
		cooldown:  cooldown,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// authorName resolves the display name recorded on threads and posts.
// Participation is limited to parents and observers.
func (s *forumService) authorName(ctx context.Context, id uuid.UUID, role string) (string, error) {
	switch role {
	case entity.RoleParent:
		p, err := s.accounts.FindParentByID(ctx, id)
		if err != nil {
			return "", err
		}
		return p.FullName, nil
	case entity.RoleObserver:
		o, err := s.accounts.FindObserverByID(ctx, id)
		if err != nil {
			return "", err
		}
		return o.FullName, nil
	default:
		return "", apperror.ErrWrongRole
	}
}

func (s *forumService) checkCooldown(ctx context.Context, authorID uuid.UUID) error {
	allowed, err := CheckAndSetRateLimit(ctx, s.rdb, authorID, forumPostAction, s.cooldown)
	if err != nil {
		// Redis being down should not take the forum with it.
		log.Printf("rate limit check failed for %s: %v", authorID, err)
		return nil
	}
	if !allowed {
		return apperror.ErrRateLimitExceeded
	}
	return nil
}

func (s *forumService) PostCooldownRemaining(ctx context.Context, authorID uuid.UUID) time.Duration {
	ttl, err := GetRateLimitTTL(ctx, s.rdb, authorID, forumPostAction)
	if err != nil {
		return 0
	}
	return ttl
}

func (s *forumService) CreateThread(ctx context.Context, authorID uuid.UUID, role string, req dto.CreateThreadRequest) (*entity.ForumThread, error) {
	name, err := s.authorName(ctx, authorID, role)
	if err != nil {
		return nil, err
	}

	if err := s.checkCooldown(ctx, authorID); err != nil {
		return nil, err
	}

	thread := &entity.ForumThread{
		AuthorID:   authorID,
		AuthorRole: role,
		AuthorName: name,
		Title:      s.sanitizer.Sanitize(req.Title),
		Content:    s.sanitizer.Sanitize(req.Content),
	}
	if err := s.forums.CreateThread(ctx, thread); err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.IndexThread(thread); err != nil {
			log.Printf("failed to index thread %s: %v", thread.ID, err)
		}
	}
	return thread, nil
}

func (s *forumService) GetThread(ctx context.Context, id uuid.UUID) (*entity.ForumThread, error) {
	return s.forums.FindThread(ctx, id)
}

func (s *forumService) ListThreads(ctx context.Context, filter dto.ThreadFilter) ([]*entity.ForumThread, int64, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 50 {
		limit = 20
	}

	if filter.Query != "" {
		threads, err := s.searchThreads(ctx, filter.Query, limit)
		if err != nil {
			return nil, 0, err
		}
		return threads, int64(len(threads)), nil
	}

	return s.forums.ListThreads(ctx, page, limit)
}

func (s *forumService) searchThreads(ctx context.Context, query string, limit int) ([]*entity.ForumThread, error) {
	if s.search == nil {
		return s.forums.SearchThreads(ctx, query, limit)
	}

	ids, err := s.search.SearchThreads(query, limit)
	if err != nil {
		log.Printf("search backend failed, falling back to SQL: %v", err)
		return s.forums.SearchThreads(ctx, query, limit)
	}

	threads := make([]*entity.ForumThread, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		t, err := s.forums.FindThread(ctx, id)
		if err != nil {
			// Stale index entry, skip it.
			continue
		}
		threads = append(threads, t)
	}
	return threads, nil
}

func (s *forumService) DeleteThread(ctx context.Context, id, authorID uuid.UUID) error {
	if err := s.forums.DeleteThreadByAuthor(ctx, id, authorID); err != nil {
		return err
	}
	if s.search != nil {
		if err := s.search.RemoveThread(id.String()); err != nil {
			log.Printf("failed to remove thread %s from index: %v", id, err)
		}
	}
	return nil
}

func (s *forumService) CreatePost(ctx context.Context, threadID, authorID uuid.UUID, role string, req dto.CreatePostRequest) (*entity.ForumPost, error) {
	name, err := s.authorName(ctx, authorID, role)
	if err != nil {
		return nil, err
	}

	if err := s.checkCooldown(ctx, authorID); err != nil {
		return nil, err
	}

	post := &entity.ForumPost{
		ThreadID:      threadID,
		AuthorID:      authorID,
		AuthorRole:    role,
		AuthorName:    name,
		Content:       s.sanitizer.Sanitize(req.Content),
		AttachmentURL: req.AttachmentURL,
	}
	if err := s.forums.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *forumService) DeletePost(ctx context.Context, id, authorID uuid.UUID) error {
	return s.forums.DeletePostByAuthor(ctx, id, authorID)
}
