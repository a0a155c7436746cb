package repository

import (
	"context"

	"github.com/calmroots/backend/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, m *entity.Message) error
	Conversation(ctx context.Context, a, b uuid.UUID, limit, offset int) ([]*entity.Message, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkConversationRead(ctx context.Context, recipientID, senderID uuid.UUID) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *entity.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *messageRepository) Conversation(ctx context.Context, a, b uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	var out []*entity.Message
	if err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, recipientID, senderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND read = ?", recipientID, senderID, false).
		Update("read", true).Error
}
