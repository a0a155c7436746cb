package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MessageChannel returns the Redis pub/sub channel carrying live messages
// for an account. The websocket handler subscribes to the same name.
func MessageChannel(accountID uuid.UUID) string {
	return fmt.Sprintf("user_messages:%s", accountID.String())
}

type MessageService interface {
	Send(ctx context.Context, senderID uuid.UUID, senderRole string, req dto.SendMessageRequest) (*entity.Message, error)
	Conversation(ctx context.Context, accountID, otherID uuid.UUID, limit, offset int) ([]*entity.Message, error)
	UnreadCount(ctx context.Context, accountID uuid.UUID) (int64, error)
	MarkConversationRead(ctx context.Context, accountID, senderID uuid.UUID) error
}

type messageService struct {
	messages repository.MessageRepository
	students repository.StudentRepository
	rdb      *redis.Client
}

func NewMessageService(messages repository.MessageRepository, students repository.StudentRepository, rdb *redis.Client) MessageService {
	return &messageService{
		messages: messages,
		students: students,
		rdb:      rdb,
	}
}

// canMessage enforces the care relationship: a parent may only reach the
// observer assigned to one of their children, and an observer may only
// reach parents of students on their caseload.
func (s *messageService) canMessage(ctx context.Context, senderID uuid.UUID, senderRole string, recipientID uuid.UUID, recipientRole string) (bool, error) {
	switch {
	case senderRole == entity.RoleParent && recipientRole == entity.RoleObserver:
		children, err := s.students.ListByParent(ctx, senderID)
		if err != nil {
			return false, err
		}
		for _, c := range children {
			if c.ObserverID != nil && *c.ObserverID == recipientID {
				return true, nil
			}
		}
		return false, nil
	case senderRole == entity.RoleObserver && recipientRole == entity.RoleParent:
		assigned, err := s.students.ListByObserver(ctx, senderID)
		if err != nil {
			return false, err
		}
		for _, c := range assigned {
			ok, err := s.students.IsParentOf(ctx, recipientID, c.ID)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

func (s *messageService) Send(ctx context.Context, senderID uuid.UUID, senderRole string, req dto.SendMessageRequest) (*entity.Message, error) {
	ok, err := s.canMessage(ctx, senderID, senderRole, req.RecipientID, req.RecipientRole)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrForbidden
	}

	msg := &entity.Message{
		SenderID:      senderID,
		SenderRole:    senderRole,
		RecipientID:   req.RecipientID,
		RecipientRole: req.RecipientRole,
		StudentID:     req.StudentID,
		Body:          req.Body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.rdb != nil {
		payload, err := json.Marshal(msg)
		if err == nil {
			if err := s.rdb.Publish(ctx, MessageChannel(msg.RecipientID), payload).Err(); err != nil {
				log.Printf("failed to publish message %s: %v", msg.ID, err)
			}
		}
	}
	return msg, nil
}

func (s *messageService) Conversation(ctx context.Context, accountID, otherID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.messages.Conversation(ctx, accountID, otherID, limit, offset)
}

func (s *messageService) UnreadCount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return s.messages.UnreadCount(ctx, accountID)
}

func (s *messageService) MarkConversationRead(ctx context.Context, accountID, senderID uuid.UUID) error {
	return s.messages.MarkConversationRead(ctx, accountID, senderID)
}
