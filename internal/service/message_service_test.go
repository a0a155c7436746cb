package service

import (
	"context"
	"errors"
	"testing"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
)

func newMessageFixture(t *testing.T) (MessageService, *entity.Parent, *entity.Observer, *entity.Student) {
	t.Helper()
	ctx := context.Background()

	accounts := newFakeAccountRepo()
	observer := &entity.Observer{Email: "observer@greenwood.edu", FullName: "Sam Ortiz", School: testSchool, Capacity: 5, Active: true}
	if err := accounts.CreateObserver(ctx, observer); err != nil {
		t.Fatalf("seed observer: %v", err)
	}
	parent := &entity.Parent{Email: "parent@example.com", FullName: "Jo Example", Active: true}
	if err := accounts.CreateParent(ctx, parent); err != nil {
		t.Fatalf("seed parent: %v", err)
	}

	students := newFakeStudentRepo(accounts)
	student := &entity.Student{ID: uuid.New(), FullName: "Avery", School: testSchool, Active: true, ObserverID: &observer.ID}
	if err := students.Create(ctx, student, []uuid.UUID{parent.ID}); err != nil {
		t.Fatalf("seed student: %v", err)
	}

	svc := NewMessageService(&fakeMessageRepo{}, students, nil)
	return svc, parent, observer, student
}

func TestMessageRoundTrip(t *testing.T) {
	svc, parent, observer, student := newMessageFixture(t)
	ctx := context.Background()

	sent, err := svc.Send(ctx, parent.ID, entity.RoleParent, dto.SendMessageRequest{
		RecipientID:   observer.ID,
		RecipientRole: entity.RoleObserver,
		StudentID:     &student.ID,
		Body:          "How was Avery's week?",
	})
	if err != nil {
		t.Fatalf("parent send: %v", err)
	}

	reply, err := svc.Send(ctx, observer.ID, entity.RoleObserver, dto.SendMessageRequest{
		RecipientID:   parent.ID,
		RecipientRole: entity.RoleParent,
		Body:          "A good one. Two check-ins, both upbeat.",
	})
	if err != nil {
		t.Fatalf("observer reply: %v", err)
	}

	conv, err := svc.Conversation(ctx, parent.ID, observer.ID, 0, 0)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(conv) != 2 {
		t.Fatalf("conversation has %d messages, want 2", len(conv))
	}

	unread, err := svc.UnreadCount(ctx, parent.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if unread != 1 {
		t.Errorf("parent unread = %d, want 1 (the reply %s)", unread, reply.ID)
	}

	if err := svc.MarkConversationRead(ctx, parent.ID, observer.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err = svc.UnreadCount(ctx, parent.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if unread != 0 {
		t.Errorf("parent unread after mark = %d, want 0", unread)
	}

	// Marking the parent's side read must not touch the observer's inbox.
	obsUnread, err := svc.UnreadCount(ctx, observer.ID)
	if err != nil {
		t.Fatalf("observer unread: %v", err)
	}
	if obsUnread != 1 {
		t.Errorf("observer unread = %d, want 1 (%s still unread)", obsUnread, sent.ID)
	}
}

func TestMessageOutsideCareRelationship(t *testing.T) {
	svc, parent, _, _ := newMessageFixture(t)

	// An observer the parent's child is not assigned to.
	_, err := svc.Send(context.Background(), parent.ID, entity.RoleParent, dto.SendMessageRequest{
		RecipientID:   uuid.New(),
		RecipientRole: entity.RoleObserver,
		Body:          "hello?",
	})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestMessageParentToParentRejected(t *testing.T) {
	svc, parent, _, _ := newMessageFixture(t)

	_, err := svc.Send(context.Background(), parent.ID, entity.RoleParent, dto.SendMessageRequest{
		RecipientID:   uuid.New(),
		RecipientRole: entity.RoleParent,
		Body:          "hi",
	})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}
