package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
)

type groupFixture struct {
	svc      GroupService
	groups   *fakeGroupRepo
	students *fakeStudentRepo
	observer *entity.Observer
	parent   *entity.Parent
	student  *entity.Student
}

func newGroupFixture(t *testing.T) *groupFixture {
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
	student := &entity.Student{ID: uuid.New(), FullName: "Avery", School: testSchool, Active: true}
	if err := students.Create(ctx, student, []uuid.UUID{parent.ID}); err != nil {
		t.Fatalf("seed student: %v", err)
	}

	groups := newFakeGroupRepo()
	return &groupFixture{
		svc:      NewGroupService(groups, students, accounts),
		groups:   groups,
		students: students,
		observer: observer,
		parent:   parent,
		student:  student,
	}
}

func (f *groupFixture) createSession(t *testing.T, capacity int) *entity.GroupSession {
	t.Helper()
	g, err := f.svc.Create(context.Background(), f.observer.ID, dto.CreateGroupSessionRequest{
		Title:       "Mindful Mornings",
		School:      testSchool,
		Capacity:    capacity,
		ScheduledAt: time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create group session: %v", err)
	}
	return g
}

func TestGroupRegisterCapacity(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	session := f.createSession(t, 1)

	if err := f.svc.Register(ctx, f.parent.ID, session.ID, f.student.ID); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Same student again is a no-op, not a capacity failure.
	if err := f.svc.Register(ctx, f.parent.ID, session.ID, f.student.ID); err != nil {
		t.Fatalf("repeat register: %v", err)
	}
	if got := len(f.groups.registrations[session.ID]); got != 1 {
		t.Fatalf("registrations = %d, want 1", got)
	}

	sibling := &entity.Student{ID: uuid.New(), FullName: "Blake", School: testSchool, Active: true}
	if err := f.students.Create(ctx, sibling, []uuid.UUID{f.parent.ID}); err != nil {
		t.Fatalf("seed sibling: %v", err)
	}

	err := f.svc.Register(ctx, f.parent.ID, session.ID, sibling.ID)
	if !errors.Is(err, apperror.ErrCapacityExceeded) {
		t.Fatalf("register past capacity err = %v, want ErrCapacityExceeded", err)
	}
}

func TestGroupRegisterRequiresParent(t *testing.T) {
	f := newGroupFixture(t)
	session := f.createSession(t, 5)

	stranger := uuid.New()
	err := f.svc.Register(context.Background(), stranger, session.ID, f.student.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("stranger register err = %v, want ErrNotFound", err)
	}
}

func TestGroupRegisterSchoolMismatch(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	session := f.createSession(t, 5)

	elsewhere := &entity.Student{ID: uuid.New(), FullName: "Casey", School: "Lakeside Middle", Active: true}
	if err := f.students.Create(ctx, elsewhere, []uuid.UUID{f.parent.ID}); err != nil {
		t.Fatalf("seed student: %v", err)
	}

	err := f.svc.Register(ctx, f.parent.ID, session.ID, elsewhere.ID)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("cross-school register err = %v, want ErrForbidden", err)
	}
}

func TestGroupCancelIsIdempotent(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	session := f.createSession(t, 1)

	if err := f.svc.Register(ctx, f.parent.ID, session.ID, f.student.ID); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.svc.CancelRegistration(ctx, f.parent.ID, session.ID, f.student.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.svc.CancelRegistration(ctx, f.parent.ID, session.ID, f.student.ID); err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}

	// Cancelling frees the slot.
	if err := f.svc.Register(ctx, f.parent.ID, session.ID, f.student.ID); err != nil {
		t.Fatalf("re-register after cancel: %v", err)
	}
}

func TestGroupCreateWrongSchool(t *testing.T) {
	f := newGroupFixture(t)

	_, err := f.svc.Create(context.Background(), f.observer.ID, dto.CreateGroupSessionRequest{
		Title:       "Offsite",
		School:      "Lakeside Middle",
		Capacity:    5,
		ScheduledAt: time.Now().Add(24 * time.Hour),
	})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("create at foreign school err = %v, want ErrForbidden", err)
	}
}
