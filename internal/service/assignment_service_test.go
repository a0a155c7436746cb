package service

import (
	"context"
	"errors"
	"testing"

	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
)

const testSchool = "Greenwood Elementary"

func seedAssignmentFixture(t *testing.T, capacity int, studentCount int) (*fakeAccountRepo, *fakeStudentRepo, *entity.Observer, []*entity.Student) {
	t.Helper()

	accounts := newFakeAccountRepo()
	observer := &entity.Observer{
		Email:        "observer@greenwood.edu",
		FullName:     "Sam Ortiz",
		PasswordHash: "x",
		School:       testSchool,
		Capacity:     capacity,
		Active:       true,
	}
	if err := accounts.CreateObserver(context.Background(), observer); err != nil {
		t.Fatalf("seed observer: %v", err)
	}

	students := newFakeStudentRepo(accounts)
	var out []*entity.Student
	for i := 0; i < studentCount; i++ {
		s := &entity.Student{
			ID:       uuid.New(),
			FullName: "Student",
			School:   testSchool,
			Active:   true,
		}
		if err := students.Create(context.Background(), s, nil); err != nil {
			t.Fatalf("seed student: %v", err)
		}
		out = append(out, s)
	}
	return accounts, students, observer, out
}

func TestAssignUntilCapacity(t *testing.T) {
	accounts, students, observer, kids := seedAssignmentFixture(t, 2, 3)
	svc := NewAssignmentService(students, accounts)
	ctx := context.Background()

	res, err := svc.Assign(ctx, testSchool, kids[0].ID, observer.ID)
	if err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if res.Observer.AssignedCount != 1 || res.Observer.FreeSlots != 1 {
		t.Errorf("after first assign: count=%d free=%d, want 1/1", res.Observer.AssignedCount, res.Observer.FreeSlots)
	}

	res, err = svc.Assign(ctx, testSchool, kids[1].ID, observer.ID)
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if res.Observer.AssignedCount != 2 || res.Observer.FreeSlots != 0 {
		t.Errorf("after second assign: count=%d free=%d, want 2/0", res.Observer.AssignedCount, res.Observer.FreeSlots)
	}

	_, err = svc.Assign(ctx, testSchool, kids[2].ID, observer.ID)
	if !errors.Is(err, apperror.ErrCapacityExceeded) {
		t.Fatalf("third assign err = %v, want ErrCapacityExceeded", err)
	}

	// The failed assignment must not leave the student half-assigned.
	unassigned, err := svc.ListUnassigned(ctx, testSchool)
	if err != nil {
		t.Fatalf("list unassigned: %v", err)
	}
	if len(unassigned) != 1 || unassigned[0].ID != kids[2].ID {
		t.Errorf("unassigned = %d students, want exactly the rejected one", len(unassigned))
	}
}

func TestListAvailableObserversFreeSlotsFloor(t *testing.T) {
	accounts, students, observer, kids := seedAssignmentFixture(t, 1, 1)
	svc := NewAssignmentService(students, accounts)
	ctx := context.Background()

	if _, err := svc.Assign(ctx, testSchool, kids[0].ID, observer.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	// Capacity lowered below the current load, as an admin edit could do.
	accounts.observers[observer.ID].Capacity = 0

	avail, err := svc.ListAvailableObservers(ctx, testSchool)
	if err != nil {
		t.Fatalf("list observers: %v", err)
	}
	if len(avail) != 1 {
		t.Fatalf("got %d observers, want 1", len(avail))
	}
	if avail[0].FreeSlots != 0 {
		t.Errorf("free slots = %d, want floor at 0", avail[0].FreeSlots)
	}
	if avail[0].AssignedCount != 1 {
		t.Errorf("assigned count = %d, want 1", avail[0].AssignedCount)
	}
}

func TestUnassignIsIdempotent(t *testing.T) {
	accounts, students, observer, kids := seedAssignmentFixture(t, 2, 1)
	svc := NewAssignmentService(students, accounts)
	ctx := context.Background()

	if _, err := svc.Assign(ctx, testSchool, kids[0].ID, observer.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	s, err := svc.Unassign(ctx, testSchool, kids[0].ID)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if s.ObserverID != nil {
		t.Error("student still has an observer after unassign")
	}

	// Second unassign of an already-unassigned student succeeds.
	if _, err := svc.Unassign(ctx, testSchool, kids[0].ID); err != nil {
		t.Fatalf("repeat unassign: %v", err)
	}

	// The freed slot is reusable.
	if _, err := svc.Assign(ctx, testSchool, kids[0].ID, observer.ID); err != nil {
		t.Fatalf("reassign after unassign: %v", err)
	}
}

func TestAssignWrongSchool(t *testing.T) {
	accounts, students, observer, kids := seedAssignmentFixture(t, 2, 1)
	svc := NewAssignmentService(students, accounts)

	_, err := svc.Assign(context.Background(), "Lakeside Middle", kids[0].ID, observer.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("cross-school assign err = %v, want ErrNotFound", err)
	}
}
