package service

import (
	"context"
	"time"

	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
)

// In-memory repository fakes backing the service tests. They implement the
// same invariants the SQL repositories enforce (capacity checks, not-found
// mapping) so services can be tested without a database.

type fakeAccountRepo struct {
	admins     map[uuid.UUID]*entity.Admin
	parents    map[uuid.UUID]*entity.Parent
	observers  map[uuid.UUID]*entity.Observer
	principals map[uuid.UUID]*entity.Principal
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		admins:     make(map[uuid.UUID]*entity.Admin),
		parents:    make(map[uuid.UUID]*entity.Parent),
		observers:  make(map[uuid.UUID]*entity.Observer),
		principals: make(map[uuid.UUID]*entity.Principal),
	}
}

func (f *fakeAccountRepo) FindAdminByEmail(_ context.Context, email string) (*entity.Admin, error) {
	for _, a := range f.admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeAccountRepo) FindParentByEmail(_ context.Context, email string) (*entity.Parent, error) {
	for _, p := range f.parents {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeAccountRepo) FindObserverByEmail(_ context.Context, email string) (*entity.Observer, error) {
	for _, o := range f.observers {
		if o.Email == email {
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeAccountRepo) FindPrincipalByEmail(_ context.Context, email string) (*entity.Principal, error) {
	for _, p := range f.principals {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeAccountRepo) FindParentByID(_ context.Context, id uuid.UUID) (*entity.Parent, error) {
	p, ok := f.parents[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeAccountRepo) FindObserverByID(_ context.Context, id uuid.UUID) (*entity.Observer, error) {
	o, ok := f.observers[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeAccountRepo) FindPrincipalByID(_ context.Context, id uuid.UUID) (*entity.Principal, error) {
	p, ok := f.principals[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeAccountRepo) CreateAdmin(_ context.Context, a *entity.Admin) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.admins[a.ID] = a
	return nil
}

func (f *fakeAccountRepo) CreateParent(_ context.Context, p *entity.Parent) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.parents[p.ID] = p
	return nil
}

func (f *fakeAccountRepo) CreateObserver(_ context.Context, o *entity.Observer) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	f.observers[o.ID] = o
	return nil
}

func (f *fakeAccountRepo) CreatePrincipal(_ context.Context, p *entity.Principal) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.principals[p.ID] = p
	return nil
}

func (f *fakeAccountRepo) ListParents(_ context.Context) ([]*entity.Parent, error) {
	out := make([]*entity.Parent, 0, len(f.parents))
	for _, p := range f.parents {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeAccountRepo) ListObservers(_ context.Context) ([]*entity.Observer, error) {
	out := make([]*entity.Observer, 0, len(f.observers))
	for _, o := range f.observers {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeAccountRepo) ListPrincipals(_ context.Context) ([]*entity.Principal, error) {
	out := make([]*entity.Principal, 0, len(f.principals))
	for _, p := range f.principals {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeAccountRepo) ListActiveObserversBySchool(_ context.Context, school string) ([]*entity.Observer, error) {
	var out []*entity.Observer
	for _, o := range f.observers {
		if o.School == school && o.Active {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) SetActive(_ context.Context, role string, id uuid.UUID, active bool) error {
	switch role {
	case entity.RoleAdmin:
		if a, ok := f.admins[id]; ok {
			a.Active = active
			return nil
		}
	case entity.RoleParent:
		if p, ok := f.parents[id]; ok {
			p.Active = active
			return nil
		}
	case entity.RoleObserver:
		if o, ok := f.observers[id]; ok {
			o.Active = active
			return nil
		}
	case entity.RolePrincipal:
		if p, ok := f.principals[id]; ok {
			p.Active = active
			return nil
		}
	default:
		return apperror.ErrInvalidInput
	}
	return apperror.ErrNotFound
}

func (f *fakeAccountRepo) TouchLastLogin(_ context.Context, role string, id uuid.UUID) error {
	now := time.Now()
	switch role {
	case entity.RoleAdmin:
		if a, ok := f.admins[id]; ok {
			a.LastLoginAt = &now
		}
	case entity.RoleParent:
		if p, ok := f.parents[id]; ok {
			p.LastLoginAt = &now
		}
	case entity.RoleObserver:
		if o, ok := f.observers[id]; ok {
			o.LastLoginAt = &now
		}
	case entity.RolePrincipal:
		if p, ok := f.principals[id]; ok {
			p.LastLoginAt = &now
		}
	}
	return nil
}

func (f *fakeAccountRepo) ParentsWithoutConsent(_ context.Context) ([]*entity.Parent, error) {
	var out []*entity.Parent
	for _, p := range f.parents {
		if p.ConsentAt == nil && p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) RecordParentConsent(_ context.Context, parentID uuid.UUID) error {
	if p, ok := f.parents[parentID]; ok && p.ConsentAt == nil {
		now := time.Now()
		p.ConsentAt = &now
	}
	return nil
}

type fakeStudentRepo struct {
	students  map[uuid.UUID]*entity.Student
	parentOf  map[uuid.UUID][]uuid.UUID // studentID -> parentIDs
	observers *fakeAccountRepo
}

func newFakeStudentRepo(accounts *fakeAccountRepo) *fakeStudentRepo {
	return &fakeStudentRepo{
		students:  make(map[uuid.UUID]*entity.Student),
		parentOf:  make(map[uuid.UUID][]uuid.UUID),
		observers: accounts,
	}
}

func (f *fakeStudentRepo) Create(_ context.Context, s *entity.Student, parentIDs []uuid.UUID) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.students[s.ID] = s
	f.parentOf[s.ID] = append(f.parentOf[s.ID], parentIDs...)
	return nil
}

func (f *fakeStudentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStudentRepo) FindByIDInSchool(_ context.Context, school string, id uuid.UUID) (*entity.Student, error) {
	s, ok := f.students[id]
	if !ok || s.School != school {
		return nil, apperror.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStudentRepo) Update(_ context.Context, s *entity.Student) error {
	if _, ok := f.students[s.ID]; !ok {
		return apperror.ErrNotFound
	}
	f.students[s.ID] = s
	return nil
}

func (f *fakeStudentRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s, ok := f.students[id]
	if !ok {
		return apperror.ErrNotFound
	}
	s.Active = active
	return nil
}

func (f *fakeStudentRepo) LinkParent(_ context.Context, studentID, parentID uuid.UUID) error {
	if _, ok := f.students[studentID]; !ok {
		return apperror.ErrNotFound
	}
	for _, id := range f.parentOf[studentID] {
		if id == parentID {
			return nil
		}
	}
	f.parentOf[studentID] = append(f.parentOf[studentID], parentID)
	return nil
}

func (f *fakeStudentRepo) ListAll(_ context.Context) ([]*entity.Student, error) {
	out := make([]*entity.Student, 0, len(f.students))
	for _, s := range f.students {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStudentRepo) ListBySchool(_ context.Context, school string) ([]*entity.Student, error) {
	var out []*entity.Student
	for _, s := range f.students {
		if s.School == school {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) ListUnassigned(_ context.Context, school string) ([]*entity.Student, error) {
	var out []*entity.Student
	for _, s := range f.students {
		if s.School == school && s.Active && s.ObserverID == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) ListByParent(_ context.Context, parentID uuid.UUID) ([]*entity.Student, error) {
	var out []*entity.Student
	for sid, parents := range f.parentOf {
		for _, pid := range parents {
			if pid == parentID {
				out = append(out, f.students[sid])
			}
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) ListByObserver(_ context.Context, observerID uuid.UUID) ([]*entity.Student, error) {
	var out []*entity.Student
	for _, s := range f.students {
		if s.ObserverID != nil && *s.ObserverID == observerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) IsParentOf(_ context.Context, parentID, studentID uuid.UUID) (bool, error) {
	for _, pid := range f.parentOf[studentID] {
		if pid == parentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStudentRepo) AssignedCounts(_ context.Context, school string) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64)
	for _, s := range f.students {
		if s.School == school && s.ObserverID != nil {
			counts[*s.ObserverID]++
		}
	}
	return counts, nil
}

func (f *fakeStudentRepo) AssignedToInactiveObservers(_ context.Context) ([]*entity.Student, error) {
	var out []*entity.Student
	for _, s := range f.students {
		if s.ObserverID == nil {
			continue
		}
		if o, ok := f.observers.observers[*s.ObserverID]; ok && !o.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) Assign(ctx context.Context, school string, studentID, observerID uuid.UUID) (*entity.Student, int64, error) {
	s, ok := f.students[studentID]
	if !ok || s.School != school {
		return nil, 0, apperror.ErrNotFound
	}
	o, ok := f.observers.observers[observerID]
	if !ok || o.School != school || !o.Active {
		return nil, 0, apperror.ErrNotFound
	}

	counts, _ := f.AssignedCounts(ctx, school)
	if counts[observerID] >= int64(o.Capacity) {
		return nil, 0, apperror.ErrCapacityExceeded
	}

	s.ObserverID = &observerID
	s.Observer = o
	cp := *s
	return &cp, counts[observerID] + 1, nil
}

func (f *fakeStudentRepo) Unassign(_ context.Context, school string, studentID uuid.UUID) (*entity.Student, error) {
	s, ok := f.students[studentID]
	if !ok || s.School != school {
		return nil, apperror.ErrNotFound
	}
	s.ObserverID = nil
	s.Observer = nil
	cp := *s
	return &cp, nil
}

type fakeSessionRepo struct {
	appointments map[uuid.UUID]*entity.Appointment
	notes        map[uuid.UUID]*entity.SessionNote
	stats        map[uuid.UUID]repository.ObserverSessionStats
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		appointments: make(map[uuid.UUID]*entity.Appointment),
		notes:        make(map[uuid.UUID]*entity.SessionNote),
		stats:        make(map[uuid.UUID]repository.ObserverSessionStats),
	}
}

func (f *fakeSessionRepo) CreateAppointment(_ context.Context, a *entity.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.appointments[a.ID] = a
	return nil
}

func (f *fakeSessionRepo) FindAppointment(_ context.Context, id uuid.UUID) (*entity.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeSessionRepo) UpdateAppointment(_ context.Context, a *entity.Appointment) error {
	if _, ok := f.appointments[a.ID]; !ok {
		return apperror.ErrNotFound
	}
	f.appointments[a.ID] = a
	return nil
}

func (f *fakeSessionRepo) ListAppointmentsByStudent(_ context.Context, studentID uuid.UUID, _, _ *time.Time) ([]*entity.Appointment, error) {
	var out []*entity.Appointment
	for _, a := range f.appointments {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) ListAppointmentsByObserver(_ context.Context, observerID uuid.UUID, _, _ *time.Time) ([]*entity.Appointment, error) {
	var out []*entity.Appointment
	for _, a := range f.appointments {
		if a.ObserverID == observerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) StatsByObserverSince(_ context.Context, _ string, _ time.Time) (map[uuid.UUID]repository.ObserverSessionStats, error) {
	return f.stats, nil
}

func (f *fakeSessionRepo) CreateNote(_ context.Context, n *entity.SessionNote) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	f.notes[n.ID] = n
	return nil
}

func (f *fakeSessionRepo) FindNote(_ context.Context, id uuid.UUID) (*entity.SessionNote, error) {
	n, ok := f.notes[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeSessionRepo) UpdateNote(_ context.Context, n *entity.SessionNote) error {
	if _, ok := f.notes[n.ID]; !ok {
		return apperror.ErrNotFound
	}
	f.notes[n.ID] = n
	return nil
}

func (f *fakeSessionRepo) ListNotesByStudent(_ context.Context, studentID uuid.UUID, sharedOnly bool) ([]*entity.SessionNote, error) {
	var out []*entity.SessionNote
	for _, n := range f.notes {
		if n.StudentID != studentID {
			continue
		}
		if sharedOnly && !n.SharedWithParent {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

type fakeGroupRepo struct {
	sessions      map[uuid.UUID]*entity.GroupSession
	registrations map[uuid.UUID][]*entity.GroupRegistration
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		sessions:      make(map[uuid.UUID]*entity.GroupSession),
		registrations: make(map[uuid.UUID][]*entity.GroupRegistration),
	}
}

func (f *fakeGroupRepo) Create(_ context.Context, g *entity.GroupSession) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	f.sessions[g.ID] = g
	return nil
}

func (f *fakeGroupRepo) Find(_ context.Context, id uuid.UUID) (*entity.GroupSession, error) {
	g, ok := f.sessions[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *g
	cp.Registrations = f.registrations[id]
	return &cp, nil
}

func (f *fakeGroupRepo) ListUpcoming(_ context.Context, school string) ([]*entity.GroupSession, error) {
	var out []*entity.GroupSession
	for _, g := range f.sessions {
		if g.School == school {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) Register(_ context.Context, sessionID, studentID, parentID uuid.UUID) error {
	g, ok := f.sessions[sessionID]
	if !ok {
		return apperror.ErrNotFound
	}
	for _, r := range f.registrations[sessionID] {
		if r.StudentID == studentID {
			return nil
		}
	}
	if len(f.registrations[sessionID]) >= g.Capacity {
		return apperror.ErrCapacityExceeded
	}
	f.registrations[sessionID] = append(f.registrations[sessionID], &entity.GroupRegistration{
		ID:             uuid.New(),
		GroupSessionID: sessionID,
		StudentID:      studentID,
		ParentID:       parentID,
	})
	return nil
}

func (f *fakeGroupRepo) CancelRegistration(_ context.Context, sessionID, studentID uuid.UUID) error {
	regs := f.registrations[sessionID]
	for i, r := range regs {
		if r.StudentID == studentID {
			f.registrations[sessionID] = append(regs[:i], regs[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeMessageRepo struct {
	messages []*entity.Message
}

func (f *fakeMessageRepo) Create(_ context.Context, m *entity.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeMessageRepo) Conversation(_ context.Context, a, b uuid.UUID, _, _ int) ([]*entity.Message, error) {
	var out []*entity.Message
	for _, m := range f.messages {
		if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) UnreadCount(_ context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	for _, m := range f.messages {
		if m.RecipientID == recipientID && !m.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeMessageRepo) MarkConversationRead(_ context.Context, recipientID, senderID uuid.UUID) error {
	for _, m := range f.messages {
		if m.RecipientID == recipientID && m.SenderID == senderID {
			m.Read = true
		}
	}
	return nil
}
