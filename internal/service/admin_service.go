package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SafetyReport surfaces the signals an admin needs to act on quickly:
// recent low mood entries and students whose observer was deactivated
// without reassignment.
type SafetyReport struct {
	FlaggedMoods     []*entity.MoodEntry `json:"flagged_moods"`
	OrphanedStudents []*entity.Student   `json:"orphaned_students"`
	WindowDays       int                 `json:"window_days"`
}

type ComplianceReport struct {
	ParentsWithoutConsent []*entity.Parent `json:"parents_without_consent"`
}

type AdminService interface {
	CreateAccount(ctx context.Context, adminID uuid.UUID, role string, req dto.CreateAccountRequest) (interface{}, error)
	SetAccountActive(ctx context.Context, adminID uuid.UUID, role string, id uuid.UUID, active bool) error
	ListParents(ctx context.Context) ([]*entity.Parent, error)
	ListObservers(ctx context.Context) ([]*entity.Observer, error)
	ListPrincipals(ctx context.Context) ([]*entity.Principal, error)

	EnrollStudent(ctx context.Context, adminID uuid.UUID, req dto.EnrollStudentRequest) (*entity.Student, error)
	UpdateStudent(ctx context.Context, adminID, studentID uuid.UUID, req dto.UpdateStudentRequest) (*entity.Student, error)
	SetStudentActive(ctx context.Context, adminID, studentID uuid.UUID, active bool) error
	LinkParent(ctx context.Context, adminID, studentID, parentID uuid.UUID) error
	ListStudents(ctx context.Context) ([]*entity.Student, error)

	RecordPayment(ctx context.Context, adminID uuid.UUID, req dto.RecordPaymentRequest) (*entity.Payment, error)
	BillingDashboard(ctx context.Context, from, to *time.Time) ([]repository.BillingSummary, error)
	SafetyDashboard(ctx context.Context) (*SafetyReport, error)
	ComplianceDashboard(ctx context.Context) (*ComplianceReport, error)
	AuditTrail(ctx context.Context, q dto.AuditQuery) ([]*entity.AuditLog, error)
}

type adminService struct {
	accounts      repository.AccountRepository
	students      repository.StudentRepository
	consultations repository.ConsultationRepository
	journals      repository.JournalRepository
	audits        repository.AuditRepository
}

func NewAdminService(
	accounts repository.AccountRepository,
	students repository.StudentRepository,
	consultations repository.ConsultationRepository,
	journals repository.JournalRepository,
	audits repository.AuditRepository,
) AdminService {
	return &adminService{
		accounts:      accounts,
		students:      students,
		consultations: consultations,
		journals:      journals,
		audits:        audits,
	}
}

// audit records an admin mutation. Failures are logged, never returned: the
// mutation already happened.
func (s *adminService) audit(ctx context.Context, adminID uuid.UUID, action, entityName, entityID string, detail string) {
	var d *string
	if detail != "" {
		d = &detail
	}
	err := s.audits.Append(ctx, &entity.AuditLog{
		ActorRole: entity.RoleAdmin,
		ActorID:   adminID,
		Action:    action,
		Entity:    entityName,
		EntityID:  entityID,
		Detail:    d,
	})
	if err != nil {
		log.Printf("failed to append audit log (%s %s/%s): %v", action, entityName, entityID, err)
	}
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *adminService) emailTaken(ctx context.Context, role, email string) (bool, error) {
	var err error
	switch role {
	case entity.RoleAdmin:
		_, err = s.accounts.FindAdminByEmail(ctx, email)
	case entity.RoleParent:
		_, err = s.accounts.FindParentByEmail(ctx, email)
	case entity.RoleObserver:
		_, err = s.accounts.FindObserverByEmail(ctx, email)
	case entity.RolePrincipal:
		_, err = s.accounts.FindPrincipalByEmail(ctx, email)
	default:
		return false, apperror.ErrInvalidInput
	}
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *adminService) CreateAccount(ctx context.Context, adminID uuid.UUID, role string, req dto.CreateAccountRequest) (interface{}, error) {
	taken, err := s.emailTaken(ctx, role, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.New(http.StatusConflict, "email already registered", nil)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var account interface{}
	var accountID uuid.UUID

	switch role {
	case entity.RoleAdmin:
		a := &entity.Admin{Email: req.Email, FullName: req.FullName, PasswordHash: hash, Active: true}
		if err := s.accounts.CreateAdmin(ctx, a); err != nil {
			return nil, err
		}
		account, accountID = a, a.ID
	case entity.RoleParent:
		p := &entity.Parent{Email: req.Email, FullName: req.FullName, PasswordHash: hash, Phone: req.Phone, Active: true}
		if err := s.accounts.CreateParent(ctx, p); err != nil {
			return nil, err
		}
		account, accountID = p, p.ID
	case entity.RoleObserver:
		if req.School == "" {
			return nil, apperror.New(http.StatusBadRequest, "school is required for observers", apperror.ErrInvalidInput)
		}
		capacity := req.Capacity
		if capacity <= 0 {
			capacity = 5
		}
		o := &entity.Observer{
			Email:        req.Email,
			FullName:     req.FullName,
			PasswordHash: hash,
			Phone:        req.Phone,
			School:       req.School,
			Capacity:     capacity,
			Active:       true,
		}
		if err := s.accounts.CreateObserver(ctx, o); err != nil {
			return nil, err
		}
		account, accountID = o, o.ID
	case entity.RolePrincipal:
		if req.School == "" {
			return nil, apperror.New(http.StatusBadRequest, "school is required for principals", apperror.ErrInvalidInput)
		}
		p := &entity.Principal{Email: req.Email, FullName: req.FullName, PasswordHash: hash, School: req.School, Active: true}
		if err := s.accounts.CreatePrincipal(ctx, p); err != nil {
			return nil, err
		}
		account, accountID = p, p.ID
	default:
		return nil, apperror.ErrInvalidInput
	}

	s.audit(ctx, adminID, "account.create", role, accountID.String(), req.Email)
	return account, nil
}

func (s *adminService) SetAccountActive(ctx context.Context, adminID uuid.UUID, role string, id uuid.UUID, active bool) error {
	if err := s.accounts.SetActive(ctx, role, id, active); err != nil {
		return err
	}
	s.audit(ctx, adminID, "account.set_active", role, id.String(), fmt.Sprintf("active=%t", active))
	return nil
}

func (s *adminService) ListParents(ctx context.Context) ([]*entity.Parent, error) {
	return s.accounts.ListParents(ctx)
}

func (s *adminService) ListObservers(ctx context.Context) ([]*entity.Observer, error) {
	return s.accounts.ListObservers(ctx)
}

func (s *adminService) ListPrincipals(ctx context.Context) ([]*entity.Principal, error) {
	return s.accounts.ListPrincipals(ctx)
}

func (s *adminService) EnrollStudent(ctx context.Context, adminID uuid.UUID, req dto.EnrollStudentRequest) (*entity.Student, error) {
	student := &entity.Student{
		FullName:    req.FullName,
		DateOfBirth: req.DateOfBirth,
		School:      req.School,
		Grade:       req.Grade,
		Active:      true,
	}
	if err := s.students.Create(ctx, student, req.ParentIDs); err != nil {
		return nil, err
	}
	s.audit(ctx, adminID, "student.enroll", "student", student.ID.String(), req.School)
	return student, nil
}

func (s *adminService) UpdateStudent(ctx context.Context, adminID, studentID uuid.UUID, req dto.UpdateStudentRequest) (*entity.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		student.FullName = *req.FullName
	}
	if req.School != nil {
		student.School = *req.School
	}
	if req.Grade != nil {
		student.Grade = *req.Grade
	}
	if err := s.students.Update(ctx, student); err != nil {
		return nil, err
	}

	s.audit(ctx, adminID, "student.update", "student", studentID.String(), "")
	return student, nil
}

func (s *adminService) SetStudentActive(ctx context.Context, adminID, studentID uuid.UUID, active bool) error {
	if err := s.students.SetActive(ctx, studentID, active); err != nil {
		return err
	}
	s.audit(ctx, adminID, "student.set_active", "student", studentID.String(), fmt.Sprintf("active=%t", active))
	return nil
}

func (s *adminService) LinkParent(ctx context.Context, adminID, studentID, parentID uuid.UUID) error {
	if _, err := s.accounts.FindParentByID(ctx, parentID); err != nil {
		return err
	}
	if err := s.students.LinkParent(ctx, studentID, parentID); err != nil {
		return err
	}
	s.audit(ctx, adminID, "student.link_parent", "student", studentID.String(), parentID.String())
	return nil
}

func (s *adminService) ListStudents(ctx context.Context) ([]*entity.Student, error) {
	return s.students.ListAll(ctx)
}

func (s *adminService) RecordPayment(ctx context.Context, adminID uuid.UUID, req dto.RecordPaymentRequest) (*entity.Payment, error) {
	if _, err := s.accounts.FindParentByID(ctx, req.ParentID); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = entity.PaymentPending
	}
	p := &entity.Payment{
		ParentID:    req.ParentID,
		StudentID:   req.StudentID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Status:      status,
	}
	if status == entity.PaymentPaid {
		now := time.Now()
		p.PaidAt = &now
	}
	if err := s.consultations.CreatePayment(ctx, p); err != nil {
		return nil, err
	}

	s.audit(ctx, adminID, "payment.record", "payment", p.ID.String(), fmt.Sprintf("amount=%d status=%s", p.Amount, p.Status))
	return p, nil
}

func (s *adminService) BillingDashboard(ctx context.Context, from, to *time.Time) ([]repository.BillingSummary, error) {
	return s.consultations.BillingByStatus(ctx, from, to)
}

const safetyWindowDays = 30

func (s *adminService) SafetyDashboard(ctx context.Context) (*SafetyReport, error) {
	since := time.Now().AddDate(0, 0, -safetyWindowDays)

	flagged, err := s.journals.ListFlaggedMoods(ctx, since, 100)
	if err != nil {
		return nil, err
	}
	orphaned, err := s.students.AssignedToInactiveObservers(ctx)
	if err != nil {
		return nil, err
	}

	return &SafetyReport{
		FlaggedMoods:     flagged,
		OrphanedStudents: orphaned,
		WindowDays:       safetyWindowDays,
	}, nil
}

func (s *adminService) ComplianceDashboard(ctx context.Context) (*ComplianceReport, error) {
	parents, err := s.accounts.ParentsWithoutConsent(ctx)
	if err != nil {
		return nil, err
	}
	return &ComplianceReport{ParentsWithoutConsent: parents}, nil
}

func (s *adminService) AuditTrail(ctx context.Context, q dto.AuditQuery) ([]*entity.AuditLog, error) {
	return s.audits.Query(ctx, q)
}
