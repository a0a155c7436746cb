package repository

import (
	"context"
	"errors"
	"time"

	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepository is the credential store. Each role lives in its own
// table; the methods mirror that split rather than papering over it.
type AccountRepository interface {
	FindAdminByEmail(ctx context.Context, email string) (*entity.Admin, error)
	FindParentByEmail(ctx context.Context, email string) (*entity.Parent, error)
	FindObserverByEmail(ctx context.Context, email string) (*entity.Observer, error)
	FindPrincipalByEmail(ctx context.Context, email string) (*entity.Principal, error)

	FindParentByID(ctx context.Context, id uuid.UUID) (*entity.Parent, error)
	FindObserverByID(ctx context.Context, id uuid.UUID) (*entity.Observer, error)
	FindPrincipalByID(ctx context.Context, id uuid.UUID) (*entity.Principal, error)

	CreateAdmin(ctx context.Context, a *entity.Admin) error
	CreateParent(ctx context.Context, p *entity.Parent) error
	CreateObserver(ctx context.Context, o *entity.Observer) error
	CreatePrincipal(ctx context.Context, p *entity.Principal) error

	ListParents(ctx context.Context) ([]*entity.Parent, error)
	ListObservers(ctx context.Context) ([]*entity.Observer, error)
	ListPrincipals(ctx context.Context) ([]*entity.Principal, error)
	ListActiveObserversBySchool(ctx context.Context, school string) ([]*entity.Observer, error)

	SetActive(ctx context.Context, role string, id uuid.UUID, active bool) error
	TouchLastLogin(ctx context.Context, role string, id uuid.UUID) error

	ParentsWithoutConsent(ctx context.Context) ([]*entity.Parent, error)
	RecordParentConsent(ctx context.Context, parentID uuid.UUID) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}

func (r *accountRepository) FindAdminByEmail(ctx context.Context, email string) (*entity.Admin, error) {
	var a entity.Admin
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &a, nil
}

func (r *accountRepository) FindParentByEmail(ctx context.Context, email string) (*entity.Parent, error) {
	var p entity.Parent
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (r *accountRepository) FindObserverByEmail(ctx context.Context, email string) (*entity.Observer, error) {
	var o entity.Observer
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&o).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &o, nil
}

func (r *accountRepository) FindPrincipalByEmail(ctx context.Context, email string) (*entity.Principal, error) {
	var p entity.Principal
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (r *accountRepository) FindParentByID(ctx context.Context, id uuid.UUID) (*entity.Parent, error) {
	var p entity.Parent
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (r *accountRepository) FindObserverByID(ctx context.Context, id uuid.UUID) (*entity.Observer, error) {
	var o entity.Observer
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &o, nil
}

func (r *accountRepository) FindPrincipalByID(ctx context.Context, id uuid.UUID) (*entity.Principal, error) {
	var p entity.Principal
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (r *accountRepository) CreateAdmin(ctx context.Context, a *entity.Admin) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *accountRepository) CreateParent(ctx context.Context, p *entity.Parent) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *accountRepository) CreateObserver(ctx context.Context, o *entity.Observer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *accountRepository) CreatePrincipal(ctx context.Context, p *entity.Principal) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *accountRepository) ListParents(ctx context.Context) ([]*entity.Parent, error) {
	var out []*entity.Parent
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *accountRepository) ListObservers(ctx context.Context) ([]*entity.Observer, error) {
	var out []*entity.Observer
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *accountRepository) ListPrincipals(ctx context.Context) ([]*entity.Principal, error) {
	var out []*entity.Principal
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *accountRepository) ListActiveObserversBySchool(ctx context.Context, school string) ([]*entity.Observer, error) {
	var out []*entity.Observer
	if err := r.db.WithContext(ctx).
		Where("school = ? AND active = ?", school, true).
		Order("full_name").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *accountRepository) SetActive(ctx context.Context, role string, id uuid.UUID, active bool) error {
	var res *gorm.DB
	switch role {
	case entity.RoleAdmin:
		res = r.db.WithContext(ctx).Model(&entity.Admin{}).Where("id = ?", id).Update("active", active)
	case entity.RoleParent:
		res = r.db.WithContext(ctx).Model(&entity.Parent{}).Where("id = ?", id).Update("active", active)
	case entity.RoleObserver:
		res = r.db.WithContext(ctx).Model(&entity.Observer{}).Where("id = ?", id).Update("active", active)
	case entity.RolePrincipal:
		res = r.db.WithContext(ctx).Model(&entity.Principal{}).Where("id = ?", id).Update("active", active)
	default:
		return apperror.ErrInvalidInput
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *accountRepository) TouchLastLogin(ctx context.Context, role string, id uuid.UUID) error {
	now := time.Now()
	switch role {
	case entity.RoleAdmin:
		return r.db.WithContext(ctx).Model(&entity.Admin{}).Where("id = ?", id).Update("last_login_at", now).Error
	case entity.RoleParent:
		return r.db.WithContext(ctx).Model(&entity.Parent{}).Where("id = ?", id).Update("last_login_at", now).Error
	case entity.RoleObserver:
		return r.db.WithContext(ctx).Model(&entity.Observer{}).Where("id = ?", id).Update("last_login_at", now).Error
	case entity.RolePrincipal:
		return r.db.WithContext(ctx).Model(&entity.Principal{}).Where("id = ?", id).Update("last_login_at", now).Error
	}
	return apperror.ErrInvalidInput
}

// RecordParentConsent stamps the consent time once; a second acceptance
// does not move the original timestamp.
func (r *accountRepository) RecordParentConsent(ctx context.Context, parentID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Parent{}).
		Where("id = ? AND consent_at IS NULL", parentID).
		Update("consent_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	return nil
}

func (r *accountRepository) ParentsWithoutConsent(ctx context.Context) ([]*entity.Parent, error) {
	var out []*entity.Parent
	if err := r.db.WithContext(ctx).
		Where("consent_at IS NULL AND active = ?", true).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
