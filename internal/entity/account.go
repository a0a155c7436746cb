package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin     = "admin"
	RoleParent    = "parent"
	RoleObserver  = "observer"
	RolePrincipal = "principal"
)

// Each role has its own account table. Accounts are never hard-deleted;
// deactivation flips the Active flag.

type Admin struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FullName     string     `gorm:"size:100;not null" json:"full_name"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Active       bool       `gorm:"default:true" json:"active"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type Parent struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FullName     string     `gorm:"size:100;not null" json:"full_name"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Phone        *string    `gorm:"size:30" json:"phone,omitempty"`
	ConsentAt    *time.Time `json:"consent_at,omitempty"`
	Active       bool       `gorm:"default:true" json:"active"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	Students     []*Student `gorm:"many2many:parent_students" json:"students,omitempty"`
}

func (p *Parent) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Observer conducts daily check-ins with assigned students. Capacity is the
// maximum number of concurrently assigned students; it is enforced at
// assignment time, not by the schema.
type Observer struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FullName     string     `gorm:"size:100;not null" json:"full_name"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Phone        *string    `gorm:"size:30" json:"phone,omitempty"`
	School       string     `gorm:"size:100;index;not null" json:"school"`
	Capacity     int        `gorm:"default:5" json:"capacity"`
	Active       bool       `gorm:"default:true" json:"active"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (o *Observer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type Principal struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FullName     string     `gorm:"size:100;not null" json:"full_name"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	School       string     `gorm:"size:100;index;not null" json:"school"`
	Active       bool       `gorm:"default:true" json:"active"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (p *Principal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
