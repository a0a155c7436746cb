package service

import (
	"context"
	"errors"
	"log"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/internal/token"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, role string, input dto.LoginInput) (*dto.AuthResponse, error)
}

type authService struct {
	accounts repository.AccountRepository
	tokens   *token.Service
}

func NewAuthService(accounts repository.AccountRepository, tokens *token.Service) AuthService {
	return &authService{
		accounts: accounts,
		tokens:   tokens,
	}
}

// Login authenticates against the role's own account table. Unknown email
// and wrong password come back as the same error so the response doesn't
// reveal which one it was.
func (s *authService) Login(ctx context.Context, role string, input dto.LoginInput) (*dto.AuthResponse, error) {
	switch role {
	case entity.RoleAdmin:
		a, err := s.accounts.FindAdminByEmail(ctx, input.Email)
		if err != nil {
			return nil, loginErr(err)
		}
		if err := s.check(a.Active, a.PasswordHash, input.Password); err != nil {
			return nil, err
		}
		a.PasswordHash = ""
		return s.respond(ctx, role, a.ID, a.Email, a)

	case entity.RoleParent:
		p, err := s.accounts.FindParentByEmail(ctx, input.Email)
		if err != nil {
			return nil, loginErr(err)
		}
		if err := s.check(p.Active, p.PasswordHash, input.Password); err != nil {
			return nil, err
		}
		p.PasswordHash = ""
		return s.respond(ctx, role, p.ID, p.Email, p)

	case entity.RoleObserver:
		o, err := s.accounts.FindObserverByEmail(ctx, input.Email)
		if err != nil {
			return nil, loginErr(err)
		}
		if err := s.check(o.Active, o.PasswordHash, input.Password); err != nil {
			return nil, err
		}
		o.PasswordHash = ""
		return s.respond(ctx, role, o.ID, o.Email, o)

	case entity.RolePrincipal:
		p, err := s.accounts.FindPrincipalByEmail(ctx, input.Email)
		if err != nil {
			return nil, loginErr(err)
		}
		if err := s.check(p.Active, p.PasswordHash, input.Password); err != nil {
			return nil, err
		}
		p.PasswordHash = ""
		return s.respond(ctx, role, p.ID, p.Email, p)
	}

	return nil, apperror.ErrInvalidInput
}

func loginErr(err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.ErrInvalidCredentials
	}
	return err
}

func (s *authService) check(active bool, hash, password string) error {
	if !active {
		return apperror.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return apperror.ErrInvalidCredentials
	}
	return nil
}

func (s *authService) respond(ctx context.Context, role string, id uuid.UUID, email string, account interface{}) (*dto.AuthResponse, error) {
	signed, expiresAt, err := s.tokens.Issue(id, role, email)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.TouchLastLogin(ctx, role, id); err != nil {
		// Last-login is best effort; login still succeeds.
		log.Printf("failed to stamp last login for %s %s: %v", role, id, err)
	}

	return &dto.AuthResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt.Unix(),
		Role:        role,
		Account:     account,
	}, nil
}
