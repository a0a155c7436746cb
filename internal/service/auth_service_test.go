package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/token"
	"github.com/calmroots/backend/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
)

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func TestLoginPrincipal(t *testing.T) {
	accounts := newFakeAccountRepo()
	principal := &entity.Principal{
		Email:        "principal@greenwood.edu",
		FullName:     "Dana Whitfield",
		PasswordHash: mustHash(t, "correct-horse"),
		School:       "Greenwood Elementary",
		Active:       true,
	}
	if err := accounts.CreatePrincipal(context.Background(), principal); err != nil {
		t.Fatalf("seed principal: %v", err)
	}

	tokens := token.NewService("test-secret", 24*time.Hour)
	svc := NewAuthService(accounts, tokens)

	resp, err := svc.Login(context.Background(), entity.RolePrincipal, dto.LoginInput{
		Email:    "principal@greenwood.edu",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if resp.AccessToken == "" {
		t.Error("expected a signed access token")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token type = %q, want Bearer", resp.TokenType)
	}
	if resp.Role != entity.RolePrincipal {
		t.Errorf("role = %q, want %q", resp.Role, entity.RolePrincipal)
	}

	claims, err := tokens.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.Subject != principal.ID.String() {
		t.Errorf("token subject = %q, want %q", claims.Subject, principal.ID)
	}
	if claims.Role != entity.RolePrincipal {
		t.Errorf("token role = %q, want principal", claims.Role)
	}

	got, ok := resp.Account.(*entity.Principal)
	if !ok {
		t.Fatalf("account type = %T, want *entity.Principal", resp.Account)
	}
	if got.PasswordHash != "" {
		t.Error("password hash leaked in login response")
	}
	if accounts.principals[principal.ID].LastLoginAt == nil {
		t.Error("last login was not stamped")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	accounts := newFakeAccountRepo()
	parent := &entity.Parent{
		Email:        "parent@example.com",
		FullName:     "Jo Example",
		PasswordHash: mustHash(t, "right-password"),
		Active:       true,
	}
	if err := accounts.CreateParent(context.Background(), parent); err != nil {
		t.Fatalf("seed parent: %v", err)
	}

	svc := NewAuthService(accounts, token.NewService("test-secret", time.Hour))

	_, err := svc.Login(context.Background(), entity.RoleParent, dto.LoginInput{
		Email:    "parent@example.com",
		Password: "wrong-password",
	})
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	accounts := newFakeAccountRepo()
	svc := NewAuthService(accounts, token.NewService("test-secret", time.Hour))

	_, err := svc.Login(context.Background(), entity.RoleObserver, dto.LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials (not a not-found leak)", err)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	accounts := newFakeAccountRepo()
	observer := &entity.Observer{
		Email:        "observer@greenwood.edu",
		FullName:     "Sam Ortiz",
		PasswordHash: mustHash(t, "password123"),
		School:       "Greenwood Elementary",
		Active:       false,
	}
	if err := accounts.CreateObserver(context.Background(), observer); err != nil {
		t.Fatalf("seed observer: %v", err)
	}

	svc := NewAuthService(accounts, token.NewService("test-secret", time.Hour))

	_, err := svc.Login(context.Background(), entity.RoleObserver, dto.LoginInput{
		Email:    "observer@greenwood.edu",
		Password: "password123",
	})
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginRoleTableIsolation(t *testing.T) {
	// A parent's credentials must not open the admin door.
	accounts := newFakeAccountRepo()
	parent := &entity.Parent{
		Email:        "parent@example.com",
		FullName:     "Jo Example",
		PasswordHash: mustHash(t, "password123"),
		Active:       true,
	}
	if err := accounts.CreateParent(context.Background(), parent); err != nil {
		t.Fatalf("seed parent: %v", err)
	}

	svc := NewAuthService(accounts, token.NewService("test-secret", time.Hour))

	_, err := svc.Login(context.Background(), entity.RoleAdmin, dto.LoginInput{
		Email:    "parent@example.com",
		Password: "password123",
	})
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}
