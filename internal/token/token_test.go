package token

import (
	"errors"
	"testing"
	"time"

	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/google/uuid"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("test-secret", 24*time.Hour)
	id := uuid.New()

	signed, expiresAt, err := svc.Issue(id, entity.RolePrincipal, "principal@greenwood.edu")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if until := time.Until(expiresAt); until < 23*time.Hour {
		t.Fatalf("expected ~24h expiry, got %v", until)
	}

	claims, err := svc.Verify(signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != id.String() {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != entity.RolePrincipal {
		t.Fatalf("unexpected role claim: %s", claims.Role)
	}
	if claims.Email != "principal@greenwood.edu" {
		t.Fatalf("unexpected email claim: %s", claims.Email)
	}
}

func TestVerifyExpired(t *testing.T) {
	svc := NewService("test-secret", 24*time.Hour)

	issued := time.Now()
	svc.now = func() time.Time { return issued }

	signed, _, err := svc.Issue(uuid.New(), entity.RoleParent, "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// One second past the embedded expiry.
	svc.now = func() time.Time { return issued.Add(24*time.Hour + time.Second) }

	if _, err := svc.Verify(signed); !errors.Is(err, apperror.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	signed, _, err := issuer.Issue(uuid.New(), entity.RoleAdmin, "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := verifier.Verify(signed); !errors.Is(err, apperror.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	for _, bad := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Verify(bad); !errors.Is(err, apperror.ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", bad, err)
		}
	}
}
