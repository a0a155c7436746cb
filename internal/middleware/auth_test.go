package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newTestRouter(tokens *token.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	m := NewAuthMiddleware(tokens)

	protected := r.Group("/api")
	protected.Use(m.Require())

	principal := protected.Group("/principal")
	principal.Use(m.RequireRole(entity.RolePrincipal))
	principal.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})

	parent := protected.Group("/parent")
	parent.Use(m.RequireRole(entity.RoleParent))
	parent.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r
}

func doGet(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMissingToken(t *testing.T) {
	tokens := token.NewService("test-secret", time.Hour)
	r := newTestRouter(tokens)

	if w := doGet(r, "/api/principal/ping", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMatchingRolePasses(t *testing.T) {
	tokens := token.NewService("test-secret", time.Hour)
	r := newTestRouter(tokens)

	id := uuid.New()
	signed, _, err := tokens.Issue(id, entity.RolePrincipal, "p@greenwood.edu")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	w := doGet(r, "/api/principal/ping", signed)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestWrongRoleRejected(t *testing.T) {
	tokens := token.NewService("test-secret", time.Hour)
	r := newTestRouter(tokens)

	// A valid parent token must never pass a principal gate, and the other
	// way around, even before expiry.
	parentTok, _, _ := tokens.Issue(uuid.New(), entity.RoleParent, "")
	principalTok, _, _ := tokens.Issue(uuid.New(), entity.RolePrincipal, "")

	if w := doGet(r, "/api/principal/ping", parentTok); w.Code != http.StatusUnauthorized {
		t.Fatalf("parent token on principal route: expected 401, got %d", w.Code)
	}
	if w := doGet(r, "/api/parent/ping", principalTok); w.Code != http.StatusUnauthorized {
		t.Fatalf("principal token on parent route: expected 401, got %d", w.Code)
	}
}

func TestQueryParamFallback(t *testing.T) {
	tokens := token.NewService("test-secret", time.Hour)
	r := newTestRouter(tokens)

	signed, _, _ := tokens.Issue(uuid.New(), entity.RolePrincipal, "")

	req := httptest.NewRequest(http.MethodGet, "/api/principal/ping?token="+signed, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 via query param transport, got %d", w.Code)
	}
}

func TestForgedTokenRejected(t *testing.T) {
	tokens := token.NewService("test-secret", time.Hour)
	other := token.NewService("other-secret", time.Hour)
	r := newTestRouter(tokens)

	forged, _, _ := other.Issue(uuid.New(), entity.RolePrincipal, "")

	if w := doGet(r, "/api/principal/ping", forged); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", w.Code)
	}
}
