package middleware

import (
	"strings"

	"github.com/calmroots/backend/internal/token"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/calmroots/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokens *token.Service
}

func NewAuthMiddleware(tokens *token.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Require verifies the caller's token and stores the decoded claims in the
// context. The bearer header is the canonical transport; the "token" query
// parameter is kept as a compatibility shim (websocket clients cannot set
// headers).
func (m *AuthMiddleware) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			response.ResponseError(c, apperror.ErrMissingToken)
			c.Abort()
			return
		}

		claims, err := m.tokens.Verify(tokenString)
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("role", claims.Role)
		c.Set("email", claims.Email)
		c.Next()
	}
}

// RequireRole rejects an otherwise valid token whose role claim does not
// match the route family. All roles share one signing secret, so this
// per-operation check is the only thing separating them.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimRole, exists := c.Get("role")
		if !exists || claimRole.(string) != role {
			response.ResponseError(c, apperror.ErrWrongRole)
			c.Abort()
			return
		}
		c.Next()
	}
}
