package handler

import (
	"net/http"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/service"
	"github.com/calmroots/backend/pkg/response"
	"github.com/calmroots/backend/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login returns the login handler for one role. Each role family has its
// own login route backed by its own account collection.
func (h *AuthHandler) Login(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input dto.LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
			return
		}

		resp, err := h.auth.Login(c.Request.Context(), role, input)
		if err != nil {
			response.ResponseError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
