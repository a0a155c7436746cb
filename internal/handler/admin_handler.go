package handler

import (
	"net/http"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/service"
	"github.com/calmroots/backend/pkg/response"
	"github.com/calmroots/backend/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	admin service.AdminService
}

func NewAdminHandler(admin service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func validAccountRole(role string) bool {
	switch role {
	case entity.RoleAdmin, entity.RoleParent, entity.RoleObserver, entity.RolePrincipal:
		return true
	}
	return false
}

func (h *AdminHandler) CreateAccount(c *gin.Context) {
	adminID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	role := c.Param("role")
	if !validAccountRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown account role"})
		return
	}

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	account, err := h.admin.CreateAccount(c.Request.Context(), adminID, role, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *AdminHandler) SetAccountActive(c *gin.Context) {
	adminID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	role := c.Param("role")
	if !validAccountRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown account role"})
		return
	}
	accountID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.admin.SetAccountActive(c.Request.Context(), adminID, role, accountID, *req.Active); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account updated"})
}

func (h *AdminHandler) ListParents(c *gin.Context) {
	parents, err := h.admin.ListParents(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parents": parents})
}

func (h *AdminHandler) ListObservers(c *gin.Context) {
	observers, err := h.admin.ListObservers(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"observers": observers})
}

func (h *AdminHandler) ListPrincipals(c *gin.Context) {
	principals, err := h.admin.ListPrincipals(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"principals": principals})
}

func (h *AdminHandler) EnrollStudent(c *gin.Context) {
	adminID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	student, err := h.admin.EnrollStudent(c.Request.Context(), adminID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (h *AdminHandler) UpdateStudent(c *gin.Context) {
	adminID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	student, err := h.admin.UpdateStudent(c.Request.Context(), adminID, studentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *AdminHandler) SetStudentActive(c *gin.Context) {
	adminID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.admin.SetStudentActive(c.Request.Context(), adminID, studentID, *req.Active); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student updated"})
}

func (h *AdminHandler) LinkParent(c *gin.Context) {
	adminID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.LinkParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.admin.LinkParent(c.Request.Context(), adminID, studentID, req.ParentID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "parent linked"})
}

func (h *AdminHandler) ListStudents(c *gin.Context) {
	students, err := h.admin.ListStudents(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *AdminHandler) RecordPayment(c *gin.Context) {
	adminID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	payment, err := h.admin.RecordPayment(c.Request.Context(), adminID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *AdminHandler) BillingDashboard(c *gin.Context) {
	var rng dto.DateRangeQuery
	if err := c.ShouldBindQuery(&rng); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	summary, err := h.admin.BillingDashboard(c.Request.Context(), rng.From, rng.To)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"billing": summary})
}

func (h *AdminHandler) SafetyDashboard(c *gin.Context) {
	report, err := h.admin.SafetyDashboard(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) ComplianceDashboard(c *gin.Context) {
	report, err := h.admin.ComplianceDashboard(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) AuditTrail(c *gin.Context) {
	var q dto.AuditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	entries, err := h.admin.AuditTrail(c.Request.Context(), q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit": entries})
}
