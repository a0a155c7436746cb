package handler

import (
	"net/http"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/internal/service"
	"github.com/calmroots/backend/pkg/response"
	"github.com/calmroots/backend/pkg/validator"
	"github.com/gin-gonic/gin"
)

// PrincipalHandler is the principal portal. Every operation is scoped to
// the principal's own school, resolved from the account record rather than
// trusted from the request.
type PrincipalHandler struct {
	accounts      repository.AccountRepository
	assignments   service.AssignmentService
	performance   service.PerformanceService
	consultations service.ConsultationService
	students      service.StudentService
}

func NewPrincipalHandler(
	accounts repository.AccountRepository,
	assignments service.AssignmentService,
	performance service.PerformanceService,
	consultations service.ConsultationService,
	students service.StudentService,
) *PrincipalHandler {
	return &PrincipalHandler{
		accounts:      accounts,
		assignments:   assignments,
		performance:   performance,
		consultations: consultations,
		students:      students,
	}
}

func (h *PrincipalHandler) school(c *gin.Context) (string, bool) {
	principalID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return "", false
	}
	principal, err := h.accounts.FindPrincipalByID(c.Request.Context(), principalID)
	if err != nil {
		response.ResponseError(c, err)
		return "", false
	}
	return principal.School, true
}

func (h *PrincipalHandler) ListStudents(c *gin.Context) {
	school, ok := h.school(c)
	if !ok {
		return
	}

	students, err := h.students.ListSchoolStudents(c.Request.Context(), school)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *PrincipalHandler) ListUnassigned(c *gin.Context) {
	school, ok := h.school(c)
	if !ok {
		return
	}

	students, err := h.assignments.ListUnassigned(c.Request.Context(), school)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *PrincipalHandler) ListAvailableObservers(c *gin.Context) {
	school, ok := h.school(c)
	if !ok {
		return
	}

	observers, err := h.assignments.ListAvailableObservers(c.Request.Context(), school)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"observers": observers})
}

func (h *PrincipalHandler) Assign(c *gin.Context) {
	school, ok := h.school(c)
	if !ok {
		return
	}

	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.assignments.Assign(c.Request.Context(), school, req.StudentID, req.ObserverID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PrincipalHandler) Unassign(c *gin.Context) {
	school, ok := h.school(c)
	if !ok {
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	student, err := h.assignments.Unassign(c.Request.Context(), school, studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *PrincipalHandler) ObserverPerformance(c *gin.Context) {
	school, ok := h.school(c)
	if !ok {
		return
	}

	report, err := h.performance.ObserverReport(c.Request.Context(), school)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"observers": report})
}

func (h *PrincipalHandler) ListConsultations(c *gin.Context) {
	school, ok := h.school(c)
	if !ok {
		return
	}

	consultations, err := h.consultations.ListForSchool(c.Request.Context(), school)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consultations": consultations})
}

func (h *PrincipalHandler) ScheduleConsultation(c *gin.Context) {
	principalID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	school, ok := h.school(c)
	if !ok {
		return
	}
	consultationID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.ScheduleConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	consultation, err := h.consultations.Schedule(c.Request.Context(), principalID, school, consultationID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, consultation)
}

func (h *PrincipalHandler) CompleteConsultation(c *gin.Context) {
	principalID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	consultationID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.CompleteConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	consultation, err := h.consultations.Complete(c.Request.Context(), principalID, consultationID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, consultation)
}
