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

// ParentHandler is the parent portal: children, appointments, shared notes,
// journaling, consultations, payments, and group sessions.
type ParentHandler struct {
	students      service.StudentService
	sessions      service.SessionService
	journals      service.JournalService
	consultations service.ConsultationService
	groups        service.GroupService
	reports       service.ReportService
}

func NewParentHandler(
	students service.StudentService,
	sessions service.SessionService,
	journals service.JournalService,
	consultations service.ConsultationService,
	groups service.GroupService,
	reports service.ReportService,
) *ParentHandler {
	return &ParentHandler{
		students:      students,
		sessions:      sessions,
		journals:      journals,
		consultations: consultations,
		groups:        groups,
		reports:       reports,
	}
}

func (h *ParentHandler) ListChildren(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	children, err := h.students.ListChildren(c.Request.Context(), parentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"children": children})
}

func (h *ParentHandler) GetChild(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	child, err := h.students.GetChild(c.Request.Context(), parentID, studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, child)
}

func (h *ParentHandler) RecordConsent(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.students.RecordConsent(c.Request.Context(), parentID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "consent recorded"})
}

func (h *ParentHandler) BookAppointment(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	appt, err := h.sessions.BookAppointment(c.Request.Context(), parentID, studentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (h *ParentHandler) CancelAppointment(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	appointmentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.sessions.CancelAppointment(c.Request.Context(), parentID, appointmentID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "appointment cancelled"})
}

func (h *ParentHandler) ListAppointments(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var rng dto.DateRangeQuery
	if err := c.ShouldBindQuery(&rng); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	appts, err := h.sessions.ListAppointmentsForChild(c.Request.Context(), parentID, studentID, rng.From, rng.To)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func (h *ParentHandler) ListSharedNotes(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	notes, err := h.sessions.ListSharedNotesForParent(c.Request.Context(), parentID, studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (h *ParentHandler) CreateGoal(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	goal, err := h.journals.CreateGoal(c.Request.Context(), entity.RoleParent, parentID, studentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (h *ParentHandler) ListGoals(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	goals, err := h.journals.ListGoals(c.Request.Context(), entity.RoleParent, parentID, studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func (h *ParentHandler) UpdateGoalProgress(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	goalID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateGoalProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	goal, err := h.journals.UpdateGoalProgress(c.Request.Context(), entity.RoleParent, parentID, goalID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *ParentHandler) RecordMood(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateMoodEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	mood, err := h.journals.RecordMood(c.Request.Context(), entity.RoleParent, parentID, studentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mood)
}

func (h *ParentHandler) ListMoods(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var rng dto.DateRangeQuery
	if err := c.ShouldBindQuery(&rng); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	moods, err := h.journals.ListMoods(c.Request.Context(), entity.RoleParent, parentID, studentID, rng.From, rng.To)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moods": moods})
}

func (h *ParentHandler) RequestConsultation(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.RequestConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	consultation, err := h.consultations.Request(c.Request.Context(), parentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, consultation)
}

func (h *ParentHandler) ListConsultations(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	consultations, err := h.consultations.ListForParent(c.Request.Context(), parentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consultations": consultations})
}

func (h *ParentHandler) ListPayments(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	payments, err := h.consultations.PaymentsForParent(c.Request.Context(), parentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *ParentHandler) ListGroupSessions(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	sessions, err := h.groups.ListUpcomingForParent(c.Request.Context(), parentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group_sessions": sessions})
}

func (h *ParentHandler) RegisterGroupSession(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.RegisterGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.groups.Register(c.Request.Context(), parentID, sessionID, req.StudentID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registered"})
}

func (h *ParentHandler) CancelGroupRegistration(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	studentID, ok := parseID(c, "studentId")
	if !ok {
		return
	}

	if err := h.groups.CancelRegistration(c.Request.Context(), parentID, sessionID, studentID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "registration cancelled"})
}

func (h *ParentHandler) RequestReport(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	draft, err := h.reports.RequestDraft(c.Request.Context(), parentID, entity.RoleParent, studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, draft)
}

func (h *ParentHandler) ListReports(c *gin.Context) {
	parentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	reports, err := h.reports.ListByStudent(c.Request.Context(), parentID, entity.RoleParent, studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
