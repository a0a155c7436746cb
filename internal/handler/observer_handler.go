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

// ObserverHandler is the observer portal: caseload, appointments, session
// notes, journaling on behalf of students, and group sessions.
type ObserverHandler struct {
	students service.StudentService
	sessions service.SessionService
	journals service.JournalService
	groups   service.GroupService
	reports  service.ReportService
}

func NewObserverHandler(
	students service.StudentService,
	sessions service.SessionService,
	journals service.JournalService,
	groups service.GroupService,
	reports service.ReportService,
) *ObserverHandler {
	return &ObserverHandler{
		students: students,
		sessions: sessions,
		journals: journals,
		groups:   groups,
		reports:  reports,
	}
}

func (h *ObserverHandler) Caseload(c *gin.Context) {
	observerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	students, err := h.students.Caseload(c.Request.Context(), observerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *ObserverHandler) ListAppointments(c *gin.Context) {
	observerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var rng dto.DateRangeQuery
	if err := c.ShouldBindQuery(&rng); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	appts, err := h.sessions.ListAppointmentsForObserver(c.Request.Context(), observerID, rng.From, rng.To)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func (h *ObserverHandler) CompleteAppointment(c *gin.Context) {
	observerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	appointmentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.CompleteAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	appt, err := h.sessions.CompleteAppointment(c.Request.Context(), observerID, appointmentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *ObserverHandler) CreateNote(c *gin.Context) {
	observerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateSessionNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	note, err := h.sessions.CreateNote(c.Request.Context(), observerID, studentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h *ObserverHandler) UpdateNote(c *gin.Context) {
	observerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	noteID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSessionNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	note, err := h.sessions.UpdateNote(c.Request.Context(), observerID, noteID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *ObserverHandler) ListNotes(c *gin.Context) {
	observerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	notes, err := h.sessions.ListNotesForObserver(c.Request.Context(), observerID, studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (h *ObserverHandler) CreateGoal(c *gin.Context) {
	observerID, err := response.GetUserID(c)
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

	goal, err := h.journals.CreateGoal(c.Request.Context(), entity.RoleObserver, observerID, studentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (h *ObserverHandler) UpdateGoalProgress(c *gin.Context) {
	observerID, err := response.GetUserID(c)
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

	goal, err := h.journals.UpdateGoalProgress(c.Request.Context(), entity.RoleObserver, observerID, goalID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *ObserverHandler) ListGoals(c *gin.Context) {
	observerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	goals, err := h.journals.ListGoals(c.Request.Context(), entity.RoleObserver, observerID, studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func (h *ObserverHandler) RecordMood(c *gin.Context) {
	observerID, err := response.GetUserID(c)
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

	mood, err := h.journals.RecordMood(c.Request.Context(), entity.RoleObserver, observerID, studentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mood)
}

func (h *ObserverHandler) ListMoods(c *gin.Context) {
	observerID, err := response.GetUserID(c)
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

	moods, err := h.journals.ListMoods(c.Request.Context(), entity.RoleObserver, observerID, studentID, rng.From, rng.To)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moods": moods})
}

func (h *ObserverHandler) CreateGroupSession(c *gin.Context) {
	observerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateGroupSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	session, err := h.groups.Create(c.Request.Context(), observerID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *ObserverHandler) ListGroupSessions(c *gin.Context) {
	observerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	sessions, err := h.groups.ListUpcomingForObserver(c.Request.Context(), observerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group_sessions": sessions})
}

func (h *ObserverHandler) RequestReport(c *gin.Context) {
	observerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	draft, err := h.reports.RequestDraft(c.Request.Context(), observerID, entity.RoleObserver, studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, draft)
}

func (h *ObserverHandler) ListReports(c *gin.Context) {
	observerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	studentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	reports, err := h.reports.ListByStudent(c.Request.Context(), observerID, entity.RoleObserver, studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
