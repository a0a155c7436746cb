package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/calmroots/backend/pkg/tasks"
	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// ReportDrafter turns a progress prompt into narrative text. The Gemini
// implementation is optional; when it is absent the service falls back to a
// plain computed summary.
type ReportDrafter interface {
	Draft(ctx context.Context, prompt string) (string, error)
	Close() error
}

type geminiDrafter struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiDrafter(ctx context.Context, apiKey string) (ReportDrafter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel("gemini-2.5-flash")
	model.SetTemperature(0.4)

	return &geminiDrafter{client: client, model: model}, nil
}

func (d *geminiDrafter) Draft(ctx context.Context, prompt string) (string, error) {
	resp, err := d.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty model response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in response")
	}
	return sb.String(), nil
}

func (d *geminiDrafter) Close() error {
	return d.client.Close()
}

type ReportService interface {
	// RequestDraft creates a pending report and generates its content in a
	// detached job. The caller polls ListByStudent for the result.
	RequestDraft(ctx context.Context, requesterID uuid.UUID, requesterRole string, studentID uuid.UUID) (*entity.ReportDraft, error)
	ListByStudent(ctx context.Context, requesterID uuid.UUID, requesterRole string, studentID uuid.UUID) ([]*entity.ReportDraft, error)
}

type reportService struct {
	audits   repository.AuditRepository
	students repository.StudentRepository
	journals repository.JournalRepository
	sessions repository.SessionRepository
	drafter  ReportDrafter
	runner   *tasks.Runner
}

func NewReportService(
	audits repository.AuditRepository,
	students repository.StudentRepository,
	journals repository.JournalRepository,
	sessions repository.SessionRepository,
	drafter ReportDrafter,
	runner *tasks.Runner,
) ReportService {
	return &reportService{
		audits:   audits,
		students: students,
		journals: journals,
		sessions: sessions,
		drafter:  drafter,
		runner:   runner,
	}
}

func (s *reportService) requireScope(ctx context.Context, requesterID uuid.UUID, requesterRole string, student *entity.Student) error {
	switch requesterRole {
	case entity.RoleAdmin:
		return nil
	case entity.RoleParent:
		ok, err := s.students.IsParentOf(ctx, requesterID, student.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.ErrNotFound
		}
		return nil
	case entity.RoleObserver:
		if student.ObserverID == nil || *student.ObserverID != requesterID {
			return apperror.ErrNotFound
		}
		return nil
	default:
		return apperror.ErrWrongRole
	}
}

func (s *reportService) RequestDraft(ctx context.Context, requesterID uuid.UUID, requesterRole string, studentID uuid.UUID) (*entity.ReportDraft, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireScope(ctx, requesterID, requesterRole, student); err != nil {
		return nil, err
	}

	draft := &entity.ReportDraft{
		StudentID:     studentID,
		RequestedBy:   requesterID,
		RequestedRole: requesterRole,
		Status:        entity.ReportPending,
	}
	if err := s.audits.CreateReport(ctx, draft); err != nil {
		return nil, err
	}

	draftID := draft.ID
	s.runner.Spawn("report-draft", func(jobCtx context.Context) error {
		content, err := s.generate(jobCtx, student)
		if err != nil {
			if setErr := s.audits.SetReportResult(jobCtx, draftID, entity.ReportFailed, nil); setErr != nil {
				return setErr
			}
			return err
		}
		return s.audits.SetReportResult(jobCtx, draftID, entity.ReportReady, &content)
	})

	return draft, nil
}

const reportWindowDays = 30

func (s *reportService) generate(ctx context.Context, student *entity.Student) (string, error) {
	since := time.Now().AddDate(0, 0, -reportWindowDays)

	moods, err := s.journals.ListMoodsByStudent(ctx, student.ID, &since, nil)
	if err != nil {
		return "", err
	}
	goals, err := s.journals.ListGoalsByStudent(ctx, student.ID)
	if err != nil {
		return "", err
	}
	appointments, err := s.sessions.ListAppointmentsByStudent(ctx, student.ID, &since, nil)
	if err != nil {
		return "", err
	}

	summary := buildProgressSummary(student, moods, goals, appointments)
	if s.drafter == nil {
		return summary, nil
	}

	prompt := fmt.Sprintf(`You are a child wellbeing assistant. Write a short,
warm progress report for the parents of %s based on the data below. Two or
three paragraphs, plain text, no medical claims, no diagnoses.

%s`, student.FullName, summary)

	content, err := s.drafter.Draft(ctx, prompt)
	if err != nil {
		return "", err
	}
	return content, nil
}

// buildProgressSummary condenses the raw journal and session data. It is the
// prompt body when a drafter is configured and the report itself when not.
func buildProgressSummary(student *entity.Student, moods []*entity.MoodEntry, goals []*entity.Goal, appointments []*entity.Appointment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Student: %s (grade %s, %s)\n", student.FullName, student.Grade, student.School)

	if len(moods) > 0 {
		var sum, low int
		for _, m := range moods {
			sum += m.Score
			if m.Flagged {
				low++
			}
		}
		fmt.Fprintf(&sb, "Mood check-ins (last %d days): %d entries, average score %.1f, %d low days\n",
			reportWindowDays, len(moods), float64(sum)/float64(len(moods)), low)
	} else {
		sb.WriteString("No mood check-ins recorded in the reporting window\n")
	}

	var achieved, active int
	for _, g := range goals {
		switch g.Status {
		case entity.GoalAchieved:
			achieved++
		case entity.GoalActive:
			active++
		}
	}
	fmt.Fprintf(&sb, "Goals: %d achieved, %d in progress\n", achieved, active)

	var completed int
	for _, a := range appointments {
		if a.Status == entity.AppointmentCompleted {
			completed++
		}
	}
	fmt.Fprintf(&sb, "Sessions (last %d days): %d scheduled, %d completed\n",
		reportWindowDays, len(appointments), completed)

	return sb.String()
}

func (s *reportService) ListByStudent(ctx context.Context, requesterID uuid.UUID, requesterRole string, studentID uuid.UUID) ([]*entity.ReportDraft, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireScope(ctx, requesterID, requesterRole, student); err != nil {
		return nil, err
	}
	return s.audits.ListReportsByStudent(ctx, studentID)
}
