package server

import (
	"strings"
	"time"

	"github.com/calmroots/backend/internal/config"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/handler"
	"github.com/calmroots/backend/internal/middleware"
	"github.com/calmroots/backend/internal/repository"
	"github.com/calmroots/backend/internal/service"
	"github.com/calmroots/backend/internal/token"
	"github.com/calmroots/backend/pkg/mailer"
	"github.com/calmroots/backend/pkg/storage"
	"github.com/calmroots/backend/pkg/tasks"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps carries the optional infrastructure. Nil members are tolerated
// everywhere: the platform degrades (no live delivery, SQL search, plain
// reports) instead of refusing to start.
type Deps struct {
	Redis       *redis.Client
	Search      service.SearchService
	FileStorage storage.ImageStorage
	Mail        mailer.Mailer
	Drafter     service.ReportDrafter
	Runner      *tasks.Runner
}

type Server struct {
	engine *gin.Engine
	db     *gorm.DB
}

func NewServer(cfg *config.Config, db *gorm.DB, deps Deps) *Server {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Runner == nil {
		deps.Runner = tasks.NewRunner()
	}

	accountRepo := repository.NewAccountRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)
	forumRepo := repository.NewForumRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	tokenSvc := token.NewService(cfg.JWTSecret, cfg.TokenTTL)

	authSvc := service.NewAuthService(accountRepo, tokenSvc)
	studentSvc := service.NewStudentService(studentRepo, accountRepo)
	assignmentSvc := service.NewAssignmentService(studentRepo, accountRepo)
	performanceSvc := service.NewPerformanceService(accountRepo, studentRepo, sessionRepo)
	sessionSvc := service.NewSessionService(sessionRepo, studentRepo, accountRepo, deps.Mail, deps.Runner)
	journalSvc := service.NewJournalService(journalRepo, studentRepo)
	consultationSvc := service.NewConsultationService(consultationRepo, studentRepo, accountRepo, deps.Mail, deps.Runner)
	forumSvc := service.NewForumService(forumRepo, accountRepo, deps.Search, deps.Redis, cfg.ForumPostCooldown)
	messageSvc := service.NewMessageService(messageRepo, studentRepo, deps.Redis)
	groupSvc := service.NewGroupService(groupRepo, studentRepo, accountRepo)
	adminSvc := service.NewAdminService(accountRepo, studentRepo, consultationRepo, journalRepo, auditRepo)
	reportSvc := service.NewReportService(auditRepo, studentRepo, journalRepo, sessionRepo, deps.Drafter, deps.Runner)

	authHandler := handler.NewAuthHandler(authSvc)
	parentHandler := handler.NewParentHandler(studentSvc, sessionSvc, journalSvc, consultationSvc, groupSvc, reportSvc)
	observerHandler := handler.NewObserverHandler(studentSvc, sessionSvc, journalSvc, groupSvc, reportSvc)
	principalHandler := handler.NewPrincipalHandler(accountRepo, assignmentSvc, performanceSvc, consultationSvc, studentSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)
	forumHandler := handler.NewForumHandler(forumSvc, deps.FileStorage, cfg.CloudinaryUploadFolder)
	messageHandler := handler.NewMessageHandler(messageSvc, deps.Redis)

	router := gin.New()
	setupCORS(router, cfg.AllowedOrigins)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMW := middleware.NewAuthMiddleware(tokenSvc)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/admin/login", authHandler.Login(entity.RoleAdmin))
		auth.POST("/parent/login", authHandler.Login(entity.RoleParent))
		auth.POST("/observer/login", authHandler.Login(entity.RoleObserver))
		auth.POST("/principal/login", authHandler.Login(entity.RolePrincipal))
	}

	protected := api.Group("")
	protected.Use(authMW.Require())
	{
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMW.RequireRole(entity.RoleAdmin))
		{
			adminGroup.POST("/accounts/:role", adminHandler.CreateAccount)
			adminGroup.PATCH("/accounts/:role/:id/active", adminHandler.SetAccountActive)
			adminGroup.GET("/parents", adminHandler.ListParents)
			adminGroup.GET("/observers", adminHandler.ListObservers)
			adminGroup.GET("/principals", adminHandler.ListPrincipals)

			adminGroup.POST("/students", adminHandler.EnrollStudent)
			adminGroup.GET("/students", adminHandler.ListStudents)
			adminGroup.PATCH("/students/:id", adminHandler.UpdateStudent)
			adminGroup.PATCH("/students/:id/active", adminHandler.SetStudentActive)
			adminGroup.POST("/students/:id/parents", adminHandler.LinkParent)

			adminGroup.POST("/payments", adminHandler.RecordPayment)
			adminGroup.GET("/dashboards/billing", adminHandler.BillingDashboard)
			adminGroup.GET("/dashboards/safety", adminHandler.SafetyDashboard)
			adminGroup.GET("/dashboards/compliance", adminHandler.ComplianceDashboard)
			adminGroup.GET("/audit", adminHandler.AuditTrail)
		}

		parentGroup := protected.Group("/parent")
		parentGroup.Use(authMW.RequireRole(entity.RoleParent))
		{
			parentGroup.GET("/children", parentHandler.ListChildren)
			parentGroup.GET("/children/:id", parentHandler.GetChild)
			parentGroup.POST("/consent", parentHandler.RecordConsent)

			parentGroup.POST("/children/:id/appointments", parentHandler.BookAppointment)
			parentGroup.GET("/children/:id/appointments", parentHandler.ListAppointments)
			parentGroup.DELETE("/appointments/:id", parentHandler.CancelAppointment)

			parentGroup.GET("/children/:id/notes", parentHandler.ListSharedNotes)

			parentGroup.POST("/children/:id/goals", parentHandler.CreateGoal)
			parentGroup.GET("/children/:id/goals", parentHandler.ListGoals)
			parentGroup.PATCH("/goals/:id", parentHandler.UpdateGoalProgress)
			parentGroup.POST("/children/:id/moods", parentHandler.RecordMood)
			parentGroup.GET("/children/:id/moods", parentHandler.ListMoods)

			parentGroup.POST("/consultations", parentHandler.RequestConsultation)
			parentGroup.GET("/consultations", parentHandler.ListConsultations)
			parentGroup.GET("/payments", parentHandler.ListPayments)

			parentGroup.GET("/group-sessions", parentHandler.ListGroupSessions)
			parentGroup.POST("/group-sessions/:id/registrations", parentHandler.RegisterGroupSession)
			parentGroup.DELETE("/group-sessions/:id/registrations/:studentId", parentHandler.CancelGroupRegistration)

			parentGroup.POST("/children/:id/reports", parentHandler.RequestReport)
			parentGroup.GET("/children/:id/reports", parentHandler.ListReports)
		}

		observerGroup := protected.Group("/observer")
		observerGroup.Use(authMW.RequireRole(entity.RoleObserver))
		{
			observerGroup.GET("/students", observerHandler.Caseload)

			observerGroup.GET("/appointments", observerHandler.ListAppointments)
			observerGroup.POST("/appointments/:id/complete", observerHandler.CompleteAppointment)

			observerGroup.POST("/students/:id/notes", observerHandler.CreateNote)
			observerGroup.GET("/students/:id/notes", observerHandler.ListNotes)
			observerGroup.PATCH("/notes/:id", observerHandler.UpdateNote)

			observerGroup.POST("/students/:id/goals", observerHandler.CreateGoal)
			observerGroup.GET("/students/:id/goals", observerHandler.ListGoals)
			observerGroup.PATCH("/goals/:id", observerHandler.UpdateGoalProgress)
			observerGroup.POST("/students/:id/moods", observerHandler.RecordMood)
			observerGroup.GET("/students/:id/moods", observerHandler.ListMoods)

			observerGroup.POST("/group-sessions", observerHandler.CreateGroupSession)
			observerGroup.GET("/group-sessions", observerHandler.ListGroupSessions)

			observerGroup.POST("/students/:id/reports", observerHandler.RequestReport)
			observerGroup.GET("/students/:id/reports", observerHandler.ListReports)
		}

		principalGroup := protected.Group("/principal")
		principalGroup.Use(authMW.RequireRole(entity.RolePrincipal))
		{
			principalGroup.GET("/students", principalHandler.ListStudents)
			principalGroup.GET("/students/unassigned", principalHandler.ListUnassigned)
			principalGroup.GET("/observers/available", principalHandler.ListAvailableObservers)
			principalGroup.GET("/observers/performance", principalHandler.ObserverPerformance)
			principalGroup.POST("/assignments", principalHandler.Assign)
			principalGroup.DELETE("/assignments/:id", principalHandler.Unassign)

			principalGroup.GET("/consultations", principalHandler.ListConsultations)
			principalGroup.POST("/consultations/:id/schedule", principalHandler.ScheduleConsultation)
			principalGroup.POST("/consultations/:id/complete", principalHandler.CompleteConsultation)
		}

		// Forum and messaging are shared surfaces; the services enforce who
		// may write where.
		forumGroup := protected.Group("/forum")
		{
			forumGroup.GET("/threads", forumHandler.ListThreads)
			forumGroup.POST("/threads", forumHandler.CreateThread)
			forumGroup.GET("/threads/:id", forumHandler.GetThread)
			forumGroup.DELETE("/threads/:id", forumHandler.DeleteThread)
			forumGroup.POST("/threads/:id/posts", forumHandler.CreatePost)
			forumGroup.DELETE("/posts/:id", forumHandler.DeletePost)
			forumGroup.POST("/uploads", forumHandler.UploadAttachment)
		}

		messageGroup := protected.Group("/messages")
		{
			messageGroup.POST("", messageHandler.Send)
			messageGroup.GET("/unread-count", messageHandler.UnreadCount)
			messageGroup.GET("/conversation/:id", messageHandler.Conversation)
			messageGroup.PUT("/conversation/:id/read", messageHandler.MarkConversationRead)
			messageGroup.GET("/ws", messageHandler.HandleWebSocket)
		}
	}

	return &Server{engine: router, db: db}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
