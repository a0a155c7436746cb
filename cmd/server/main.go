package main

import (
	"context"
	"log"
	"os"

	"github.com/calmroots/backend/internal/config"
	"github.com/calmroots/backend/internal/entity"
	"github.com/calmroots/backend/internal/server"
	"github.com/calmroots/backend/internal/service"
	"github.com/calmroots/backend/pkg/database"
	"github.com/calmroots/backend/pkg/mailer"
	"github.com/calmroots/backend/pkg/storage"
	"github.com/calmroots/backend/pkg/tasks"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	deps := server.Deps{Runner: tasks.NewRunner()}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		deps.Redis = redis.NewClient(opts)
	} else {
		log.Println("REDIS_URL not set; live message delivery and post cooldowns are off")
	}

	if cfg.MeiliMasterKey != "" {
		client := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		deps.Search = service.NewMeiliSearchService(client)
	} else {
		log.Println("MEILI_MASTER_KEY not set; forum search falls back to SQL")
	}

	if os.Getenv("CLOUDINARY_URL") != "" {
		fileStorage, err := storage.NewCloudinaryStorage()
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
		deps.FileStorage = fileStorage
	} else {
		log.Println("CLOUDINARY_URL not set; forum attachments are off")
	}

	if cfg.SMTPHost != "" {
		deps.Mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		log.Println("SMTP_HOST not set; appointment emails are off")
	}

	if cfg.GeminiAPIKey != "" {
		drafter, err := service.NewGeminiDrafter(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		defer drafter.Close()
		deps.Drafter = drafter
	} else {
		log.Println("GEMINI_API_KEY not set; progress reports use the computed summary")
	}

	srv := server.NewServer(cfg, db, deps)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Admin{},
		&entity.Parent{},
		&entity.Observer{},
		&entity.Principal{},
		&entity.Student{},
		&entity.Appointment{},
		&entity.SessionNote{},
		&entity.Goal{},
		&entity.MoodEntry{},
		&entity.Consultation{},
		&entity.Payment{},
		&entity.ForumThread{},
		&entity.ForumPost{},
		&entity.Message{},
		&entity.GroupSession{},
		&entity.GroupRegistration{},
		&entity.AuditLog{},
		&entity.ReportDraft{},
	)
}
