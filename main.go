package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pilot-onboarding-system/handlers"
	"pilot-onboarding-system/models"
	"pilot-onboarding-system/services"
	"pilot-onboarding-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // 32MB, enough for document uploads
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Competency{},
		&models.UserCompetency{},
		&models.Artifact{},
		&models.UserArtifact{},
		&models.UserAppliedArtifact{},
		&models.Rank{},
		&models.RankMissionRequirement{},
		&models.RankCompetencyRequirement{},
		&models.Mission{},
		&models.MissionCompetencyReward{},
		&models.MissionPrerequisite{},
		&models.MissionSubmission{},
		&models.MissionRegistration{},
		&models.Branch{},
		&models.BranchMission{},
		&models.CodingChallenge{},
		&models.CodingProgress{},
		&models.CodingAttempt{},
		&models.JournalEntry{},
		&models.StoreItem{},
		&models.Order{},
		&models.OnboardingSlide{},
		&models.OnboardingState{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	var docs utils.DocumentStore
	switch cfg.StorageBackend {
	case "s3":
		docs, err = utils.NewS3DocumentStore(cfg)
		if err != nil {
			log.Fatal("failed to initialize S3 document store:", err)
		}
		log.Println("✅ Document storage: S3/R2, bucket", cfg.S3Bucket)
	default:
		docs, err = utils.NewLocalDocumentStore(cfg.UploadsRoot)
		if err != nil {
			log.Fatal("failed to initialize local document store:", err)
		}
		log.Println("✅ Document storage: local dir", cfg.UploadsRoot)
	}

	journalService := services.NewJournalService(db)
	rankService := services.NewRankService(db, journalService)
	missionService := services.NewMissionService(db, journalService, rankService, docs)
	codingService := services.NewCodingService(db, utils.NewPythonRunner(cfg), missionService, cfg.SandboxTimeout)
	contentService := services.NewContentService(db)
	profileService := services.NewProfileService(db, rankService)
	storeService := services.NewStoreService(db, journalService, docs)
	onboardingService := services.NewOnboardingService(db)

	missionService.StartEventScheduler()

	handlers.SetupMissionRoutes(app, missionService)
	handlers.SetupCodingRoutes(app, codingService)
	handlers.SetupJournalRoutes(app, journalService)
	handlers.SetupProfileRoutes(app, profileService)
	handlers.SetupStoreRoutes(app, storeService)
	handlers.SetupOnboardingRoutes(app, onboardingService)
	handlers.SetupAdminRoutes(app, missionService, contentService, storeService)

	if cfg.StorageBackend == "local" {
		app.Static("/uploads", "./"+cfg.UploadsRoot)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.ListenAddr)
	log.Println("✅ Event scheduler running (every 1m)")
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
