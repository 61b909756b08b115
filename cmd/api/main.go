package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fasilkom-dev/siakad-api/internal/config"
	"github.com/fasilkom-dev/siakad-api/internal/database"
	"github.com/fasilkom-dev/siakad-api/internal/handler"
	"github.com/fasilkom-dev/siakad-api/internal/middleware"
	"github.com/fasilkom-dev/siakad-api/internal/models"
	"github.com/fasilkom-dev/siakad-api/internal/repository"
	"github.com/fasilkom-dev/siakad-api/internal/router"
	"github.com/fasilkom-dev/siakad-api/internal/service"
	cloud "github.com/fasilkom-dev/siakad-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Supervisor{},
		&models.Application{},
		&models.Document{},
		&models.ReviewHistory{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, revalidation fanout stays node-local")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	applicationRepo := repository.NewApplicationRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	supervisorRepo := repository.NewSupervisorRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	revalidator := service.NewRevalidationService(redisClient, natsConn, cfg.ChannelBase, logger)
	revalidator.Start(shutdownCtx)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	applicationService := service.NewApplicationService(applicationRepo, studentRepo, supervisorRepo, validate, activityService, revalidator, logger)
	documentService := service.NewDocumentService(documentRepo, applicationRepo, validate, uploader, activityService, revalidator, logger)
	dashboardService := service.NewDashboardService(applicationRepo, redisClient, cfg.DashboardCacheTTL, logger)

	applicationHandler := handler.NewApplicationHandler(applicationService, logger)
	documentHandler := handler.NewDocumentHandler(documentService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)
	revalidationHandler := handler.NewRevalidationHandler(revalidator, logger, cfg.StreamTimeout)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	healthProbes := map[string]handler.Probe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"cache": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ApplicationHandler:  applicationHandler,
		DocumentHandler:     documentHandler,
		DashboardHandler:    dashboardHandler,
		RevalidationHandler: revalidationHandler,
		ActivityHandler:     activityHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		HealthProbes:        healthProbes,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(shutdownCtx, app)
}

func waitForShutdown(shutdownCtx context.Context, app *fiber.App) {
	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
