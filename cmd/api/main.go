package main

import (
	"context"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scientia-api/internal/config"
	"github.com/noah-isme/scientia-api/internal/database"
	"github.com/noah-isme/scientia-api/internal/handler"
	"github.com/noah-isme/scientia-api/internal/middleware"
	"github.com/noah-isme/scientia-api/internal/repository"
	"github.com/noah-isme/scientia-api/internal/router"
	"github.com/noah-isme/scientia-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, parseErr := zerolog.ParseLevel(cfg.LogLevel); parseErr == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	db, dialect, err := database.Open(cfg.DatabaseURL, database.Options{
		MaxOpenConns: cfg.DatabaseMaxConns,
		Logger:       logger.With().Str("component", "gorm").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to access connection pool")
	}
	defer sqlDB.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	if err := database.EnsureSchema(startupCtx, db, dialect, logger); err != nil {
		cancelStartup()
		logger.Fatal().Err(err).Msg("failed to prepare schema")
	}
	if cfg.SeedEnabled {
		if err := database.Seed(startupCtx, db, logger); err != nil {
			cancelStartup()
			logger.Fatal().Err(err).Msg("failed to seed database")
		}
	}
	cancelStartup()

	validate := newValidator()

	identityRepo := repository.NewIdentityRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	markRepo := repository.NewMarkRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	removalRepo := repository.NewRemovalRepository(db)

	rosterService, err := service.NewRosterService(studentRepo, profileRepo, userRepo, validate, cfg.ImportMaxErrors, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to compile profile schemas")
	}
	authService := service.NewAuthService(userRepo, validate, service.AuthConfig{Secret: cfg.JWTSecret, TTL: cfg.JWTTTL}, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, identityRepo, studentRepo, validate, logger)
	markService := service.NewMarkService(markRepo, identityRepo, studentRepo, validate, cfg.ImportMaxErrors, logger)
	feeService := service.NewFeeService(feeRepo, studentRepo, validate, logger)
	timetableService := service.NewTimetableService(timetableRepo, identityRepo, validate, logger)
	catalogService := service.NewCatalogService(identityRepo, studentRepo, validate, logger)
	profileService := service.NewProfileService(studentRepo, profileRepo, logger)
	removalService := service.NewRemovalService(removalRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.MaxUploadBytes) + 1<<20,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		AllowOrigins:   cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})
	router.Register(app, cfg, router.Dependencies{
		Health:            handler.HealthCheck(cfg, dialect.Name, sqlDB),
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		ProfileHandler:    handler.NewProfileHandler(profileService, logger),
		CatalogHandler:    handler.NewCatalogHandler(catalogService, logger),
		RosterHandler:     handler.NewRosterHandler(rosterService, cfg.MaxUploadBytes, logger),
		AttendanceHandler: handler.NewAttendanceHandler(attendanceService, logger),
		MarkHandler:       handler.NewMarkHandler(markService, logger),
		FeeHandler:        handler.NewFeeHandler(feeService, logger),
		TimetableHandler:  handler.NewTimetableHandler(timetableService, logger),
		RemovalHandler:    handler.NewRemovalHandler(removalService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("dialect", dialect.Name).Msg("server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

// newValidator reports json field names in validation messages.
func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
