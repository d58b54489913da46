package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attendly/faceclock/internal/api"
	"github.com/attendly/faceclock/internal/attendance"
	"github.com/attendly/faceclock/internal/audit"
	"github.com/attendly/faceclock/internal/config"
	"github.com/attendly/faceclock/internal/database"
	"github.com/attendly/faceclock/internal/embedding"
	"github.com/attendly/faceclock/internal/liveness"
	"github.com/attendly/faceclock/internal/pipeline"
	"github.com/attendly/faceclock/internal/provider"
	"github.com/attendly/faceclock/internal/provider/deepface"
	"github.com/attendly/faceclock/internal/provider/mock"
	"github.com/attendly/faceclock/internal/provider/rekognition"
	"github.com/attendly/faceclock/internal/repository"
	"github.com/attendly/faceclock/internal/service"
	"github.com/attendly/faceclock/internal/settings"
	"github.com/attendly/faceclock/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting Faceclock API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database pool
	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Repositories
	identityRepo := repository.NewIdentityRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	// Runtime settings
	settingsManager := settings.NewManager(settingsRepo, logger)
	if err := settingsManager.Load(ctx); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Face capability backend
	faceProvider, err := newFaceProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create face provider: %w", err)
	}
	logger.Info("face provider ready", slog.String("type", cfg.ProviderType))

	// Embedding cache and attendance ledger
	store := embedding.NewStore(identityRepo, logger, embedding.WithTTL(cfg.CacheTTL))
	ledger := attendance.NewLedger(attendanceRepo, logger)

	// Photo storage
	photos, err := storage.NewDiskStore(cfg.PhotoDir, logger)
	if err != nil {
		return fmt.Errorf("failed to create photo store: %w", err)
	}

	auditLogger := audit.NewSlogLogger(logger)

	// Recognition pipeline and services
	recognizer := pipeline.New(faceProvider, store, ledger, settingsManager, auditLogger, logger)

	livenessCfg := liveness.DefaultConfig()
	if cfg.DetectionInterval > 0 {
		livenessCfg.DetectionInterval = cfg.DetectionInterval
	}

	kioskService := service.NewKioskService(recognizer, faceProvider, photos, livenessCfg, logger)
	enrollmentService := service.NewEnrollmentService(identityRepo, faceProvider, store, photos, settingsManager, auditLogger, logger)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Enrollment:     enrollmentService,
		Kiosk:          kioskService,
		AttendanceRepo: attendanceRepo,
		Settings:       settingsManager,
		DB:             pool,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}

func newFaceProvider(ctx context.Context, cfg *config.Config) (provider.FaceProvider, error) {
	return provider.New(ctx, provider.Type(cfg.ProviderType), provider.FactoryFuncs{
		Mock: func() provider.FaceProvider {
			return mock.New()
		},
		DeepFace: func() provider.FaceProvider {
			dfCfg := deepface.DefaultConfig()
			if cfg.DeepFaceURL != "" {
				dfCfg.BaseURL = cfg.DeepFaceURL
			}
			return deepface.NewProvider(dfCfg)
		},
		Rekognition: func(ctx context.Context) (provider.FaceDetector, error) {
			return rekognition.NewDetector(ctx, rekognition.Config{Region: cfg.AWSRegion})
		},
	})
}
