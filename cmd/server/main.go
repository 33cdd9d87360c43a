package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/usf-event/backend/internal/handlers"
	"github.com/anonto42/usf-event/backend/internal/router"
	"github.com/anonto42/usf-event/backend/pkg/config"
	"github.com/anonto42/usf-event/backend/pkg/firebase"
	"github.com/anonto42/usf-event/backend/pkg/logger"
	"github.com/anonto42/usf-event/backend/pkg/metrics"
	"github.com/anonto42/usf-event/backend/pkg/storage"
	"github.com/anonto42/usf-event/backend/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zlog := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("server stopped with error", zap.Error(err))
	}
	zlog.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, zlog *zap.Logger) error {
	// Initialize database connections
	db, err := config.InitDB(cfg, zlog)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	deps := router.Deps{
		Config:  cfg,
		DB:      db,
		Log:     zlog,
		Metrics: metrics.NewCollector("usfevent"),
		Media:   storage.Disabled{},
	}

	// Firebase login is optional
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case errors.Is(err, firebase.ErrNotConfigured):
		zlog.Info("firebase login disabled")
	case err != nil:
		return err
	default:
		deps.Verifier = handlers.TokenVerifier(firebase.NewVerifier(firebaseApp))
	}

	if cfg.MediaEnabled() {
		media, err := storage.NewS3Store(ctx, cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			return err
		}
		deps.Media = media
	} else {
		zlog.Info("media uploads disabled, S3_BUCKET_NAME is not set")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, zlog, deps.Metrics)
	if err := router.SetupRoutes(ctx, e, deps); err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           deps.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("api server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		zlog.Info("metrics server listening", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		zlog.Info("shutting down")
		return errors.Join(e.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})
	return g.Wait()
}
