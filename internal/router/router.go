package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anonto42/usf-event/backend/internal/handlers"
	"github.com/anonto42/usf-event/backend/internal/middleware"
	"github.com/anonto42/usf-event/backend/internal/repositories"
	"github.com/anonto42/usf-event/backend/internal/services"
	"github.com/anonto42/usf-event/backend/pkg/config"
	"github.com/anonto42/usf-event/backend/pkg/metrics"
	"github.com/anonto42/usf-event/backend/pkg/storage"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Config   *config.Config
	DB       *config.DB
	Log      *zap.Logger
	Metrics  *metrics.Collector
	Media    storage.Store
	Verifier handlers.TokenVerifier // nil disables Firebase login
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(ctx context.Context, e *echo.Echo, deps Deps) error {
	pgdb := deps.DB.Postgres
	if err := repositories.AutoMigrate(pgdb); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	deps.Log.Info("PostgreSQL auto-migrations completed")

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	profileRepo := repositories.NewPostgresProfileRepository(pgdb)
	friendshipRepo := repositories.NewPostgresFriendshipRepository(pgdb)
	likeRepo := repositories.NewPostgresLikeRepository(pgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	messageRepo := repositories.NewPostgresMessageRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	eventRepo := repositories.NewMongoEventRepository(deps.DB.Mongo.Database(deps.Config.MongoDatabase))
	if err := eventRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("event indexes: %w", err)
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, deps.Config.JWTSecret, deps.Config.SessionTTL)
	registrationService := services.NewRegistrationService(userRepo, profileRepo, deps.Media, deps.Log, deps.Metrics)
	feedService := services.NewFeedService(profileRepo, eventRepo, likeRepo, friendshipRepo, messageRepo, deps.Log)
	friendshipService := services.NewFriendshipService(friendshipRepo, profileRepo, notificationRepo, deps.Log, deps.Metrics)
	eventService := services.NewEventService(eventRepo, commentRepo, likeRepo, deps.Media, deps.Log)
	messageService := services.NewMessageService(messageRepo, profileRepo)
	notificationService := services.NewNotificationService(notificationRepo)

	// Every page resolves the caller; none of them require a session.
	e.Use(middleware.Session(deps.Config.SessionCookie, authService, userRepo, profileRepo, deps.Log))

	e.GET("/health", handlers.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/accounts/")
	})

	accountHandler := handlers.NewAccountHandler(
		registrationService,
		authService,
		feedService,
		friendshipService,
		messageService,
		notificationService,
		deps.Verifier,
		handlers.SessionCookie{Name: deps.Config.SessionCookie, Secure: deps.Config.IsProduction()},
		deps.Log,
	)
	accountHandler.RegisterAccountRoutes(e.Group("/accounts"))

	eventHandler := handlers.NewEventHandler(eventService)
	eventHandler.RegisterEventRoutes(e.Group("/events"))

	deps.Log.Info("All routes configured", zap.Bool("firebase_login", deps.Verifier != nil), zap.Bool("media", deps.Config.MediaEnabled()))
	return nil
}
