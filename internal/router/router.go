package router

import (
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/anonto42/vidspace/backend/internal/handlers"
	"github.com/anonto42/vidspace/backend/internal/middleware"
	"github.com/anonto42/vidspace/backend/internal/services"
	"github.com/anonto42/vidspace/backend/pkg/logging"
	"github.com/anonto42/vidspace/backend/validators"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.BodyLimit("110M"))
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			ev := logging.Info()
			if v.Error != nil {
				ev = logging.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("handle", middleware.CurrentHandle(c)).
				Msg("request")
			return nil
		},
	}))
	logging.Debug().Msg("global middleware configured")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, svc *services.Service) {
	e.Validator = validators.NewValidator()

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(svc).RegisterAuthRoutes(authGroup)

	// --- Protected routes (require a session token) ---
	api := e.Group("/api/v1")
	api.Use(middleware.SessionAuthMiddleware(svc))

	handlers.NewUserHandler(svc).RegisterProfileRoutes(api)
	handlers.NewFollowHandler(svc).RegisterFollowRoutes(api)
	handlers.NewVideoHandler(svc).RegisterVideoRoutes(api)
	handlers.NewCommentHandler(svc).RegisterCommentRoutes(api)
	handlers.NewLikeHandler(svc).RegisterLikeRoutes(api)
	handlers.NewFeedHandler(svc).RegisterFeedRoutes(api)
	handlers.NewNotificationHandler(svc).RegisterNotificationRoutes(api)
	handlers.NewMessageHandler(svc).RegisterMessageRoutes(api)

	logging.Info().Int("routes", len(e.Routes())).Msg("routes configured")
}
