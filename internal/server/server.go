// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "tether/docs" // swagger docs
	"tether/internal/bootstrap"
	"tether/internal/config"
	"tether/internal/events"
	"tether/internal/featureflags"
	"tether/internal/middleware"
	"tether/internal/models"
	"tether/internal/notifications"
	"tether/internal/repository"
	"tether/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	promOnce       sync.Once
	promMiddleware *fiberprometheus.FiberPrometheus
)

// metrics registers the HTTP collectors once per process.
func metrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMiddleware = middleware.InitMetrics("tether-api")
	})
	return promMiddleware
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	store      *repository.Store
	verifier   *middleware.TokenVerifier
	limiter    *middleware.RateLimiter
	publisher  events.Publisher
	notifier   *notifications.Notifier
	hub        *notifications.Hub
	dispatcher *notifications.Dispatcher
	features   *featureflags.Manager

	relationships *service.RelationshipService
	terms         *service.TermService
	milestones    *service.MilestoneService
	activities    *service.ActivityService
	certificates  *service.CertificateService
	inbox         *service.NotificationService
	users         *service.UserService
}

// NewServer connects to the database, Redis and (when configured) NATS and
// builds a Server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{
		SeedDemoUsers: cfg.Env == "development" && cfg.DevBootstrapRoot,
	})
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		js, err := events.NewJetStreamPublisher(cfg.NATSURL)
		if err != nil {
			// Events are an optional fan-out; the API keeps serving without them.
			middleware.Logger.Warn("event publishing disabled", slog.String("error", err.Error()))
		} else {
			publisher = js
		}
	}

	return NewServerWithDeps(cfg, db, redisClient, publisher)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis. redisClient
// and publisher may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, publisher events.Publisher) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("config and database are required")
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	store := repository.NewStore(db)
	notifier := notifications.NewNotifier(redisClient)
	dispatcher := notifications.NewDispatcher(store.Notifications, notifier, publisher, notifications.DispatcherConfig{
		Workers:   cfg.NotifyWorkers,
		QueueSize: cfg.NotifyQueueSize,
	})

	relationships := service.NewRelationshipService(store, dispatcher, publisher)
	certificates := service.NewCertificateService(store, relationships, dispatcher, publisher, cfg.CertificateTTL())

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: metrics(),
		store:          store,
		verifier:       middleware.NewTokenVerifier(cfg, redisClient),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
		publisher:      publisher,
		notifier:       notifier,
		hub:            notifications.NewHub(redisClient),
		dispatcher:     dispatcher,
		features:       featureflags.NewManager(cfg.FeatureFlags, featureflags.Defaults),
		relationships:  relationships,
		terms:          service.NewTermService(store, relationships, dispatcher, publisher),
		milestones:     service.NewMilestoneService(store, relationships, certificates, dispatcher, publisher),
		activities:     service.NewActivityService(store, relationships, dispatcher, publisher),
		certificates:   certificates,
		inbox:          service.NewNotificationService(store.Notifications),
		users:          service.NewUserService(store.Users),
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Tether Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Public certificate verification
	api.Get("/certificates/verify/:number",
		s.limiter.Middleware("certificate_verify", 30, time.Minute, middleware.FailOpen),
		s.VerifyCertificate)

	// Websocket endpoint. Browsers cannot set headers on upgrades, so the
	// token may also arrive as ?token=.
	api.Get("/ws", middleware.AuthRequired(s.verifier, true),
		s.requireFeature(featureflags.Realtime), s.WebsocketHandler())

	protected := api.Group("", middleware.AuthRequired(s.verifier, false))

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Get("/me/features", s.GetMyFeatures)
	users.Get("/", s.GetAllUsers)
	users.Get("/:id", s.GetUserProfile)

	// Relationship routes. Specific /:id/:resource routes are declared
	// before the generic /:id routes.
	relationships := protected.Group("/relationships")
	relationships.Get("/", s.GetRelationships)
	relationships.Post("/", s.limiter.Middleware("propose_relationship", 10, 10*time.Minute, middleware.FailOpen),
		s.ProposeRelationship)
	relationships.Post("/:id/accept", s.AcceptRelationship)
	relationships.Post("/:id/decline", s.DeclineRelationship)
	relationships.Post("/:id/breakup", s.RequestBreakup)
	relationships.Post("/:id/breakup/confirm", s.ConfirmBreakup)
	relationships.Post("/:id/breakup/cancel", s.CancelBreakup)
	relationships.Post("/:id/certificates", s.requireFeature(featureflags.CertificateSnapshots),
		s.IssueRelationshipCertificate)
	relationships.Get("/:id/terms", s.GetTerms)
	relationships.Post("/:id/terms", s.ProposeTerm)
	relationships.Get("/:id/milestones", s.GetMilestones)
	relationships.Post("/:id/milestones", s.CreateMilestone)
	relationships.Get("/:id/activities", s.GetActivities)
	relationships.Post("/:id/activities", s.limiter.Middleware("log_activity", 30, time.Minute, middleware.FailOpen),
		s.CreateActivity)
	relationships.Get("/:id", s.GetRelationship)
	relationships.Put("/:id", s.UpdateRelationship)
	relationships.Delete("/:id", s.DeleteRelationship)

	terms := protected.Group("/terms")
	terms.Post("/:id/agree", s.AgreeTerm)
	terms.Post("/:id/reject", s.RejectTerm)
	terms.Post("/:id/violations", s.ReportViolation)
	terms.Post("/:id/violations/:violationId/resolve", s.ResolveViolation)
	terms.Get("/:id", s.GetTerm)
	terms.Put("/:id", s.UpdateTerm)
	terms.Delete("/:id", s.DeleteTerm)

	milestones := protected.Group("/milestones")
	milestones.Post("/:id/complete", s.CompleteMilestone)
	milestones.Post("/:id/evidence", s.AddMilestoneEvidence)
	milestones.Post("/:id/criteria/:criterionId/complete", s.CompleteCriterion)
	milestones.Get("/:id", s.GetMilestone)
	milestones.Put("/:id", s.UpdateMilestone)
	milestones.Delete("/:id", s.DeleteMilestone)

	activities := protected.Group("/activities")
	activities.Post("/:id/reactions", s.AddReaction)
	activities.Post("/:id/comments", s.limiter.Middleware("activity_comment", 20, time.Minute, middleware.FailOpen),
		s.AddActivityComment)
	activities.Get("/:id", s.GetActivity)
	activities.Put("/:id", s.UpdateActivity)
	activities.Delete("/:id", s.DeleteActivity)

	certificates := protected.Group("/certificates")
	certificates.Get("/", s.GetCertificates)
	certificates.Post("/:id/revoke", s.RevokeCertificate)
	certificates.Post("/:id/download", s.DownloadCertificate)
	certificates.Post("/:id/share", s.ShareCertificate)
	certificates.Get("/:id", s.GetCertificate)

	inbox := protected.Group("/notifications")
	inbox.Get("/", s.GetNotifications)
	inbox.Get("/unread-count", s.GetUnreadCount)
	inbox.Post("/read-all", s.MarkAllNotificationsRead)
	inbox.Post("/:id/read", s.MarkNotificationRead)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is considered required for full readiness in this app
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber application with middleware and routes attached.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "Tether API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.redis != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start notification wiring",
				slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the Redis subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	// Queued notifications are flushed before the database goes away.
	if err := s.dispatcher.Close(ctx); err != nil {
		middleware.Logger.Error("notification outbox did not drain", slog.String("error", err.Error()))
	}

	if err := s.publisher.Close(); err != nil {
		middleware.Logger.Error("error closing event publisher", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
