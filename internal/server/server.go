// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"time"

	_ "socialnest/docs" // swagger docs
	"socialnest/internal/cache"
	"socialnest/internal/config"
	"socialnest/internal/featureflags"
	"socialnest/internal/middleware"
	"socialnest/internal/models"
	"socialnest/internal/notifications"
	"socialnest/internal/repository"
	"socialnest/internal/service"
	"socialnest/internal/validation"

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
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          repository.Store
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager
	limiter      *middleware.Limiter

	authService         *service.AuthService
	userService         *service.UserService
	postService         *service.PostService
	followService       *service.FollowService
	messageService      *service.MessageService
	notificationService *service.NotificationService
}

// NewServer creates a Server on top of an initialized store. redisClient may be nil.
func NewServer(cfg *config.Config, store repository.Store, redisClient *redis.Client) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:         cfg,
		store:          store,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("socialnest-api"),
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		limiter:        middleware.NewLimiter(redisClient, cfg.IsProduction()),
	}

	pub := notifications.NewPublisher(s.hub, s.notifier, s.featureFlags)
	s.authService = service.NewAuthService(store, service.AuthConfig{
		Reserved:       validation.ParseReservedNames(cfg.ReservedUsernames),
		PasswordPolicy: validation.PasswordPolicy(cfg.PasswordPolicy),
	})
	s.userService = service.NewUserService(store)
	s.postService = service.NewPostService(store, pub, cfg.FeedLimit)
	s.followService = service.NewFollowService(store, pub)
	s.messageService = service.NewMessageService(store, pub)
	s.notificationService = service.NewNotificationService(store, pub)
	return s
}

// App returns the configured Fiber app, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "socialnest API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Status: "error", Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithAppError(c, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit so error responses
	// still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Status: "error",
				Error:  "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/", s.ReadinessCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "socialnest Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Sessions
	api.Post("/signup", s.limiter.Handler(middleware.SignupLimit), s.Signup)
	api.Post("/login", s.limiter.Handler(middleware.LoginLimit), s.Login)
	api.Get("/logout", s.AuthRequired(), s.Logout)

	// Public reads
	api.Get("/profile/:username", s.GetProfile)
	api.Get("/feed", s.GetFeed)
	api.Get("/posts/:id", s.GetPost)

	protected := api.Group("", s.AuthRequired())
	protected.Post("/edit_profile", s.EditProfile)
	protected.Post("/post", s.limiter.Handler(middleware.PostLimit), s.CreatePost)
	protected.Get("/like/:post_id", s.ToggleLike)
	protected.Post("/comment/:post_id", s.limiter.Handler(middleware.CommentLimit), s.CreateComment)
	protected.Get("/delete_post/:post_id", s.DeletePost)
	protected.Get("/follow/:username", s.Follow)
	protected.Get("/dm/:username", s.GetConversation)
	protected.Post("/dm/:username", s.limiter.Handler(middleware.MessageLimit), s.SendMessage)

	// Specific /notifications routes before the bare group route
	protected.Get("/notifications/unread-count", s.GetUnreadCount)
	protected.Get("/notifications", s.GetNotifications)
	protected.Post("/notifications", s.AdminRequired(), s.CreateSystemNotification)

	protected.Get("/users", s.GetUsers)
	protected.Put("/users/:username/role", s.AdminRequired(), s.SetUserRole)
	protected.Get("/feature-flags", s.GetFeatureFlags)

	protected.Get("/ws", s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: its
// absence is reported but does not make the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		storeStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  overallStatus,
		"storage": s.config.StorageDriver,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()

	if s.notifier.Enabled() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
		}
	}

	log.Printf("Server starting on port %s (storage: %s)...", s.config.Port, s.config.StorageDriver)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down %s: %v", s.hub.Name(), err)
	}

	if err := s.store.Close(); err != nil {
		log.Printf("error closing store: %v", err)
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
		cache.SetClient(nil)
	}

	log.Println("Server shutdown complete")
	return nil
}
