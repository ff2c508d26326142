// Package server contains the HTTP and WebSocket handlers for the Conduit API.
package server

import (
	"context"
	"fmt"
	"time"

	_ "conduit/docs" // swagger docs
	"conduit/internal/auth"
	"conduit/internal/bootstrap"
	"conduit/internal/config"
	"conduit/internal/middleware"
	"conduit/internal/models"
	"conduit/internal/notifications"
	"conduit/internal/repository"
	"conduit/internal/service"

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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	issuer        *auth.Issuer
	authenticator *middleware.Authenticator
	notifier      *notifications.Notifier
	hub           *notifications.Hub

	userService    *service.UserService
	profileService *service.ProfileService
	articleService *service.ArticleService
	commentService *service.CommentService
	tagService     *service.TagService
}

// NewServer connects to the database and Redis described by cfg and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, revocation and realtime push are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("server requires config and database")
	}

	userRepo := repository.NewUserRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tagRepo := repository.NewTagRepository(db, cfg.TagsCacheTTL())

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())
	revocations := auth.NewRevocations(redisClient)
	presenter := service.NewPresenter(cfg.DefaultUserImage)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("conduit-api"),
		issuer:         issuer,
		authenticator:  middleware.NewAuthenticator(issuer, revocations),
	}

	// A nil *Notifier must not reach the services as a non-nil interface.
	var publisher service.ActivityPublisher
	if cfg.RealtimeEnabled && redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
		publisher = server.notifier
	}

	server.userService = service.NewUserService(
		userRepo, service.NewBcryptHasher(bcrypt.DefaultCost), issuer, revocations, presenter)
	server.profileService = service.NewProfileService(userRepo, presenter, publisher)
	server.articleService = service.NewArticleService(articleRepo, userRepo, presenter, publisher)
	server.commentService = service.NewCommentService(commentRepo, articleRepo, presenter, publisher)
	server.tagService = service.NewTagService(tagRepo)

	return server, nil
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Conduit API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.RequestContext())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.RequestLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:4100,http://localhost:3000,http://127.0.0.1:4100"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Conduit Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	required := s.authenticator.Required()
	optional := s.authenticator.Optional()

	users := api.Group("/users")
	users.Post("/", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	users.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	users.Post("/logout", required, s.Logout)

	api.Get("/user", required, s.GetCurrentUser)
	api.Put("/user", required, s.UpdateCurrentUser)

	profiles := api.Group("/profiles")
	profiles.Get("/:username", optional, s.GetProfile)
	profiles.Post("/:username/follow", required, s.FollowUser)
	profiles.Delete("/:username/follow", required, s.UnfollowUser)

	articles := api.Group("/articles")
	articles.Get("/", optional, s.ListArticles)
	// /feed must be registered before /:slug
	articles.Get("/feed", required, s.FeedArticles)
	articles.Post("/", required,
		middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_article"), s.CreateArticle)
	articles.Get("/:slug/comments", optional, s.ListComments)
	articles.Post("/:slug/comments", required,
		middleware.RateLimit(s.redis, 5, time.Minute, "create_comment"), s.AddComment)
	articles.Post("/:slug/favorite", required, s.FavoriteArticle)
	articles.Delete("/:slug/favorite", required, s.UnfavoriteArticle)
	articles.Get("/:slug", optional, s.GetArticle)
	articles.Put("/:slug", required, s.UpdateArticle)
	articles.Delete("/:slug", required, s.DeleteArticle)

	api.Get("/tags", s.ListTags)

	api.Get("/ws", required, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// Start builds the app, wires realtime push and blocks serving on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.hub != nil && s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring", "hub", s.hub.Name(), "error", err)
			}
		}()
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", "hub", s.hub.Name(), "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
