// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "github.com/00xu00/blog/docs" // swagger docs
	"github.com/00xu00/blog/internal/cache"
	"github.com/00xu00/blog/internal/config"
	"github.com/00xu00/blog/internal/database"
	"github.com/00xu00/blog/internal/enrichment"
	"github.com/00xu00/blog/internal/featureflags"
	"github.com/00xu00/blog/internal/mail"
	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/notifications"
	"github.com/00xu00/blog/internal/repository"
	"github.com/00xu00/blog/internal/service"
	"github.com/00xu00/blog/internal/viewtrack"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
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

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo repository.UserRepository
	postRepo repository.PostRepository

	notifier     *notifications.Notifier
	hub          *notifications.Hub
	viewWindow   *viewtrack.Window
	enricher     *enrichment.Runner
	featureFlags *featureflags.Set

	userService           *service.UserService
	postService           *service.PostService
	engagementService     *service.EngagementService
	commentService        *service.CommentService
	viewService           *service.ViewService
	recommendationService *service.RecommendationService
	searchService         *service.SearchService
	followService         *service.FollowService
	messageService        *service.MessageService
	verificationService   *service.VerificationService
	writingService        *service.WritingService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client disables caching, tickets, verification and live
// notifications.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	searchRepo := repository.NewSearchHistoryRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	recRepo := repository.NewRecommendationRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("inkwell-api"),
		userRepo:       userRepo,
		postRepo:       postRepo,
		featureFlags:   featureflags.Parse(cfg.FeatureFlags),
		viewWindow:     viewtrack.New(cfg.ViewDedupWindow(), cfg.ViewDedupMaxEntries, nil),
	}

	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
	}

	aiClient := enrichment.New(enrichment.Config{
		URL:           cfg.AIAPIURL,
		APIKey:        cfg.AIAPIKey,
		Model:         cfg.AIModel,
		RatePerSecond: cfg.AIRatePerSecond,
		Timeout:       time.Duration(cfg.AITimeoutSeconds) * time.Second,
	})
	s.enricher = enrichment.NewRunner(aiClient, postRepo, 4, 20*time.Second)
	mailer := mail.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)

	// The services take the Publisher interface; a nil *Notifier must not
	// become a non-nil interface value.
	var publisher notifications.Publisher
	if s.notifier != nil {
		publisher = s.notifier
	}

	s.userService = service.NewUserService(userRepo, followRepo, cfg.MaxUploadBytes)
	s.postService = service.NewPostService(postRepo, engagementRepo, s.enricher, s.featureFlags)
	s.engagementService = service.NewEngagementService(engagementRepo, postRepo)
	s.commentService = service.NewCommentService(commentRepo, postRepo, engagementRepo)
	s.viewService = service.NewViewService(postRepo, historyRepo, engagementRepo, s.viewWindow)
	s.recommendationService = service.NewRecommendationService(recRepo, postRepo, historyRepo, engagementRepo, s.featureFlags)
	s.searchService = service.NewSearchService(postRepo, searchRepo)
	s.followService = service.NewFollowService(followRepo, userRepo, publisher)
	s.messageService = service.NewMessageService(messageRepo, userRepo, publisher)
	s.verificationService = service.NewVerificationService(userRepo, redisClient, mailer)
	s.writingService = service.NewWritingService(aiClient)

	return s, nil
}

// NewApp builds the Fiber application with middleware and routes attached.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:     "Inkwell API",
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		BodyLimit:   s.bodyLimit(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
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

// bodyLimit leaves room for multipart framing around the largest avatar.
func (s *Server) bodyLimit() int {
	limit := 4 * 1024 * 1024
	if s.config != nil && s.config.MaxUploadBytes+1024*1024 > limit {
		limit = s.config.MaxUploadBytes + 1024*1024
	}
	return limit
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:3001"
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
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Inkwell Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/token", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "token"), s.Token)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Post("/verification-code", s.AuthRequired(), middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "verification_code"), s.SendVerificationCode)
	auth.Post("/verify-email", s.AuthRequired(), s.VerifyEmail)

	// Users: /me routes before /:id
	users := api.Group("/users")
	users.Get("/me", s.AuthRequired(), s.GetMyProfile)
	users.Put("/me", s.AuthRequired(), s.UpdateMyProfile)
	users.Post("/me/avatar", s.AuthRequired(), s.UploadAvatar)
	users.Post("/:id/follow", s.AuthRequired(), s.FollowUser)
	users.Delete("/:id/follow", s.AuthRequired(), s.UnfollowUser)
	users.Get("/:id/is_following", s.AuthRequired(), s.IsFollowing)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Get("/:id", s.GetUserProfile)

	// Posts: fixed paths before /:id
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/latest", s.GetLatestPosts)
	posts.Get("/recommended", s.GetRecommendedPosts)
	posts.Get("/user/me", s.AuthRequired(), s.GetMyPosts)
	posts.Get("/user/me/likes", s.AuthRequired(), s.GetMyLikedPosts)
	posts.Get("/user/me/favorites", s.AuthRequired(), s.GetMyFavoritedPosts)
	posts.Get("/user/:id", s.GetUserPosts)
	posts.Post("/", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/like", s.AuthRequired(), s.LikePost)
	posts.Post("/:id/unlike", s.AuthRequired(), s.UnlikePost)
	posts.Post("/:id/favorite", s.AuthRequired(), s.FavoritePost)
	posts.Post("/:id/unfavorite", s.AuthRequired(), s.UnfavoritePost)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.AuthRequired(), s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)

	comments := api.Group("/comments")
	comments.Get("/post/:postId", s.GetPostComments)
	comments.Get("/:id/replies", s.GetCommentReplies)
	comments.Post("/", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	comments.Post("/:id/like", s.AuthRequired(), s.LikeComment)
	comments.Delete("/:id/like", s.AuthRequired(), s.UnlikeComment)
	comments.Put("/:id", s.AuthRequired(), s.UpdateComment)
	comments.Delete("/:id", s.AuthRequired(), s.DeleteComment)

	histories := api.Group("/histories", s.AuthRequired())
	histories.Get("/me", s.GetMyHistory)
	histories.Delete("/me", s.ClearMyHistory)
	histories.Delete("/me/:postId", s.DeleteHistoryEntry)

	search := api.Group("/search")
	search.Get("/blogs", middleware.RateLimit(
		s.redis, 30, time.Minute, "search"), s.SearchBlogs)
	search.Post("/", s.AuthRequired(), s.RecordSearch)
	search.Get("/history", s.AuthRequired(), s.GetSearchHistory)
	search.Delete("/history", s.AuthRequired(), s.ClearSearchHistory)

	messages := api.Group("/messages", s.AuthRequired())
	messages.Post("/", middleware.RateLimit(
		s.redis, 15, time.Minute, "send_message"), s.SendMessage)
	messages.Get("/", s.GetMessages)
	messages.Get("/unread-count", s.GetUnreadCount)
	messages.Get("/with/:userId", s.GetConversation)
	messages.Post("/:id/read", s.MarkMessageRead)

	api.Post("/ai/suggestions", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "ai_suggestions"), s.GetWritingSuggestions)

	api.Get("/feature-flags", s.AuthRequired(), s.GetFeatureFlags)

	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws", s.AuthRequired(), s.WebsocketHandler())
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
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the background workers and serves HTTP until the app is shut down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	go s.viewWindow.Run(s.shutdownCtx, s.config.ViewDedupSweepInterval)

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.Start(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification hub", "error", err)
			}
		}()
	}

	middleware.Logger.Info("Server starting", "port", s.config.Port)
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
			middleware.Logger.Error("error shutting down notification hub", "error", err)
		}
	}

	// Let in-flight enrichment jobs finish before the store goes away.
	s.enricher.Wait()

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

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
