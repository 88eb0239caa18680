package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/terpspark/terpspark-api/internal/config"
	"github.com/terpspark/terpspark-api/internal/handlers"
	"github.com/terpspark/terpspark-api/internal/logger"
	"github.com/terpspark/terpspark-api/internal/middleware/auth"
	"github.com/terpspark/terpspark-api/internal/middleware/requestlog"
	"github.com/terpspark/terpspark-api/internal/notification"
	"github.com/terpspark/terpspark-api/internal/services"
	"github.com/terpspark/terpspark-api/internal/storage/objectstore"
	"github.com/terpspark/terpspark-api/internal/storage/postgres"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	repos      postgres.RepositoryContainer
	images     objectstore.Store
}

// New creates a new server instance. The image store may be nil when
// object storage is not configured.
func New(cfg *config.Config, repos postgres.RepositoryContainer, images objectstore.Store) *Server {
	return &Server{
		config: cfg,
		repos:  repos,
		images: images,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	router, err := s.setupRouter()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: router,

		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Get().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.Get().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() (*gin.Engine, error) {
	if s.config.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(requestlog.New())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if s.config.CORS.AllowOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(s.config.CORS.AllowOrigins, ",")
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = strings.Split(s.config.CORS.AllowMethods, ",")
	corsConfig.AllowHeaders = strings.Split(s.config.CORS.AllowHeaders, ",")
	router.Use(cors.New(corsConfig))

	notifier, err := notification.NewEmailService(s.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}

	registrationService := services.NewRegistrationService(s.repos, notifier, s.config)
	waitlistService := services.NewWaitlistService(s.repos, notifier)
	eventService := services.NewEventService(s.repos, s.images)

	authHandler := handlers.NewAuthHandler(s.repos.Users(), s.config.JWT.Secret)
	eventHandler := handlers.NewEventHandler(eventService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	waitlistHandler := handlers.NewWaitlistHandler(waitlistService)

	// Health check
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "TerpSpark API is running",
			"status":  "healthy",
		})
	})

	s.setupAPIRoutes(router, authHandler, eventHandler, registrationHandler, waitlistHandler)

	return router, nil
}

// setupAPIRoutes configures all API routes
func (s *Server) setupAPIRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	eventHandler *handlers.EventHandler,
	registrationHandler *handlers.RegistrationHandler,
	waitlistHandler *handlers.WaitlistHandler,
) {
	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Public event reads
	events := api.Group("/events")
	{
		events.GET("", eventHandler.List)
		events.GET("/:id", eventHandler.Get)
	}

	protected := api.Group("")
	protected.Use(auth.RequireAuth(s.config.JWT.Secret))
	{
		protected.POST("/events", eventHandler.Create)
		protected.POST("/events/:id/publish", eventHandler.Publish)
		protected.POST("/events/:id/cancel", eventHandler.Cancel)
		protected.POST("/events/:id/image", eventHandler.UploadImage)
		protected.GET("/events/:id/waitlist", waitlistHandler.EventWaitlist)

		protected.POST("/registrations", registrationHandler.Create)
		protected.POST("/registrations/check-in", registrationHandler.CheckIn)
		protected.GET("/registrations", registrationHandler.List)
		protected.GET("/registrations/:id", registrationHandler.Get)
		protected.DELETE("/registrations/:id", registrationHandler.Cancel)

		protected.POST("/waitlist", waitlistHandler.Join)
		protected.GET("/waitlist", waitlistHandler.List)
		protected.DELETE("/waitlist/:id", waitlistHandler.Leave)
	}
}
