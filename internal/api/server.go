package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shopclone/internal/api/handlers"
	"shopclone/internal/api/middleware"
	"shopclone/internal/config"
	"shopclone/internal/logger"
	"shopclone/internal/services/shopify"
	"shopclone/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, service handlers.CatalogService, sessions *session.Registry, metrics *shopify.Metrics) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(service, sessions, logger)
	sessionHandler := handlers.NewSessionHandler(sessions, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}

	// Routes
	api := router.Group("/api")
	{
		api.POST("/scrape", catalogHandler.Scrape)
		api.POST("/upload", catalogHandler.Upload)

		// Sessions
		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.Create)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.POST("/:id/selection", sessionHandler.ToggleSelection)
			sessions.DELETE("/:id/selection", sessionHandler.ClearSelection)
			sessions.POST("/:id/ready", sessionHandler.MoveToReady)
			sessions.DELETE("/:id/ready/products/:productId", sessionHandler.RemoveReadyProduct)
			sessions.DELETE("/:id/ready/collections/:collectionId", sessionHandler.RemoveReadyCollection)
			sessions.GET("/:id/history", sessionHandler.History)
			sessions.DELETE("/:id/history/:historyId", sessionHandler.RemoveHistory)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	// Scrapes and uploads run for minutes, so only reads are bounded.
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	s.logger.Info("Starting server on %s", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}
