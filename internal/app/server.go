// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gratias_backend/internal/config"
	"gratias_backend/internal/jobs"
	"gratias_backend/internal/middleware"
	"gratias_backend/internal/shared"
	"gratias_backend/internal/site"
	"gratias_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger
	db         *gorm.DB

	// Handlers
	userHandler *user.Handler
	siteHandler *site.Handler

	// Jobs
	claimsReconcileJob *jobs.ClaimsReconcileJob

	authMW gin.HandlerFunc
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	userHandler *user.Handler,
	siteHandler *site.Handler,
	claimsReconcileJob *jobs.ClaimsReconcileJob,
	db *gorm.DB,
	verifier shared.TokenVerifier,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(verifier, logger.Named("AuthMiddleware"))

	srv := &Server{
		router:             router,
		cfg:                cfg,
		logger:             logger,
		db:                 db,
		userHandler:        userHandler,
		siteHandler:        siteHandler,
		claimsReconcileJob: claimsReconcileJob,
		authMW:             authMW,
	}

	// --- Setup Routes ---
	router.GET("/health", srv.healthCheck)

	v1 := router.Group("/api/v1")
	userHandler.RegisterRoutes(v1, authMW)
	siteHandler.RegisterRoutes(v1, authMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	srv.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return srv, nil
}

// healthCheck reports process liveness plus database reachability.
func (s *Server) healthCheck(c *gin.Context) {
	overall := "UP"
	dbStatus := "UP"
	status := http.StatusOK

	sqlDB, err := s.db.DB()
	if err == nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(pingCtx)
	}
	if err != nil {
		s.logger.Error("Health check: database unreachable", zap.Error(err))
		overall = "DEGRADED"
		dbStatus = "DOWN"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"database": dbStatus,
	})
}

func (s *Server) Start() error {
	if s.claimsReconcileJob != nil {
		if err := s.claimsReconcileJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start claims reconcile job", zap.Error(err))
		}
	} else {
		s.logger.Info("Claims reconcile job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.claimsReconcileJob != nil {
		s.claimsReconcileJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
