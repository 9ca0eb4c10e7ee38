package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fleveque/counter-service/internal/config"
	"github.com/fleveque/counter-service/internal/middleware"
	"github.com/fleveque/counter-service/internal/storage"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg    *config.Config
	db     *sqlx.DB
	router *gin.Engine
	logger *zap.Logger
	http   *http.Server
}

// New creates and configures a new Server.
func New(cfg *config.Config, db *sqlx.DB, deps Deps, logger *zap.Logger) *Server {
	// Set Gin mode based on log level
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Recovery middleware catches panics and returns 500 instead of crashing.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())

	RegisterRoutes(router, cfg, deps, logger)

	return &Server{
		cfg:    cfg,
		db:     db,
		router: router,
		logger: logger,
		http: &http.Server{
			Addr:         cfg.Server.Address(),
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start kicks off the background database check and then listens for HTTP
// requests. This blocks until the server stops.
//
// The listener does not wait for the check. On a fresh database the table is
// created by that goroutine, so requests that land before it finishes get the
// usual 500 responses.
func (s *Server) Start() error {
	go s.CheckDatabase(context.Background())

	s.logger.Info("starting server",
		zap.String("address", s.cfg.Server.Address()),
		zap.Strings("endpoints", []string{
			"GET  /api/count",
			"POST /api/count/increment",
			"GET  /api/history",
		}),
	)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server listen: %w", err)
	}
	return nil
}

// CheckDatabase logs whether the database answers and, when auto_migrate is
// on, makes sure counter_history exists. Failures are only logged: requests
// will report them as 500s until the database comes back.
func (s *Server) CheckDatabase(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now, err := storage.ServerTime(ctx, s.db)
	if err != nil {
		s.logger.Error("database connection failed", zap.Error(err))
		return
	}
	s.logger.Info("database connected", zap.String("server_time", now))

	if !s.cfg.Database.AutoMigrate {
		return
	}
	if err := storage.EnsureSchema(ctx, s.db); err != nil {
		s.logger.Error("ensuring schema", zap.Error(err))
	}
}

// Shutdown gracefully stops the server, waiting for in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.http.Shutdown(ctx)
}

// Router returns the underlying Gin engine (useful for testing).
func (s *Server) Router() *gin.Engine {
	return s.router
}
