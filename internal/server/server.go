package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alwaysssummer/eng-lib/internal/api"
	"github.com/alwaysssummer/eng-lib/internal/database"
	"github.com/alwaysssummer/eng-lib/internal/sync"
	"github.com/alwaysssummer/eng-lib/pkg/dropbox"
	"github.com/alwaysssummer/eng-lib/pkg/logger"
)

// Server wires the catalog, the Dropbox client, and the sync engine behind
// one HTTP listener.
type Server struct {
	config     *Config
	db         *database.Database
	engine     *sync.Engine
	scheduler  *sync.Scheduler
	httpServer *http.Server
	logger     *logger.Logger
}

// New creates a new HTTP server
func New(config *Config, db *database.Database, dbx *dropbox.Client, log *logger.Logger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	engine := sync.NewEngine(dbx, db.Catalog(), config.Dropbox.RootPath, log)

	var scheduler *sync.Scheduler
	if config.Sync.Schedule != "off" {
		scheduler = sync.NewScheduler(engine, config.Sync.Schedule, log)
	}

	controllers := api.Controllers{
		Sync: api.NewSyncController(
			engine,
			db.Catalog(),
			config.Dropbox.SigningSecret(),
			config.Sync.CronSecret,
			log,
		),
		Library:  api.NewLibraryController(db.Catalog(), dbx, log),
		Notices:  api.NewNoticeController(db.Catalog()),
		Requests: api.NewRequestController(db.Catalog()),
		Admin:    api.NewAdminController(db.Catalog()),
	}

	server := &Server{
		config:    config,
		db:        db,
		engine:    engine,
		scheduler: scheduler,
		logger:    log.WithField("component", "server"),
	}

	server.httpServer = &http.Server{
		Addr:         config.GetAddress(),
		Handler:      api.NewRouter(controllers, db, log),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return server, nil
}

// Engine exposes the sync engine, mainly for startup hooks.
func (s *Server) Engine() *sync.Engine {
	return s.engine
}

// Start runs the HTTP listener and the sync scheduler until the context is
// cancelled or an interrupt arrives, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start sync scheduler: %w", err)
		}
	}

	go func() {
		s.logger.WithField("address", s.config.GetAddress()).Info("starting server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		s.logger.Info("shutdown signal received")
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down")
	}

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Error("server shutdown failed")
		return err
	}

	s.logger.Info("server shutdown complete")
	return nil
}
