package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nexus-hr/treasury/internal/config"
	"github.com/nexus-hr/treasury/internal/reconcile"
	"github.com/nexus-hr/treasury/internal/routes"
)

// Server wraps the Fiber application, the reconciliation worker and shared
// dependencies.
type Server struct {
	app    *fiber.App
	cfg    config.Config
	worker *reconcile.Worker
	logger *slog.Logger
}

// New wires components, seeds the dev system actor and registers routes.
// db and cache may be nil in dev environments.
func New(ctx context.Context, cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	deps := routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}
	components, err := routes.Build(deps)
	if err != nil {
		return nil, err
	}
	if db == nil {
		if err := routes.SeedSystemActor(ctx, components, deps); err != nil {
			return nil, err
		}
	}
	routes.CheckSystemActor(ctx, components, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	routes.Setup(app, deps, components)

	return &Server{
		app:    app,
		cfg:    cfg,
		worker: reconcile.NewWorker(components.Syncer, cache, cfg.ReconcileInterval, logger),
		logger: logger,
	}, nil
}

// App exposes the Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// StartWorker runs the reconciliation worker until ctx is cancelled.
func (s *Server) StartWorker(ctx context.Context) {
	go s.worker.Run(ctx)
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
