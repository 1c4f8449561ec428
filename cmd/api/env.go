package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nexus-hr/treasury/internal/config"
	"github.com/nexus-hr/treasury/internal/infra"
	"github.com/nexus-hr/treasury/internal/logging"
	"github.com/nexus-hr/treasury/internal/routes"
)

// appEnv bundles what every subcommand needs. db and cache stay nil when
// their URL is unset, which config only allows in dev.
type appEnv struct {
	cfg    config.Config
	logger *slog.Logger
	db     *pgxpool.Pool
	cache  *redis.Client
}

func openRuntime(ctx context.Context, needCache bool) (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	rt := &appEnv{cfg: cfg, logger: logging.New(cfg.LogLevel, cfg.AppName)}

	if cfg.DatabaseURL != "" {
		if rt.db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.AppName); err != nil {
			return nil, err
		}
	} else {
		rt.logger.Warn("DATABASE_URL not set, using in-memory stores")
	}

	if needCache && cfg.RedisURL != "" {
		if rt.cache, err = infra.NewRedisClient(ctx, cfg.RedisURL, cfg.AppName); err != nil {
			rt.close()
			return nil, err
		}
	} else if needCache {
		rt.logger.Warn("REDIS_URL not set, idempotency keys and shared counters disabled")
	}
	return rt, nil
}

// deps hands every opened backend to the component wiring.
func (rt *appEnv) deps() routes.Deps {
	return routes.Deps{Cfg: rt.cfg, DB: rt.db, Cache: rt.cache, Logger: rt.logger}
}

func (rt *appEnv) close() {
	if rt.cache != nil {
		if err := rt.cache.Close(); err != nil {
			rt.logger.Warn("close redis", slog.Any("error", err))
		}
	}
	if rt.db != nil {
		rt.db.Close()
	}
}
