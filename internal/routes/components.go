package routes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nexus-hr/treasury/internal/actor"
	"github.com/nexus-hr/treasury/internal/auth"
	"github.com/nexus-hr/treasury/internal/bank"
	"github.com/nexus-hr/treasury/internal/config"
	"github.com/nexus-hr/treasury/internal/fund"
	"github.com/nexus-hr/treasury/internal/metrics"
	"github.com/nexus-hr/treasury/internal/notification"
	"github.com/nexus-hr/treasury/internal/reporting"
	"github.com/nexus-hr/treasury/internal/topup"
	"github.com/nexus-hr/treasury/internal/webhook"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Components holds the wired services. Postgres and Redis backends are used
// when present, in-memory ones otherwise.
type Components struct {
	Actors    *actor.Service
	Resolver  *actor.Resolver
	Auth      *auth.Service
	Syncer    *fund.Synchronizer
	Topups    *topup.Service
	Ingestion *webhook.Service
	Reporting *reporting.Service
}

// Build wires every service against the available backends.
func Build(d Deps) (*Components, error) {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	var (
		actorRepo actor.Repository
		txStore   bank.Store
		fundRepo  fund.Repository
		topupRepo topup.Repository
		counters  metrics.Counters
	)
	if d.DB != nil {
		actorRepo = actor.NewPostgresRepository(d.DB)
		txStore = bank.NewPostgresStore(d.DB)
		fundRepo = fund.NewPostgresRepository(d.DB)
		topupRepo = topup.NewPostgresRepository(d.DB)
	} else {
		actorRepo = actor.NewMemoryRepository()
		txStore = bank.NewMemoryStore()
		fundRepo = fund.NewInMemory()
		topupRepo = topup.NewMemoryRepository()
	}
	if d.Cache != nil {
		counters = metrics.NewRedisCounters(d.Cache)
	} else {
		counters = metrics.NewMemoryCounters()
	}

	actors := actor.NewService(actorRepo)
	resolver := actor.NewResolver(actorRepo, d.Cfg.SystemActorUsername)
	syncer := fund.NewSynchronizer(fundRepo, txStore, d.Cfg.FundName, d.Logger)
	recorder := fund.NewRecorder(fundRepo, resolver, d.Cfg.FundName, d.Logger)
	notifier := notification.NewLoggerNotifier(d.Logger)
	matcher := topup.NewMatcher(topupRepo, d.Cfg.TopupCodePrefix, notifier, counters, d.Logger)
	normalizer := webhook.NewNormalizer(d.Cfg.Location(), counters, d.Logger)

	return &Components{
		Actors:    actors,
		Resolver:  resolver,
		Auth:      auth.NewService(actors, d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL),
		Syncer:    syncer,
		Topups:    topup.NewService(topupRepo, d.Cfg.TopupCodePrefix),
		Ingestion: webhook.NewService(normalizer, txStore, syncer, recorder, matcher, counters, d.Logger),
		Reporting: reporting.NewService(txStore, topupRepo, counters),
	}, nil
}

// SeedSystemActor creates the configured system account as an admin when it
// does not exist yet. It is meant for dev runs on the in-memory directory.
func SeedSystemActor(ctx context.Context, c *Components, d Deps) error {
	if d.Cfg.SeedAdminPassword == "" {
		return nil
	}
	_, err := c.Actors.Register(ctx, actor.RegisterInput{
		Username: d.Cfg.SystemActorUsername,
		Password: d.Cfg.SeedAdminPassword,
		Role:     actor.RoleAdmin,
	})
	if errors.Is(err, actor.ErrDuplicateUsername) {
		return nil
	}
	return err
}

// CheckSystemActor logs which account ledger entries will be attributed to.
// A missing actor is reported loudly but does not stop the process.
func CheckSystemActor(ctx context.Context, c *Components, logger *slog.Logger) {
	res, found, err := c.Resolver.Resolve(ctx)
	switch {
	case err != nil:
		logger.Error("system actor lookup failed", slog.Any("error", err))
	case !found:
		logger.Error("no system actor configured; bank movements cannot be recorded until one exists",
			slog.Any("error", actor.ErrNoSystemActor))
	default:
		logger.Info("system actor resolved",
			slog.String("username", res.Actor.Username),
			slog.String("source", string(res.Source)))
	}
}
