package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mutooni/mutooni-api/internal/cli"
	"github.com/mutooni/mutooni-api/internal/config"
	"github.com/mutooni/mutooni-api/internal/observability"
	"github.com/mutooni/mutooni-api/internal/persistence"
	"github.com/mutooni/mutooni-api/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, open, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// open connects to Postgres and, when configured, Redis so user changes also drop cached
// entries the API would otherwise keep serving until they expire.
func open(ctx context.Context) (*cli.Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name+"-admin", logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	pool := pg.PoolHandle()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	var users repository.UserRepository = repository.NewUserRepository(pool)
	if ttl := cfg.Redis.UserCacheTTL(); ttl > 0 {
		users = repository.NewCachedUserRepository(users, redis.Client, ttl, logger)
	}

	return &cli.Env{
		Users: users,
		Migrate: func(ctx context.Context) error {
			return persistence.RunMigrations(ctx, pool, logger)
		},
		Migrations: persistence.MigrationNames,
		BcryptCost: cfg.Auth.BcryptCost,
		Close: func() {
			redis.Close()
			pg.Close()
			_ = logger.Sync()
		},
	}, nil
}
