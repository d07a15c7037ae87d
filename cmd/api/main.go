package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/mutooni/mutooni-api/internal/api/http"
	"github.com/mutooni/mutooni-api/internal/api/http/handlers"
	"github.com/mutooni/mutooni-api/internal/auth"
	"github.com/mutooni/mutooni-api/internal/config"
	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/events"
	"github.com/mutooni/mutooni-api/internal/identity"
	"github.com/mutooni/mutooni-api/internal/observability"
	"github.com/mutooni/mutooni-api/internal/persistence"
	"github.com/mutooni/mutooni-api/internal/repository"
	"github.com/mutooni/mutooni-api/internal/service"
	"github.com/mutooni/mutooni-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.PoolHandle()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	identityClient := identity.NewClient(logger)
	if err := identityClient.Init(ctx, cfg.Identity); err != nil {
		logger.Fatal("failed to init identity verifier", zap.Error(err))
	}
	defer identityClient.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))
	if forwarder := worker.StartEventForwarder(cfg.Events.AMQPURL, cfg.Events.Exchange, dispatcher, logger); forwarder != nil {
		defer forwarder.Close()
	}

	// the token service needs password hashes, which the cache never stores
	rawUsers := repository.NewUserRepository(pool)
	var users repository.UserRepository = rawUsers
	if ttl := cfg.Redis.UserCacheTTL(); ttl > 0 {
		users = repository.NewCachedUserRepository(rawUsers, redis.Client, ttl, logger)
	}
	products := repository.NewProductRepository(pool)
	partners := repository.NewPartnerRepository(pool)
	purchases := repository.NewPurchaseRepository(pool)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())
	directory := service.NewDirectoryService(users, dispatcher, metrics, logger, cfg.Identity.PlaceholderEmailDomain)

	chain := auth.Chain{auth.NewJWTAuthenticator(tokens, users)}
	if identityClient.Enabled() {
		chain = append(chain, auth.NewIdentityAuthenticator(identityClient, directory))
	}

	partnerService := service.NewPartnerService(partners)
	app := httptransport.NewApp(cfg.App.Name,
		httptransport.MiddlewareConfig{
			Logger:         logger,
			Metrics:        metrics,
			Timeout:        cfg.App.RequestTimeout(),
			AllowedOrigins: cfg.App.CORSAllowedOrigins,
		},
		httptransport.RouteConfig{
			Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
				"postgres": pg,
				"redis":    redis,
			}),
			Tokens:    handlers.NewTokenHandler(service.NewTokenService(rawUsers, tokens, cfg.Auth.BcryptCost)),
			Users:     handlers.NewUsersHandler(service.NewUserService(users, dispatcher, cfg.Auth.BcryptCost)),
			Products:  handlers.NewProductsHandler(service.NewCatalogService(products)),
			Clients:   handlers.NewPartnersHandler(partnerService, domain.PartnerKindClient),
			Suppliers: handlers.NewPartnersHandler(partnerService, domain.PartnerKindSupplier),
			Purchases: handlers.NewPurchasesHandler(service.NewPurchaseService(service.PurchaseDependencies{
				PurchaseRepo: purchases,
				ProductRepo:  products,
				PartnerRepo:  partners,
			}, dispatcher)),
			AuthMiddleware: auth.NewAuthMiddleware(chain, metrics, logger),
			Metrics:        metrics,
		},
	)

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
