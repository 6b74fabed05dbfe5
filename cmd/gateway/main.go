package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/gateway/api/handler"
	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/internal/config"
	"github.com/fastygo/gateway/internal/infrastructure/keycloak"
	"github.com/fastygo/gateway/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/gateway/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/gateway/internal/infrastructure/redis"
	"github.com/fastygo/gateway/internal/middleware"
	"github.com/fastygo/gateway/internal/router"
	"github.com/fastygo/gateway/internal/services"
	"github.com/fastygo/gateway/internal/services/lifecycle"
	"github.com/fastygo/gateway/pkg/httpcontext"
	"github.com/fastygo/gateway/pkg/logger"
	"github.com/fastygo/gateway/repository"
	boltRepo "github.com/fastygo/gateway/repository/bolt"
	memoryRepo "github.com/fastygo/gateway/repository/memory"
	pgRepo "github.com/fastygo/gateway/repository/postgres"
	redisRepo "github.com/fastygo/gateway/repository/redis"
	sessionUC "github.com/fastygo/gateway/usecase/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	sessionStore, probes, err := buildSessionStore(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("session store setup failed", zap.Error(err))
	}

	identity := keycloak.New(keycloak.Config{
		BaseURL:      cfg.Keycloak.BaseURL,
		Realm:        cfg.Keycloak.Realm,
		ClientID:     cfg.Keycloak.ClientID,
		ClientSecret: cfg.Keycloak.ClientSecret,
		Timeout:      cfg.Keycloak.Timeout,
	}, zapLogger)

	probes["keycloak"] = identity.Ping
	mon := monitor.New(probes, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	policy := domain.NewSessionPolicy(cfg.Session.Policy, nil)
	sessionUseCase := sessionUC.New(sessionStore, identity, policy, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	lookup := middleware.SessionConfig{
		CookieName: cfg.Session.CookieName,
		HeaderName: cfg.Session.HeaderName,
	}

	handlers := router.Handlers{
		Session: apiHandler.NewSessionHandler(sessionUseCase, lookup, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	sessionAuth := middleware.SessionAuth(sessionUseCase, lookup, ctxAdapter, zapLogger)
	serviceAuth := middleware.ServiceAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, sessionAuth, serviceAuth)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("gateway started",
			zap.String("address", cfg.Address()),
			zap.String("session_store", string(cfg.Session.Store)))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// buildSessionStore wires the configured session repository along with its
// health probes and shutdown hooks.
func buildSessionStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (repository.SessionRepository, map[string]monitor.Probe, error) {
	probes := make(map[string]monitor.Probe)

	switch cfg.Session.Store {
	case config.StoreRedis:
		client, err := redisInfra.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		manager.Register("redis", func(ctx context.Context) error {
			return client.Close()
		})
		probes["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		return redisRepo.NewSessionRepository(client), probes, nil

	case config.StorePostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return nil, nil, err
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, nil, err
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})
		probes["postgres"] = pool.Ping

		sweeper := services.NewSweeper(pgRepo.NewPurger(pool), cfg.Session.SweepInterval, zapLogger)
		if err := sweeper.Start(); err != nil {
			return nil, nil, err
		}
		manager.Register("session_sweeper", func(ctx context.Context) error {
			sweeper.Stop(ctx)
			return nil
		})
		return pgRepo.NewSessionRepository(pool), probes, nil

	case config.StoreBolt:
		store, closeFn, err := boltRepo.Open(cfg.Session.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		manager.Register("bolt", func(ctx context.Context) error {
			return closeFn()
		})
		return store, probes, nil

	default:
		return memoryRepo.NewSessionRepository(), probes, nil
	}
}
