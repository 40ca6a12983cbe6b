package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/kanban/api/handler"
	"github.com/fastygo/kanban/internal/config"
	"github.com/fastygo/kanban/internal/infrastructure/localcache"
	"github.com/fastygo/kanban/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/kanban/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/kanban/internal/infrastructure/redis"
	"github.com/fastygo/kanban/internal/middleware"
	"github.com/fastygo/kanban/internal/router"
	"github.com/fastygo/kanban/internal/services"
	"github.com/fastygo/kanban/internal/services/lifecycle"
	"github.com/fastygo/kanban/pkg/httpcontext"
	"github.com/fastygo/kanban/pkg/logger"
	"github.com/fastygo/kanban/repository"
	"github.com/fastygo/kanban/repository/memory"
	"github.com/fastygo/kanban/repository/postgres"
	redisRepo "github.com/fastygo/kanban/repository/redis"
	"github.com/fastygo/kanban/usecase"
	"github.com/fastygo/kanban/usecase/board"
	"github.com/fastygo/kanban/usecase/game"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)

	cache, err := localcache.Open(cfg.Sync.LocalCachePath)
	if err != nil {
		zapLogger.Fatal("failed to open local cache", zap.Error(err))
	}
	manager.Register("local_cache", func(ctx context.Context) error {
		return cache.Close()
	})

	remote := openRemote(appCtx, cfg, manager, zapLogger)

	store := usecase.NewStore(usecase.StoreOptions{
		BoardEnv: board.Env{Now: time.Now},
		GameEnv: game.Env{
			Location:               cfg.Location(),
			AwardAchievementPoints: cfg.Game.AwardAchievementPoints,
		},
		StrictActiveDelete: cfg.Boards.StrictActiveDelete,
		Logger:             zapLogger,
	})

	bridge := services.NewBridge(store, remote, cache, zapLogger, services.BridgeConfig{
		Debounce:    cfg.Sync.Debounce,
		Concurrency: cfg.Sync.Concurrency,
		PushTimeout: cfg.Context.ShutdownTimeout,
	})
	if err := bridge.Hydrate(appCtx); err != nil {
		zapLogger.Fatal("hydration failed", zap.Error(err))
	}
	bridge.Start()
	manager.Register("bridge", func(ctx context.Context) error {
		return bridge.Close(ctx)
	})

	mon := monitor.New(remote, cache, cfg.Sync.MonitorInterval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	processor := services.NewSyncProcessor(cache, remote, mon, zapLogger, services.ProcessorConfig{
		Interval:   cfg.Sync.Interval,
		BatchSize:  cfg.Sync.BatchSize,
		MaxRetries: cfg.Sync.MaxRetry,
		Retention:  time.Duration(cfg.Sync.RetentionHours) * time.Hour,
	})
	processor.Start()
	manager.Register("sync_processor", func(ctx context.Context) error {
		processor.Stop(ctx)
		return nil
	})

	dispatcher := usecase.NewDispatcher()
	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Board:  apiHandler.NewBoardHandler(store, dispatcher, ctxAdapter, zapLogger),
		Game:   apiHandler.NewGameHandler(store, dispatcher, ctxAdapter, zapLogger),
		Sync:   apiHandler.NewSyncHandler(bridge, processor, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 4 << 20,
	}

	manager.Go(appCtx, "http_server", func(ctx context.Context) error {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		return server.ListenAndServe(cfg.Address())
	})
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	if err := manager.Wait(appCtx); err != nil {
		zapLogger.Error("component failure, shutting down", zap.Error(err))
	}
	cancel()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// openRemote connects the configured document store. It returns nil for
// the local-only backend.
func openRemote(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) repository.DocumentStore {
	switch cfg.Remote.Backend {
	case config.RemotePostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		return postgres.NewDocumentStore(pool)
	case config.RemoteRedis:
		client, err := redisInfra.NewClient(cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return client.Close()
		})
		return redisRepo.NewDocumentStore(client, cfg.Redis.Prefix)
	case config.RemoteMemory:
		zapLogger.Warn("using in-memory remote store; data is lost on restart")
		return memory.NewDocumentStore()
	default:
		zapLogger.Info("remote store disabled, running local-only")
		return nil
	}
}
