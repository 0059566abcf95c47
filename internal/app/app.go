package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tenancy/internal/config"
	"github.com/MrSnakeDoc/tenancy/internal/domain"
	"github.com/MrSnakeDoc/tenancy/internal/fsys"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/mw"
	"github.com/MrSnakeDoc/tenancy/internal/logger"
	"github.com/MrSnakeDoc/tenancy/internal/mounts"
	"github.com/MrSnakeDoc/tenancy/internal/redis"
	"github.com/MrSnakeDoc/tenancy/internal/router"
	"github.com/MrSnakeDoc/tenancy/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/tenancy/internal/store/redis"
	"github.com/MrSnakeDoc/tenancy/internal/version"
	"github.com/MrSnakeDoc/tenancy/internal/watcher"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	catalog     *domain.Catalog
	mounts      *mounts.Cache
	redisClient *goredis.Client
	gc          *scheduler.GarbageCollector
}

// New loads the catalog and wires the HTTP server. Redis is optional: when
// it is configured but unreachable, usage tracking is disabled and the
// server still starts.
func New(cfg *config.Config) (*App, error) {
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	global, err := config.LoadGlobal(cfg.CatalogFile, cfg.RootPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogFile, err)
	}

	fs := fsys.NewOS()
	catalog := domain.NewCatalog(global, fs)
	loggerClient.Info("catalog loaded",
		logger.String("file", cfg.CatalogFile),
		logger.String("root", global.RootPath),
		logger.Int("services", catalog.Len()),
		logger.Bool("enabled", global.Enabled()))

	registry := mw.NewRegistry(loggerClient, mw.Options{
		AllowedCIDRS:  cfg.AllowedCIDRS,
		AllowedHosts:  cfg.AllowedHosts,
		TrustProxy:    cfg.TrustProxy,
		RateBurst:     cfg.RateBurst,
		RatePerMinute: cfg.RatePerMinute,
	})

	cache := mounts.New(cfg.MountCacheTTL, mounts.Builder(router.Options{
		FS:         fs,
		Middleware: registry.Lookup,
		Log:        logger.Named(loggerClient, "router"),
	}), logger.Named(loggerClient, "mounts"))

	var (
		redisClient *goredis.Client
		usage       deps.UsageStore
		gc          *scheduler.GarbageCollector
	)
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(context.Background(), redis.OptionsFromConfig(cfg), logger.Named(loggerClient, "redis"))
		if err != nil {
			loggerClient.Warn("usage tracking disabled", logger.Error(err))
		} else {
			store := redisstore.NewStore(redisClient, global.RootPath)
			usage = store
			gc = scheduler.NewGarbageCollector(store, func(service string) bool {
				_, ok := catalog.Lookup(service)
				return ok
			}, logger.Named(loggerClient, "usage_gc"), cfg.UsageGCInterval, cfg.UsageRetention)
			loggerClient.Info("Redis initialized successfully")
		}
	}

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		CatalogFile:  cfg.CatalogFile,
		Catalog:      catalog,
		FS:           fs,
		Middleware:   registry,
		Mounts:       cache,
		RedisClient:  redisClient,
		Usage:        usage,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		catalog:     catalog,
		mounts:      cache,
		redisClient: redisClient,
		gc:          gc,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Tenancy %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.WatchFiles {
		w, err := watcher.New(watcher.Config{
			Services:    a.catalog.Services(),
			DebounceDur: a.cfg.WatchDebounce,
			OnChange:    a.mounts.Flush,
		}, logger.Named(a.logger, "watcher"))
		if err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		w.Start(ctx)
	}

	if a.gc != nil {
		a.gc.Start(ctx)
		a.logger.Info("usage garbage collector started",
			logger.Duration("interval", a.cfg.UsageGCInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.gc != nil {
		a.gc.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	_ = a.logger.Sync()
	a.logger.Info("✅ Tenancy stopped cleanly")
	return nil
}
