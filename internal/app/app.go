package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/TWeb79/appscout/internal/classify"
	"github.com/TWeb79/appscout/internal/collab"
	"github.com/TWeb79/appscout/internal/config"
	"github.com/TWeb79/appscout/internal/discovery"
	"github.com/TWeb79/appscout/internal/events"
	"github.com/TWeb79/appscout/internal/httpserver"
	"github.com/TWeb79/appscout/internal/httpserver/deps"
	"github.com/TWeb79/appscout/internal/logger"
	"github.com/TWeb79/appscout/internal/monitor"
	"github.com/TWeb79/appscout/internal/probe"
	"github.com/TWeb79/appscout/internal/redis"
	"github.com/TWeb79/appscout/internal/scheduler"
	"github.com/TWeb79/appscout/internal/store"
	memorystore "github.com/TWeb79/appscout/internal/store/memory"
	redisstore "github.com/TWeb79/appscout/internal/store/redis"
	"github.com/TWeb79/appscout/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	hub         *events.Hub
	sweeper     *scheduler.HealthSweeper
	shooter     collab.Screenshotter
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Registry backend: Redis by default, in-memory when addr is "none".
	var registry store.Store
	var redisClient *goredis.Client
	if cfg.RedisAddr != "" && cfg.RedisAddr != "none" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully")
		redisClient = client
		registry = redisstore.NewStore(client)
	} else {
		loggerClient.Warn("SCOUT_REDIS_ADDR=none, registry is in-memory and will not survive restarts")
		registry = memorystore.NewStore()
	}

	// Classification table: built-in rules, optionally overridden by file.
	table := classify.Default()
	if cfg.RulesFile != "" {
		loaded, err := classify.NewLoader(cfg.RulesFile).Load()
		if err != nil {
			loggerClient.Errorf("Failed to load classification rules from %s: %v", cfg.RulesFile, err)
			os.Exit(1)
		}
		table = loaded
		loggerClient.Info("classification rules loaded",
			logger.String("file", cfg.RulesFile),
			logger.Int("rules", len(table.Rules())))
	}

	hub := events.NewHub(loggerClient)
	checker := monitor.New(table, cfg.HealthTimeout, loggerClient)
	identifier := collab.NewIdentifier(cfg.IdentifyURL, cfg.IdentifyTimeout, loggerClient)
	shooter := collab.NewScreenshotter(cfg.ScreenshotURL, cfg.ScreenshotTimeout, loggerClient)

	orchestrator := discovery.New(cfg, registry, hub, checker, identifier, shooter, table,
		func(host string) discovery.Prober { return probe.New(host, loggerClient) },
		loggerClient)

	healthTrigger := make(chan struct{}, 1)
	sweeper := scheduler.NewHealthSweeper(orchestrator, hub, loggerClient, cfg.HealthInterval, healthTrigger)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		Store:         registry,
		Hub:           hub,
		Orchestrator:  orchestrator,
		Identifier:    identifier,
		HealthTrigger: healthTrigger,
		ScanBusy:      &atomic.Bool{},
		DefaultHost:   cfg.TargetHost,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		hub:         hub,
		sweeper:     sweeper,
		shooter:     shooter,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting appscout v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("appscout %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start periodic health sweeper
	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health sweeper: %w", err)
	}
	a.logger.Info("health sweeper started",
		logger.Duration("interval", a.cfg.HealthInterval))

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

	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Closing the hub disconnects every event observer.
	a.hub.Stop()
	a.shooter.Close()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ appscout stopped cleanly")
	return nil
}
