package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kazmiyai/favuls/internal/config"
	"github.com/kazmiyai/favuls/internal/domain"
	"github.com/kazmiyai/favuls/internal/httpserver"
	"github.com/kazmiyai/favuls/internal/httpserver/deps"
	"github.com/kazmiyai/favuls/internal/logger"
	"github.com/kazmiyai/favuls/internal/redis"
	"github.com/kazmiyai/favuls/internal/scheduler"
	"github.com/kazmiyai/favuls/internal/session"
	"github.com/kazmiyai/favuls/internal/store/chunk"
	"github.com/kazmiyai/favuls/internal/store/kv"
	"github.com/kazmiyai/favuls/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	sess        *session.Session
	watcher     *scheduler.ChangeWatcher
	sweeper     *scheduler.IntegritySweeper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
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

	store := kv.NewRedis(redisClient, cfg.InstanceID, loggerClient)
	codec := chunk.New(store, loggerClient)
	validator := domain.NewValidator(loggerClient)
	sess := session.New(codec, validator, loggerClient)

	watcher := scheduler.NewChangeWatcher(store, sess, cfg.InstanceID, loggerClient)
	sweeper := scheduler.NewIntegritySweeper(sess, loggerClient, cfg.SweepInterval)

	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,
		TimeNow:   time.Now,
		Session:   sess,
		Store:     store,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		sess:        sess,
		watcher:     watcher,
		sweeper:     sweeper,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Favuls v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Favuls %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the session up front so a corrupt or legacy store surfaces at
	// startup, not on the first request.
	if err := a.sess.Load(ctx); err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := a.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start change watcher: %w", err)
	}
	a.logger.Info("change watcher started",
		logger.String("instance_id", a.cfg.InstanceID))

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start integrity sweeper: %w", err)
	}
	a.logger.Info("integrity sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

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

	a.watcher.Stop()
	a.sweeper.Stop()

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

	a.logger.Info("✅ Favuls stopped cleanly")
	return nil
}
