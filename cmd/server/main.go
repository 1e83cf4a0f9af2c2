package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"skillforge/internal/cache"
	"skillforge/internal/config"
	"skillforge/internal/database"
	"skillforge/internal/events"
	"skillforge/internal/middleware"
	"skillforge/internal/realtime"
	"skillforge/internal/repositories"
	"skillforge/internal/response"
	"skillforge/internal/router"
	"skillforge/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet.
		panic(err)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting skillforge",
		zap.String("environment", cfg.Server.Environment),
		zap.String("addr", cfg.Server.Addr()),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Database.
	dbManager, err := database.NewManager(&database.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		MigrationsPath:  cfg.Database.MigrationsPath,
	}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = dbManager.Close() }()

	if err := dbManager.Migrate(); err != nil {
		return err
	}

	// Cache.
	cacheInstance, err := cache.New(&cache.Config{
		Provider:      cfg.Cache.Provider,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		PoolSize:      cfg.Cache.PoolSize,
	}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cacheInstance.Close() }()

	// Eventing and realtime.
	bus := events.NewBus(logger)
	defer bus.Close()
	hub := realtime.NewHub(bus, logger)
	defer hub.Close()

	// Repositories.
	repos := &repositories.Collection{
		Points:   repositories.NewPointsRepository(dbManager, logger),
		Badges:   repositories.NewBadgeRepository(dbManager, logger),
		Stats:    repositories.NewStatsRepository(dbManager, logger),
		Users:    repositories.NewUserRepository(dbManager, logger),
		Activity: repositories.NewActivityRepository(dbManager, logger),
	}

	// Services.
	gamificationService := services.NewGamificationService(repos, cfg.Gamification, bus, cacheInstance, logger)
	activityService := services.NewActivityService(repos.Activity, repos.Users, logger)

	// Earned badges show up in the activity feed via the bus; other feed
	// entries are recorded by the action handlers that own them.
	bus.Subscribe("badge_earned", func(ctx context.Context, event events.Event) {
		if earned, ok := event.(events.BadgeEarned); ok {
			if err := activityService.RecordActivity(ctx, earned.UserID, services.BadgeActivity{BadgeName: earned.BadgeName}); err != nil {
				logger.Warn("failed to record badge activity", zap.Error(err))
			}
		}
	})

	// HTTP surface.
	builder := response.NewBuilder(logger)
	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, builder, logger)

	handler := router.New(&router.Dependencies{
		Gamification: gamificationService,
		Activity:     activityService,
		Auth:         authMiddleware,
		Builder:      builder,
		Hub:          hub,
		DB:           dbManager,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
