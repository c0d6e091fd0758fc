package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"betahub/internal/cache"
	"betahub/internal/config"
	"betahub/internal/database"
	"betahub/internal/handler"
	"betahub/internal/logging"
	"betahub/internal/queue"
	redisclient "betahub/internal/redis"
	"betahub/internal/repository"
	"betahub/internal/service"
	appmw "betahub/internal/transport/http/middleware"
	"betahub/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Run wires the application and serves HTTP until ctx is cancelled.
func Run(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	log := logging.Component(logger, "Server")

	// 2. Connect to Database
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.CreateSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		log.Info("Database schema ready")
	}

	appRepo := repository.NewAppRepository(db)
	testerRequestRepo := repository.NewTesterRequestRepository(db, appRepo)

	// 3. Optional Redis: activity stream, workers and leaderboard cache
	var (
		publisher        queue.Publisher
		leaderboardCache cache.LeaderboardCache
	)
	if cfg.RedisURL != "" {
		rc, err := redisclient.NewClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()

		if err := rc.Ping(ctx); err != nil {
			return err
		}

		publisher = queue.NewPublisher(rc.Client, logger)
		leaderboardCache = cache.NewLeaderboardCache(rc.Client, logger)

		workers := worker.NewManager(
			queue.NewConsumer(rc.Client, logger),
			worker.NewHandler(leaderboardCache, logger),
			worker.DefaultManagerConfig(),
			logger,
		)
		if err := workers.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer workers.Stop()
	} else {
		log.Info("REDIS_URL not set; activity stream and leaderboard cache disabled")
	}

	if !cfg.AdminEnabled() {
		log.Warn("ADMIN_TOKEN_HASH or JWT_SECRET not set; admin endpoints will reject every request")
	}

	// 4. Services and handlers
	testerRequestService := service.NewTesterRequestService(testerRequestRepo, publisher, logger)
	checkInService := service.NewCheckInService(testerRequestRepo, publisher, logger)
	leaderboardService := service.NewLeaderboardService(leaderboardCache, testerRequestRepo, logger)
	adminService := service.NewAdminService(cfg)

	limiter := appmw.NewRateLimiter(cfg.CheckInRatePerSecond, cfg.CheckInRateBurst, logger)
	limiter.StartCleanup(ctx, time.Minute)

	router := NewRouter(RouterConfig{
		TesterRequestHandler: handler.NewTesterRequestHandler(testerRequestService, logger),
		CheckInHandler:       handler.NewCheckInHandler(checkInService, logger),
		LeaderboardHandler:   handler.NewLeaderboardHandler(leaderboardService, logger),
		AdminHandler:         handler.NewAdminHandler(adminService, logger),
		CheckInLimiter:       limiter,
		JWTSecret:            cfg.JWTSecret,
		Logger:               logger,
	})

	// 5. Serve until cancelled
	server := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
