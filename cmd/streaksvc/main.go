package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"streaksvc/internal/config"
	"streaksvc/internal/handler"
	"streaksvc/internal/httpserver"
	"streaksvc/internal/leaderboard"
	"streaksvc/internal/repository"
	"streaksvc/internal/service"
	"streaksvc/pkg/db"
	"streaksvc/pkg/logger"
	"streaksvc/pkg/mq"
	pkgredis "streaksvc/pkg/redis"
)

func main() {
	cfg := config.Load()

	log := logger.NewWithConfig(cfg.Log)
	defer log.Sync()

	log.Info("Starting streaksvc...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.String("mq_url", cfg.MQ.URL),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	// Redis (leaderboard store)
	rdb := pkgredis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	// MQ publisher for streak.updated events. MQ is optional: the service
	// degrades to no event publishing when the broker is unreachable.
	var events service.EventPublisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Warn("MQ unavailable, streak events disabled", zap.Error(err))
	} else {
		defer publisher.Close()
		events = publisher
	}

	// Repositories
	completionRepo := repository.NewCompletionRepository(dbConn, log)
	habitRepo := repository.NewHabitRepository(dbConn, log)
	streakRepo := repository.NewStreakRepository(dbConn, log)
	userRepo := repository.NewUserRepository(dbConn, log)

	board := leaderboard.New(rdb, log)

	syncSvc := service.NewSyncService(completionRepo, habitRepo, streakRepo, board, events, log)

	// Daily sync scheduler: once at startup (the staleness gate makes
	// restarts cheap), then every midnight.
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()

	runSyncAll := func(ctx context.Context) {
		ids, err := userRepo.ListActiveIDs(ctx)
		if err != nil {
			log.Error("Failed to list sync candidates", zap.Error(err))
			return
		}
		syncSvc.SyncAll(ctx, ids, time.Now())
	}

	go func() {
		runSyncAll(schedulerCtx)

		for {
			now := time.Now()
			nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			timer := time.NewTimer(nextMidnight.Sub(now))

			select {
			case <-schedulerCtx.Done():
				timer.Stop()
				log.Info("Streak sync scheduler stopped")
				return
			case <-timer.C:
				log.Info("Running daily streak sync...")
				runSyncAll(schedulerCtx)
			}
		}
	}()

	// HTTP server
	streakHandler := handler.NewStreakHandler(syncSvc, board, userRepo, cfg.Sync.LeaderboardLimit, log)
	router := httpserver.NewRouter(streakHandler, log, dbConn, rdb, httpserver.RouterOptions{
		JWTSecret:        cfg.JWT.Secret,
		RefreshPerMinute: cfg.Sync.RefreshPerMinute,
	})

	port := cfg.Server.Port
	if port == "" {
		port = "8086"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("streaksvc is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down streaksvc gracefully...")

	schedulerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("streaksvc shutdown complete")
}
