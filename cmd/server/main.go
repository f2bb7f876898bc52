package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kindredapp/kindred-backend/internal/app"
	"github.com/kindredapp/kindred-backend/internal/cache"
	"github.com/kindredapp/kindred-backend/internal/config"
	"github.com/kindredapp/kindred-backend/internal/db"
	"github.com/kindredapp/kindred-backend/internal/logger"
	"github.com/kindredapp/kindred-backend/internal/metrics"
	"github.com/kindredapp/kindred-backend/internal/scheduler"
	"github.com/kindredapp/kindred-backend/internal/service/chat"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Inject logger into app context
	appCtx := app.New(database, redisCache, log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ops listener: Prometheus metrics + liveness
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	opsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	go func() {
		log.Info("starting ops listener", "addr", cfg.Metrics.Addr)
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("ops listener failed", "err", err)
			stop()
		}
	}()

	// background retention purge
	retention := scheduler.NewRetention(chat.NewService(appCtx), cfg, log)
	go retention.Run(ctx)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = opsServer.Shutdown(shutdownCtx)
	log.Info("server stopped")
}
