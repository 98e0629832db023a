package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/mercado-backend/internal/cache"
	"github.com/shinyyama/mercado-backend/internal/config"
	"github.com/shinyyama/mercado-backend/internal/db"
	"github.com/shinyyama/mercado-backend/internal/events"
	"github.com/shinyyama/mercado-backend/internal/logging"
	"github.com/shinyyama/mercado-backend/internal/middleware"
	"github.com/shinyyama/mercado-backend/internal/server"
	"github.com/shinyyama/mercado-backend/internal/storage"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect error", zap.Error(err))
	}
	if err := db.Migrate(conn); err != nil {
		logger.Fatal("auto migrate error", zap.Error(err))
	}

	deps := server.Deps{DB: conn, Log: logger}

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable; product cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			deps.Cache = rc
		}
	}

	if cfg.NatsURL != "" {
		pub, err := events.NewNatsPublisher(cfg.NatsURL, cfg.NatsSubjectPrefix, logger)
		if err != nil {
			logger.Warn("nats unavailable; domain events disabled", zap.Error(err))
		} else {
			defer pub.Close()
			deps.Events = pub
		}
	}

	if cfg.StorageBucket != "" {
		up, err := storage.NewGCSUploader(ctx, cfg.StorageBucket)
		if err != nil {
			logger.Warn("cloud storage unavailable; uploads disabled", zap.Error(err))
		} else {
			defer up.Close()
			deps.Uploader = up
		}
	}

	if cfg.FirebaseProjectID != "" {
		fb, err := middleware.NewFirebaseAuth(ctx, cfg.FirebaseProjectID)
		if err != nil {
			logger.Warn("firebase auth init failed", zap.Error(err))
		} else {
			deps.Verifier = fb
			deps.Profiles = fb
		}
	}
	if cfg.DevAuth {
		if cfg.IsProduction() {
			logger.Fatal("DEV_AUTH must not be enabled in production")
		}
		logger.Warn("dev auth enabled; the X-User-Id header is trusted")
	}

	srv := server.New(cfg, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
