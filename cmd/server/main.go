package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heartofacheron/site/internal/config"
	"github.com/heartofacheron/site/internal/devmode"
	"github.com/heartofacheron/site/internal/devserver"
	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()
	logger := logging.New(os.Stderr, cfg.LogLevel)

	// ── Store ────────────────────────────────────────────────
	st, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("store (%s): %v", cfg.StoreBackend, err)
	}
	defer closeStore()

	// ── Dev mode + mock services ─────────────────────────────
	flag, err := devmode.Load(ctx, st, logger)
	if err != nil {
		log.Fatalf("dev mode: %v", err)
	}
	backend := mock.New(st, mock.WithLogger(logger))

	// ── Router ───────────────────────────────────────────────
	handler := devserver.New(st, backend, flag, logger).Router(cfg.AllowedOrigins)

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info(ctx, "dev backend listening", "port", cfg.Port, "store", cfg.StoreBackend, "dev_mode", flag.Enabled())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
