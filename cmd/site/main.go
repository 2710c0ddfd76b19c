package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartofacheron/site/internal/api"
	"github.com/heartofacheron/site/internal/cli"
	"github.com/heartofacheron/site/internal/config"
	"github.com/heartofacheron/site/internal/devmode"
	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/payment"
	"github.com/heartofacheron/site/internal/session"
	"github.com/heartofacheron/site/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := logging.New(os.Stderr, cfg.LogLevel)

	st, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("store (%s): %v", cfg.StoreBackend, err)
	}
	defer closeStore()

	flag, err := devmode.Load(ctx, st, logger)
	if err != nil {
		log.Fatalf("dev mode: %v", err)
	}
	backend := mock.New(st, mock.WithLogger(logger))
	client := api.NewClient(cfg.APIBaseURL)

	sessions := session.NewManager(st, flag, client, backend.Auth,
		session.WithProbeTimeout(cfg.ProbeTimeout), session.WithLogger(logger))
	defer sessions.Close()

	app := cli.NewApp(cli.Services{
		Flag:    flag,
		Mock:    backend,
		Client:  client,
		Session: sessions,
		Creds: payment.Credentials{
			StripePublishableKey: cfg.StripePublishableKey,
			PayPalClientID:       cfg.PayPalClientID,
			ApplePayMerchantID:   cfg.ApplePayMerchantID,
			GooglePayMerchantID:  cfg.GooglePayMerchantID,
			Host:                 cfg.SiteHost,
		},
		Log: logger,
	}, os.Stdin, os.Stdout)
	app.Run(ctx)
}
