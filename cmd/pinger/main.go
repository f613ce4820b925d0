package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fortuna/nhl-predictor/internal/config"
	"github.com/fortuna/nhl-predictor/internal/logging"
	"github.com/fortuna/nhl-predictor/internal/pinger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").Fatalf("Failed to load configuration: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	target := cfg.KeepActiveURL
	if target == "" {
		target = cfg.PredictionAPIBaseURL + "keep-active/"
	}

	p, err := pinger.New(target, cfg.KeepActiveHeader, cfg.KeepActiveToken, nil, log)
	if err != nil {
		log.Fatalf("Failed to create pinger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := p.Ping(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
