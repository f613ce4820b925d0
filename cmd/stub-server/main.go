package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/nhl-predictor/internal/api/stub"
	"github.com/fortuna/nhl-predictor/internal/config"
	"github.com/fortuna/nhl-predictor/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").Fatalf("Failed to load configuration: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	srv := stub.NewServer(cfg.StubPort, cfg.KeepActiveToken, cfg.KeepActiveHeader, log)
	go func() {
		log.Infof("Stub server listening at http://localhost:%s", cfg.StubPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("stub server stopped")
		}
	}()
	if cfg.KeepActiveToken != "" {
		log.Infof("✓ keep-active requires the %s header", cfg.KeepActiveHeader)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("stub server shutdown error")
	}
	log.Info("stub server stopped")
}
