package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/nhl-predictor/internal/api/rest"
	"github.com/fortuna/nhl-predictor/internal/api/websocket"
	"github.com/fortuna/nhl-predictor/internal/config"
	"github.com/fortuna/nhl-predictor/internal/logging"
	"github.com/fortuna/nhl-predictor/internal/predictor"
	"github.com/fortuna/nhl-predictor/internal/render"
	"github.com/fortuna/nhl-predictor/internal/session"
	"github.com/fortuna/nhl-predictor/internal/timeutil"
)

const (
	serviceName    = "nhl-predictor"
	serviceVersion = "1.0.0"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").Fatalf("Failed to load configuration: %v", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	log.Infof("Starting %s v%s - NHL game predictions", serviceName, serviceVersion)

	client := predictor.New(cfg.PredictionAPIBaseURL,
		predictor.WithTimeout(cfg.RequestTimeout),
		predictor.WithLogger(log),
	)
	log.Infof("✓ Prediction API at %s", client.BaseURL())

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("Failed to parse page templates: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := session.NewManager(client, timeutil.NewResolver(), cfg.SessionIdleTimeout, log)
	go manager.Run(ctx)
	log.Infof("✓ Session reaper started (idle timeout %s)", cfg.SessionIdleTimeout)

	wsServer := websocket.NewServer(manager, log)
	go wsServer.Run(ctx)
	log.Info("✓ WebSocket hub started")

	webServer := rest.NewServer(cfg.WebPort, manager, renderer, wsServer, log)
	go func() {
		log.Infof("Starting web server on port %s", cfg.WebPort)
		if err := webServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("web server stopped")
		}
	}()

	log.Infof("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Infof("  Web:       http://0.0.0.0:%s", cfg.WebPort)
	log.Infof("  WebSocket: ws://0.0.0.0:%s/ws/sessions/{id}", cfg.WebPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Infof("Shutting down %s gracefully...", serviceName)

	wsServer.Broadcast([]byte(`{"type":"shutdown"}`))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("web server shutdown error")
	}

	cancel()
	manager.Shutdown()

	log.Infof("%s stopped", serviceName)
}
