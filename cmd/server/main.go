// Command server runs the live seismic map service: it polls the USGS
// summary feeds, maintains the in-memory feed state, and pushes encoded
// render frames to connected map frontends over WebSocket while serving
// the UI control API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/quakesight/quake-map-service/internal/adapter/httpapi"
	"github.com/quakesight/quake-map-service/internal/adapter/usgs"
	"github.com/quakesight/quake-map-service/internal/adapter/ws"
	"github.com/quakesight/quake-map-service/internal/config"
	"github.com/quakesight/quake-map-service/internal/observability"
	"github.com/quakesight/quake-map-service/internal/poller"
	"github.com/quakesight/quake-map-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	feed := usgs.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout, logger, metrics)
	hub := ws.NewHub(logger, metrics, cfg.AllowedOrigins)
	state := store.New(cfg.DefaultTimeRange())

	controller := poller.New(feed, hub, state, logger, metrics,
		clockwork.NewRealClock(), cfg.PollInterval)

	srv := httpapi.NewServer(cfg.HTTPAddr, controller, hub.Handler(controller),
		cfg.AllowedOrigins, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := controller.Run(ctx); err != nil {
			logger.Error("poll controller error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	hub.Close()

	logger.Info("shutdown complete")
}
