// Package httpapi exposes the UI control surface (filters, time range,
// refresh, retry), the current-view endpoint for initial page load, the
// WebSocket mount, and the operational endpoints (health, readiness,
// metrics).
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quakesight/quake-map-service/internal/domain"
)

// MapController is the poll controller surface the API drives. Every
// handler maps directly onto one controller operation.
type MapController interface {
	CheckReadiness(ctx context.Context) error
	CurrentView() domain.EventView
	Status() domain.FeedStatus
	Refresh()
	Retry()
	SetTimeRange(r domain.TimeRange)
	SetFilter(criteria domain.FilterCriteria)
}

// Server exposes the control API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	controller MapController
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates the HTTP server. The WebSocket handler is mounted at
// /ws; pass the hub's handler.
func NewServer(addr string, controller MapController, wsHandler http.Handler, allowedOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		controller: controller,
		validate:   validator.New(),
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/ws", wsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Put("/filters", s.handleFilters)
		r.Put("/range", s.handleRange)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/retry", s.handleRetry)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.controller.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.CurrentView())
}

type filtersRequest struct {
	MinMagnitude float64 `json:"min_magnitude" validate:"gte=0,lte=10"`
	Place        string  `json:"place"`
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	var req filtersRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.controller.SetFilter(domain.FilterCriteria{
		MinMagnitude:   req.MinMagnitude,
		PlaceSubstring: req.Place,
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type rangeRequest struct {
	Range string `json:"range" validate:"required,oneof=day week month"`
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if !s.decode(w, r, &req) {
		return
	}

	timeRange, err := domain.ParseTimeRange(req.Range)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.controller.SetTimeRange(timeRange)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.controller.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleRetry re-triggers the fetch after a failure. Retry is only offered
// while the feed is in the error state; otherwise it is a conflict.
func (s *Server) handleRetry(w http.ResponseWriter, _ *http.Request) {
	if s.controller.Status() != domain.StatusError {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no failed fetch to retry"})
		return
	}
	s.controller.Retry()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// decode unmarshals and validates a JSON request body, writing a 400 on
// failure. Returns false when the request was rejected.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // best-effort response
}
