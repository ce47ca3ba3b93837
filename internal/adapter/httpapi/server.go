// Package httpapi exposes the core operations over HTTP, plus the health,
// readiness, and metrics endpoints. It is a thin boundary: request decoding,
// domain error mapping, nothing else.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quietcity/noise-hotspot-service/internal/domain"
	"github.com/quietcity/noise-hotspot-service/internal/service"
)

// Core is the service surface the HTTP layer calls into.
type Core interface {
	CheckReadiness(ctx context.Context) error
	SubmitReport(ctx context.Context, input service.SubmitInput) (service.SubmitResult, error)
	ModerateReport(ctx context.Context, reportID, decision, reason string) (domain.Decision, error)
	Hotspots(n int) []domain.Hotspot
	Reports(status string) []domain.Report
	Observations(filter domain.ObservationFilter) []domain.Observation
	Zones() []domain.Zone
}

// Server routes HTTP requests to the core service.
type Server struct {
	httpServer *http.Server
	core       Core
	logger     *slog.Logger
}

// NewServer creates the API server with operational and API routes.
func NewServer(addr string, core Core, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		core:   core,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/reports", s.handleSubmitReport)
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("PUT /api/reports/{id}", s.handleModerateReport)
	mux.HandleFunc("GET /api/hotspots", s.handleHotspots)
	mux.HandleFunc("GET /api/noise_data", s.handleNoiseData)
	mux.HandleFunc("GET /api/zones", s.handleZones)

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

	if err := s.core.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type submitRequest struct {
	ZoneID      string `json:"zone_id"`
	Category    string `json:"category"`
	TimeWindow  string `json:"time_window"`
	Description string `json:"description"`
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.Validationf("invalid request body"))
		return
	}

	result, err := s.core.SubmitReport(r.Context(), service.SubmitInput{
		ZoneID:      req.ZoneID,
		Category:    req.Category,
		TimeWindow:  req.TimeWindow,
		Description: req.Description,
	})
	if err != nil {
		// A persistence failure after the report was stored still reports
		// the stored result alongside the error condition.
		var persistErr *domain.PersistenceError
		if errors.As(err, &persistErr) {
			s.logger.Error("report stored but not persisted", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":        err.Error(),
				"report":       result.Report,
				"is_duplicate": result.IsDuplicate,
			})
			return
		}
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"report":       result.Report,
		"is_duplicate": result.IsDuplicate,
	})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.Reports(r.URL.Query().Get("status")))
}

type moderateRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

func (s *Server) handleModerateReport(w http.ResponseWriter, r *http.Request) {
	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.Validationf("invalid request body"))
		return
	}

	decision, err := s.core.ModerateReport(r.Context(), r.PathValue("id"), req.Decision, req.Reason)
	if err != nil {
		var persistErr *domain.PersistenceError
		if errors.As(err, &persistErr) {
			s.logger.Error("moderation applied but not persisted", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":    err.Error(),
				"decision": decision,
			})
			return
		}
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"decision": decision})
}

func (s *Server) handleHotspots(w http.ResponseWriter, r *http.Request) {
	topN := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, domain.Validationf("invalid top value %q", raw))
			return
		}
		topN = n
	}
	writeJSON(w, http.StatusOK, s.core.Hotspots(topN))
}

func (s *Server) handleNoiseData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ObservationFilter{
		Zones:      q["zones"],
		Categories: q["categories"],
		Source:     q.Get("source"),
		Preset:     q.Get("time_window"),
	}
	if start, end := q.Get("start_date"), q.Get("end_date"); start != "" && end != "" {
		startTime, errS := time.Parse(time.RFC3339, start)
		endTime, errE := time.Parse(time.RFC3339, end)
		if errS != nil || errE != nil {
			s.writeError(w, domain.Validationf("invalid start_date or end_date"))
			return
		}
		filter.Start, filter.End = startTime, endTime
	}
	writeJSON(w, http.StatusOK, s.core.Observations(filter))
}

func (s *Server) handleZones(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.core.Zones())
}

// writeError maps domain errors to HTTP statuses: validation 400, not found
// 404, rejected duplicate 409, anything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		duplicateErr  *domain.DuplicateError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &duplicateErr):
		status = http.StatusConflict
	default:
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
