// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/okian/vacstat/internal/adapters/repository"
	"github.com/okian/vacstat/internal/adapters/source"
	"github.com/okian/vacstat/internal/domain/normalize"
	"github.com/okian/vacstat/internal/domain/report"
	"github.com/okian/vacstat/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit parses a CSV body, builds a report and stores it.
	Submit(ctx context.Context, r io.Reader, profession string) (repository.Entry, error)

	// GetReport returns a stored report or repository.ErrNotFound.
	GetReport(ctx context.Context, id string) (repository.Entry, error)

	// Cities returns a ranked city view of a stored report.
	Cities(ctx context.Context, id, by string, limit int) ([]Entry, error)

	MaxUploadBytes() int64
	TopCities() int
}

// Entry mirrors the read shape returned by city rankings.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	reportsHandler *ReportsHandler
	citiesHandler  *CitiesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		reportsHandler: NewReportsHandler(deps),
		citiesHandler:  NewCitiesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /reports", MetricsMiddleware(s.reportsHandler.HandlePostReport, "reports"))
	mux.HandleFunc("GET /reports/{id}", MetricsMiddleware(s.reportsHandler.HandleGetReport, "report"))
	mux.HandleFunc("GET /reports/{id}/cities", MetricsMiddleware(s.citiesHandler.HandleGetCities, "cities"))
}

// reportResponse is the body of POST /reports and GET /reports/{id}.
type reportResponse struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Report    *report.Report `json:"report"`
}

func newReportResponse(e repository.Entry) reportResponse {
	return reportResponse{ID: e.ID, CreatedAt: e.CreatedAt, Report: e.Report}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps an upstream error to a status, a response code and an API
// error kind.
func classify(err error) (int, string, error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large", ErrTooLarge
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found", ErrNotFound
	case errors.Is(err, source.ErrEmptyInput):
		return http.StatusBadRequest, "empty_input", ErrBadRequest
	case errors.Is(err, source.ErrMissingColumn), errors.Is(err, source.ErrRead):
		return http.StatusBadRequest, "invalid_csv", ErrBadRequest
	case errors.Is(err, normalize.ErrNormalization):
		return http.StatusBadRequest, "normalization_error", ErrBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable", ErrUnavailable
	default:
		return http.StatusInternalServerError, "internal_error", ErrInternal
	}
}

func writeClassified(w http.ResponseWriter, op string, err error) {
	status, code, kind := classify(err)
	writeError(w, status, code, WrapKind(op, kind, err))
}
