// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/vmatch/internal/app"
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CatalogDependencies
	MatchDependencies
	NotificationDependencies
	HistoryDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	catalogHandler      *CatalogHandler
	matchHandler        *MatchHandler
	notificationHandler *NotificationHandler
	historyHandler      *HistoryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	log := logger.Named("api")
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		catalogHandler:      NewCatalogHandler(deps, log),
		matchHandler:        NewMatchHandler(deps, log),
		notificationHandler: NewNotificationHandler(deps, log),
		historyHandler:      NewHistoryHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/volunteers", MetricsMiddleware(s.catalogHandler.HandleListVolunteers, "volunteers"))
	mux.HandleFunc("GET /api/volunteers/{id}", MetricsMiddleware(s.catalogHandler.HandleGetVolunteer, "volunteer"))
	mux.HandleFunc("PUT /api/volunteers/{id}", MetricsMiddleware(s.catalogHandler.HandleUpdateVolunteer, "volunteer"))
	mux.HandleFunc("GET /api/events", MetricsMiddleware(s.catalogHandler.HandleListEvents, "events"))
	mux.HandleFunc("POST /api/events", MetricsMiddleware(s.catalogHandler.HandleCreateEvent, "events"))
	mux.HandleFunc("GET /api/events/{id}", MetricsMiddleware(s.catalogHandler.HandleGetEvent, "event"))
	mux.HandleFunc("PUT /api/events/{id}", MetricsMiddleware(s.catalogHandler.HandleUpdateEvent, "event"))
	mux.HandleFunc("DELETE /api/events/{id}", MetricsMiddleware(s.catalogHandler.HandleDeleteEvent, "event"))

	mux.HandleFunc("POST /api/match", MetricsMiddleware(s.matchHandler.HandleCommit, "match"))
	mux.HandleFunc("DELETE /api/match", MetricsMiddleware(s.matchHandler.HandleCancel, "match"))
	mux.HandleFunc("GET /api/volunteer/{id}/registrations",
		MetricsMiddleware(s.matchHandler.HandleRegistrations, "registrations"))
	mux.HandleFunc("GET /api/volunteer/{id}/matches", MetricsMiddleware(s.matchHandler.HandleMatches, "matches"))

	mux.HandleFunc("GET /api/notifications", MetricsMiddleware(s.notificationHandler.HandleList, "notifications"))
	mux.HandleFunc("POST /api/notifications", MetricsMiddleware(s.notificationHandler.HandleSend, "notifications"))
	mux.HandleFunc("POST /api/notifications/{id}/read",
		MetricsMiddleware(s.notificationHandler.HandleMarkRead, "notifications_read"))

	mux.HandleFunc("GET /api/volunteer-history", MetricsMiddleware(s.historyHandler.HandleList, "history"))
	mux.HandleFunc("POST /api/volunteer-history", MetricsMiddleware(s.historyHandler.HandleAppend, "history"))
	mux.HandleFunc("GET /api/volunteer-history/summary",
		MetricsMiddleware(s.historyHandler.HandleSummary, "history_summary"))
	mux.HandleFunc("GET /api/volunteer-history/volunteer-summary",
		MetricsMiddleware(s.historyHandler.HandleVolunteerSummary, "history_volunteer_summary"))
	mux.HandleFunc("DELETE /api/volunteer-history/{id}", MetricsMiddleware(s.historyHandler.HandleDelete, "history"))
}

// Error codes that are not match reasons.
const (
	codeNotFound     = "NOT_FOUND"
	codeNoRecipients = "NO_RECIPIENTS"
	codeInternal     = "INTERNAL_ERROR"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// classify maps a service error to a status code and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, string(model.ReasonInvalidRequest)
	case errors.Is(err, service.ErrVolunteerNotFound):
		return http.StatusNotFound, string(model.ReasonVolunteerNotFound)
	case errors.Is(err, service.ErrEventNotFound):
		return http.StatusNotFound, string(model.ReasonEventNotFound)
	case errors.Is(err, service.ErrNoRecipients):
		return http.StatusNotFound, codeNoRecipients
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrIneligible):
		return http.StatusBadRequest, string(model.ReasonNotEligible)
	case errors.Is(err, service.ErrAlreadyRegistered):
		return http.StatusConflict, string(model.ReasonAlreadyRegistered)
	case errors.Is(err, service.ErrStore):
		return http.StatusInternalServerError, string(model.ReasonStoreError)
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// writeServiceError renders err, hiding the details of server-side failures.
func writeServiceError(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}
