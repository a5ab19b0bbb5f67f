package api

import (
	"context"
	"net/http"

	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/pkg/logger"
)

// HistoryDependencies reads, appends and summarizes volunteer history.
type HistoryDependencies interface {
	AppendHistory(ctx context.Context, e model.HistoryEntry) (model.HistoryEntry, error)
	ListHistory(ctx context.Context, volunteerID int64) ([]model.HistoryEntry, error)
	DeleteHistory(ctx context.Context, id int64) error
	HistorySummary(ctx context.Context) (model.HistorySummary, error)
	VolunteerHistorySummary(ctx context.Context) ([]model.VolunteerHours, error)
}

// HistoryHandler handles volunteer history requests.
type HistoryHandler struct {
	deps HistoryDependencies
	log  logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies, log logger.Logger) *HistoryHandler {
	return &HistoryHandler{deps: deps, log: log}
}

type historyRequest struct {
	VolunteerID   flexID  `json:"volunteerId" validate:"required,gt=0"`
	EventID       flexID  `json:"eventId" validate:"omitempty,gt=0"`
	Description   string  `json:"description" validate:"required"`
	Hours         float64 `json:"hours" validate:"gt=0"`
	Status        string  `json:"status" validate:"omitempty,max=32"`
	VolunteerDate string  `json:"volunteerDate" validate:"required"`
}

// HandleList handles GET /api/volunteer-history with an optional volunteerId filter.
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	volunteerID, err := queryID(r, "volunteerId")
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	list, err := h.deps.ListHistory(r.Context(), volunteerID)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleAppend handles POST /api/volunteer-history.
func (h *HistoryHandler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	entry := model.HistoryEntry{
		VolunteerID:   int64(req.VolunteerID),
		Description:   req.Description,
		Hours:         req.Hours,
		Status:        req.Status,
		VolunteerDate: req.VolunteerDate,
	}
	if req.EventID > 0 {
		id := int64(req.EventID)
		entry.EventID = &id
	}
	saved, err := h.deps.AppendHistory(r.Context(), entry)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// HandleDelete handles DELETE /api/volunteer-history/{id}.
func (h *HistoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	if err := h.deps.DeleteHistory(r.Context(), id); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// HandleSummary handles GET /api/volunteer-history/summary.
func (h *HistoryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.HistorySummary(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleVolunteerSummary handles GET /api/volunteer-history/volunteer-summary.
func (h *HistoryHandler) HandleVolunteerSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.deps.VolunteerHistorySummary(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
