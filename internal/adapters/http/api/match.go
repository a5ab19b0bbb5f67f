package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/vmatch/internal/app"
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/pkg/logger"
)

// MatchDependencies commits, cancels and inspects registrations.
type MatchDependencies interface {
	CommitMatch(ctx context.Context, volunteerID, eventID int64) model.MatchOutcome
	CancelMatch(ctx context.Context, volunteerID, eventID int64) error
	RegisteredEvents(ctx context.Context, volunteerID int64) ([]int64, error)
	Matches(ctx context.Context, volunteerID int64) (model.MatchView, error)
}

// MatchHandler handles match requests.
type MatchHandler struct {
	deps MatchDependencies
	log  logger.Logger
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps MatchDependencies, log logger.Logger) *MatchHandler {
	return &MatchHandler{deps: deps, log: log}
}

type matchRequest struct {
	VolunteerID flexID `json:"volunteerId" validate:"required,gt=0"`
	EventID     flexID `json:"eventId" validate:"required,gt=0"`
}

type matchResponse struct {
	Matched      bool                `json:"matched"`
	Registration *model.Registration `json:"registration"`
	Result       *model.MatchResult  `json:"result"`
}

type registrationsResponse struct {
	VolunteerID int64   `json:"volunteerId"`
	EventIDs    []int64 `json:"eventIds"`
}

type matchesResponse struct {
	Volunteer  model.Volunteer        `json:"volunteer"`
	Events     []model.AnnotatedEvent `json:"events"`
	Ranked     []model.MatchResult    `json:"ranked"`
	Suggestion *model.MatchResult     `json:"suggestion"`
}

// HandleCommit handles POST /api/match.
func (h *MatchHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(model.ReasonInvalidRequest), errors.New(model.ReasonInvalidRequest.Message()))
		return
	}

	out := h.deps.CommitMatch(r.Context(), int64(req.VolunteerID), int64(req.EventID))
	if err := service.OutcomeErr(out); err != nil {
		status, _ := classify(err)
		writeError(w, status, string(out.Reason), errors.New(out.Message))
		return
	}
	writeJSON(w, http.StatusOK, matchResponse{Matched: true, Registration: out.Registration, Result: out.Result})
}

// HandleCancel handles DELETE /api/match.
func (h *MatchHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(model.ReasonInvalidRequest), errors.New(model.ReasonInvalidRequest.Message()))
		return
	}
	if err := h.deps.CancelMatch(r.Context(), int64(req.VolunteerID), int64(req.EventID)); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// HandleRegistrations handles GET /api/volunteer/{id}/registrations.
func (h *MatchHandler) HandleRegistrations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	ids, err := h.deps.RegisteredEvents(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, registrationsResponse{VolunteerID: id, EventIDs: ids})
}

// HandleMatches handles GET /api/volunteer/{id}/matches.
func (h *MatchHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	view, err := h.deps.Matches(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	resp := matchesResponse{
		Volunteer:  view.Volunteer,
		Events:     view.Events,
		Ranked:     view.Ranked,
		Suggestion: view.Suggestion,
	}
	if resp.Events == nil {
		resp.Events = []model.AnnotatedEvent{}
	}
	if resp.Ranked == nil {
		resp.Ranked = []model.MatchResult{}
	}
	writeJSON(w, http.StatusOK, resp)
}
