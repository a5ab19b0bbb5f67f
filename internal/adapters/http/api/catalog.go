package api

import (
	"context"
	"net/http"

	service "github.com/okian/vmatch/internal/app"
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/pkg/logger"
)

// CatalogDependencies reads and edits volunteers and events.
type CatalogDependencies interface {
	ListVolunteers(ctx context.Context) ([]model.Volunteer, error)
	GetVolunteer(ctx context.Context, id int64) (model.Volunteer, error)
	UpdateVolunteer(ctx context.Context, id int64, u service.VolunteerUpdate) (model.Volunteer, error)

	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, id int64) (model.Event, error)
	CreateEvent(ctx context.Context, in service.EventInput) (model.Event, error)
	UpdateEvent(ctx context.Context, id int64, in service.EventInput) (model.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

// CatalogHandler serves volunteers and events.
type CatalogHandler struct {
	deps CatalogDependencies
	log  logger.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies, log logger.Logger) *CatalogHandler {
	return &CatalogHandler{deps: deps, log: log}
}

// HandleListVolunteers handles GET /api/volunteers.
func (h *CatalogHandler) HandleListVolunteers(w http.ResponseWriter, r *http.Request) {
	vols, err := h.deps.ListVolunteers(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, vols)
}

// HandleListEvents handles GET /api/events.
func (h *CatalogHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.ListEvents(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// eventRequest carries skills as raw JSON so arrays, encoded strings and
// delimited strings all reach the normalizer.
type eventRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Description    string `json:"description" validate:"required"`
	Location       string `json:"location" validate:"required,max=255"`
	Date           string `json:"date" validate:"omitempty,max=32"`
	RequiredSkills any    `json:"requiredSkills"`
	Capacity       *int   `json:"capacity" validate:"omitempty,gte=0"`
}

func (req eventRequest) input() service.EventInput {
	return service.EventInput{
		Name:           req.Name,
		Description:    req.Description,
		Location:       req.Location,
		Date:           req.Date,
		RequiredSkills: req.RequiredSkills,
		Capacity:       req.Capacity,
	}
}

// volunteerRequest updates a profile; absent or null fields are kept.
type volunteerRequest struct {
	Name   *string `json:"name" validate:"omitempty,max=100"`
	City   *string `json:"city" validate:"omitempty,max=100"`
	Email  *string `json:"email" validate:"omitempty,max=255"`
	Phone  *string `json:"phone" validate:"omitempty,max=32"`
	Skills any     `json:"skills"`
}

// HandleGetVolunteer handles GET /api/volunteers/{id}.
func (h *CatalogHandler) HandleGetVolunteer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	v, err := h.deps.GetVolunteer(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleUpdateVolunteer handles PUT /api/volunteers/{id}.
func (h *CatalogHandler) HandleUpdateVolunteer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	var req volunteerRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	v, err := h.deps.UpdateVolunteer(r.Context(), id, service.VolunteerUpdate{
		Name:   req.Name,
		City:   req.City,
		Email:  req.Email,
		Phone:  req.Phone,
		Skills: req.Skills,
	})
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleGetEvent handles GET /api/events/{id}.
func (h *CatalogHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	ev, err := h.deps.GetEvent(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// HandleCreateEvent handles POST /api/events.
func (h *CatalogHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	ev, err := h.deps.CreateEvent(r.Context(), req.input())
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// HandleUpdateEvent handles PUT /api/events/{id}.
func (h *CatalogHandler) HandleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	var req eventRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	ev, err := h.deps.UpdateEvent(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// HandleDeleteEvent handles DELETE /api/events/{id}.
func (h *CatalogHandler) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	if err := h.deps.DeleteEvent(r.Context(), id); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
