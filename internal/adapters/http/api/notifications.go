package api

import (
	"context"
	"net/http"

	service "github.com/okian/vmatch/internal/app"
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/pkg/logger"
)

// NotificationDependencies sends and reads notifications.
type NotificationDependencies interface {
	SendNotification(ctx context.Context, in service.NotificationInput) ([]model.Notification, error)
	ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) (model.Notification, error)
}

// NotificationHandler handles notification requests.
type NotificationHandler struct {
	deps NotificationDependencies
	log  logger.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(deps NotificationDependencies, log logger.Logger) *NotificationHandler {
	return &NotificationHandler{deps: deps, log: log}
}

type notificationRequest struct {
	VolunteerID   flexID `json:"volunteerId" validate:"omitempty,gt=0"`
	VolunteerName string `json:"volunteerName"`
	EventID       flexID `json:"eventId" validate:"omitempty,gt=0"`
	Type          string `json:"type" validate:"required,oneof=assignment update reminder"`
	Message       string `json:"message" validate:"required,max=200"`
}

type sendResponse struct {
	Sent          int                  `json:"sent"`
	Notifications []model.Notification `json:"notifications"`
}

// HandleSend handles POST /api/notifications.
func (h *NotificationHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	sent, err := h.deps.SendNotification(r.Context(), service.NotificationInput{
		VolunteerID:   int64(req.VolunteerID),
		VolunteerName: req.VolunteerName,
		EventID:       int64(req.EventID),
		Type:          model.NotificationType(req.Type),
		Message:       req.Message,
	})
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, sendResponse{Sent: len(sent), Notifications: sent})
}

// HandleList handles GET /api/notifications?userId=.
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "userId")
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	list, err := h.deps.ListNotifications(r.Context(), userID)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleMarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.MarkNotificationRead(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
