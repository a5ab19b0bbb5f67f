// Package repository defines the storage interfaces the matching service
// depends on, plus an in-memory implementation.
package repository

import (
	"context"
	"time"

	"github.com/okian/vmatch/internal/domain/model"
)

// Catalog provides access to volunteers and events.
type Catalog interface {
	// ListVolunteers returns all volunteers ordered by id.
	ListVolunteers(ctx context.Context) ([]model.Volunteer, error)
	// ListEvents returns all events in catalog order (by id).
	ListEvents(ctx context.Context) ([]model.Event, error)
	// GetVolunteer returns ErrNotFound for an unknown id.
	GetVolunteer(ctx context.Context, id int64) (model.Volunteer, error)
	// GetEvent returns ErrNotFound for an unknown id.
	GetEvent(ctx context.Context, id int64) (model.Event, error)

	// UpdateVolunteer replaces the stored profile. ErrNotFound if absent.
	UpdateVolunteer(ctx context.Context, v model.Volunteer) (model.Volunteer, error)
	// CreateEvent stores e under a newly assigned id and returns it.
	CreateEvent(ctx context.Context, e model.Event) (model.Event, error)
	// UpdateEvent replaces the stored event. ErrNotFound if absent.
	UpdateEvent(ctx context.Context, e model.Event) (model.Event, error)
	// DeleteEvent removes the event and every registration for it.
	DeleteEvent(ctx context.Context, id int64) error
}

// Registrations stores volunteer to event assignments.
type Registrations interface {
	// Register atomically creates an active registration. If one already
	// exists for the pair it returns ErrConflict and changes nothing.
	Register(ctx context.Context, volunteerID, eventID int64, at time.Time) (model.Registration, error)
	// Cancel marks the active registration cancelled. ErrNotFound if none.
	Cancel(ctx context.Context, volunteerID, eventID int64) error
	// RegisteredEventIDs lists events the volunteer is actively registered for.
	RegisteredEventIDs(ctx context.Context, volunteerID int64) ([]int64, error)
	// CountRegistered returns the number of active registrations for the pair.
	CountRegistered(ctx context.Context, volunteerID, eventID int64) (int, error)
}

// Notifications stores user notifications.
type Notifications interface {
	CreateNotification(ctx context.Context, n model.Notification) error
	// ListNotifications returns a user's notifications, newest first.
	ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	// MarkNotificationRead returns ErrNotFound for an unknown id.
	MarkNotificationRead(ctx context.Context, id string) (model.Notification, error)
}

// History stores volunteer participation entries.
type History interface {
	AppendHistory(ctx context.Context, e model.HistoryEntry) (model.HistoryEntry, error)
	// ListHistory returns entries for a volunteer, or for everyone when
	// volunteerID is zero, newest first.
	ListHistory(ctx context.Context, volunteerID int64) ([]model.HistoryEntry, error)
	// DeleteHistory removes one entry. ErrNotFound if absent.
	DeleteHistory(ctx context.Context, id int64) error
	// HistorySummary totals the entries that logged hours.
	HistorySummary(ctx context.Context) (model.HistorySummary, error)
	// VolunteerHistorySummary totals logged hours per volunteer, ordered by
	// name. Volunteers without logged hours are left out.
	VolunteerHistorySummary(ctx context.Context) ([]model.VolunteerHours, error)
}

// Store is the full persistence surface.
type Store interface {
	Catalog
	Registrations
	Notifications
	History
}
