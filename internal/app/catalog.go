package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/vmatch/internal/adapters/repository"
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/internal/domain/skills"
	"github.com/okian/vmatch/pkg/logger"
)

// EventInput is the writable part of an event. RequiredSkills accepts any
// shape skills.Normalize understands.
type EventInput struct {
	Name           string
	Description    string
	Location       string
	Date           string
	RequiredSkills any
	Capacity       *int
}

func (in EventInput) event(id int64) (model.Event, error) {
	ev := model.Event{
		ID:             id,
		Name:           strings.TrimSpace(in.Name),
		Description:    strings.TrimSpace(in.Description),
		Location:       strings.TrimSpace(in.Location),
		Date:           strings.TrimSpace(in.Date),
		RequiredSkills: skills.Normalize(in.RequiredSkills),
		Capacity:       in.Capacity,
	}
	if ev.Name == "" || ev.Description == "" || ev.Location == "" {
		return model.Event{}, fmt.Errorf("%w: name, description and location are required", ErrValidation)
	}
	if ev.Capacity != nil && *ev.Capacity < 0 {
		return model.Event{}, fmt.Errorf("%w: capacity must not be negative", ErrValidation)
	}
	return ev, nil
}

// VolunteerUpdate changes a volunteer's profile. Nil fields keep the stored
// value; Skills accepts any shape skills.Normalize understands.
type VolunteerUpdate struct {
	Name   *string
	City   *string
	Email  *string
	Phone  *string
	Skills any
}

// GetVolunteer returns one volunteer.
func (s *Service) GetVolunteer(ctx context.Context, id int64) (model.Volunteer, error) {
	if id <= 0 {
		return model.Volunteer{}, fmt.Errorf("%w: volunteer id must be positive", ErrValidation)
	}
	return s.getVolunteer(ctx, id)
}

// UpdateVolunteer merges u into the stored profile. Matching reads the new
// skills on the next call.
func (s *Service) UpdateVolunteer(ctx context.Context, id int64, u VolunteerUpdate) (model.Volunteer, error) {
	if id <= 0 {
		return model.Volunteer{}, fmt.Errorf("%w: volunteer id must be positive", ErrValidation)
	}
	v, err := s.getVolunteer(ctx, id)
	if err != nil {
		return model.Volunteer{}, err
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return model.Volunteer{}, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		v.Name = name
	}
	if u.City != nil {
		v.City = strings.TrimSpace(*u.City)
	}
	if u.Email != nil {
		v.Email = strings.TrimSpace(*u.Email)
	}
	if u.Phone != nil {
		v.Phone = strings.TrimSpace(*u.Phone)
	}
	if u.Skills != nil {
		v.Skills = skills.Normalize(u.Skills)
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	saved, err := s.catalog.UpdateVolunteer(sctx, v)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Volunteer{}, fmt.Errorf("%w: %d", ErrVolunteerNotFound, id)
	case err != nil:
		return model.Volunteer{}, fmt.Errorf("%w: update volunteer: %w", ErrStore, err)
	}
	s.logger.Info(ctx, "volunteer updated",
		logger.Int64("volunteer_id", id), logger.Int("skills", saved.Skills.Len()))
	return saved, nil
}

// GetEvent returns one event.
func (s *Service) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	if id <= 0 {
		return model.Event{}, fmt.Errorf("%w: event id must be positive", ErrValidation)
	}
	return s.getEvent(ctx, id)
}

// CreateEvent adds an event to the catalog.
func (s *Service) CreateEvent(ctx context.Context, in EventInput) (model.Event, error) {
	ev, err := in.event(0)
	if err != nil {
		return model.Event{}, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	created, err := s.catalog.CreateEvent(sctx, ev)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: create event: %w", ErrStore, err)
	}
	s.logger.Info(ctx, "event created", logger.Int64("event_id", created.ID))
	return created, nil
}

// UpdateEvent replaces an event's details. Existing registrations are kept
// even when the volunteer no longer meets the new requirements.
func (s *Service) UpdateEvent(ctx context.Context, id int64, in EventInput) (model.Event, error) {
	if id <= 0 {
		return model.Event{}, fmt.Errorf("%w: event id must be positive", ErrValidation)
	}
	ev, err := in.event(id)
	if err != nil {
		return model.Event{}, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	updated, err := s.catalog.UpdateEvent(sctx, ev)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Event{}, fmt.Errorf("%w: %d", ErrEventNotFound, id)
	case err != nil:
		return model.Event{}, fmt.Errorf("%w: update event: %w", ErrStore, err)
	}
	s.logger.Info(ctx, "event updated", logger.Int64("event_id", id))
	return updated, nil
}

// DeleteEvent removes an event and its registrations.
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: event id must be positive", ErrValidation)
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.catalog.DeleteEvent(sctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %d", ErrEventNotFound, id)
	case err != nil:
		return fmt.Errorf("%w: delete event: %w", ErrStore, err)
	}
	s.logger.Info(ctx, "event deleted", logger.Int64("event_id", id))
	return nil
}
