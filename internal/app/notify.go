package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/okian/vmatch/internal/adapters/repository"
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/internal/domain/skills"
	"github.com/okian/vmatch/pkg/logger"
	"github.com/okian/vmatch/pkg/metrics"
)

// NotificationInput is an operator-sent notification. Exactly one target is
// used, in this order: VolunteerID, VolunteerName, EventID. An event target
// reaches every volunteer sharing at least one of its required skills.
type NotificationInput struct {
	VolunteerID   int64
	VolunteerName string
	EventID       int64
	Type          model.NotificationType
	Message       string
}

func (in NotificationInput) validate() error {
	if in.Type == "" || strings.TrimSpace(in.Message) == "" {
		return fmt.Errorf("%w: type and message are required", ErrValidation)
	}
	if utf8.RuneCountInString(in.Message) > model.MaxNotificationMessageLen {
		return fmt.Errorf("%w: message must be at most %d characters", ErrValidation, model.MaxNotificationMessageLen)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: invalid notification type %q", ErrValidation, in.Type)
	}
	if in.VolunteerID <= 0 && in.VolunteerName == "" && in.EventID <= 0 {
		return fmt.Errorf("%w: must provide volunteerId, volunteerName or eventId", ErrValidation)
	}
	return nil
}

// SendNotification stores the notification for every recipient and returns
// what was created.
func (s *Service) SendNotification(ctx context.Context, in NotificationInput) ([]model.Notification, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	recipients, err := s.recipients(ctx, in)
	if err != nil {
		return nil, err
	}

	var eventID *int64
	if in.EventID > 0 {
		id := in.EventID
		eventID = &id
	}
	now := s.now()
	created := make([]model.Notification, 0, len(recipients))
	for _, v := range recipients {
		req := model.NotificationRequest{
			RequestID:   uuid.NewString(),
			RecipientID: v.ID,
			Type:        in.Type,
			Message:     in.Message,
			EventID:     eventID,
			RequestedAt: now,
		}
		n, err := s.store(ctx, req)
		if err != nil {
			return created, err
		}
		s.publish(ctx, n)
		metrics.RecordNotificationDelivered(string(n.Type))
		created = append(created, n)
	}
	return created, nil
}

func (s *Service) recipients(ctx context.Context, in NotificationInput) ([]model.Volunteer, error) {
	switch {
	case in.VolunteerID > 0:
		v, err := s.getVolunteer(ctx, in.VolunteerID)
		if err != nil {
			return nil, err
		}
		return []model.Volunteer{v}, nil

	case in.VolunteerName != "":
		vols, err := s.ListVolunteers(ctx)
		if err != nil {
			return nil, err
		}
		for _, v := range vols {
			if v.Name == in.VolunteerName {
				return []model.Volunteer{v}, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrVolunteerNotFound, in.VolunteerName)

	default:
		ev, err := s.getEvent(ctx, in.EventID)
		if err != nil {
			return nil, err
		}
		vols, err := s.ListVolunteers(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]model.Volunteer, 0, len(vols))
		for _, v := range vols {
			if skills.Intersect(v.Skills, ev.RequiredSkills) > 0 {
				out = append(out, v)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w for event %d", ErrNoRecipients, ev.ID)
		}
		return out, nil
	}
}

// ListNotifications returns a user's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	list, err := s.notifications.ListNotifications(sctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %w", ErrStore, err)
	}
	return list, nil
}

// MarkNotificationRead flags a notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) (model.Notification, error) {
	if strings.TrimSpace(id) == "" {
		return model.Notification{}, fmt.Errorf("%w: notification id is required", ErrValidation)
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, err := s.notifications.MarkNotificationRead(sctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Notification{}, fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
	case err != nil:
		return model.Notification{}, fmt.Errorf("%w: mark read: %w", ErrStore, err)
	}
	return n, nil
}

// enqueueNotification hands a request to the workers. A full or closed
// queue drops the request.
func (s *Service) enqueueNotification(ctx context.Context, r model.NotificationRequest) {
	s.mu.RLock()
	q := s.notifyQ
	s.mu.RUnlock()

	if err := q.Enqueue(ctx, r); err != nil {
		metrics.RecordNotificationFailure("enqueue")
		s.logger.Warn(ctx, "notification dropped",
			logger.String("request_id", r.RequestID),
			logger.Int64("recipient_id", r.RecipientID),
			logger.Error(err))
		return
	}
	metrics.RecordNotificationEnqueued(string(r.Type))
}

// deliver is the worker side of the queue: persist, then publish.
// Redelivery of a stored request is treated as success.
func (s *Service) deliver(ctx context.Context, r model.NotificationRequest) error {
	n, err := s.store(ctx, r)
	if errors.Is(err, repository.ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	s.publish(ctx, n)
	return nil
}

func (s *Service) store(ctx context.Context, r model.NotificationRequest) (model.Notification, error) {
	n := model.Notification{
		ID:        r.RequestID,
		UserID:    r.RecipientID,
		Type:      r.Type,
		Message:   r.Message,
		EventID:   r.EventID,
		CreatedAt: r.RequestedAt.UTC(),
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.notifications.CreateNotification(sctx, n); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return n, err
		}
		return n, fmt.Errorf("%w: create notification: %w", ErrStore, err)
	}
	return n, nil
}

func (s *Service) publish(ctx context.Context, n model.Notification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishNotification(ctx, n); err != nil {
		metrics.RecordNotificationFailure("publish")
		s.logger.Warn(ctx, "notification publish failed",
			logger.String("id", n.ID), logger.Error(err))
	}
}
