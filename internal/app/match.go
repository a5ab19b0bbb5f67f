package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/okian/vmatch/internal/adapters/repository"
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/internal/domain/registration"
	"github.com/okian/vmatch/pkg/logger"
	"github.com/okian/vmatch/pkg/metrics"
)

// CommitMatch registers volunteerID for eventID. Domain failures are
// reported in the outcome, never as an error. Eligibility and the duplicate
// check are re-evaluated against fresh data; the store's atomic Register
// has the final word on duplicates.
func (s *Service) CommitMatch(ctx context.Context, volunteerID, eventID int64) model.MatchOutcome {
	tx := NewTransaction(volunteerID, eventID)
	out := s.commit(ctx, tx)
	out.State = tx.State()

	metrics.RecordMatchOutcome(string(out.State), string(out.Reason))
	if out.Succeeded() {
		s.logger.Info(ctx, "match committed",
			logger.Int64("volunteer_id", volunteerID), logger.Int64("event_id", eventID))
	} else {
		s.logger.Debug(ctx, "match rejected",
			logger.Int64("volunteer_id", volunteerID), logger.Int64("event_id", eventID),
			logger.String("reason", string(out.Reason)))
	}
	return out
}

func (s *Service) commit(ctx context.Context, tx *Transaction) model.MatchOutcome {
	out := model.MatchOutcome{VolunteerID: tx.VolunteerID, EventID: tx.EventID}
	reject := func(reason model.Reason, err error) model.MatchOutcome {
		_ = tx.Reject()
		out.Reason = reason
		out.Message = reason.Message()
		if err != nil && reason == model.ReasonStoreError {
			metrics.RecordErrorByComponent("app", "store_error")
			s.logger.Error(ctx, "match store failure",
				logger.Int64("volunteer_id", tx.VolunteerID), logger.Int64("event_id", tx.EventID),
				logger.Error(err))
		}
		return out
	}

	if tx.VolunteerID <= 0 || tx.EventID <= 0 {
		return reject(model.ReasonInvalidRequest, nil)
	}
	_ = tx.Begin()

	v, err := s.getVolunteer(ctx, tx.VolunteerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return reject(model.ReasonVolunteerNotFound, err)
		}
		return reject(model.ReasonStoreError, err)
	}
	ev, err := s.getEvent(ctx, tx.EventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return reject(model.ReasonEventNotFound, err)
		}
		return reject(model.ReasonStoreError, err)
	}

	result := s.evaluator.Evaluate(v, ev)
	metrics.RecordEligibilityEvaluation(result.Eligible)
	out.Result = &result
	if !result.Eligible {
		return reject(model.ReasonNotEligible, nil)
	}

	// A fresh tracker per commit so nothing cached for another request is trusted.
	sctx, cancel := s.storeCtx(ctx)
	already, err := registration.NewTracker(s.registrations).IsRegistered(sctx, v.ID, ev.ID)
	cancel()
	if err != nil {
		return reject(model.ReasonStoreError, err)
	}
	if already {
		return reject(model.ReasonAlreadyRegistered, nil)
	}

	sctx, cancel = s.storeCtx(ctx)
	reg, err := s.registrations.Register(sctx, v.ID, ev.ID, s.now())
	cancel()
	switch {
	case errors.Is(err, repository.ErrConflict):
		return reject(model.ReasonAlreadyRegistered, nil)
	case errors.Is(err, repository.ErrNotFound):
		return reject(model.ReasonEventNotFound, err)
	case err != nil:
		return reject(model.ReasonStoreError, err)
	}

	_ = tx.Commit()
	out.Registration = &reg
	s.afterCommit(ctx, v, ev, reg)
	return out
}

// afterCommit queues the assignment notice and logs history. Neither can
// undo the registration; failures are logged and counted.
func (s *Service) afterCommit(ctx context.Context, v model.Volunteer, ev model.Event, reg model.Registration) {
	detached := context.WithoutCancel(ctx)
	eventID := ev.ID

	s.enqueueNotification(detached, model.NotificationRequest{
		RequestID:   uuid.NewString(),
		RecipientID: v.ID,
		Type:        model.NotificationAssignment,
		Message:     clampMessage(fmt.Sprintf("You have been assigned to %s.", ev.Name)),
		EventID:     &eventID,
		RequestedAt: reg.CreatedAt,
	})

	hctx, cancel := s.storeCtx(detached)
	defer cancel()
	if _, err := s.history.AppendHistory(hctx, model.HistoryEntry{
		VolunteerID:   v.ID,
		EventID:       &eventID,
		Description:   ev.Name,
		Status:        string(model.StatusRegistered),
		VolunteerDate: ev.Date,
		CreatedAt:     reg.CreatedAt,
	}); err != nil {
		metrics.RecordErrorByComponent("app", "history_error")
		s.logger.Warn(ctx, "history append failed",
			logger.Int64("volunteer_id", v.ID), logger.Int64("event_id", ev.ID), logger.Error(err))
	}
}

// CancelMatch cancels an active registration so the pair can register again.
func (s *Service) CancelMatch(ctx context.Context, volunteerID, eventID int64) error {
	if volunteerID <= 0 || eventID <= 0 {
		return fmt.Errorf("%w: volunteerId and eventId are required", ErrValidation)
	}

	sctx, cancel := s.storeCtx(ctx)
	err := s.registrations.Cancel(sctx, volunteerID, eventID)
	cancel()
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %d/%d", ErrRegistrationNotFound, volunteerID, eventID)
	case err != nil:
		metrics.RecordErrorByComponent("app", "store_error")
		return fmt.Errorf("%w: cancel: %w", ErrStore, err)
	}

	name := fmt.Sprintf("event %d", eventID)
	if ev, err := s.getEvent(ctx, eventID); err == nil {
		name = ev.Name
	}
	eid := eventID
	s.enqueueNotification(context.WithoutCancel(ctx), model.NotificationRequest{
		RequestID:   uuid.NewString(),
		RecipientID: volunteerID,
		Type:        model.NotificationUpdate,
		Message:     clampMessage(fmt.Sprintf("Your registration for %s was cancelled.", name)),
		EventID:     &eid,
		RequestedAt: s.now(),
	})
	s.logger.Info(ctx, "match cancelled",
		logger.Int64("volunteer_id", volunteerID), logger.Int64("event_id", eventID))
	return nil
}

// RegisteredEvents lists the event ids volunteerID is registered for.
func (s *Service) RegisteredEvents(ctx context.Context, volunteerID int64) ([]int64, error) {
	if volunteerID <= 0 {
		return nil, fmt.Errorf("%w: volunteer id must be positive", ErrValidation)
	}
	tracker := registration.NewTracker(s.registrations)
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := tracker.Refresh(sctx, volunteerID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	_, ids, _ := tracker.Snapshot()
	return ids, nil
}

// Matches builds the picker view for a volunteer: every event with its
// eligibility and registration flag, the eligible ranking and the suggestion.
func (s *Service) Matches(ctx context.Context, volunteerID int64) (model.MatchView, error) {
	if volunteerID <= 0 {
		return model.MatchView{}, fmt.Errorf("%w: volunteer id must be positive", ErrValidation)
	}
	v, err := s.getVolunteer(ctx, volunteerID)
	if err != nil {
		return model.MatchView{}, err
	}
	events, err := s.ListEvents(ctx)
	if err != nil {
		return model.MatchView{}, err
	}

	tracker := registration.NewTracker(s.registrations)
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := tracker.Refresh(sctx, v.ID); err != nil {
		return model.MatchView{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	results := s.evaluator.Annotate(v, events)
	annotated := make([]model.AnnotatedEvent, len(events))
	for i, ev := range events {
		registered, err := tracker.IsRegistered(sctx, v.ID, ev.ID)
		if err != nil {
			return model.MatchView{}, fmt.Errorf("%w: %w", ErrStore, err)
		}
		annotated[i] = model.AnnotatedEvent{Event: ev, Match: results[i], Registered: registered}
	}

	view := model.MatchView{
		Volunteer: v,
		Events:    annotated,
		Ranked:    s.evaluator.Rank(v, events),
	}
	if best, ok := s.evaluator.SuggestBest(v, events); ok {
		view.Suggestion = &best
	}
	return view, nil
}

// clampMessage keeps generated text within the notification length limit.
func clampMessage(msg string) string {
	if utf8.RuneCountInString(msg) <= model.MaxNotificationMessageLen {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:model.MaxNotificationMessageLen-3]) + "..."
}
