package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/vmatch/internal/adapters/repository"
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/pkg/logger"
)

// AppendHistory records a participation entry for an existing volunteer.
func (s *Service) AppendHistory(ctx context.Context, e model.HistoryEntry) (model.HistoryEntry, error) {
	if e.VolunteerID <= 0 || strings.TrimSpace(e.Description) == "" || e.Hours <= 0 || e.VolunteerDate == "" {
		return model.HistoryEntry{}, fmt.Errorf("%w: volunteerId, description, hours and volunteerDate are required", ErrValidation)
	}
	if _, err := s.getVolunteer(ctx, e.VolunteerID); err != nil {
		return model.HistoryEntry{}, err
	}
	if e.Status == "" {
		e.Status = "completed"
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	saved, err := s.history.AppendHistory(sctx, e)
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("%w: append history: %w", ErrStore, err)
	}
	return saved, nil
}

// ListHistory returns history for one volunteer, or everyone when zero.
func (s *Service) ListHistory(ctx context.Context, volunteerID int64) ([]model.HistoryEntry, error) {
	if volunteerID < 0 {
		return nil, fmt.Errorf("%w: volunteer id must not be negative", ErrValidation)
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	list, err := s.history.ListHistory(sctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list history: %w", ErrStore, err)
	}
	return list, nil
}

// DeleteHistory removes one history entry.
func (s *Service) DeleteHistory(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: history id must be positive", ErrValidation)
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.history.DeleteHistory(sctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %d", ErrHistoryNotFound, id)
	case err != nil:
		return fmt.Errorf("%w: delete history: %w", ErrStore, err)
	}
	s.logger.Info(ctx, "history entry deleted", logger.Int64("history_id", id))
	return nil
}

// HistorySummary totals the entries that logged hours.
func (s *Service) HistorySummary(ctx context.Context) (model.HistorySummary, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	sum, err := s.history.HistorySummary(sctx)
	if err != nil {
		return model.HistorySummary{}, fmt.Errorf("%w: history summary: %w", ErrStore, err)
	}
	return sum, nil
}

// VolunteerHistorySummary returns logged hours per volunteer, by name.
func (s *Service) VolunteerHistorySummary(ctx context.Context) ([]model.VolunteerHours, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	rows, err := s.history.VolunteerHistorySummary(sctx)
	if err != nil {
		return nil, fmt.Errorf("%w: volunteer history summary: %w", ErrStore, err)
	}
	if rows == nil {
		rows = []model.VolunteerHours{}
	}
	return rows, nil
}
