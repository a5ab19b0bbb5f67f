// Package registration tracks which events a volunteer is registered for so
// pickers can disable them and commits can pre-check duplicates.
package registration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/vmatch/internal/domain/model"
)

// Source loads the registered event ids for a volunteer.
type Source interface {
	RegisteredEventIDs(ctx context.Context, volunteerID int64) ([]int64, error)
}

// Tracker caches the registered event ids of one volunteer at a time.
// Switching to another volunteer always refetches. The store remains the
// authority; the tracker is only a pre-check.
type Tracker struct {
	mu          sync.Mutex
	source      Source
	volunteerID int64
	loaded      bool
	ids         map[int64]struct{}
}

// NewTracker creates an unloaded tracker.
func NewTracker(source Source) *Tracker {
	return &Tracker{source: source}
}

// Refresh refetches the registered ids for volunteerID.
func (t *Tracker) Refresh(ctx context.Context, volunteerID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refreshLocked(ctx, volunteerID)
}

func (t *Tracker) refreshLocked(ctx context.Context, volunteerID int64) error {
	if volunteerID <= 0 {
		return ErrInvalidVolunteer
	}
	ids, err := t.source.RegisteredEventIDs(ctx, volunteerID)
	if err != nil {
		t.loaded = false
		t.ids = nil
		return fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	t.volunteerID = volunteerID
	t.ids = set
	t.loaded = true
	return nil
}

// IsRegistered reports whether volunteerID is registered for eventID. The
// ids are fetched when the tracker is empty or holds another volunteer.
func (t *Tracker) IsRegistered(ctx context.Context, volunteerID, eventID int64) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.loaded || t.volunteerID != volunteerID {
		if err := t.refreshLocked(ctx, volunteerID); err != nil {
			return false, err
		}
	}
	_, ok := t.ids[eventID]
	return ok, nil
}

// IsRegisteredByName checks registration by event name, for callers that
// only have a display name. Every catalog event carrying the name counts.
func (t *Tracker) IsRegisteredByName(ctx context.Context, volunteerID int64, eventName string, catalog []model.Event) (bool, error) {
	for _, ev := range catalog {
		if ev.Name != eventName {
			continue
		}
		ok, err := t.IsRegistered(ctx, volunteerID, ev.ID)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// Snapshot returns the loaded volunteer and their registered ids in
// ascending order. ok is false when nothing is loaded.
func (t *Tracker) Snapshot() (volunteerID int64, ids []int64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.loaded {
		return 0, nil, false
	}
	ids = make([]int64, 0, len(t.ids))
	for id := range t.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return t.volunteerID, ids, true
}

// Invalidate drops the loaded state so the next query refetches.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loaded = false
	t.ids = nil
}
