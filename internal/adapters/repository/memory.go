package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/pkg/metrics"
)

const memoryBackend = "memory"

var _ Store = (*MemoryStore)(nil)

type pairKey struct {
	volunteerID int64
	eventID     int64
}

// MemoryStore is a mutex-guarded in-memory Store. Register is atomic under
// the write lock, which makes it the compare-and-set for duplicates.
type MemoryStore struct {
	mu sync.RWMutex

	volunteers map[int64]model.Volunteer
	events     map[int64]model.Event

	// active holds registered pairs; registrations keeps every row
	// including cancelled ones, in insertion order.
	active        map[pairKey]int
	registrations []model.Registration

	notifications []model.Notification
	history       []model.HistoryEntry
	nextHistoryID int64

	seed                  bool
	metricsUpdateInterval time.Duration
	stopChan              chan struct{}
	stopOnce              sync.Once
	wg                    sync.WaitGroup
}

// NewMemoryStore creates an empty store. The metrics updater, when
// configured, stops with ctx or Close.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		volunteers: make(map[int64]model.Volunteer),
		events:     make(map[int64]model.Event),
		active:     make(map[pairKey]int),
		stopChan:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed {
		for _, v := range DemoVolunteers() {
			_ = s.PutVolunteer(v)
		}
		for _, e := range DemoEvents() {
			_ = s.PutEvent(e)
		}
	}
	if s.metricsUpdateInterval > 0 {
		s.startMetricsUpdater(ctx)
	}
	return s
}

// Close stops background goroutines.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// PutVolunteer inserts or replaces a volunteer.
func (s *MemoryStore) PutVolunteer(v model.Volunteer) error {
	if v.ID <= 0 {
		return fmt.Errorf("volunteer id %d: %w", v.ID, ErrInvalid)
	}
	s.mu.Lock()
	s.volunteers[v.ID] = v
	s.mu.Unlock()
	return nil
}

// PutEvent inserts or replaces an event.
func (s *MemoryStore) PutEvent(e model.Event) error {
	if e.ID <= 0 {
		return fmt.Errorf("event id %d: %w", e.ID, ErrInvalid)
	}
	s.mu.Lock()
	s.events[e.ID] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	defer observe("list_volunteers", time.Now())
	s.mu.RLock()
	out := make([]model.Volunteer, 0, len(s.volunteers))
	for _, v := range s.volunteers {
		out = append(out, v)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, ctx.Err()
}

func (s *MemoryStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	defer observe("list_events", time.Now())
	s.mu.RLock()
	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, ctx.Err()
}

func (s *MemoryStore) GetVolunteer(ctx context.Context, id int64) (model.Volunteer, error) {
	defer observe("get_volunteer", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Volunteer{}, err
	}
	s.mu.RLock()
	v, ok := s.volunteers[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Volunteer{}, fmt.Errorf("volunteer %d: %w", id, ErrNotFound)
	}
	return v, nil
}

func (s *MemoryStore) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	defer observe("get_event", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Event{}, err
	}
	s.mu.RLock()
	e, ok := s.events[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Event{}, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return e, nil
}

func (s *MemoryStore) UpdateVolunteer(ctx context.Context, v model.Volunteer) (model.Volunteer, error) {
	defer observe("update_volunteer", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Volunteer{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.volunteers[v.ID]; !ok {
		return model.Volunteer{}, fmt.Errorf("volunteer %d: %w", v.ID, ErrNotFound)
	}
	s.volunteers[v.ID] = v
	return v, nil
}

// CreateEvent assigns the next id above every existing one.
func (s *MemoryStore) CreateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	defer observe("create_event", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var maxID int64
	for id := range s.events {
		maxID = max(maxID, id)
	}
	e.ID = maxID + 1
	s.events[e.ID] = e
	return e, nil
}

func (s *MemoryStore) UpdateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	defer observe("update_event", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return model.Event{}, fmt.Errorf("event %d: %w", e.ID, ErrNotFound)
	}
	s.events[e.ID] = e
	return e, nil
}

// DeleteEvent drops the event together with its registration rows.
func (s *MemoryStore) DeleteEvent(ctx context.Context, id int64) error {
	defer observe("delete_event", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	delete(s.events, id)

	kept := s.registrations[:0]
	for _, reg := range s.registrations {
		if reg.EventID != id {
			kept = append(kept, reg)
		}
	}
	s.registrations = kept
	s.active = make(map[pairKey]int, len(s.active))
	for i, reg := range s.registrations {
		if reg.Status == model.StatusRegistered {
			s.active[pairKey{reg.VolunteerID, reg.EventID}] = i
		}
	}
	return nil
}

func (s *MemoryStore) Register(ctx context.Context, volunteerID, eventID int64, at time.Time) (model.Registration, error) {
	defer observe("register", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Registration{}, err
	}
	key := pairKey{volunteerID, eventID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.active[key]; exists {
		return model.Registration{}, fmt.Errorf("registration %d/%d: %w", volunteerID, eventID, ErrConflict)
	}
	reg := model.Registration{
		VolunteerID: volunteerID,
		EventID:     eventID,
		Status:      model.StatusRegistered,
		CreatedAt:   at.UTC(),
	}
	s.registrations = append(s.registrations, reg)
	s.active[key] = len(s.registrations) - 1
	return reg, nil
}

func (s *MemoryStore) Cancel(ctx context.Context, volunteerID, eventID int64) error {
	defer observe("cancel", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	key := pairKey{volunteerID, eventID}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.active[key]
	if !ok {
		return fmt.Errorf("registration %d/%d: %w", volunteerID, eventID, ErrNotFound)
	}
	s.registrations[idx].Status = model.StatusCancelled
	delete(s.active, key)
	return nil
}

func (s *MemoryStore) RegisteredEventIDs(ctx context.Context, volunteerID int64) ([]int64, error) {
	defer observe("registered_event_ids", time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	ids := make([]int64, 0)
	for k := range s.active {
		if k.volunteerID == volunteerID {
			ids = append(ids, k.eventID)
		}
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) CountRegistered(ctx context.Context, volunteerID, eventID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	_, ok := s.active[pairKey{volunteerID, eventID}]
	s.mu.RUnlock()
	if ok {
		return 1, nil
	}
	return 0, nil
}

// Registrations returns a copy of every registration row, cancelled included.
func (s *MemoryStore) Registrations() []model.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Registration(nil), s.registrations...)
}

func (s *MemoryStore) CreateNotification(ctx context.Context, n model.Notification) error {
	defer observe("create_notification", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.ID == "" || n.UserID <= 0 {
		return fmt.Errorf("notification: %w", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.notifications {
		if existing.ID == n.ID {
			return fmt.Errorf("notification %s: %w", n.ID, ErrConflict)
		}
	}
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	defer observe("list_notifications", time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]model.Notification, 0)
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].UserID == userID {
			out = append(out, s.notifications[i])
		}
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *MemoryStore) MarkNotificationRead(ctx context.Context, id string) (model.Notification, error) {
	if err := ctx.Err(); err != nil {
		return model.Notification{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].IsRead = true
			return s.notifications[i], nil
		}
	}
	return model.Notification{}, fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) AppendHistory(ctx context.Context, e model.HistoryEntry) (model.HistoryEntry, error) {
	defer observe("append_history", time.Now())
	if err := ctx.Err(); err != nil {
		return model.HistoryEntry{}, err
	}
	if e.VolunteerID <= 0 {
		return model.HistoryEntry{}, fmt.Errorf("history: %w", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHistoryID++
	e.ID = s.nextHistoryID
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.history = append(s.history, e)
	return e, nil
}

func (s *MemoryStore) ListHistory(ctx context.Context, volunteerID int64) ([]model.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.HistoryEntry, 0)
	for i := len(s.history) - 1; i >= 0; i-- {
		if volunteerID == 0 || s.history[i].VolunteerID == volunteerID {
			out = append(out, s.history[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteHistory(ctx context.Context, id int64) error {
	defer observe("delete_history", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID == id {
			s.history = append(s.history[:i], s.history[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("history %d: %w", id, ErrNotFound)
}

func (s *MemoryStore) HistorySummary(ctx context.Context) (model.HistorySummary, error) {
	if err := ctx.Err(); err != nil {
		return model.HistorySummary{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum model.HistorySummary
	seen := make(map[int64]struct{})
	for _, e := range s.history {
		if !e.LogsHours() {
			continue
		}
		seen[e.VolunteerID] = struct{}{}
		sum.TotalEntries++
		sum.TotalHours += e.Hours
	}
	sum.TotalVolunteers = len(seen)
	return sum, nil
}

func (s *MemoryStore) VolunteerHistorySummary(ctx context.Context) ([]model.VolunteerHours, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	byVolunteer := make(map[int64]*model.VolunteerHours)
	for _, e := range s.history {
		if !e.LogsHours() {
			continue
		}
		v, ok := s.volunteers[e.VolunteerID]
		if !ok {
			continue
		}
		row, ok := byVolunteer[v.ID]
		if !ok {
			row = &model.VolunteerHours{VolunteerID: v.ID, Name: v.Name, Email: v.Email, Phone: v.Phone}
			byVolunteer[v.ID] = row
		}
		row.EntryCount++
		row.TotalHours += e.Hours
	}
	s.mu.RUnlock()

	out := make([]model.VolunteerHours, 0, len(byVolunteer))
	for _, row := range byVolunteer {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].VolunteerID < out[j].VolunteerID
	})
	return out, nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	active := len(s.active)
	s.mu.RUnlock()
	metrics.UpdateActiveRegistrations(active)
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(memoryBackend, op, time.Since(start))
}
