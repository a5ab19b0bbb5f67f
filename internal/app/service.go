// Package service wires matching, registration and notification delivery
// into the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/vmatch/internal/adapters/mq/queue"
	"github.com/okian/vmatch/internal/adapters/mq/worker"
	"github.com/okian/vmatch/internal/adapters/repository"
	"github.com/okian/vmatch/internal/domain/matching"
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/pkg/logger"
)

const (
	defaultWorkerCount  = 4
	defaultQueueSize    = 10_000
	defaultStoreTimeout = 3 * time.Second
	shutdownTimeout     = 10 * time.Second
)

// Publisher fans delivered notifications out to other systems.
type Publisher interface {
	PublishNotification(ctx context.Context, n model.Notification) error
}

// Service implements the API dependencies for volunteer matching.
type Service struct {
	mu sync.RWMutex

	catalog       repository.Catalog
	registrations repository.Registrations
	notifications repository.Notifications
	history       repository.History
	publisher     Publisher

	evaluator  *matching.Evaluator
	notifyQ    *queue.InMemoryQueue
	workerPool *worker.Pool
	stopPool   context.CancelFunc

	workerCount  int
	queueSize    int
	policy       matching.Policy
	storeTimeout time.Duration
	now          func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a Service. Without store options it runs on an in-memory
// store seeded with demo data.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  defaultWorkerCount,
		queueSize:    defaultQueueSize,
		policy:       matching.DefaultPolicy,
		storeTimeout: defaultStoreTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}
	if s.catalog == nil || s.registrations == nil || s.notifications == nil || s.history == nil {
		mem := repository.NewMemoryStore(context.Background(), repository.WithDemoData())
		if s.catalog == nil {
			s.catalog = mem
		}
		if s.registrations == nil {
			s.registrations = mem
		}
		if s.notifications == nil {
			s.notifications = mem
		}
		if s.history == nil {
			s.history = mem
		}
	}

	s.evaluator = matching.New(matching.WithPolicy(s.policy))
	s.notifyQ = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	return s
}

// Start launches the notification workers. The pool outlives ctx so that a
// cancelled caller context cannot drop queued notices; Stop ends it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.notifyQ.IsClosed() {
		s.notifyQ = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	}

	poolCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	s.stopPool = stop
	s.workerPool = worker.NewPool(s.workerCount, s.notifyQ, worker.DelivererFunc(s.deliver),
		worker.WithLogger(s.logger))
	s.workerPool.Start(poolCtx)

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.String("policy", string(s.evaluator.Policy())),
		logger.Duration("store_timeout", s.storeTimeout),
	)
	return nil
}

// Stop closes the queue, waits for the workers to deliver what is left and
// then releases the pool context.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	s.stopPool()
	s.started = false
	s.logger.Info(ctx, "matching service stopped",
		logger.Int64("notifications_processed", s.workerPool.Processed()))
}

// storeCtx bounds a storage call by the configured timeout.
func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// ListVolunteers returns every volunteer.
func (s *Service) ListVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	vols, err := s.catalog.ListVolunteers(sctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list volunteers: %w", ErrStore, err)
	}
	return vols, nil
}

// ListEvents returns every event in catalog order.
func (s *Service) ListEvents(ctx context.Context) ([]model.Event, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	events, err := s.catalog.ListEvents(sctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list events: %w", ErrStore, err)
	}
	return events, nil
}

func (s *Service) getVolunteer(ctx context.Context, id int64) (model.Volunteer, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	v, err := s.catalog.GetVolunteer(sctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Volunteer{}, fmt.Errorf("%w: %d", ErrVolunteerNotFound, id)
	case err != nil:
		return model.Volunteer{}, fmt.Errorf("%w: get volunteer: %w", ErrStore, err)
	}
	return v, nil
}

func (s *Service) getEvent(ctx context.Context, id int64) (model.Event, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	e, err := s.catalog.GetEvent(sctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Event{}, fmt.Errorf("%w: %d", ErrEventNotFound, id)
	case err != nil:
		return model.Event{}, fmt.Errorf("%w: get event: %w", ErrStore, err)
	}
	return e, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueCapacity": s.notifyQ.Capacity(),
		"queueLength":   s.notifyQ.Len(),
		"policy":        string(s.evaluator.Policy()),
		"storeTimeout":  s.storeTimeout.String(),
	}
	if s.workerPool != nil {
		stats["notificationsProcessed"] = s.workerPool.Processed()
	}
	return stats
}
