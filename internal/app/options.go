package service

import (
	"time"

	"github.com/okian/vmatch/internal/adapters/repository"
	"github.com/okian/vmatch/internal/domain/matching"
	"github.com/okian/vmatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of notification workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the notification queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPolicy sets the eligibility policy.
func WithPolicy(p matching.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithStoreTimeout bounds every storage call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithStore uses one store for every persistence concern.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.catalog, s.registrations, s.notifications, s.history = st, st, st, st
		}
	}
}

// WithCatalog overrides where volunteers and events are stored.
func WithCatalog(c repository.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithRegistrations overrides the registration store, e.g. with Redis.
func WithRegistrations(r repository.Registrations) Option {
	return func(s *Service) {
		if r != nil {
			s.registrations = r
		}
	}
}

// WithNotifications overrides the notification store.
func WithNotifications(n repository.Notifications) Option {
	return func(s *Service) {
		if n != nil {
			s.notifications = n
		}
	}
}

// WithHistory overrides the history store.
func WithHistory(h repository.History) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithPublisher publishes every delivered notification.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
