// Package redisstore keeps active registrations in Redis so several service
// instances share one duplicate guard.
//
//	Key:   <prefix>reg:<volunteerID>   SET of event ids
//
// SADD is the compare-and-set: it reports 0 when the member already exists.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/vmatch/internal/adapters/repository"
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/pkg/metrics"
)

const (
	// DefaultPrefix namespaces every key written by the store.
	DefaultPrefix = "vmatch:"

	backend = "redis"
)

var _ repository.Registrations = (*Store)(nil)

// Store implements repository.Registrations.
type Store struct {
	client *redis.Client
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// NewStore creates a registration store using the provided Redis client.
func NewStore(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) setKey(volunteerID int64) string {
	return s.prefix + "reg:" + strconv.FormatInt(volunteerID, 10)
}

func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(backend, op, time.Since(start))
	if err != nil && !errors.Is(err, repository.ErrConflict) && !errors.Is(err, repository.ErrNotFound) {
		metrics.RecordErrorByComponent("repository", op)
	}
}

// Register adds eventID to the volunteer's active set.
func (s *Store) Register(ctx context.Context, volunteerID, eventID int64, at time.Time) (reg model.Registration, err error) {
	defer func(start time.Time) { observe("register", start, err) }(time.Now())

	member := strconv.FormatInt(eventID, 10)
	added, err := s.client.SAdd(ctx, s.setKey(volunteerID), member).Result()
	if err != nil {
		return model.Registration{}, fmt.Errorf("redisstore: register sadd: %w", err)
	}
	if added == 0 {
		return model.Registration{}, fmt.Errorf("registration %d/%d: %w", volunteerID, eventID, repository.ErrConflict)
	}
	return model.Registration{
		VolunteerID: volunteerID,
		EventID:     eventID,
		Status:      model.StatusRegistered,
		CreatedAt:   at.UTC(),
	}, nil
}

// Cancel removes the pair from the active set.
func (s *Store) Cancel(ctx context.Context, volunteerID, eventID int64) (err error) {
	defer func(start time.Time) { observe("cancel", start, err) }(time.Now())

	removed, err := s.client.SRem(ctx, s.setKey(volunteerID), strconv.FormatInt(eventID, 10)).Result()
	if err != nil {
		return fmt.Errorf("redisstore: cancel: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("registration %d/%d: %w", volunteerID, eventID, repository.ErrNotFound)
	}
	return nil
}

// RegisteredEventIDs returns the active event ids in ascending order.
func (s *Store) RegisteredEventIDs(ctx context.Context, volunteerID int64) (ids []int64, err error) {
	defer func(start time.Time) { observe("registered_event_ids", start, err) }(time.Now())

	members, err := s.client.SMembers(ctx, s.setKey(volunteerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: members: %w", err)
	}
	ids = make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// CountRegistered is 1 when the pair is active, else 0.
func (s *Store) CountRegistered(ctx context.Context, volunteerID, eventID int64) (int, error) {
	ok, err := s.client.SIsMember(ctx, s.setKey(volunteerID), strconv.FormatInt(eventID, 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("redisstore: ismember: %w", err)
	}
	if ok {
		return 1, nil
	}
	return 0, nil
}
