package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/setpoint/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// farFuture scores index entries of records that never expire (2100-01-01).
const farFuture = 4102444800

// Store implements ports.RunStore using Redis.
// Records are JSON values; a sorted set per axis (plus a global one) indexes
// them by expiry so List can prune entries whose value already expired.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration of run records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for run records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "setpoint:run:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(runID string) string {
	return s.prefix + runID
}

func (s *Store) indexKey(axis string) string {
	if axis == "" {
		return s.prefix + "index"
	}
	return s.prefix + "index:" + axis
}

// Save persists the record and indexes it under its axis.
func (s *Store) Save(ctx context.Context, record domain.RunRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}
	member := backend.Z{Score: score, Member: record.RunID}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(record.RunID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(""), member)
	if record.Axis != "" {
		pipe.ZAdd(ctx, s.indexKey(record.Axis), member)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves a record by run ID.
func (s *Store) Load(ctx context.Context, runID string) (domain.RunRecord, error) {
	val, err := s.client.Get(ctx, s.key(runID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.RunRecord{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
		}
		return domain.RunRecord{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var record domain.RunRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return domain.RunRecord{}, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return record, nil
}

// Delete removes a record and its index entries. Unknown IDs are ignored.
func (s *Store) Delete(ctx context.Context, runID string) error {
	record, err := s.Load(ctx, runID)
	if err != nil && !errors.Is(err, domain.ErrRunNotFound) {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(runID))
	pipe.ZRem(ctx, s.indexKey(""), runID)
	if record.Axis != "" {
		pipe.ZRem(ctx, s.indexKey(record.Axis), runID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// List returns the run IDs of axis, or of every axis when axis is empty.
// Expired entries are pruned from the index first.
func (s *Store) List(ctx context.Context, axis string) ([]string, error) {
	index := s.indexKey(axis)
	now := float64(time.Now().Unix())

	if err := s.client.ZRemRangeByScore(ctx, index, "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired runs: %w", err)
	}

	runs, err := s.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
