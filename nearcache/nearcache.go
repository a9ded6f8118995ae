// Package nearcache keeps a Redis copy of Catalyst cache entries close to
// the application. Reads are served from Redis when possible and fall
// through to the backend otherwise; writes go to the backend first and
// then refresh Redis; deletes invalidate Redis.
//
// Redis failures never fail an operation. They are logged and the backend
// answer is returned.
package nearcache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/zcatalyst/catalyst-go-sdk/cache"
	"github.com/zcatalyst/catalyst-go-sdk/telemetry"
)

// Store is a cache.Store that fronts another one with Redis.
//
// Example:
//
//	client, err := nearcache.NewClient(ctx, nearcache.DefaultConfig())
//	seg := app.Cache().Segment("2136000000007733")
//	store := nearcache.New(seg, seg.ID(), client, nearcache.DefaultConfig())
//	value, err := store.GetValue(ctx, "session:42")
type Store struct {
	origin    cache.Store
	client    redis.Cmdable
	namespace string
	ttl       time.Duration
	logger    logrus.FieldLogger

	hits   atomic.Int64
	misses atomic.Int64
}

var _ cache.Store = (*Store)(nil)

// Stats counts local hits and misses since the store was created.
type Stats struct {
	Hits   int64
	Misses int64
}

// New wraps origin. segmentID scopes the Redis keys; empty means the
// default segment.
func New(origin cache.Store, segmentID string, client redis.Cmdable, cfg *Config) *Store {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if segmentID == "" {
		segmentID = "default"
	}
	return &Store{
		origin:    origin,
		client:    client,
		namespace: cfg.KeyPrefix + ":" + segmentID + ":",
		ttl:       cfg.TTL,
		logger:    telemetry.L(),
	}
}

// ForSegment is New for a *cache.Segment, scoped by its id.
func ForSegment(seg *cache.Segment, client redis.Cmdable, cfg *Config) *Store {
	return New(seg, seg.ID(), client, cfg)
}

// WithLogger sets the logger for Redis failures.
func (s *Store) WithLogger(l logrus.FieldLogger) *Store {
	s.logger = l
	return s
}

// Key returns the Redis key used for a cache key.
func (s *Store) Key(key string) string {
	return s.namespace + key
}

// Stats returns the hit and miss counters.
func (s *Store) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}

// Get returns the entry from Redis, or from the origin on a miss.
func (s *Store) Get(ctx context.Context, key string) (*cache.Entry, error) {
	if key != "" {
		if entry, ok := s.lookup(ctx, key); ok {
			s.hits.Add(1)
			return entry, nil
		}
	}
	s.misses.Add(1)

	entry, err := s.origin.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, entry)
	return entry, nil
}

// GetValue returns only the value stored under key.
func (s *Store) GetValue(ctx context.Context, key string) (string, error) {
	entry, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return entry.CacheValue, nil
}

// Put writes through to the origin and refreshes Redis.
func (s *Store) Put(ctx context.Context, key, value string, expiryHours int) (*cache.Entry, error) {
	entry, err := s.origin.Put(ctx, key, value, expiryHours)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, entry)
	return entry, nil
}

// Update writes through to the origin and refreshes Redis.
func (s *Store) Update(ctx context.Context, key, value string, expiryHours int) (*cache.Entry, error) {
	entry, err := s.origin.Update(ctx, key, value, expiryHours)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, entry)
	return entry, nil
}

// Delete removes key from the origin and invalidates Redis, even when the
// origin call fails.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	ok, err := s.origin.Delete(ctx, key)
	if key != "" {
		s.Invalidate(ctx, key)
	}
	return ok, err
}

// Invalidate drops key from Redis only.
func (s *Store) Invalidate(ctx context.Context, key string) {
	if err := s.client.Del(ctx, s.Key(key)).Err(); err != nil {
		s.warn(ctx, err, key, "Failed to invalidate near-cache entry")
	}
}

func (s *Store) lookup(ctx context.Context, key string) (*cache.Entry, bool) {
	raw, err := s.client.Get(ctx, s.Key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.warn(ctx, err, key, "Failed to read near-cache entry")
		}
		return nil, false
	}

	var entry cache.Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.warn(ctx, err, key, "Discarding undecodable near-cache entry")
		s.Invalidate(ctx, key)
		return nil, false
	}
	return &entry, true
}

func (s *Store) store(ctx context.Context, key string, entry *cache.Entry) {
	ttl := s.ttlFor(entry)
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		s.warn(ctx, err, key, "Failed to encode near-cache entry")
		return
	}
	if err := s.client.Set(ctx, s.Key(key), raw, ttl).Err(); err != nil {
		s.warn(ctx, err, key, "Failed to write near-cache entry")
	}
}

// ttlFor bounds the local lifetime by the backend's remaining TTL.
func (s *Store) ttlFor(entry *cache.Entry) time.Duration {
	ttl := s.ttl
	if entry.TTLInMilliseconds > 0 {
		if remaining := time.Duration(entry.TTLInMilliseconds) * time.Millisecond; remaining < ttl {
			ttl = remaining
		}
	}
	return ttl
}

func (s *Store) warn(ctx context.Context, err error, key, msg string) {
	telemetry.EntryWithContext(s.logger, ctx).WithError(err).WithField("key", s.Key(key)).Warn(msg)
}
