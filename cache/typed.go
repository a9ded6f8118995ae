package cache

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// Typed stores values of type T in a segment by encoding them as JSON in
// the cache value.
//
// Example:
//
//	type Session struct {
//	    UserID int    `json:"user_id"`
//	    Role   string `json:"role"`
//	}
//
//	sessions := cache.NewTyped[Session](c.Segment("2136000000007733"))
//	_, err := sessions.Put(ctx, "session:42", Session{UserID: 42, Role: "admin"}, 2)
//
//	s, err := sessions.Get(ctx, "session:42")
type Typed[T any] struct {
	store Store
}

// NewTyped wraps a segment (or any Store) for values of type T.
func NewTyped[T any](store Store) *Typed[T] {
	return &Typed[T]{store: store}
}

// Put encodes value and stores it under key.
func (t *Typed[T]) Put(ctx context.Context, key string, value T, expiryHours int) (*Entry, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value for %q: %w", key, err)
	}
	return t.store.Put(ctx, key, string(raw), expiryHours)
}

// Update encodes value and replaces the one stored under key.
func (t *Typed[T]) Update(ctx context.Context, key string, value T, expiryHours int) (*Entry, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value for %q: %w", key, err)
	}
	return t.store.Update(ctx, key, string(raw), expiryHours)
}

// Get fetches and decodes the value stored under key.
func (t *Typed[T]) Get(ctx context.Context, key string) (T, error) {
	var result T
	raw, err := t.store.GetValue(ctx, key)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("failed to decode value for %q: %w", key, err)
	}
	return result, nil
}

// Delete removes key.
func (t *Typed[T]) Delete(ctx context.Context, key string) (bool, error) {
	return t.store.Delete(ctx, key)
}
