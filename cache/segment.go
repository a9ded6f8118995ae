package cache

import (
	"context"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/zcatalyst/catalyst-go-sdk/core"
	"github.com/zcatalyst/catalyst-go-sdk/internal/invoke"
	"github.com/zcatalyst/catalyst-go-sdk/validate"
)

// Store is the set of keyed operations a segment supports. *Segment
// implements it; wrappers such as a near cache implement it too.
type Store interface {
	Put(ctx context.Context, key, value string, expiryHours int) (*Entry, error)
	Update(ctx context.Context, key, value string, expiryHours int) (*Entry, error)
	Get(ctx context.Context, key string) (*Entry, error)
	GetValue(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) (bool, error)
}

var _ Store = (*Segment)(nil)

// Segment is a named partition of the cache keyspace.
type Segment struct {
	requester core.Requester
	details   SegmentDetails
}

// putRequest is the body of Put and Update
type putRequest struct {
	CacheName     string `json:"cache_name"`
	CacheValue    string `json:"cache_value"`
	ExpiryInHours string `json:"expiry_in_hours,omitempty"`
}

// ID returns the segment id, empty for the default segment.
func (s *Segment) ID() string {
	return s.details.ID.String()
}

// Name returns the segment display name, if known.
func (s *Segment) Name() string {
	return s.details.SegmentName
}

// Details returns the descriptor the segment was built from.
func (s *Segment) Details() SegmentDetails {
	return s.details
}

func (s *Segment) path() string {
	if s.details.ID == "" {
		return "/cache"
	}
	return "/segment/" + url.PathEscape(s.ID()) + "/cache"
}

// Put stores value under key. expiryHours of 0 keeps the backend default.
func (s *Segment) Put(ctx context.Context, key, value string, expiryHours int) (*Entry, error) {
	return s.write(ctx, core.MethodPost, key, value, expiryHours)
}

// Update replaces the value stored under key.
func (s *Segment) Update(ctx context.Context, key, value string, expiryHours int) (*Entry, error) {
	return s.write(ctx, core.MethodPut, key, value, expiryHours)
}

func (s *Segment) write(ctx context.Context, method, key, value string, expiryHours int) (*Entry, error) {
	check := validate.All(
		func() error { return validate.NonEmptyString("cache_key", key) },
		func() error { return validate.NonEmptyString("cache_value", value) },
	)
	body := putRequest{CacheName: key, CacheValue: value}
	if expiryHours > 0 {
		body.ExpiryInHours = strconv.Itoa(expiryHours)
	}

	entry, err := invoke.Call[Entry](ctx, s.requester, Component, check, &core.Request{
		Method: method,
		Path:   s.path(),
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Get returns the full record stored under key.
func (s *Segment) Get(ctx context.Context, key string) (*Entry, error) {
	check := func() error {
		return validate.NonEmptyString("cache_key", key)
	}
	entry, err := invoke.Call[Entry](ctx, s.requester, Component, check, &core.Request{
		Method: core.MethodGet,
		Path:   s.path(),
		Query:  url.Values{"cacheKey": {key}},
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetValue returns only the value stored under key.
func (s *Segment) GetValue(ctx context.Context, key string) (string, error) {
	entry, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return entry.CacheValue, nil
}

// Delete removes key from the segment.
func (s *Segment) Delete(ctx context.Context, key string) (bool, error) {
	check := func() error {
		return validate.NonEmptyString("cache_key", key)
	}
	_, err := invoke.Send(ctx, s.requester, Component, check, &core.Request{
		Method: core.MethodDelete,
		Path:   s.path(),
		Query:  url.Values{"cacheKey": {key}},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarshalJSON encodes the segment as its details.
func (s *Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.details)
}

// String returns the JSON form of the segment details.
func (s *Segment) String() string {
	b, err := s.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}
