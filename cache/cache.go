package cache

import (
	"context"
	"net/url"

	"github.com/zcatalyst/catalyst-go-sdk/core"
	"github.com/zcatalyst/catalyst-go-sdk/internal/invoke"
	"github.com/zcatalyst/catalyst-go-sdk/validate"
)

// Component tags every error raised by this package.
const Component = core.ComponentCache

// Cache lists segments and hands out Segment handles.
//
// Example:
//
//	c := cache.New(requester)
//	seg := c.Segment("2136000000007733")
//	entry, err := seg.Put(ctx, "session:42", "active", 2)
type Cache struct {
	requester core.Requester
}

// New creates a cache facade over the given requester.
func New(r core.Requester) *Cache {
	return &Cache{requester: r}
}

// GetAllSegments returns every segment of the project.
func (c *Cache) GetAllSegments(ctx context.Context) ([]SegmentDetails, error) {
	return invoke.Call[[]SegmentDetails](ctx, c.requester, Component, nil, &core.Request{
		Method: core.MethodGet,
		Path:   "/segment",
	})
}

// GetSegmentDetails fetches a single segment by id.
func (c *Cache) GetSegmentDetails(ctx context.Context, id string) (*SegmentDetails, error) {
	check := func() error {
		return validate.NonEmptyString("segment_id", id)
	}
	details, err := invoke.Call[SegmentDetails](ctx, c.requester, Component, check, &core.Request{
		Method: core.MethodGet,
		Path:   "/segment/" + url.PathEscape(id),
	})
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// Segment returns a handle on the segment with the given id. An empty id
// selects the project's default segment. No request is made.
func (c *Cache) Segment(id string) *Segment {
	return &Segment{
		requester: c.requester,
		details:   SegmentDetails{ID: core.ID(id)},
	}
}

// SegmentFromDetails returns a handle on a segment previously fetched with
// GetAllSegments or GetSegmentDetails.
func (c *Cache) SegmentFromDetails(d SegmentDetails) *Segment {
	return &Segment{requester: c.requester, details: d}
}

// IsError reports whether err was raised by the cache facade.
func IsError(err error) bool {
	return core.IsComponent(err, Component)
}
