package cache

import (
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/zcatalyst/catalyst-go-sdk/core"
)

// SegmentDetails describes a cache segment as returned by the backend.
//
// Example response:
//
//	{
//	    "id": "2136000000007733",
//	    "segment_name": "sessions",
//	    "project_details": {"id": "2136000000007001", "project_name": "shop"}
//	}
type SegmentDetails struct {
	ID          core.ID              `json:"id"`
	SegmentName string               `json:"segment_name,omitempty"`
	Project     *core.ProjectDetails `json:"project_details,omitempty"`
}

// Entry is a cache record.
//
// Example response:
//
//	{
//	    "cache_name": "session:42",
//	    "cache_value": "{\"user\":42}",
//	    "expires_in": "Aug 18, 2026 05:22 PM",
//	    "expiry_in_hours": "48",
//	    "ttl_in_milliseconds": "172800000",
//	    "segment_details": {"id": "2136000000007733", "segment_name": "sessions"}
//	}
type Entry struct {
	// CacheName is the key
	CacheName string `json:"cache_name"`
	// CacheValue is the stored value
	CacheValue string `json:"cache_value"`
	// ExpiresIn is the absolute expiry timestamp as formatted by the backend.
	// Deprecated: use ExpiryInHours or TTLInMilliseconds.
	ExpiresIn string `json:"expires_in,omitempty"`
	// ExpiryInHours is the lifetime the entry was written with
	ExpiryInHours int `json:"expiry_in_hours,omitempty"`
	// TTLInMilliseconds is the remaining lifetime
	TTLInMilliseconds int64 `json:"ttl_in_milliseconds,omitempty"`
	// Project owns the entry
	Project *core.ProjectDetails `json:"project_details,omitempty"`
	// Segment holds the entry
	Segment *SegmentDetails `json:"segment_details,omitempty"`
}

// UnmarshalJSON decodes an entry. Numeric fields arrive either as numbers
// or as numeric strings depending on the backend version.
func (e *Entry) UnmarshalJSON(b []byte) error {
	type plain struct {
		CacheName  string               `json:"cache_name"`
		CacheValue scalarString         `json:"cache_value"`
		ExpiresIn  string               `json:"expires_in"`
		Project    *core.ProjectDetails `json:"project_details"`
		Segment    *SegmentDetails      `json:"segment_details"`
	}
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	*e = Entry{
		CacheName:         p.CacheName,
		CacheValue:        string(p.CacheValue),
		ExpiresIn:         p.ExpiresIn,
		ExpiryInHours:     int(gjson.GetBytes(b, "expiry_in_hours").Int()),
		TTLInMilliseconds: gjson.GetBytes(b, "ttl_in_milliseconds").Int(),
		Project:           p.Project,
		Segment:           p.Segment,
	}
	return nil
}

// scalarString decodes any JSON scalar into its string form. Older backends
// return non-string cache values verbatim.
type scalarString string

// UnmarshalJSON implements json.Unmarshaler
func (g *scalarString) UnmarshalJSON(b []byte) error {
	r := gjson.ParseBytes(b)
	switch r.Type {
	case gjson.Null:
		*g = ""
	case gjson.JSON:
		*g = scalarString(r.Raw)
	default:
		*g = scalarString(r.String())
	}
	return nil
}
