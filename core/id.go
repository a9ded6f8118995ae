package core

import (
	"github.com/tidwall/gjson"
)

// ID is a backend resource identifier. The backend sends ids either as
// JSON strings or as (large) JSON integers; both decode to the same ID.
type ID string

// UnmarshalJSON accepts a string, an integer or null
func (id *ID) UnmarshalJSON(b []byte) error {
	r := gjson.ParseBytes(b)
	if r.Type == gjson.Null {
		*id = ""
		return nil
	}
	*id = ID(r.String())
	return nil
}

// String returns the id as a plain string
func (id ID) String() string {
	return string(id)
}

// ProjectDetails identifies the project owning a resource.
type ProjectDetails struct {
	ID          ID     `json:"id"`
	ProjectName string `json:"project_name,omitempty"`
}
