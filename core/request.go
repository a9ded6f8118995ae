package core

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Service identifies the backend sub-service a request is routed to.
type Service string

// ServiceBaaS is the backend-as-a-service API that hosts every facade in this SDK.
const ServiceBaaS Service = "baas"

// AuthRole tells the transport which credential to attach to a request.
type AuthRole string

const (
	// RoleAdmin sends the request with the project admin credential
	RoleAdmin AuthRole = "admin"
	// RoleUser sends the request on behalf of the signed-in end user
	RoleUser AuthRole = "user"
)

// Encoding is the content-encoding hint for a request body.
type Encoding int

const (
	// EncodingJSON marshals Body as a JSON document
	EncodingJSON Encoding = iota
	// EncodingMultipart expects Body to be a *Multipart form
	EncodingMultipart
)

// String returns the MIME type family of the encoding
func (e Encoding) String() string {
	switch e {
	case EncodingMultipart:
		return "multipart/form-data"
	default:
		return "application/json"
	}
}

// Request describes a single call to the backend. Facades build one per
// operation and hand it to a Requester; they never talk HTTP themselves.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, DELETE)
	Method string
	// Path is relative to the project root, e.g. "/segment/12/cache"
	Path string
	// Query holds optional query parameters
	Query url.Values
	// Body is the request payload, encoded according to Encoding
	Body any
	// Encoding selects how Body is serialized
	Encoding Encoding
	// Service is the target sub-service
	Service Service
	// Role selects the credential
	Role AuthRole
}

// Multipart is an ordered multipart form body.
type Multipart struct {
	Fields []FormField
	Files  []FilePart
}

// FormField is a single text field of a multipart form.
type FormField struct {
	Name  string
	Value string
}

// FilePart is a file attached to a multipart form.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Content     io.Reader
}

// AddField appends a text field, skipping empty values.
func (m *Multipart) AddField(name, value string) {
	if value == "" {
		return
	}
	m.Fields = append(m.Fields, FormField{Name: name, Value: value})
}

// Field returns the first value recorded for name.
func (m *Multipart) Field(name string) (string, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Requester dispatches a request descriptor and returns the raw response
// envelope. Authentication and connection handling live behind it.
type Requester interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// RequesterFunc adapts a function to the Requester interface.
type RequesterFunc func(ctx context.Context, req *Request) (*Response, error)

// Send calls f(ctx, req)
func (f RequesterFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Common methods, re-exported so facades don't import net/http just for constants.
const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodPut    = http.MethodPut
	MethodDelete = http.MethodDelete
)
