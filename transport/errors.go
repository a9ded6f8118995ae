package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingCredential is returned when no token is configured for a request's role
	ErrMissingCredential = errors.New("missing credential")
)

// APIError is a non-2xx response from the backend. Catalyst reports
// failures as
//
//	{"status": "failure", "data": {"message": "...", "error_code": "INVALID_ID"}}
//
// Example:
//
//	var apiErr *transport.APIError
//	if errors.As(err, &apiErr) && apiErr.Code == "INVALID_CACHE_KEY" {
//	    // ...
//	}
type APIError struct {
	// StatusCode is the HTTP status code from the response
	StatusCode int `json:"-"`
	// Code is the backend error code
	Code string `json:"error_code,omitempty"`
	// Message is the backend error message
	Message string `json:"message"`
	// RequestID echoes the X-Request-ID of the failed request
	RequestID string `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.Code == "NOT_FOUND"
}

// IsServerError returns true for 5xx responses
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsUnauthorized returns true when the token was rejected
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.Code == "INVALID_OAUTHTOKEN"
}

// parseAPIError builds an APIError from a failure body. Bodies that are not
// JSON fall back to the status text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		apiErr.Code = firstString(res, "data.error_code", "error_code", "code")
		apiErr.Message = firstString(res, "data.message", "message", "error")
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

func firstString(res gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := res.Get(p); v.Exists() && v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// NetworkError is a failure to reach the backend or read its response.
type NetworkError struct {
	// Op is the operation that failed, e.g. "GET /cache"
	Op string
	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a not-found response from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}
