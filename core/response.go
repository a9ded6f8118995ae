package core

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Response is the envelope returned by the backend:
//
//	{
//	    "status": "success",
//	    "data": <payload>
//	}
//
// Facades only ever look at the payload under "data".
type Response struct {
	// StatusCode is the HTTP status of the response
	StatusCode int
	// Header holds the response headers
	Header http.Header
	// Body is the raw JSON body
	Body []byte
}

// NewResponse builds a 200 response around an already-encoded body.
func NewResponse(body []byte) *Response {
	return &Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       body,
	}
}

// Payload returns the "data" field of the envelope.
func (r *Response) Payload() (gjson.Result, error) {
	if r == nil || len(r.Body) == 0 {
		return gjson.Result{}, ErrInvalidResponse
	}
	if !gjson.ValidBytes(r.Body) {
		return gjson.Result{}, ErrInvalidResponse
	}
	data := gjson.GetBytes(r.Body, "data")
	if !data.Exists() {
		return gjson.Result{}, ErrInvalidResponse
	}
	return data, nil
}

// Decode unmarshals the payload into dest.
func (r *Response) Decode(dest any) error {
	data, err := r.Payload()
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data.Raw), dest); err != nil {
		return &Error{
			Code:    CodeInvalidResponse,
			Message: "failed to decode response payload",
			Value:   data.Raw,
			wrapped: err,
		}
	}
	return nil
}

// Envelope encodes payload into a success envelope. It is the inverse of
// Decode and is used by stub transports and tests.
func Envelope(payload any) (*Response, error) {
	body, err := json.Marshal(map[string]any{
		"status": "success",
		"data":   payload,
	})
	if err != nil {
		return nil, err
	}
	return NewResponse(body), nil
}
