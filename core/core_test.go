package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_Payload(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "object payload", body: `{"status":"success","data":{"id":"1"}}`, want: `{"id":"1"}`},
		{name: "scalar payload", body: `{"status":"success","data":true}`, want: `true`},
		{name: "missing data", body: `{"status":"success"}`, wantErr: true},
		{name: "invalid json", body: `{"data":`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewResponse([]byte(tt.body)).Payload()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResponse)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, data.Raw)
		})
	}
}

func TestResponse_Decode(t *testing.T) {
	resp, err := Envelope(map[string]any{"cache_name": "key", "cache_value": "value"})
	require.NoError(t, err)

	var out struct {
		Name  string `json:"cache_name"`
		Value string `json:"cache_value"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "key", out.Name)
	assert.Equal(t, "value", out.Value)

	var wrong []string
	err = resp.Decode(&wrong)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestError_Is(t *testing.T) {
	err := NewError(CodeInvalidArgument, "Value provided for key must be a non empty string", "")
	assert.True(t, IsValidation(err))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrInvalidResponse))

	tagged := err.WithComponent(ComponentCache)
	assert.True(t, IsComponent(tagged, ComponentCache))
	assert.False(t, IsComponent(err, ComponentCache), "WithComponent must not mutate the original")
	assert.Contains(t, tagged.Error(), "cache: invalid-argument")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(CodeInvalidResponse, "bad payload", nil).Wrap(cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, "invalid-response: bad payload", err.Error())
}

func TestRequesterFunc(t *testing.T) {
	var got *Request
	r := RequesterFunc(func(ctx context.Context, req *Request) (*Response, error) {
		got = req
		return Envelope("ok")
	})

	resp, err := r.Send(context.Background(), &Request{Method: MethodGet, Path: "/segment"})
	require.NoError(t, err)
	assert.Equal(t, "/segment", got.Path)

	data, err := resp.Payload()
	require.NoError(t, err)
	assert.Equal(t, "ok", data.String())
}

func TestMultipart_AddField(t *testing.T) {
	var m Multipart
	m.AddField("subject", "hello")
	m.AddField("content", "")

	assert.Len(t, m.Fields, 1)
	v, ok := m.Field("subject")
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
	_, ok = m.Field("content")
	assert.False(t, ok)
}

type countingObserver struct{ starts, ends int }

func (c *countingObserver) OnRequestStart(string, string) { c.starts++ }
func (c *countingObserver) OnRequestEnd(string, string, int, time.Duration, error) {
	c.ends++
}

func TestMultiObserver(t *testing.T) {
	a, b := &countingObserver{}, &countingObserver{}
	m := MultiObserver{a, b, NoopObserver{}}
	m.OnRequestStart("GET", "/query")
	m.OnRequestEnd("GET", "/query", 200, time.Millisecond, nil)

	assert.Equal(t, 1, a.starts)
	assert.Equal(t, 1, b.ends)
}
