// Package testutil provides test doubles for the Catalyst facades: an
// in-process stub Requester, a fiber-backed stub backend for exercising the
// HTTP transport, and container helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zcatalyst/catalyst-go-sdk/core"
)

// StubFunc produces the payload (or error) for a matched request.
type StubFunc func(req *core.Request) (any, error)

// StubRequester is a core.Requester that records every descriptor it
// receives and answers from registered handlers with a success envelope.
type StubRequester struct {
	mu           sync.RWMutex
	handlers     map[string]StubFunc
	requests     []*core.Request
	requestCount atomic.Int32
}

// NewStubRequester creates an empty stub. Unmatched requests fail.
func NewStubRequester() *StubRequester {
	return &StubRequester{
		handlers: make(map[string]StubFunc),
	}
}

// Handle registers fn for "METHOD /path". A pattern ending in "/" matches
// every path with that prefix.
func (s *StubRequester) Handle(pattern string, fn StubFunc) *StubRequester {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[pattern] = fn
	return s
}

// Reply registers a handler that always returns payload.
func (s *StubRequester) Reply(pattern string, payload any) *StubRequester {
	return s.Handle(pattern, func(*core.Request) (any, error) {
		return payload, nil
	})
}

// Fail registers a handler that always returns err.
func (s *StubRequester) Fail(pattern string, err error) *StubRequester {
	return s.Handle(pattern, func(*core.Request) (any, error) {
		return nil, err
	})
}

// Send implements core.Requester
func (s *StubRequester) Send(ctx context.Context, req *core.Request) (*core.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	s.requestCount.Add(1)

	pattern := req.Method + " " + req.Path
	s.mu.RLock()
	handler, exact := s.handlers[pattern]
	if !exact {
		for p, h := range s.handlers {
			if strings.HasSuffix(p, "/") && strings.HasPrefix(pattern, p) {
				handler = h
				break
			}
		}
	}
	s.mu.RUnlock()

	if handler == nil {
		return nil, fmt.Errorf("stub: no handler for %s", pattern)
	}

	payload, err := handler(req)
	if err != nil {
		return nil, err
	}
	return core.Envelope(payload)
}

// Requests returns a copy of every recorded descriptor.
func (s *StubRequester) Requests() []*core.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent descriptor, or nil.
func (s *StubRequester) LastRequest() *core.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// RequestCount returns the number of descriptors received.
func (s *StubRequester) RequestCount() int {
	return int(s.requestCount.Load())
}

// Reset clears recorded requests.
func (s *StubRequester) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requestCount.Store(0)
	s.requests = s.requests[:0]
}
