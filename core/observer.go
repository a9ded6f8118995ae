package core

import "time"

// Observer provides hooks for monitoring requests sent through a transport.
// Implementations must be fast and safe for concurrent use; they are called
// inline on every request.
//
// Example:
//
//	type LogObserver struct{}
//
//	func (LogObserver) OnRequestStart(method, path string) {
//	    log.Printf("[START] %s %s", method, path)
//	}
//
//	func (LogObserver) OnRequestEnd(method, path string, status int, d time.Duration, err error) {
//	    log.Printf("[END] %s %s %d (%v) %v", method, path, status, d, err)
//	}
type Observer interface {
	// OnRequestStart is called before a request is dispatched.
	OnRequestStart(method, path string)

	// OnRequestEnd is called once a request completes. status is 0 when
	// no HTTP response was received.
	OnRequestEnd(method, path string, status int, duration time.Duration, err error)
}

// NoopObserver does nothing. It is the default when none is configured.
type NoopObserver struct{}

// OnRequestStart does nothing
func (NoopObserver) OnRequestStart(method, path string) {}

// OnRequestEnd does nothing
func (NoopObserver) OnRequestEnd(method, path string, status int, duration time.Duration, err error) {
}

// MultiObserver fans hooks out to several observers in order.
type MultiObserver []Observer

// OnRequestStart forwards to every observer
func (m MultiObserver) OnRequestStart(method, path string) {
	for _, o := range m {
		o.OnRequestStart(method, path)
	}
}

// OnRequestEnd forwards to every observer
func (m MultiObserver) OnRequestEnd(method, path string, status int, duration time.Duration, err error) {
	for _, o := range m {
		o.OnRequestEnd(method, path, status, duration, err)
	}
}
