// Package ratelimit provides per-client request accounting for the download
// API. Each client identity is tracked over three trailing windows (minute,
// hour, day) and a request is only recorded when all three still have room.
// It also includes HTTP middleware that rejects over-quota clients with 429
// and decorates accepted responses with remaining-limit headers.
package ratelimit

import (
	"fmt"
	"time"
)

// Limiter defines the rate limiting contract. Implementations must be safe for
// concurrent use.
type Limiter interface {
	// CheckAndRecord verifies that identity is under all of its quotas and,
	// if so, records one request against every window. When a quota is
	// already used up it returns an *ExceededError and records nothing.
	CheckAndRecord(identity string) error

	// RemainingLimits reports how many requests identity may still make in
	// each window. It never records a request.
	RemainingLimits(identity string) Limits

	// Config returns the configured maxima.
	Config() Limits
}

// Window names one of the trailing intervals requests are counted over.
type Window string

const (
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
	WindowDay    Window = "day"
)

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowMinute:
		return time.Minute
	case WindowHour:
		return time.Hour
	case WindowDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// RetryAfter returns the static hint reported to a client that exceeded w.
// It is not derived from the oldest recorded request.
func (w Window) RetryAfter() string {
	switch w {
	case WindowMinute:
		return "60 seconds"
	case WindowHour:
		return "1 hour"
	case WindowDay:
		return "24 hours"
	default:
		return ""
	}
}

// windows lists the windows in evaluation order. The first exhausted window
// is the one reported.
var windows = [...]Window{WindowMinute, WindowHour, WindowDay}

// Limits holds one count per window. It is used both for configured maxima and
// for remaining-request snapshots.
type Limits struct {
	Minute int `json:"minute"`
	Hour   int `json:"hour"`
	Day    int `json:"day"`
}

// For returns the value for window w.
func (l Limits) For(w Window) int {
	switch w {
	case WindowMinute:
		return l.Minute
	case WindowHour:
		return l.Hour
	case WindowDay:
		return l.Day
	default:
		return 0
	}
}

// Validate checks that every maximum is positive.
func (l Limits) Validate() error {
	for _, w := range windows {
		if l.For(w) <= 0 {
			return fmt.Errorf("requests per %s must be positive, got %d", w, l.For(w))
		}
	}
	return nil
}

// ExceededError is returned by CheckAndRecord when a quota is used up. It is
// an expected outcome, not an infrastructure failure.
type ExceededError struct {
	Window     Window
	RetryAfter string
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s window, retry after %s", e.Window, e.RetryAfter)
}

func newExceededError(w Window) *ExceededError {
	return &ExceededError{Window: w, RetryAfter: w.RetryAfter()}
}

// Clock abstracts time so window expiry can be driven by tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
