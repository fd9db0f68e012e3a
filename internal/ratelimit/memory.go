package ratelimit

import (
	"sync"
	"time"
)

// clientWindow holds the accepted-request timestamps of one identity, one
// slice per window, oldest first.
type clientWindow struct {
	minute []time.Time
	hour   []time.Time
	day    []time.Time
}

func (cw *clientWindow) slice(w Window) *[]time.Time {
	switch w {
	case WindowMinute:
		return &cw.minute
	case WindowHour:
		return &cw.hour
	default:
		return &cw.day
	}
}

// cleanup drops every timestamp that is not strictly newer than now minus the
// window duration. Calling it repeatedly with the same now is a no-op.
func (cw *clientWindow) cleanup(now time.Time) {
	for _, w := range windows {
		ts := cw.slice(w)
		cutoff := now.Add(-w.Duration())
		kept := (*ts)[:0]
		for _, t := range *ts {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		clear((*ts)[len(kept):])
		*ts = kept
	}
}

func (cw *clientWindow) record(now time.Time) {
	cw.minute = append(cw.minute, now)
	cw.hour = append(cw.hour, now)
	cw.day = append(cw.day, now)
}

func (cw *clientWindow) count(w Window) int {
	return len(*cw.slice(w))
}

// entry pairs an identity's windows with the mutex that guards them.
type entry struct {
	mu      sync.Mutex
	windows clientWindow
}

// MemoryLimiter is an in-process Limiter. Every identity gets its own entry,
// created on first sight with an atomic insert-if-absent so concurrent first
// requests share one entry. Requests for different identities never contend
// on a shared lock.
//
// Entries are never evicted; the registry grows with the number of distinct
// identities seen during the process lifetime.
type MemoryLimiter struct {
	limits  Limits
	clock   Clock
	entries sync.Map // identity -> *entry
}

// Option configures a MemoryLimiter.
type Option func(*MemoryLimiter)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(m *MemoryLimiter) {
		m.clock = c
	}
}

// NewMemoryLimiter creates a limiter enforcing the given per-minute, per-hour
// and per-day maxima.
func NewMemoryLimiter(limits Limits, opts ...Option) (*MemoryLimiter, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	m := &MemoryLimiter{
		limits: limits,
		clock:  SystemClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// CheckAndRecord implements Limiter. Cleanup, check and record all happen
// under the identity's lock, so two concurrent requests from one identity can
// never both slip under the same boundary.
func (m *MemoryLimiter) CheckAndRecord(identity string) error {
	e := m.entry(identity)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := m.clock.Now()
	e.windows.cleanup(now)

	for _, w := range windows {
		if e.windows.count(w) >= m.limits.For(w) {
			return newExceededError(w)
		}
	}

	e.windows.record(now)
	return nil
}

// RemainingLimits implements Limiter.
func (m *MemoryLimiter) RemainingLimits(identity string) Limits {
	e := m.entry(identity)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.windows.cleanup(m.clock.Now())

	return Limits{
		Minute: m.limits.Minute - e.windows.count(WindowMinute),
		Hour:   m.limits.Hour - e.windows.count(WindowHour),
		Day:    m.limits.Day - e.windows.count(WindowDay),
	}
}

// Config implements Limiter.
func (m *MemoryLimiter) Config() Limits {
	return m.limits
}

// Len returns the number of identities observed so far.
func (m *MemoryLimiter) Len() int {
	n := 0
	m.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// entry returns the identity's entry, creating it if needed. The Load fast
// path avoids allocating for identities that already exist.
func (m *MemoryLimiter) entry(identity string) *entry {
	if v, ok := m.entries.Load(identity); ok {
		return v.(*entry)
	}
	v, _ := m.entries.LoadOrStore(identity, &entry{})
	return v.(*entry)
}
