package observability

import (
	"context"
	"errors"

	"downloader/internal/ratelimit"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Decision results recorded on the ratelimit.decisions counter.
const (
	decisionAllowed  = "allowed"
	decisionRejected = "rejected"
)

// sizer is implemented by limiters that can report how many identities they
// currently track.
type sizer interface {
	Len() int
}

// InstrumentedLimiter counts limiter decisions and, when the wrapped limiter
// exposes Len, observes the number of tracked identities.
type InstrumentedLimiter struct {
	inner     ratelimit.Limiter
	decisions metric.Int64Counter
	reg       metric.Registration
}

var _ ratelimit.Limiter = (*InstrumentedLimiter)(nil)

// NewInstrumentedLimiter wraps inner with decision metrics.
func NewInstrumentedLimiter(inner ratelimit.Limiter) (*InstrumentedLimiter, error) {
	meter := otel.Meter("downloader/ratelimit")

	decisions, err := meter.Int64Counter(
		"ratelimit.decisions",
		metric.WithDescription("Rate limiter decisions by result and exhausted window"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	l := &InstrumentedLimiter{
		inner:     inner,
		decisions: decisions,
	}

	if s, ok := inner.(sizer); ok {
		tracked, err := meter.Int64ObservableGauge(
			"ratelimit.tracked_identities",
			metric.WithDescription("Client identities currently held by the rate limiter"),
			metric.WithUnit("{identity}"),
		)
		if err != nil {
			return nil, err
		}
		l.reg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(tracked, int64(s.Len()))
			return nil
		}, tracked)
		if err != nil {
			return nil, err
		}
	}

	return l, nil
}

// CheckAndRecord delegates to the wrapped limiter and counts the outcome.
func (l *InstrumentedLimiter) CheckAndRecord(identity string) error {
	err := l.inner.CheckAndRecord(identity)

	result := decisionAllowed
	window := ""
	var exceeded *ratelimit.ExceededError
	if errors.As(err, &exceeded) {
		result = decisionRejected
		window = string(exceeded.Window)
	}

	l.decisions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("result", result),
		attribute.String("window", window),
	))
	return err
}

// RemainingLimits delegates to the wrapped limiter.
func (l *InstrumentedLimiter) RemainingLimits(identity string) ratelimit.Limits {
	return l.inner.RemainingLimits(identity)
}

// Config delegates to the wrapped limiter.
func (l *InstrumentedLimiter) Config() ratelimit.Limits {
	return l.inner.Config()
}

// Close unregisters the identity gauge callback.
func (l *InstrumentedLimiter) Close() error {
	if l.reg == nil {
		return nil
	}
	return l.reg.Unregister()
}
