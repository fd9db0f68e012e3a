package observability

import (
	"errors"
	"testing"

	"downloader/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInstrumentedLimiter_CountsDecisions(t *testing.T) {
	_, reader := setupTestTelemetry(t)

	inner, err := ratelimit.NewMemoryLimiter(ratelimit.Limits{Minute: 2, Hour: 100, Day: 1000})
	require.NoError(t, err)
	limiter, err := NewInstrumentedLimiter(inner)
	require.NoError(t, err)
	defer limiter.Close()

	require.NoError(t, limiter.CheckAndRecord("client-a"))
	require.NoError(t, limiter.CheckAndRecord("client-a"))

	err = limiter.CheckAndRecord("client-a")
	var exceeded *ratelimit.ExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, ratelimit.WindowMinute, exceeded.Window)

	require.NoError(t, limiter.CheckAndRecord("client-b"))

	m, ok := collectMetric(t, reader, "ratelimit.decisions")
	require.True(t, ok)
	assert.Equal(t, int64(3), sumFor(m,
		attribute.String("result", "allowed"),
		attribute.String("window", ""),
	))
	assert.Equal(t, int64(1), sumFor(m,
		attribute.String("result", "rejected"),
		attribute.String("window", "minute"),
	))

	gauge, ok := collectMetric(t, reader, "ratelimit.tracked_identities")
	require.True(t, ok)
	data, ok := gauge.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	assert.Equal(t, int64(2), data.DataPoints[0].Value)
}

func TestInstrumentedLimiter_Delegates(t *testing.T) {
	setupTestTelemetry(t)

	limits := ratelimit.Limits{Minute: 5, Hour: 50, Day: 500}
	inner, err := ratelimit.NewMemoryLimiter(limits)
	require.NoError(t, err)
	limiter, err := NewInstrumentedLimiter(inner)
	require.NoError(t, err)
	defer limiter.Close()

	assert.Equal(t, limits, limiter.Config())

	require.NoError(t, limiter.CheckAndRecord("c"))
	assert.Equal(t, ratelimit.Limits{Minute: 4, Hour: 49, Day: 499}, limiter.RemainingLimits("c"))
}

type staticLimiter struct{}

func (staticLimiter) CheckAndRecord(string) error             { return nil }
func (staticLimiter) RemainingLimits(string) ratelimit.Limits { return ratelimit.Limits{} }
func (staticLimiter) Config() ratelimit.Limits                { return ratelimit.Limits{} }

func TestInstrumentedLimiter_WithoutLen(t *testing.T) {
	_, reader := setupTestTelemetry(t)

	limiter, err := NewInstrumentedLimiter(staticLimiter{})
	require.NoError(t, err)
	assert.NoError(t, limiter.Close())

	require.NoError(t, limiter.CheckAndRecord("c"))
	_, ok := collectMetric(t, reader, "ratelimit.tracked_identities")
	assert.False(t, ok)
}
