package observability

import (
	"context"
	"time"

	"downloader/internal/models"
	"downloader/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedStorage wraps a storage.Storage implementation with
// OpenTelemetry tracing and metrics instrumentation.
type InstrumentedStorage struct {
	inner    storage.Storage
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

var _ storage.Storage = (*InstrumentedStorage)(nil)

// NewInstrumentedStorage creates a new storage wrapper that records trace spans,
// operation latency histograms, and error counters for every storage method call.
func NewInstrumentedStorage(inner storage.Storage) (*InstrumentedStorage, error) {
	tracer := otel.Tracer("downloader/storage")
	meter := otel.Meter("downloader/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of history storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of history storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStorage{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedStorage) observe(ctx context.Context, operation string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := s.tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	opAttr := metric.WithAttributes(attribute.String("operation", operation))
	s.duration.Record(ctx, time.Since(start).Seconds(), opAttr)

	if err != nil {
		s.errors.Add(ctx, 1, opAttr)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

func (s *InstrumentedStorage) SaveDownload(ctx context.Context, record *models.DownloadRecord) error {
	var attrs []attribute.KeyValue
	if record != nil {
		attrs = append(attrs,
			attribute.String("download.id", record.ID),
			attribute.String("download.kind", record.Kind),
		)
	}
	return s.observe(ctx, "SaveDownload", func(ctx context.Context) error {
		return s.inner.SaveDownload(ctx, record)
	}, attrs...)
}

func (s *InstrumentedStorage) RecentDownloads(ctx context.Context, limit int) ([]*models.DownloadRecord, error) {
	var result []*models.DownloadRecord
	err := s.observe(ctx, "RecentDownloads", func(ctx context.Context) error {
		var err error
		result, err = s.inner.RecentDownloads(ctx, limit)
		return err
	}, attribute.Int("limit", limit))
	return result, err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	return s.observe(ctx, "Ping", s.inner.Ping)
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
