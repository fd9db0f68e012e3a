// Package download resolves post and story URLs to direct media links.
//
// A request flows through classify (URL validation and content kind), the
// result cache, and on a miss the throttled page fetcher. Every failure is
// reported as a *DownstreamError so the API layer can map the whole class to
// a single client error.
package download

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"downloader/internal/models"
	"downloader/internal/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Service resolves content URLs and keeps the download history.
type Service struct {
	fetcher      Fetcher
	cache        Cache
	history      storage.Storage
	allowedHosts []string
	tracer       trace.Tracer
	now          func() time.Time
}

// NewService creates a download service. A nil cache disables caching.
func NewService(fetcher Fetcher, cache Cache, history storage.Storage, allowedHosts []string) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	return &Service{
		fetcher:      fetcher,
		cache:        cache,
		history:      history,
		allowedHosts: allowedHosts,
		tracer:       otel.Tracer("downloader/download"),
		now:          time.Now,
	}
}

// Download resolves rawURL on behalf of clientID.
func (s *Service) Download(ctx context.Context, clientID, rawURL string) (*models.DownloadResult, error) {
	ctx, span := s.tracer.Start(ctx, "download.resolve", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	result, err := s.resolve(ctx, rawURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &DownstreamError{Err: err}
	}

	span.SetAttributes(
		attribute.String("download.kind", result.Kind),
		attribute.String("download.media_type", result.Type),
		attribute.Bool("download.cached", result.Cached),
	)
	span.SetStatus(codes.Ok, "")

	s.record(ctx, clientID, result)
	return result, nil
}

func (s *Service) resolve(ctx context.Context, rawURL string) (*models.DownloadResult, error) {
	t, err := classify(rawURL, s.allowedHosts)
	if err != nil {
		return nil, err
	}

	cached, ok, err := s.cache.Get(ctx, t.pageURL)
	if err != nil {
		slog.WarnContext(ctx, "Result cache read failed", "error", err, "source_url", t.pageURL)
	} else if ok {
		cached.Cached = true
		return cached, nil
	}

	page, err := s.fetcher.Fetch(ctx, t.pageURL)
	if err != nil {
		return nil, err
	}

	result, err := buildResult(t, page, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, t.pageURL, result); err != nil {
		slog.WarnContext(ctx, "Result cache write failed", "error", err, "source_url", t.pageURL)
	}
	return result, nil
}

// record appends a history entry. History is best effort; a failed write
// never fails the download.
func (s *Service) record(ctx context.Context, clientID string, result *models.DownloadResult) {
	if s.history == nil {
		return
	}
	rec := models.NewDownloadRecord(uuid.NewString(), clientID, result)
	if err := s.history.SaveDownload(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "Failed to record download", "error", err, "source_url", result.SourceURL)
	}
}

// RecentDownloads returns the latest history entries, newest first.
func (s *Service) RecentDownloads(ctx context.Context, limit int) ([]*models.DownloadRecord, error) {
	if s.history == nil {
		return []*models.DownloadRecord{}, nil
	}
	return s.history.RecentDownloads(ctx, limit)
}

func buildResult(t *target, page *Page, resolvedAt time.Time) (*models.DownloadResult, error) {
	result := &models.DownloadResult{
		Kind:       t.kind,
		Shortcode:  t.shortcode,
		Username:   t.username,
		Caption:    page.Title,
		SourceURL:  t.pageURL,
		ResolvedAt: resolvedAt,
	}

	switch {
	case page.Video != "":
		result.URL = page.Video
		result.Type = models.MediaTypeVideo
		result.Thumbnail = page.Image
	case page.Image != "":
		result.URL = page.Image
		result.Type = models.MediaTypeImage
	default:
		return nil, ErrNoMedia
	}
	return result, nil
}

// IsDownstream reports whether err came from the content-fetch path.
func IsDownstream(err error) bool {
	var de *DownstreamError
	return errors.As(err, &de)
}
