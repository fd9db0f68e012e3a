// Package models - API response types and error handling.
// This file defines the outgoing API response structures.
//
// Response Design Principles:
// - Download endpoints keep the wire shape the web frontend already consumes
// - Operational endpoints (health, errors from middleware) use ErrorResponse
// - RFC3339 timestamps
package models

import (
	"time"
)

// Media type constants
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Content kind constants
const (
	ContentKindPost  = "post"
	ContentKindStory = "story"
)

// DownloadResult describes a resolved piece of content. URL is the direct
// media location the client fetches.
type DownloadResult struct {
	URL        string    `json:"url"`
	Type       string    `json:"type"`                 // image or video
	Kind       string    `json:"kind"`                 // post or story
	Shortcode  string    `json:"shortcode,omitempty"`  // posts only
	Username   string    `json:"username,omitempty"`   // stories only
	Caption    string    `json:"caption,omitempty"`    // og:title of the page
	Thumbnail  string    `json:"thumbnail,omitempty"`  // og:image when URL is a video
	SourceURL  string    `json:"source_url"`           // page the media was resolved from
	ResolvedAt time.Time `json:"resolved_at"`          // when the page was fetched
	Cached     bool      `json:"cached"`               // served from the result cache
}

// DownloadRecord is one entry of the download history.
type DownloadRecord struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	SourceURL string    `json:"source_url"`
	MediaURL  string    `json:"media_url"`
	MediaType string    `json:"media_type"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// RecentDownload is the public view of a history entry. It leaves out the
// client identity so callers cannot see who downloaded what.
type RecentDownload struct {
	ID        string    `json:"id"`
	SourceURL string    `json:"source_url"`
	MediaURL  string    `json:"media_url"`
	MediaType string    `json:"media_type"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type RecentDownloadsResponse struct {
	Downloads []*RecentDownload `json:"downloads"`
	Count     int               `json:"count"`
}

// NewRecentDownloadsResponse converts history entries to their public view.
func NewRecentDownloadsResponse(records []*DownloadRecord) *RecentDownloadsResponse {
	downloads := make([]*RecentDownload, 0, len(records))
	for _, r := range records {
		downloads = append(downloads, &RecentDownload{
			ID:        r.ID,
			SourceURL: r.SourceURL,
			MediaURL:  r.MediaURL,
			MediaType: r.MediaType,
			Kind:      r.Kind,
			CreatedAt: r.CreatedAt,
		})
	}
	return &RecentDownloadsResponse{Downloads: downloads, Count: len(downloads)}
}

// DetailResponse is the body of a failed download: {"detail": "..."}.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// ErrorResponse provides structured error information for failures that are
// not part of the download contract (routing, panics, bad parameters).
type ErrorResponse struct {
	Error     string    `json:"error"`                // Error type (always "error")
	Message   string    `json:"message"`              // Human-readable error description
	Code      string    `json:"code,omitempty"`       // Machine-readable error code
	Timestamp time.Time `json:"timestamp"`            // Error occurrence time
	RequestID string    `json:"request_id,omitempty"` // Unique request identifier
}

type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Metrics    map[string]interface{}     `json:"metrics,omitempty"`
}

type ComponentHealth struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Health Status Constants
const (
	StatusHealthy   = "healthy"   // All systems operational
	StatusUnhealthy = "unhealthy" // Major system issues
	StatusDegraded  = "degraded"  // Partial functionality
)

// Standard HTTP Error Codes
const (
	ErrorCodeNotFound         = "NOT_FOUND"          // 404: Resource doesn't exist
	ErrorCodeBadRequest       = "BAD_REQUEST"        // 400: Invalid request format
	ErrorCodeInvalidRequest   = "INVALID_REQUEST"    // 400: Invalid request data
	ErrorCodeInternalError    = "INTERNAL_ERROR"     // 500: Server-side error
	ErrorCodeMethodNotAllowed = "METHOD_NOT_ALLOWED" // 405: Wrong verb
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
		Metrics:    make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
	if status == StatusUnhealthy && h.Status == StatusHealthy {
		h.Status = StatusDegraded
	}
}

func (h *HealthCheckResponse) AddMetric(name string, value interface{}) {
	h.Metrics[name] = value
}

// NewDownloadRecord builds a history entry for a resolved download.
func NewDownloadRecord(id, clientID string, result *DownloadResult) *DownloadRecord {
	return &DownloadRecord{
		ID:        id,
		ClientID:  clientID,
		SourceURL: result.SourceURL,
		MediaURL:  result.URL,
		MediaType: result.Type,
		Kind:      result.Kind,
		CreatedAt: time.Now().UTC(),
	}
}
