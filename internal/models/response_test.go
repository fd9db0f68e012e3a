package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDownloadRecord(t *testing.T) {
	result := &DownloadResult{
		URL:       "https://cdn.example.com/clip.mp4",
		Type:      MediaTypeVideo,
		Kind:      ContentKindPost,
		SourceURL: "https://www.instagram.com/p/abc/",
	}

	before := time.Now().UTC()
	record := NewDownloadRecord("rec-1", "192.0.2.1", result)

	assert.Equal(t, "rec-1", record.ID)
	assert.Equal(t, "192.0.2.1", record.ClientID)
	assert.Equal(t, result.SourceURL, record.SourceURL)
	assert.Equal(t, result.URL, record.MediaURL)
	assert.Equal(t, MediaTypeVideo, record.MediaType)
	assert.Equal(t, ContentKindPost, record.Kind)
	assert.False(t, record.CreatedAt.Before(before))
	assert.Equal(t, time.UTC, record.CreatedAt.Location())
}

func TestDownloadResult_JSONOmitsEmptyOptionalFields(t *testing.T) {
	data, err := json.Marshal(&DownloadResult{
		URL:       "https://cdn.example.com/photo.jpg",
		Type:      MediaTypeImage,
		Kind:      ContentKindStory,
		Username:  "someone",
		SourceURL: "https://www.instagram.com/stories/someone/",
	})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "shortcode")
	assert.NotContains(t, fields, "thumbnail")
	assert.Equal(t, "someone", fields["username"])
	assert.Equal(t, false, fields["cached"])
}

func TestNewRecentDownloadsResponse_DropsClientID(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	resp := NewRecentDownloadsResponse([]*DownloadRecord{
		{ID: "a", ClientID: "198.51.100.7", SourceURL: "https://www.instagram.com/p/abc/", Kind: ContentKindPost, CreatedAt: created},
	})

	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "a", resp.Downloads[0].ID)
	assert.Equal(t, created, resp.Downloads[0].CreatedAt)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "198.51.100.7")
}

func TestNewRecentDownloadsResponse_EmptyIsArray(t *testing.T) {
	data, err := json.Marshal(NewRecentDownloadsResponse(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"downloads":[],"count":0}`, string(data))
}

func TestHealthCheckResponse_AddComponent(t *testing.T) {
	response := NewHealthCheckResponse(StatusHealthy)

	response.AddComponent("storage", StatusHealthy, "operational")
	assert.Equal(t, StatusHealthy, response.Status)

	response.AddComponent("cache", StatusUnhealthy, "connection refused")
	assert.Equal(t, StatusDegraded, response.Status)

	// A later healthy component does not restore the overall status.
	response.AddComponent("api", StatusHealthy, "operational")
	assert.Equal(t, StatusDegraded, response.Status)
	assert.Len(t, response.Components, 3)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("Not found", ErrorCodeNotFound)

	assert.Equal(t, "error", resp.Error)
	assert.Equal(t, "Not found", resp.Message)
	assert.Equal(t, ErrorCodeNotFound, resp.Code)
	assert.False(t, resp.Timestamp.IsZero())
}
