// Package models - API request types.
package models

import (
	"errors"
	"strings"
)

// DownloadRequest is the body of POST /api/download.
type DownloadRequest struct {
	URL string `json:"url"`
}

// Normalize trims surrounding whitespace from the URL.
func (r *DownloadRequest) Normalize() {
	r.URL = strings.TrimSpace(r.URL)
}

// Validate checks that a URL was supplied. Whether the URL can be downloaded
// is decided by the download service.
func (r *DownloadRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errors.New("url is required")
	}
	return nil
}
