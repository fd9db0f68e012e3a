package storage

import (
	"context"
	"time"

	"downloader/internal/models"
)

// Storage defines the interface for download history persistence.
// Implementations must be safe for concurrent use.
type Storage interface {
	// SaveDownload appends a record to the history
	SaveDownload(ctx context.Context, record *models.DownloadRecord) error

	// RecentDownloads returns up to limit records, newest first
	RecentDownloads(ctx context.Context, limit int) ([]*models.DownloadRecord, error)

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error

	// Close closes the storage connection and cleans up resources
	Close() error
}

// Config holds configuration for storage backends
type Config struct {
	// Type specifies the storage backend type (json, memory, sqlite, postgres)
	Type string `json:"type" yaml:"type"`

	// Path is used for file-based storage backends
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// ConnectionString is used for database backends
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`

	// Connection pool settings for database backends
	MaxOpenConns    int           `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"`
}
