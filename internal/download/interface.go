package download

import (
	"context"

	"downloader/internal/models"
)

// ServiceInterface defines the download operations the API depends on
type ServiceInterface interface {
	// Download resolves a post or story URL to its media
	Download(ctx context.Context, clientID, rawURL string) (*models.DownloadResult, error)

	// RecentDownloads returns the newest history entries first
	RecentDownloads(ctx context.Context, limit int) ([]*models.DownloadRecord, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
