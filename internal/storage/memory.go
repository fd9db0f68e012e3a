package storage

import (
	"context"
	"sync"

	"downloader/internal/models"
)

// MemoryStorage implements the Storage interface using an in-memory slice.
// This provider is ideal for development, testing, and scenarios where data
// persistence is not required. History is lost on restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*models.DownloadRecord
}

// NewMemoryStorage creates a new memory-based storage instance
func NewMemoryStorage(config Config) (*MemoryStorage, error) {
	return &MemoryStorage{
		records: make([]*models.DownloadRecord, 0),
	}, nil
}

// SaveDownload appends a copy of record to the history
func (m *MemoryStorage) SaveDownload(ctx context.Context, record *models.DownloadRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	recordCopy := *record
	m.records = append(m.records, &recordCopy)
	return nil
}

// RecentDownloads returns up to limit records, newest first
func (m *MemoryStorage) RecentDownloads(ctx context.Context, limit int) ([]*models.DownloadRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return newestFirst(m.records, limit), nil
}

// Ping always succeeds for memory storage
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for memory storage
func (m *MemoryStorage) Close() error {
	return nil
}
