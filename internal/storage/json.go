package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"downloader/internal/models"
)

// JSONStorage implements the Storage interface using a single JSON file.
// The file is read once at startup and rewritten atomically on every save.
type JSONStorage struct {
	filePath string
	mu       sync.RWMutex
	data     *JSONData
}

// JSONData represents the structure of data stored in JSON format
type JSONData struct {
	Downloads   []*models.DownloadRecord `json:"downloads"`
	LastUpdated time.Time                `json:"last_updated"`
}

// NewJSONStorage creates a new JSON-based storage instance
func NewJSONStorage(config Config) (*JSONStorage, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("path is required for JSON storage")
	}

	storage := &JSONStorage{
		filePath: config.Path,
	}

	// Initialize with empty data if file doesn't exist
	if err := storage.ensureFileExists(); err != nil {
		return nil, fmt.Errorf("failed to ensure file exists: %w", err)
	}

	if err := storage.loadData(); err != nil {
		return nil, fmt.Errorf("failed to load initial data: %w", err)
	}

	return storage, nil
}

// ensureFileExists creates the JSON file with empty data if it doesn't exist
func (j *JSONStorage) ensureFileExists() error {
	if _, err := os.Stat(j.filePath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(j.filePath), 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}

		return j.saveData(&JSONData{
			Downloads: []*models.DownloadRecord{},
		})
	}
	return nil
}

func (j *JSONStorage) loadData() error {
	fileData, err := os.ReadFile(j.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var data JSONData
	if err := json.Unmarshal(fileData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if data.Downloads == nil {
		data.Downloads = []*models.DownloadRecord{}
	}

	j.data = &data
	return nil
}

// saveData writes data to a temporary file in the same directory and renames
// it over the original, so readers never see a partial file.
func (j *JSONStorage) saveData(data *JSONData) error {
	data.LastUpdated = time.Now().UTC()

	fileData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(j.filePath), filepath.Base(j.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(fileData); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, j.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace file: %w", err)
	}

	return nil
}

// SaveDownload appends a record and persists the file
func (j *JSONStorage) SaveDownload(ctx context.Context, record *models.DownloadRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	recordCopy := *record
	j.data.Downloads = append(j.data.Downloads, &recordCopy)
	if err := j.saveData(j.data); err != nil {
		j.data.Downloads = j.data.Downloads[:len(j.data.Downloads)-1]
		return err
	}
	return nil
}

// RecentDownloads returns up to limit records, newest first
func (j *JSONStorage) RecentDownloads(ctx context.Context, limit int) ([]*models.DownloadRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return newestFirst(j.data.Downloads, limit), nil
}

// Ping checks that the backing file is still present
func (j *JSONStorage) Ping(_ context.Context) error {
	if _, err := os.Stat(j.filePath); err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	return nil
}

// Close is a no-op for JSON storage
func (j *JSONStorage) Close() error {
	return nil
}
