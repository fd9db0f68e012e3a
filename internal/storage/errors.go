package storage

import (
	"errors"

	"downloader/internal/models"
)

// ErrInvalidRecord is returned when a record is missing its ID or source URL.
var ErrInvalidRecord = errors.New("invalid download record")

func validateRecord(record *models.DownloadRecord) error {
	if record == nil || record.ID == "" || record.SourceURL == "" {
		return ErrInvalidRecord
	}
	return nil
}

// newestFirst returns up to limit records from an append-ordered slice,
// most recent first. The returned records are copies.
func newestFirst(records []*models.DownloadRecord, limit int) []*models.DownloadRecord {
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	out := make([]*models.DownloadRecord, 0, limit)
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		recordCopy := *records[i]
		out = append(out, &recordCopy)
	}
	return out
}
