package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"downloader/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS downloads (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	source_url TEXT NOT NULL,
	media_url  TEXT NOT NULL,
	media_type TEXT NOT NULL,
	kind       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_downloads_created_at ON downloads (created_at);
`

// SQLiteStorage stores download history in a SQLite database.
// created_at is kept as unix nanoseconds so ordering is exact.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens the database and creates the schema if needed
func NewSQLiteStorage(config Config) (*SQLiteStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{
		db: db,
	}, nil
}

// SaveDownload inserts a record
func (ss *SQLiteStorage) SaveDownload(ctx context.Context, record *models.DownloadRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO downloads (id, client_id, source_url, media_url, media_type, kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.ClientID, record.SourceURL, record.MediaURL,
		record.MediaType, record.Kind, record.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}
	return nil
}

// RecentDownloads returns up to limit records, newest first
func (ss *SQLiteStorage) RecentDownloads(ctx context.Context, limit int) ([]*models.DownloadRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := ss.db.QueryContext(ctx,
		`SELECT id, client_id, source_url, media_url, media_type, kind, created_at
		 FROM downloads ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	records := make([]*models.DownloadRecord, 0)
	for rows.Next() {
		var r models.DownloadRecord
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.ClientID, &r.SourceURL, &r.MediaURL, &r.MediaType, &r.Kind, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate downloads: %w", err)
	}

	return records, nil
}

// Ping checks the database connection
func (ss *SQLiteStorage) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the storage connection
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}
