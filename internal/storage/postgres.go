package storage

import (
	"context"
	"fmt"

	"downloader/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS downloads (
	seq        BIGSERIAL PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	client_id  TEXT NOT NULL,
	source_url TEXT NOT NULL,
	media_url  TEXT NOT NULL,
	media_type TEXT NOT NULL,
	kind       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_downloads_created_at ON downloads (created_at DESC);
`

// PostgresStorage implements the Storage interface using a pgx connection pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a new PostgreSQL storage instance and ensures the
// schema exists.
func NewPostgresStorage(config Config) (*PostgresStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if config.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(min(config.MaxIdleConns, int(poolConfig.MaxConns)))
	}
	if config.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	}

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStorage{
		pool: pool,
	}, nil
}

// SaveDownload inserts a record.
func (ps *PostgresStorage) SaveDownload(ctx context.Context, record *models.DownloadRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	_, err := ps.pool.Exec(ctx,
		`INSERT INTO downloads (id, client_id, source_url, media_url, media_type, kind, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.ClientID, record.SourceURL, record.MediaURL,
		record.MediaType, record.Kind, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}
	return nil
}

// RecentDownloads returns up to limit records, newest first.
func (ps *PostgresStorage) RecentDownloads(ctx context.Context, limit int) ([]*models.DownloadRecord, error) {
	query := `SELECT id, client_id, source_url, media_url, media_type, kind, created_at
		FROM downloads ORDER BY created_at DESC, seq DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := ps.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.DownloadRecord, error) {
		var r models.DownloadRecord
		if err := row.Scan(&r.ID, &r.ClientID, &r.SourceURL, &r.MediaURL, &r.MediaType, &r.Kind, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.CreatedAt = r.CreatedAt.UTC()
		return &r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan downloads: %w", err)
	}

	return records, nil
}

// Ping checks the database connection.
func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close closes the connection pool.
func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}
