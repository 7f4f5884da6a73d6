// Package postgres implements the PostgreSQL metadata store.
//
// Records live in the documents_meta table, one row per normalized key.
// This backend supports multiple server instances sharing one database.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telimanlogistique/telimanshare/internal/logger"
	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
)

// PostgresMetaStore implements meta.Store backed by PostgreSQL via pgxpool.
type PostgresMetaStore struct {
	pool *pgxpool.Pool
}

// New creates the store, runs schema migrations, and verifies connectivity.
func New(ctx context.Context, cfg Config) (*PostgresMetaStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid postgres configuration: %w", err)
	}

	if err := runMigrations(ctx, cfg.ConnectionString()); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if cfg.QueryTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] =
			fmt.Sprintf("%dms", cfg.QueryTimeout.Milliseconds())
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("postgres metadata store ready",
		"host", cfg.Host, "database", cfg.Database, "max_conns", cfg.MaxConns)

	return &PostgresMetaStore{pool: pool}, nil
}

func (s *PostgresMetaStore) Get(ctx context.Context, key string) (*meta.MetaRecord, error) {
	query := `
		SELECT file_path, is_public, allowed_emails, owner_email, preview_pdf_path, updated_at
		FROM documents_meta
		WHERE file_path = $1
	`
	var r meta.MetaRecord
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&r.FilePath, &r.IsPublic, &r.AllowedEmails, &r.OwnerEmail, &r.PreviewPDFPath, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, meta.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get meta record %q: %w", key, err)
	}
	return &r, nil
}

func (s *PostgresMetaStore) Put(ctx context.Context, record *meta.MetaRecord) error {
	query := `
		INSERT INTO documents_meta (file_path, is_public, allowed_emails, owner_email, preview_pdf_path, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (file_path) DO UPDATE SET
			is_public = EXCLUDED.is_public,
			allowed_emails = EXCLUDED.allowed_emails,
			owner_email = EXCLUDED.owner_email,
			preview_pdf_path = EXCLUDED.preview_pdf_path,
			updated_at = EXCLUDED.updated_at
	`
	allowed := record.AllowedEmails
	if allowed == nil {
		allowed = []string{}
	}
	_, err := s.pool.Exec(ctx, query,
		record.FilePath, record.IsPublic, allowed, record.OwnerEmail,
		record.PreviewPDFPath, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put meta record %q: %w", record.FilePath, err)
	}
	return nil
}

func (s *PostgresMetaStore) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM documents_meta WHERE file_path = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete meta record %q: %w", key, err)
	}
	return nil
}

func (s *PostgresMetaStore) List(ctx context.Context, prefix string) ([]*meta.MetaRecord, error) {
	query := `
		SELECT file_path, is_public, allowed_emails, owner_email, preview_pdf_path, updated_at
		FROM documents_meta
		WHERE starts_with(file_path, $1)
		ORDER BY file_path ASC
	`
	rows, err := s.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list meta records: %w", err)
	}
	defer rows.Close()

	out := make([]*meta.MetaRecord, 0)
	for rows.Next() {
		var r meta.MetaRecord
		if err := rows.Scan(&r.FilePath, &r.IsPublic, &r.AllowedEmails, &r.OwnerEmail,
			&r.PreviewPDFPath, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meta record: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meta records: %w", err)
	}
	return out, nil
}

func (s *PostgresMetaStore) Close() error {
	s.pool.Close()
	return nil
}
