package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/tokenbridge/internal/core/domain"
	"github.com/custodia-labs/tokenbridge/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore implements driven.RecordStore using PostgreSQL.
// Keys map to token_records.identity; a write replaces any previous record.
type RecordStore struct {
	db     *DB
	prefix string
}

// NewRecordStore creates a new RecordStore
func NewRecordStore(db *DB, prefix string) *RecordStore {
	return &RecordStore{db: db, prefix: prefix}
}

// Set upserts the record for key
func (s *RecordStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO token_records (identity, record, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (identity) DO UPDATE SET
			record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, s.prefix+key, value); err != nil {
		return fmt.Errorf("postgres set: %w: %w", domain.ErrServiceUnavailable, err)
	}
	return nil
}

// Get retrieves the record for key
func (s *RecordStore) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT record FROM token_records WHERE identity = $1`

	var record string
	err := s.db.QueryRowContext(ctx, query, s.prefix+key).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("postgres get: %w: %w", domain.ErrServiceUnavailable, err)
	}
	return record, nil
}

// Ping checks if the database is reachable
func (s *RecordStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w: %w", domain.ErrServiceUnavailable, err)
	}
	return nil
}
