// Package postgres persists records in a single keyed table. Bodies are
// stored as jsonb; the codec maps them back to concrete record types by kind.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kycledger/internal/ledger/models"
	"kycledger/internal/ledger/store"
	"kycledger/pkg/domain"
	"kycledger/pkg/platform/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	kind       text        NOT NULL,
	id         text        NOT NULL,
	body       jsonb       NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, id)
)`

// Store is a PostgreSQL-backed record store.
type Store struct {
	pool  *pgxpool.Pool
	codec models.Codec
}

// New constructs a store over an existing pool. Call Migrate before first
// use.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for the given URL and verifies connectivity.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// Migrate creates the records table if missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate records table: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, kind domain.Kind, id string) (models.Record, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM records WHERE kind = $1 AND id = $2`,
		kind.String(), id,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s/%s: %w", kind, id, err)
	}
	return s.codec.Decode(kind, body)
}

func (s *Store) Put(ctx context.Context, rec models.Record) error {
	body, err := s.codec.Encode(rec)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, upsertSQL, rec.Kind().String(), rec.ID(), body)
	if err != nil {
		return fmt.Errorf("put record %s/%s: %w", rec.Kind(), rec.ID(), err)
	}
	return nil
}

const upsertSQL = `
INSERT INTO records (kind, id, body) VALUES ($1, $2, $3)
ON CONFLICT (kind, id) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`

func (s *Store) Delete(ctx context.Context, kind domain.Kind, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM records WHERE kind = $1 AND id = $2`, kind.String(), id)
	if err != nil {
		return fmt.Errorf("delete record %s/%s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, kind domain.Kind) ([]models.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT body FROM records WHERE kind = $1`, kind.String())
	if err != nil {
		return nil, fmt.Errorf("scan records of kind %s: %w", kind, err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		rec, err := s.codec.Decode(kind, body)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan records of kind %s: %w", kind, err)
	}
	return out, nil
}

// ApplyBatch commits staged writes inside one database transaction so a
// failed write rolls the whole group back.
func (s *Store) ApplyBatch(ctx context.Context, puts []models.Record, deletes []store.Key) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, rec := range puts {
		body, err := s.codec.Encode(rec)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upsertSQL, rec.Kind().String(), rec.ID(), body); err != nil {
			return fmt.Errorf("batch put %s/%s: %w", rec.Kind(), rec.ID(), err)
		}
	}
	for _, key := range deletes {
		if _, err := tx.Exec(ctx,
			`DELETE FROM records WHERE kind = $1 AND id = $2`, key.Kind.String(), key.ID); err != nil {
			return fmt.Errorf("batch delete %s/%s: %w", key.Kind, key.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
