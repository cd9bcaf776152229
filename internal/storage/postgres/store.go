// Package postgres - Calculation record store on PostgreSQL.
//
// Records are stored as one row per calculation id with the full record as
// JSONB next to the columns the queries filter on. The store implements
// lifecycle.Store; the pending -> processing claim is a conditional UPDATE
// so two workers can never claim the same record.
package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"customs-cost/core/types"
	"customs-cost/internal/errors"
	"customs-cost/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS calculations (
    id         TEXT PRIMARY KEY,
    kind       TEXT NOT NULL,
    status     TEXT NOT NULL,
    record     JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS calculations_status_idx ON calculations (status);
`

// Store persists calculation records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Config("invalid database url", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Internal("database ping failed", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.Internal("schema migration failed", err)
	}
	return &Store{pool: pool, log: logging.Named("postgres")}, nil
}

// Create inserts a new record.
func (s *Store) Create(ctx context.Context, rec *types.CalculationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Internal("record marshal failed", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO calculations (id, kind, status, record, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, string(rec.Kind), string(rec.Status), payload, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return errors.Internal("record insert failed", err)
	}
	return nil
}

// Get loads a record by id.
func (s *Store) Get(ctx context.Context, id string) (*types.CalculationRecord, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT record FROM calculations WHERE id = $1`, id).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("calculation", id)
	}
	if err != nil {
		return nil, errors.Internal("record load failed", err)
	}
	return unmarshal(payload)
}

// Update overwrites an existing record.
func (s *Store) Update(ctx context.Context, rec *types.CalculationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Internal("record marshal failed", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE calculations SET kind = $2, status = $3, record = $4, updated_at = $5 WHERE id = $1`,
		rec.ID, string(rec.Kind), string(rec.Status), payload, rec.UpdatedAt)
	if err != nil {
		return errors.Internal("record update failed", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("calculation", rec.ID)
	}
	return nil
}

// Claim atomically transitions pending -> processing. The conditional
// UPDATE is the exclusivity guarantee; a lost race falls through to a
// plain read.
func (s *Store) Claim(ctx context.Context, id string) (*types.CalculationRecord, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`UPDATE calculations
		 SET status = $2, record = jsonb_set(record, '{status}', to_jsonb($2::text))
		 WHERE id = $1 AND status = $3
		 RETURNING record`,
		id, string(types.StatusProcessing), string(types.StatusPending)).Scan(&payload)
	if err == pgx.ErrNoRows {
		rec, err := s.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return rec, false, nil
	}
	if err != nil {
		return nil, false, errors.Internal("record claim failed", err)
	}
	rec, err := unmarshal(payload)
	if err != nil {
		return nil, false, err
	}
	s.log.Debug("calculation claimed", zap.String("id", id))
	return rec, true, nil
}

// ListRecent returns the most recently updated records.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]types.CalculationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM calculations ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Internal("record list failed", err)
	}
	defer rows.Close()

	var out []types.CalculationRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Internal("record scan failed", err)
		}
		rec, err := unmarshal(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func unmarshal(payload []byte) (*types.CalculationRecord, error) {
	var rec types.CalculationRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, errors.Internal("record unmarshal failed", err)
	}
	return &rec, nil
}
