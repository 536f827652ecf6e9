package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardscout/cardscout/internal/domain"
)

// RunStore implements domain.RunStore using PostgreSQL. The full run result,
// including every rejection and its reason, is kept as a JSONB payload; the
// indexed columns exist for listing and filtering.
type RunStore struct {
	pool *pgxpool.Pool
}

// NewRunStore creates a new RunStore backed by the given connection pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

// SaveRun persists a finished run. Saving the same run ID twice replaces the
// payload.
func (s *RunStore) SaveRun(ctx context.Context, run domain.RunResult) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("postgres: marshal run %s: %w", run.RunID, err)
	}

	const query = `
		INSERT INTO runs (
			run_id, phrase, started_at, finished_at,
			search_count, raw_count, accepted_count, rejected_count, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			phrase         = EXCLUDED.phrase,
			started_at     = EXCLUDED.started_at,
			finished_at    = EXCLUDED.finished_at,
			search_count   = EXCLUDED.search_count,
			raw_count      = EXCLUDED.raw_count,
			accepted_count = EXCLUDED.accepted_count,
			rejected_count = EXCLUDED.rejected_count,
			payload        = EXCLUDED.payload`

	_, err = s.pool.Exec(ctx, query,
		run.RunID, run.Phrase, run.StartedAt, run.FinishedAt,
		run.SearchCount, run.RawCount, len(run.Accepted), len(run.Rejected),
		payload,
	)
	if err != nil {
		return fmt.Errorf("postgres: save run %s: %w", run.RunID, err)
	}
	return nil
}

// GetRun loads one run by ID. Returns domain.ErrNotFound if it does not exist.
func (s *RunStore) GetRun(ctx context.Context, runID string) (domain.RunResult, error) {
	const query = `SELECT payload FROM runs WHERE run_id = $1`

	var payload []byte
	err := s.pool.QueryRow(ctx, query, runID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RunResult{}, fmt.Errorf("postgres: run %s: %w", runID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("postgres: get run %s: %w", runID, err)
	}

	var run domain.RunResult
	if err := json.Unmarshal(payload, &run); err != nil {
		return domain.RunResult{}, fmt.Errorf("postgres: decode run %s: %w", runID, err)
	}
	return run, nil
}

// ListRecent returns up to limit runs, newest first.
func (s *RunStore) ListRecent(ctx context.Context, limit int) ([]domain.RunResult, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
		SELECT payload FROM runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("postgres: scan run payload: %w", err)
		}
		var run domain.RunResult
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("postgres: decode run payload: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate runs: %w", err)
	}
	return runs, nil
}

var _ domain.RunStore = (*RunStore)(nil)
