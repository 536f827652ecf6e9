package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardscout/cardscout/internal/domain"
)

// SeenStore implements domain.SeenStore using PostgreSQL. It is the durable
// source of truth for which listings have already been surfaced.
type SeenStore struct {
	pool *pgxpool.Pool
}

// NewSeenStore creates a new SeenStore backed by the given connection pool.
func NewSeenStore(pool *pgxpool.Pool) *SeenStore {
	return &SeenStore{pool: pool}
}

// MarkSeen records the listing IDs. IDs already present are left untouched,
// so marking is idempotent.
func (s *SeenStore) MarkSeen(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO seen_listings (listing_id)
		VALUES ($1)
		ON CONFLICT (listing_id) DO NOTHING`
	for _, id := range ids {
		batch.Queue(query, id)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range ids {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: mark seen: %w", err)
		}
	}
	return nil
}

// FilterUnseen returns the subset of ids with no seen_listings row, preserving
// input order.
func (s *SeenStore) FilterUnseen(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT listing_id FROM seen_listings
		WHERE listing_id = ANY($1)`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres: filter unseen: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan seen id: %w", err)
		}
		seen[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate seen ids: %w", err)
	}

	unseen := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			unseen = append(unseen, id)
		}
	}
	return unseen, nil
}

var _ domain.SeenStore = (*SeenStore)(nil)
