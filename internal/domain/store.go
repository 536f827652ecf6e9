package domain

import (
	"context"
	"time"
)

// SeenStore is the append-only ledger of listing IDs the operator has already
// been shown. MarkSeen is idempotent per listing ID; marking an ID twice is
// not an error.
type SeenStore interface {
	MarkSeen(ctx context.Context, ids []string) error
	// FilterUnseen returns the subset of ids that have not been marked seen.
	FilterUnseen(ctx context.Context, ids []string) ([]string, error)
}

// RunStore persists pipeline run results for auditability, including rejected
// listings and their reasons.
type RunStore interface {
	SaveRun(ctx context.Context, run RunResult) error
	GetRun(ctx context.Context, runID string) (RunResult, error)
	// ListRecent returns up to limit runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]RunResult, error)
}

// CompCache caches comparable sets by cleaned search key so one run never
// issues duplicate external lookups for the same card. Get returns
// ErrNotFound on a miss.
type CompCache interface {
	Get(ctx context.Context, key string) (ComparableSet, error)
	Set(ctx context.Context, set ComparableSet, ttl time.Duration) error
}

// SeenCache is a fast best-effort front for the SeenStore. Losing entries is
// acceptable; the store remains the source of truth.
type SeenCache interface {
	Add(ctx context.Context, ids []string) error
	Contains(ctx context.Context, ids []string) (map[string]bool, error)
}

// BlobWriter uploads a blob to object storage under the given path.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}
