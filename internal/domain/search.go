package domain

import "context"

// SearchOptions bound a marketplace search.
type SearchOptions struct {
	MinPrice float64
	MaxPrice float64
	Limit    int
}

// SearchProvider retrieves raw listings for one atomic search string. The
// pipeline is agnostic to the provider's transport and auth; a failed search
// degrades the calling stage, it never aborts a run.
type SearchProvider interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]Listing, error)
}
