package domain

// GradeTier identifies which grading outcome a comparable price refers to.
type GradeTier string

const (
	// TierA is the top grading outcome (e.g. PSA 10).
	TierA GradeTier = "tier_a"
	// TierB is the second-best grading outcome (e.g. PSA 9).
	TierB GradeTier = "tier_b"
)

// CompSample is one comparable price observation. EstimatedPrice is an active
// listing's ask price multiplied by a correction factor below 1; it is an
// estimate of a realistic transaction price, never verified sold data.
type CompSample struct {
	EstimatedPrice float64 `json:"estimated_price"`
	Source         string  `json:"source"` // listing ID or URL the estimate came from
}

// CompTier holds the comparable estimate for one grading tier.
type CompTier struct {
	Count   int          `json:"count"`
	Average float64      `json:"average"`
	Samples []CompSample `json:"samples,omitempty"` // up to 5, for display
}

// ComparableSet is the per-listing market value estimate at the two grading
// tiers. Basis is always BasisEstimated: there is no sold-price feed to query,
// so every number here is derived from discounted active asks and must be
// presented as such.
type ComparableSet struct {
	Key   string   `json:"key"` // cleaned search key the comps were fetched for
	TierA CompTier `json:"tier_a"`
	TierB CompTier `json:"tier_b"`
	Basis string   `json:"basis"`
}

// BasisEstimated labels comparable prices derived from discounted active
// listings rather than verified transactions.
const BasisEstimated = "estimated_from_active_listings"

// Empty reports whether no comparables were found in either tier.
func (c ComparableSet) Empty() bool {
	return c.TierA.Count == 0 && c.TierB.Count == 0
}
