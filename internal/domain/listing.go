package domain

import "time"

// Listing is one marketplace item snapshot. It is created once per retrieval
// cycle by the search provider's normalizer and is immutable for the rest of
// the pipeline run. TotalPrice is always Price+Shipping and is the only price
// the pipeline consumes downstream.
type Listing struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Price         float64    `json:"price"`
	Shipping      float64    `json:"shipping"`
	TotalPrice    float64    `json:"total_price"`
	Condition     string     `json:"condition"` // free text, may be empty
	FeedbackPct   float64    `json:"feedback_pct"`
	FeedbackCount int        `json:"feedback_count"`
	CategoryPath  string     `json:"category_path"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	HasImage      bool       `json:"has_image"`
	// OriginalPrice is the pre-discount ask price when the marketplace reports
	// a markdown, zero otherwise. A value above Price means the seller
	// recently cut the price.
	OriginalPrice float64 `json:"original_price,omitempty"`
	ItemURL       string  `json:"item_url,omitempty"`
	// SourceQuery is the atomic search string that retrieved this listing.
	SourceQuery string `json:"source_query,omitempty"`
}

// PriceReduced reports whether the listing shows evidence of a recent price
// reduction. A reduced price overrides the staleness check.
func (l Listing) PriceReduced() bool {
	return l.OriginalPrice > 0 && l.OriginalPrice > l.Price
}

// Age returns the listing's age at the given time. When no creation timestamp
// is present the age is estimated by subtracting auctionDuration from the end
// timestamp. The second return value is false when neither timestamp is
// available, in which case callers must treat the age as unknown rather than
// stale.
func (l Listing) Age(now time.Time, auctionDuration time.Duration) (time.Duration, bool) {
	if l.CreatedAt != nil {
		return now.Sub(*l.CreatedAt), true
	}
	if l.EndsAt != nil {
		started := l.EndsAt.Add(-auctionDuration)
		return now.Sub(started), true
	}
	return 0, false
}
