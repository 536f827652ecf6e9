package domain

// OutlierBand classifies a listing's price against its comparable mean.
type OutlierBand string

const (
	// BandTooCheap is below 40% of the comparable mean: likely damaged or
	// counterfeit, reject.
	BandTooCheap OutlierBand = "too_cheap"
	// BandGood covers the acceptable 40-50% and 70-80% ranges.
	BandGood OutlierBand = "good"
	// BandSweetSpot is the 50-70% range with the best risk-adjusted margin.
	BandSweetSpot OutlierBand = "sweet_spot"
	// BandTooExpensive is above 80% of the mean: not enough resale margin.
	BandTooExpensive OutlierBand = "too_expensive"
	// BandInsufficient means too few comparable samples for a verdict. An
	// insufficient verdict always passes; absence of evidence never rejects.
	BandInsufficient OutlierBand = "insufficient_data"
)

// OutlierVerdict is the price-outlier classification for one listing.
type OutlierVerdict struct {
	Band        OutlierBand `json:"band"`
	PctOfMean   float64     `json:"pct_of_mean"`
	SampleCount int         `json:"sample_count"`
	Pass        bool        `json:"pass"`
	Reason      string      `json:"reason"`
}
