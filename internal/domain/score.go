package domain

// Criterion holds one scoring criterion's outcome. Points is in [0, MaxPoints]
// after clamping; Rationale is the human-readable explanation shown to the
// operator.
type Criterion struct {
	Name      string  `json:"name"`
	Points    float64 `json:"points"`
	MaxPoints float64 `json:"max_points"`
	Rationale string  `json:"rationale"`
}

// ScoreWeights are the per-criterion weights. They must sum to 1.0; the
// ruleset loader rejects any set that does not.
type ScoreWeights struct {
	Seller    float64 `json:"seller" toml:"seller"`
	Condition float64 `json:"condition" toml:"condition"`
	Relevance float64 `json:"relevance" toml:"relevance"`
	Freshness float64 `json:"freshness" toml:"freshness"`
}

// Sum returns the total of all weights.
func (w ScoreWeights) Sum() float64 {
	return w.Seller + w.Condition + w.Relevance + w.Freshness
}

// ScoreBreakdown is the full multi-criterion deal score for one listing.
// When Disqualified is set the condition scan hit a hard-rejecting phrase and
// FinalScore is forced to 0 regardless of the other criteria.
type ScoreBreakdown struct {
	Seller       Criterion    `json:"seller"`
	Condition    Criterion    `json:"condition"`
	Relevance    Criterion    `json:"relevance"`
	Freshness    Criterion    `json:"freshness"`
	Weights      ScoreWeights `json:"weights"`
	FinalScore   float64      `json:"final_score"` // [0,10], one decimal
	Disqualified bool         `json:"disqualified"`
	Rating       string       `json:"rating"`
	Flags        []string     `json:"flags,omitempty"`
}
