package domain

// ProfitRecommendation is the qualitative tier derived from expected value and
// ROI. It is a monotonic step function: higher EV/ROI never maps to a lower
// tier.
type ProfitRecommendation string

const (
	RecommendStrongBuy ProfitRecommendation = "strong_buy"
	RecommendBuy       ProfitRecommendation = "buy"
	RecommendConsider  ProfitRecommendation = "consider"
	RecommendPass      ProfitRecommendation = "pass"
	// RecommendUnknown marks an estimate with no comparable data behind it.
	RecommendUnknown ProfitRecommendation = "insufficient_data"
)

// ProfitEstimate projects grading profit for a listing from its total price, a
// fixed grading-service fee, and a ComparableSet. When Sufficient is false no
// comparables were found and every numeric field is zero; such an estimate
// must never be fed into scoring as if it were a real number.
type ProfitEstimate struct {
	Sufficient     bool                 `json:"sufficient"`
	CostBasis      float64              `json:"cost_basis"`
	TierAProfit    float64              `json:"tier_a_profit"`
	TierBProfit    float64              `json:"tier_b_profit"`
	ExpectedValue  float64              `json:"expected_value"`
	ROIPct         float64              `json:"roi_pct"`
	Recommendation ProfitRecommendation `json:"recommendation"`
}
