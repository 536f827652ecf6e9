package pricing

import (
	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/ruleset"
)

// Profit projects grading profit for a listing from its total price and a
// comparable set. With no comparables in either tier the estimate is marked
// insufficient and all profit math is skipped.
func Profit(totalPrice float64, comps domain.ComparableSet, rules *ruleset.Ruleset) domain.ProfitEstimate {
	if comps.Empty() {
		return domain.ProfitEstimate{
			Sufficient:     false,
			Recommendation: domain.RecommendUnknown,
		}
	}

	t := rules.Thresholds
	costBasis := totalPrice + t.GradingFee

	// Tier-A value from tier-A comps; when only tier-B comps exist, the
	// tier-B fraction is inverted to approximate tier-A.
	tierAValue := comps.TierA.Average
	if comps.TierA.Count == 0 {
		tierAValue = comps.TierB.Average / t.TierBFraction
	}

	tierBValue := comps.TierB.Average
	if comps.TierB.Count == 0 {
		tierBValue = tierAValue * t.TierBFraction
	}

	tierAProfit := tierAValue - costBasis
	tierBProfit := tierBValue - costBasis

	// The residual probability mass (a lower or ungraded outcome) contributes
	// zero expected value, which keeps the blend conservative.
	ev := t.EVTierAWeight*tierAProfit + t.EVTierBWeight*tierBProfit

	roi := 0.0
	if costBasis > 0 {
		roi = ev / costBasis * 100
	}

	return domain.ProfitEstimate{
		Sufficient:     true,
		CostBasis:      costBasis,
		TierAProfit:    tierAProfit,
		TierBProfit:    tierBProfit,
		ExpectedValue:  ev,
		ROIPct:         roi,
		Recommendation: recommend(ev, roi),
	}
}

// recommend maps (expected value, ROI) onto a qualitative tier. The mapping is
// monotonic: improving either input never lowers the tier.
func recommend(ev, roi float64) domain.ProfitRecommendation {
	switch {
	case ev >= 150 && roi >= 50:
		return domain.RecommendStrongBuy
	case ev >= 50 && roi >= 20:
		return domain.RecommendBuy
	case ev > 0:
		return domain.RecommendConsider
	default:
		return domain.RecommendPass
	}
}
