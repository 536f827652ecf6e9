package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardscout/cardscout/internal/domain"
)

func TestProfitInsufficientWithoutComps(t *testing.T) {
	est := Profit(100, domain.ComparableSet{}, testRules(t))
	assert.False(t, est.Sufficient)
	assert.Equal(t, domain.RecommendUnknown, est.Recommendation)
	assert.Zero(t, est.ExpectedValue)
}

func TestProfitBothTiers(t *testing.T) {
	comps := domain.ComparableSet{
		TierA: domain.CompTier{Count: 4, Average: 500},
		TierB: domain.CompTier{Count: 4, Average: 300},
	}

	est := Profit(300, comps, testRules(t))
	assert.True(t, est.Sufficient)
	assert.InDelta(t, 325, est.CostBasis, 1e-9) // 300 + 25 grading fee
	assert.InDelta(t, 175, est.TierAProfit, 1e-9)
	assert.InDelta(t, -25, est.TierBProfit, 1e-9)
	// 0.4*175 + 0.4*(-25); the residual outcome contributes nothing.
	assert.InDelta(t, 60, est.ExpectedValue, 1e-9)
	assert.InDelta(t, 60.0/325.0*100, est.ROIPct, 1e-9)
	// EV is positive but ROI is under the buy threshold.
	assert.Equal(t, domain.RecommendConsider, est.Recommendation)
}

func TestProfitDerivesTierBFromTierA(t *testing.T) {
	comps := domain.ComparableSet{
		TierA: domain.CompTier{Count: 5, Average: 500},
	}

	est := Profit(100, comps, testRules(t))
	assert.True(t, est.Sufficient)
	assert.InDelta(t, 375, est.TierAProfit, 1e-9)
	// Tier-B value approximated as 40% of tier-A: 200 - 125 cost.
	assert.InDelta(t, 75, est.TierBProfit, 1e-9)
	assert.InDelta(t, 180, est.ExpectedValue, 1e-9)
	assert.Equal(t, domain.RecommendStrongBuy, est.Recommendation)
}

func TestProfitInvertsTierAFromTierB(t *testing.T) {
	comps := domain.ComparableSet{
		TierB: domain.CompTier{Count: 5, Average: 200},
	}

	est := Profit(300, comps, testRules(t))
	assert.True(t, est.Sufficient)
	// Tier-A value inverted from tier-B: 200 / 0.4 = 500.
	assert.InDelta(t, 175, est.TierAProfit, 1e-9)
	assert.InDelta(t, -125, est.TierBProfit, 1e-9)
	assert.InDelta(t, 20, est.ExpectedValue, 1e-9)
	assert.Equal(t, domain.RecommendConsider, est.Recommendation)
}

func TestProfitNegativeEVRecommendsPass(t *testing.T) {
	comps := domain.ComparableSet{
		TierA: domain.CompTier{Count: 3, Average: 400},
		TierB: domain.CompTier{Count: 3, Average: 160},
	}

	est := Profit(500, comps, testRules(t))
	assert.True(t, est.Sufficient)
	assert.Negative(t, est.ExpectedValue)
	assert.Equal(t, domain.RecommendPass, est.Recommendation)
}
