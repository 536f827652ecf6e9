package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/filter"
	"github.com/cardscout/cardscout/internal/pricing"
	"github.com/cardscout/cardscout/internal/ruleset"
)

// fakeProvider serves canned listings keyed by the exact query string. It backs
// both the search fan-out and the comp estimator in tests.
type fakeProvider struct {
	results map[string][]domain.Listing
	err     error
}

func (p *fakeProvider) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Listing, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.results[query], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPipelineRules(t *testing.T) *ruleset.Ruleset {
	t.Helper()
	rs := ruleset.Defaults()
	return &rs
}

// addComps registers three tier-A comparables for the cleaned key of title, at
// an ask price that yields the given estimated mean.
func addComps(e *pricing.Estimator, provider *fakeProvider, title string, askPrice float64) {
	key := e.CleanKey(title)
	provider.results[key+" PSA 10"] = []domain.Listing{
		{ID: key + "-c1", TotalPrice: askPrice},
		{ID: key + "-c2", TotalPrice: askPrice},
		{ID: key + "-c3", TotalPrice: askPrice},
	}
}

func newTestEvaluator(t *testing.T, provider *fakeProvider) (*Evaluator, *pricing.Estimator) {
	t.Helper()
	rules := testPipelineRules(t)
	est := pricing.NewEstimator(provider, nil, rules, time.Hour, discardLogger())
	return NewEvaluator(rules, est, discardLogger()), est
}

func trustedSeller(l domain.Listing) domain.Listing {
	l.FeedbackPct = 99.5
	l.FeedbackCount = 2000
	return l
}

func TestEvaluateRejectionStages(t *testing.T) {
	provider := &fakeProvider{results: map[string][]domain.Listing{}}
	ev, est := newTestEvaluator(t, provider)

	// Comparables with an estimated mean of $85 (3 asks at $100 x 0.85).
	compTitle := "2018 Panini Prizm Luka Doncic Rookie #280"
	addComps(est, provider, compTitle, 100)

	tests := []struct {
		name      string
		listing   domain.Listing
		wantStage string
	}{
		{
			name:      "lot rejected at authenticity",
			listing:   trustedSeller(domain.Listing{ID: "l1", Title: "Lot of 5 Luka Doncic Prizm"}),
			wantStage: StageAuthenticity,
		},
		{
			name:      "damage rejected at condition",
			listing:   trustedSeller(domain.Listing{ID: "l2", Title: "Luka Doncic Prizm creased corner"}),
			wantStage: StageCondition,
		},
		{
			name: "too-good-to-be-true price rejected at scam",
			listing: trustedSeller(domain.Listing{
				ID: "l3", Title: compTitle, TotalPrice: 5,
			}),
			wantStage: StageScam,
		},
		{
			name: "suspiciously cheap rejected at outlier",
			listing: trustedSeller(domain.Listing{
				ID: "l4", Title: compTitle, TotalPrice: 30,
			}),
			wantStage: StageOutlier,
		},
		{
			name: "low grade language rejected at scoring",
			listing: trustedSeller(domain.Listing{
				ID: "l5", Title: compTitle + " filler", TotalPrice: 51,
			}),
			wantStage: StageScoring,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accepted, rej := ev.Evaluate(context.Background(), tt.listing, filter.AuthOptions{})
			require.Nil(t, accepted)
			require.NotNil(t, rej)
			assert.Equal(t, tt.wantStage, rej.Stage)
			assert.NotEmpty(t, rej.Reason)
		})
	}
}

func TestEvaluateAcceptsCleanListing(t *testing.T) {
	provider := &fakeProvider{results: map[string][]domain.Listing{}}
	ev, est := newTestEvaluator(t, provider)

	title := "2018 Panini Prizm Luka Doncic Rookie #280"
	addComps(est, provider, title, 100)

	listedRecently := time.Now().Add(-12 * time.Hour)
	l := trustedSeller(domain.Listing{
		ID:          "good-1",
		Title:       title,
		TotalPrice:  51,
		HasImage:    true,
		CreatedAt:   &listedRecently,
		SourceQuery: "luka doncic rookie",
	})

	accepted, rej := ev.Evaluate(context.Background(), l, filter.AuthOptions{})
	require.Nil(t, rej)
	require.NotNil(t, accepted)

	// 51 against the $85 estimated mean lands in the sweet spot.
	assert.Equal(t, domain.BandSweetSpot, accepted.Outlier.Band)
	require.NotNil(t, accepted.Comps)
	assert.Equal(t, 3, accepted.Comps.TierA.Count)
	assert.InDelta(t, 85, accepted.Comps.TierA.Average, 1e-9)
	require.NotNil(t, accepted.Profit)
	assert.True(t, accepted.Profit.Sufficient)
	assert.False(t, accepted.Score.Disqualified)
	assert.Positive(t, accepted.Score.FinalScore)
}

func TestEvaluateNoCompsStillPasses(t *testing.T) {
	provider := &fakeProvider{results: map[string][]domain.Listing{}}
	ev, _ := newTestEvaluator(t, provider)

	l := trustedSeller(domain.Listing{
		ID:         "thin-1",
		Title:      "Obscure Minor Leaguer 1993 #412",
		TotalPrice: 12,
	})

	accepted, rej := ev.Evaluate(context.Background(), l, filter.AuthOptions{})
	require.Nil(t, rej, "thin evidence must never reject")
	require.NotNil(t, accepted)
	assert.Equal(t, domain.BandInsufficient, accepted.Outlier.Band)
	assert.False(t, accepted.Profit.Sufficient)
	assert.Equal(t, domain.RecommendUnknown, accepted.Profit.Recommendation)
}

func TestEvaluateProviderFailureDegrades(t *testing.T) {
	provider := &fakeProvider{err: errors.New("search backend down")}
	ev, _ := newTestEvaluator(t, provider)

	l := trustedSeller(domain.Listing{
		ID:         "deg-1",
		Title:      "2018 Panini Prizm Luka Doncic Rookie #280",
		TotalPrice: 51,
	})

	accepted, rej := ev.Evaluate(context.Background(), l, filter.AuthOptions{})
	require.Nil(t, rej)
	require.NotNil(t, accepted)
	assert.Equal(t, domain.BandInsufficient, accepted.Outlier.Band)
}
