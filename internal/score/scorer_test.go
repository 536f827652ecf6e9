package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/ruleset"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	rs := ruleset.Defaults()
	return NewScorer(&rs)
}

func TestScoreDisqualificationGate(t *testing.T) {
	s := newTestScorer(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		listing domain.Listing
	}{
		{
			name:    "damage term zeroes score",
			listing: domain.Listing{Title: "Luka Doncic Prizm small crease"},
		},
		{
			name:    "low grade language zeroes score",
			listing: domain.Listing{Title: "Luka Doncic Prizm PSA 2"},
		},
		{
			name: "damage in condition text zeroes score",
			listing: domain.Listing{
				Title:         "Luka Doncic Prizm",
				Condition:     "writing on the back",
				HasImage:      true,
				FeedbackPct:   99.9,
				FeedbackCount: 5000,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := s.Score(tt.listing, "luka doncic prizm", now)
			assert.True(t, b.Disqualified)
			assert.Equal(t, 0.0, b.FinalScore)
			assert.Equal(t, "skip", b.Rating)
			require.NotEmpty(t, b.Flags)
			assert.Contains(t, b.Flags[0], "disqualified")
		})
	}
}

func TestScorePerfectListing(t *testing.T) {
	s := newTestScorer(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	listedRecently := now.Add(-12 * time.Hour)

	l := domain.Listing{
		Title:         "2018 Panini Prizm Luka Doncic Rookie RC #280 Pack Fresh Well Centered Sharp Corners",
		HasImage:      true,
		FeedbackPct:   99.5,
		FeedbackCount: 2000,
		CreatedAt:     &listedRecently,
	}

	b := s.Score(l, "2018 luka doncic prizm rookie", now)
	assert.False(t, b.Disqualified)
	assert.Equal(t, 10.0, b.Seller.Points)
	assert.Equal(t, 10.0, b.Condition.Points)
	assert.Equal(t, 10.0, b.Relevance.Points)
	assert.Equal(t, 10.0, b.Freshness.Points)
	assert.Equal(t, 10.0, b.FinalScore)
	assert.Equal(t, "exceptional", b.Rating)
	assert.Contains(t, b.Flags, "perfect match")
	assert.Contains(t, b.Flags, "top seller")
}

func TestScorePlayerMismatchPenalty(t *testing.T) {
	s := newTestScorer(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	l := domain.Listing{Title: "1986 Fleer Larry Bird RC"}
	b := s.Score(l, "michael jordan rookie", now)

	assert.False(t, b.Disqualified)
	// -5 name miss + 2.5 type match + 1 no-year bonus clamps to 0.
	assert.Equal(t, 0.0, b.Relevance.Points)
	assert.Contains(t, b.Flags, "player mismatch")
}

func TestSellerTrustLadder(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name       string
		pct        float64
		count      int
		wantPoints float64
	}{
		{"top tier", 99.5, 2000, 10},
		{"second tier", 98.5, 600, 8},
		{"third tier", 97.5, 150, 6},
		{"fourth tier", 95.0, 50, 4},
		{"volume does not rescue low pct", 94.0, 5000, 2},
		{"below every tier", 85.0, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := s.sellerTrust(domain.Listing{FeedbackPct: tt.pct, FeedbackCount: tt.count})
			assert.Equal(t, tt.wantPoints, c.Points)
		})
	}
}

func TestFreshnessTiers(t *testing.T) {
	s := newTestScorer(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	age := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name       string
		listing    domain.Listing
		wantPoints float64
	}{
		{"under a day", domain.Listing{CreatedAt: age(6 * time.Hour)}, 10},
		{"under a week", domain.Listing{CreatedAt: age(3 * 24 * time.Hour)}, 5},
		{"under a month", domain.Listing{CreatedAt: age(20 * 24 * time.Hour)}, 2.5},
		{"ancient", domain.Listing{CreatedAt: age(40 * 24 * time.Hour)}, 0},
		{"unknown age is neutral", domain.Listing{}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := s.freshness(tt.listing, now)
			assert.Equal(t, tt.wantPoints, c.Points)
		})
	}
}

func TestRatingLabels(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{9.2, "exceptional"},
		{9.0, "exceptional"},
		{8.0, "great"},
		{7.0, "good"},
		{5.5, "decent"},
		{4.0, "fair"},
		{3.9, "skip"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ratingLabel(tt.score), "score %v", tt.score)
	}
}

func TestRelevanceYearProximity(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name      string
		query     string
		title     string
		wantDelta float64
	}{
		{"exact year", "2018 doncic prizm", "2018 luka doncic prizm", yearExactPoints},
		{"within two years", "2018 doncic prizm", "2020 luka doncic prizm", yearNearPoints},
		{"within five years", "2018 doncic prizm", "2022 luka doncic prizm", yearClosePoints},
		{"far year", "2018 doncic prizm", "1999 luka doncic prizm", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var notes []string
			got := s.yearProximity(tt.query, tt.title, &notes)
			assert.Equal(t, tt.wantDelta, got)
		})
	}
}
