package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardscout/cardscout/internal/domain"
)

func TestScamDetector(t *testing.T) {
	goodSeller := domain.Listing{
		Title:         "2018 Luka Doncic Prizm Rookie",
		TotalPrice:    50,
		FeedbackPct:   99.5,
		FeedbackCount: 2000,
	}

	tests := []struct {
		name           string
		mutate         func(l *domain.Listing)
		estimatedValue float64
		wantPass       bool
		wantContains   string
	}{
		{
			name:           "clean listing passes",
			mutate:         func(l *domain.Listing) {},
			estimatedValue: 100,
			wantPass:       true,
		},
		{
			name: "scam term rejects",
			mutate: func(l *domain.Listing) {
				l.Condition = "photo of the actual card, read description"
			},
			estimatedValue: 100,
			wantPass:       false,
			wantContains:   "item mismatch",
		},
		{
			name: "price far below value rejects",
			mutate: func(l *domain.Listing) {
				l.TotalPrice = 5
			},
			estimatedValue: 100,
			wantPass:       false,
			wantContains:   "below 10% of estimated value",
		},
		{
			name: "low price passes when value unknown",
			mutate: func(l *domain.Listing) {
				l.TotalPrice = 0.99
			},
			estimatedValue: 0,
			wantPass:       true,
		},
		{
			name: "price at floor passes",
			mutate: func(l *domain.Listing) {
				l.TotalPrice = 10
			},
			estimatedValue: 100,
			wantPass:       true,
		},
		{
			name: "both seller metrics low rejects",
			mutate: func(l *domain.Listing) {
				l.FeedbackPct = 85
				l.FeedbackCount = 5
			},
			estimatedValue: 100,
			wantPass:       false,
			wantContains:   "untrustworthy seller",
		},
		{
			name: "low feedback pct alone passes",
			mutate: func(l *domain.Listing) {
				l.FeedbackPct = 85
				l.FeedbackCount = 500
			},
			estimatedValue: 100,
			wantPass:       true,
		},
		{
			name: "low feedback count alone passes",
			mutate: func(l *domain.Listing) {
				l.FeedbackPct = 100
				l.FeedbackCount = 2
			},
			estimatedValue: 100,
			wantPass:       true,
		},
	}

	d := NewScamDetector(newTestRules(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := goodSeller
			tt.mutate(&l)
			pass, reason := d.Check(l, tt.estimatedValue)
			assert.Equal(t, tt.wantPass, pass, "reason: %s", reason)
			if tt.wantContains != "" {
				assert.Contains(t, reason, tt.wantContains)
			}
		})
	}
}
