package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/ruleset"
)

func newTestRules(t *testing.T) *ruleset.Ruleset {
	t.Helper()
	rs := ruleset.Defaults()
	return &rs
}

func TestAuthFilterCategories(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		listing    domain.Listing
		opts       AuthOptions
		wantPass   bool
		wantReason string
	}{
		{
			name:       "clean single passes",
			listing:    domain.Listing{Title: "2018 Luka Doncic Prizm Rookie"},
			wantPass:   true,
			wantReason: "",
		},
		{
			name:       "lot keyword rejects",
			listing:    domain.Listing{Title: "Lot of 5 Luka Doncic Prizm"},
			wantPass:   false,
			wantReason: `multi-card lot ("lot of")`,
		},
		{
			name:       "explicit card count rejects",
			listing:    domain.Listing{Title: "Luka Doncic Prizm 3 cards"},
			wantPass:   false,
			wantReason: "multi-card lot (3 cards)",
		},
		{
			name:       "bulk keyword rejects",
			listing:    domain.Listing{Title: "Doncic rookie 100+ bulk buy"},
			wantPass:   false,
			wantReason: `multi-card lot ("bulk")`,
		},
		{
			name:       "sealed product rejects",
			listing:    domain.Listing{Title: "2020 Prizm Basketball Hobby Box"},
			wantPass:   false,
			wantReason: `sealed product ("hobby box")`,
		},
		{
			name:       "box topper exception passes",
			listing:    domain.Listing{Title: "2020 Prizm Box Topper Luka Doncic"},
			wantPass:   true,
			wantReason: "",
		},
		{
			name:       "reprint rejects",
			listing:    domain.Listing{Title: "Michael Jordan Fleer REPRINT"},
			wantPass:   false,
			wantReason: `reprint/reproduction ("reprint")`,
		},
		{
			name:       "sticker rejects",
			listing:    domain.Listing{Title: "Luka Doncic sticker Panini"},
			wantPass:   false,
			wantReason: `sticker item ("sticker")`,
		},
		{
			name:       "sticker auto exception passes",
			listing:    domain.Listing{Title: "Luka Doncic sticker auto Panini"},
			wantPass:   true,
			wantReason: "",
		},
		{
			name:       "graded rejected when raw only",
			listing:    domain.Listing{Title: "Luka Doncic PSA 9 Prizm"},
			opts:       AuthOptions{RawOnly: true},
			wantPass:   false,
			wantReason: `already graded ("psa ")`,
		},
		{
			name:     "graded passes when raw only disabled",
			listing:  domain.Listing{Title: "Luka Doncic PSA 9 Prizm"},
			wantPass: true,
		},
		{
			name:       "base rejected when excluded",
			listing:    domain.Listing{Title: "Luka Doncic base card 2020 Prizm"},
			opts:       AuthOptions{ExcludeBase: true},
			wantPass:   false,
			wantReason: `base card excluded ("base card")`,
		},
		{
			name:     "base passes when not excluded",
			listing:  domain.Listing{Title: "Luka Doncic base card 2020 Prizm"},
			wantPass: true,
		},
	}

	f := NewAuthFilter(newTestRules(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Now = now
			pass, reason := f.Check(tt.listing, tt.opts)
			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestAuthFilterFreshness(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-30 * 24 * time.Hour)
	recent := now.Add(-5 * 24 * time.Hour)
	endsTomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		listing  domain.Listing
		wantPass bool
	}{
		{
			name:     "recent listing passes",
			listing:  domain.Listing{Title: "Luka Doncic Prizm", CreatedAt: &recent},
			wantPass: true,
		},
		{
			name:     "stale listing rejects",
			listing:  domain.Listing{Title: "Luka Doncic Prizm", CreatedAt: &old},
			wantPass: false,
		},
		{
			name: "price reduction overrides staleness",
			listing: domain.Listing{
				Title:         "Luka Doncic Prizm",
				CreatedAt:     &old,
				Price:         40,
				OriginalPrice: 60,
			},
			wantPass: true,
		},
		{
			name:     "unknown age passes",
			listing:  domain.Listing{Title: "Luka Doncic Prizm"},
			wantPass: true,
		},
		{
			name:     "auction age estimated from end time",
			listing:  domain.Listing{Title: "Luka Doncic Prizm", EndsAt: &endsTomorrow},
			wantPass: true,
		},
	}

	f := NewAuthFilter(newTestRules(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, reason := f.Check(tt.listing, AuthOptions{Now: now})
			assert.Equal(t, tt.wantPass, pass, "reason: %s", reason)
			if !tt.wantPass {
				assert.Contains(t, reason, "stale listing")
			}
		})
	}
}

func TestDetectCardCount(t *testing.T) {
	tests := []struct {
		text   string
		wantN  int
		wantOK bool
	}{
		{"5 cards in sleeve", 5, true},
		{"single card", 0, false},
		{"10+ rookies", 10, true},
		{"2018 prizm rookie", 0, false},
	}
	for _, tt := range tests {
		n, ok := detectCardCount(tt.text)
		assert.Equal(t, tt.wantOK, ok, tt.text)
		assert.Equal(t, tt.wantN, n, tt.text)
	}
}
