package filter

import (
	"fmt"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/ruleset"
)

// ScamDetector runs three independent fraud heuristics; any one failing fails
// the whole check.
type ScamDetector struct {
	rules *ruleset.Ruleset
}

// NewScamDetector creates a ScamDetector over the given ruleset.
func NewScamDetector(rules *ruleset.Ruleset) *ScamDetector {
	return &ScamDetector{rules: rules}
}

// Check screens the listing. estimatedValue is the comparable market value
// when one has already been computed, or 0 when unknown; the
// too-good-to-be-true price check only runs when a value exists.
func (d *ScamDetector) Check(l domain.Listing, estimatedValue float64) (bool, string) {
	text := l.Title + " " + l.Condition
	if term, ok := ruleset.ContainsAny(text, d.rules.Keywords.ScamTerms); ok {
		return false, fmt.Sprintf("listing text suggests item mismatch (%q)", term)
	}

	if estimatedValue > 0 {
		floor := estimatedValue * d.rules.Thresholds.ScamPriceFloorPct / 100
		if l.TotalPrice < floor {
			return false, fmt.Sprintf("price $%.2f below %.0f%% of estimated value $%.2f",
				l.TotalPrice, d.rules.Thresholds.ScamPriceFloorPct, estimatedValue)
		}
	}

	// Both seller metrics must be low simultaneously; neither alone fails.
	if l.FeedbackPct < d.rules.Thresholds.ScamMinFeedbackPct && l.FeedbackCount < d.rules.Thresholds.ScamMinCount {
		return false, fmt.Sprintf("untrustworthy seller (%.1f%% feedback, %d transactions)",
			l.FeedbackPct, l.FeedbackCount)
	}

	return true, ""
}
