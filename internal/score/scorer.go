// Package score combines seller trust, condition quality, query relevance,
// and freshness into one weighted deal score with a disqualification gate.
package score

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/ruleset"
)

const maxCriterionPoints = 10.0

// Scorer produces ScoreBreakdowns for listings that survived the filter
// stages.
type Scorer struct {
	rules *ruleset.Ruleset
}

// NewScorer creates a Scorer over the given ruleset.
func NewScorer(rules *ruleset.Ruleset) *Scorer {
	return &Scorer{rules: rules}
}

// Score evaluates a listing against the originating query. The
// disqualification gate runs before any weighted criterion: a hard-rejecting
// condition phrase zeroes the whole score and skips the remaining criteria.
func (s *Scorer) Score(l domain.Listing, query string, now time.Time) domain.ScoreBreakdown {
	breakdown := domain.ScoreBreakdown{Weights: s.rules.Weights}

	if term, ok := s.disqualified(l); ok {
		skipped := domain.Criterion{MaxPoints: maxCriterionPoints, Rationale: "skipped: listing disqualified"}
		breakdown.Seller = named(skipped, "seller_trust")
		breakdown.Condition = domain.Criterion{
			Name:      "condition_quality",
			MaxPoints: maxCriterionPoints,
			Rationale: fmt.Sprintf("disqualifying condition phrase %q", term),
		}
		breakdown.Relevance = named(skipped, "query_relevance")
		breakdown.Freshness = named(skipped, "freshness")
		breakdown.Disqualified = true
		breakdown.FinalScore = 0
		breakdown.Rating = ratingLabel(0)
		breakdown.Flags = []string{fmt.Sprintf("disqualified: %q", term)}
		return breakdown
	}

	breakdown.Seller = s.sellerTrust(l)
	breakdown.Condition = s.conditionQuality(l)
	rel, mismatch := s.relevance(l, query)
	breakdown.Relevance = rel
	breakdown.Freshness = s.freshness(l, now)

	w := s.rules.Weights
	total := breakdown.Seller.Points*w.Seller +
		breakdown.Condition.Points*w.Condition +
		breakdown.Relevance.Points*w.Relevance +
		breakdown.Freshness.Points*w.Freshness

	breakdown.FinalScore = math.Round(clamp(total, 0, 10)*10) / 10
	breakdown.Rating = ratingLabel(breakdown.FinalScore)
	breakdown.Flags = s.flags(breakdown, mismatch)
	return breakdown
}

// disqualified reports whether the listing text contains a phrase that forces
// the entire score to zero (damage terms or explicit low-grade language).
func (s *Scorer) disqualified(l domain.Listing) (string, bool) {
	text := strings.ToLower(l.Title + " " + l.Condition)
	if term, ok := ruleset.ContainsAny(text, s.rules.Keywords.Damage); ok {
		return term, true
	}
	if term, ok := ruleset.ContainsAny(text, s.rules.Keywords.HardReject); ok {
		return term, true
	}
	return "", false
}

// sellerTrust walks the tier ladder; both thresholds of a tier must be cleared
// simultaneously for its points to apply.
func (s *Scorer) sellerTrust(l domain.Listing) domain.Criterion {
	c := domain.Criterion{Name: "seller_trust", MaxPoints: maxCriterionPoints}
	for _, tier := range s.rules.Thresholds.SellerTiers {
		if l.FeedbackPct >= tier.MinFeedbackPct && l.FeedbackCount >= tier.MinCount {
			c.Points = tier.Points
			c.Rationale = fmt.Sprintf("%.1f%% feedback over %d transactions", l.FeedbackPct, l.FeedbackCount)
			return c
		}
	}
	c.Rationale = fmt.Sprintf("seller below every trust tier (%.1f%%, %d transactions)", l.FeedbackPct, l.FeedbackCount)
	return c
}

// conditionQuality accumulates points for photo presence, mint language, good
// centering/corner signals, and stated high third-party grades.
func (s *Scorer) conditionQuality(l domain.Listing) domain.Criterion {
	c := domain.Criterion{Name: "condition_quality", MaxPoints: maxCriterionPoints}
	text := strings.ToLower(l.Title + " " + l.Condition)
	kw := s.rules.Keywords

	var notes []string
	c.Points = 2.5
	if l.HasImage {
		c.Points += 2.5
		notes = append(notes, "has photos")
	}
	if term, ok := ruleset.ContainsAny(text, kw.Mint); ok {
		c.Points += 2.5
		notes = append(notes, fmt.Sprintf("mint language %q", term))
	}
	if _, ok := ruleset.ContainsAny(text, kw.GoodCentering); ok {
		if _, bad := ruleset.ContainsAny(text, kw.BadCentering); !bad {
			c.Points += 1.25
			notes = append(notes, "good centering stated")
		}
	}
	if _, ok := ruleset.ContainsAny(text, kw.GoodCorners); ok {
		if _, bad := ruleset.ContainsAny(text, kw.BadCorners); !bad {
			c.Points += 1.25
			notes = append(notes, "sharp corners stated")
		}
	}
	if strings.Contains(text, "psa 9") || strings.Contains(text, "psa 10") ||
		strings.Contains(text, "bgs 9.5") || strings.Contains(text, "sgc 10") {
		c.Points += 2.5
		notes = append(notes, "high grade stated")
	}

	c.Points = clamp(c.Points, 0, maxCriterionPoints)
	if len(notes) == 0 {
		c.Rationale = "no condition details stated"
	} else {
		c.Rationale = strings.Join(notes, "; ")
	}
	return c
}

// freshness tiers on listing age. An unknown age gets a neutral mid score
// rather than a penalty.
func (s *Scorer) freshness(l domain.Listing, now time.Time) domain.Criterion {
	c := domain.Criterion{Name: "freshness", MaxPoints: maxCriterionPoints}
	if now.IsZero() {
		now = time.Now()
	}

	auctionDur := time.Duration(s.rules.Thresholds.AuctionDurationDays) * 24 * time.Hour
	age, known := l.Age(now, auctionDur)
	if !known {
		c.Points = 5
		c.Rationale = "listing age unknown"
		return c
	}

	days := age.Hours() / 24
	switch {
	case days < 1:
		c.Points = 10
	case days <= 7:
		c.Points = 5
	case days <= 30:
		c.Points = 2.5
	default:
		c.Points = 0
	}
	c.Rationale = fmt.Sprintf("listed %.1f days ago", days)
	return c
}

// flags derives display-only context flags from a finished breakdown. They
// never feed back into the score.
func (s *Scorer) flags(b domain.ScoreBreakdown, playerMismatch bool) []string {
	var flags []string
	if playerMismatch {
		flags = append(flags, "player mismatch")
	}
	if b.Relevance.Points >= 9 {
		flags = append(flags, "perfect match")
	}
	if b.Seller.Points >= 10 {
		flags = append(flags, "top seller")
	}
	if b.Freshness.Points <= 2.5 && b.Freshness.Rationale != "listing age unknown" {
		flags = append(flags, "old listing")
	}
	return flags
}

// ratingLabel is a fixed step function of the final score.
func ratingLabel(score float64) string {
	switch {
	case score >= 9:
		return "exceptional"
	case score >= 8:
		return "great"
	case score >= 7:
		return "good"
	case score >= 5.5:
		return "decent"
	case score >= 4:
		return "fair"
	default:
		return "skip"
	}
}

func named(c domain.Criterion, name string) domain.Criterion {
	c.Name = name
	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
