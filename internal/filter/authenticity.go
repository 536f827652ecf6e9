// Package filter implements the listing rejection stages: authenticity and
// category screening, condition analysis, and the fraud heuristics. Every
// rejection carries a human-readable reason; rejections are expected and
// frequent, so they are reported as values, never as errors.
package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/ruleset"
)

var (
	// "5 cards", "10 card", "100+"
	cardCountRe = regexp.MustCompile(`\b(\d+)\s*cards?\b`)
	plusCountRe = regexp.MustCompile(`\b(\d+)\+`)
)

// AuthOptions control the optional authenticity checks.
type AuthOptions struct {
	// RawOnly rejects third-party-graded listings.
	RawOnly bool
	// ExcludeBase rejects base cards when the operator wants inserts and
	// parallels only.
	ExcludeBase bool
	// Now is the reference time for the freshness check; zero means time.Now.
	Now time.Time
}

// AuthFilter rejects lots, sealed product, reprints, customs, stickers,
// non-card items, graded cards and stale listings. Checks run in order and
// short-circuit on the first failure; within every category the exception
// list is evaluated before the rejection list.
type AuthFilter struct {
	rules *ruleset.Ruleset
}

// NewAuthFilter creates an AuthFilter over the given ruleset.
func NewAuthFilter(rules *ruleset.Ruleset) *AuthFilter {
	return &AuthFilter{rules: rules}
}

// Check runs all authenticity and category checks against the listing. The
// returned reason is empty when the listing passes.
func (f *AuthFilter) Check(l domain.Listing, opts AuthOptions) (bool, string) {
	text := strings.ToLower(l.Title + " " + l.Condition)
	kw := f.rules.Keywords

	if term, denied := kw.Lot.Match(text); denied {
		return false, fmt.Sprintf("multi-card lot (%q)", term)
	}
	if n, ok := detectCardCount(text); ok && n > 1 {
		return false, fmt.Sprintf("multi-card lot (%d cards)", n)
	}
	if term, denied := kw.Sealed.Match(text); denied {
		return false, fmt.Sprintf("sealed product (%q)", term)
	}
	if term, denied := kw.Reprint.Match(text); denied {
		return false, fmt.Sprintf("reprint/reproduction (%q)", term)
	}
	if term, denied := kw.Custom.Match(text); denied {
		return false, fmt.Sprintf("custom/fan-made (%q)", term)
	}
	if term, denied := kw.Sticker.Match(text); denied {
		return false, fmt.Sprintf("sticker item (%q)", term)
	}
	if term, denied := kw.NonCard.Match(text); denied {
		return false, fmt.Sprintf("non-card item (%q)", term)
	}
	if opts.RawOnly {
		if term, ok := ruleset.ContainsAny(text, kw.GradedMarkers); ok {
			return false, fmt.Sprintf("already graded (%q)", term)
		}
	}
	if opts.ExcludeBase {
		if term, denied := kw.Base.Match(text); denied {
			return false, fmt.Sprintf("base card excluded (%q)", term)
		}
	}
	if ok, reason := f.checkFreshness(l, opts.Now); !ok {
		return false, reason
	}
	return true, ""
}

// checkFreshness rejects listings older than the configured maximum. A recent
// price reduction always overrides staleness, and an unknown age passes:
// absence of evidence is not evidence of staleness.
func (f *AuthFilter) checkFreshness(l domain.Listing, now time.Time) (bool, string) {
	if now.IsZero() {
		now = time.Now()
	}

	auctionDur := time.Duration(f.rules.Thresholds.AuctionDurationDays) * 24 * time.Hour
	age, known := l.Age(now, auctionDur)
	if !known {
		return true, ""
	}

	maxAge := time.Duration(f.rules.Thresholds.MaxListingAgeDays) * 24 * time.Hour
	if age <= maxAge {
		return true, ""
	}
	if l.PriceReduced() {
		return true, ""
	}
	return false, fmt.Sprintf("stale listing (%.0f days old, max %d)", age.Hours()/24, f.rules.Thresholds.MaxListingAgeDays)
}

// detectCardCount finds an explicit card count in the text, from either the
// "<N> card(s)" or the "<N>+" pattern.
func detectCardCount(text string) (int, bool) {
	if m := cardCountRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	if m := plusCountRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}
