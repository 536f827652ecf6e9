// Package ruleset holds the versioned, human-editable keyword taxonomy and
// threshold tables consumed by every pipeline stage. Rules are data, not code:
// operators edit the TOML file and restart, no code changes required.
package ruleset

import (
	"fmt"
	"math"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cardscout/cardscout/internal/domain"
)

// Rule is a two-phase allow-then-deny keyword list. Match checks the allow
// list first and short-circuits to pass, so an exception phrase always wins
// over its rejection keyword ("box topper" beats "box").
type Rule struct {
	Allow []string `toml:"allow"`
	Deny  []string `toml:"deny"`
}

// Match evaluates the rule against text (lowercased by the caller). It returns
// the matched term and whether the rule denies the text. Allowed text is never
// denied regardless of deny matches.
func (r Rule) Match(text string) (term string, denied bool) {
	if t, ok := ContainsAny(text, r.Allow); ok {
		return t, false
	}
	if t, ok := ContainsAny(text, r.Deny); ok {
		return t, true
	}
	return "", false
}

// TypeGroup maps a set of card-type synonyms onto one canonical keyword.
type TypeGroup struct {
	Canonical string   `toml:"canonical"`
	Synonyms  []string `toml:"synonyms"`
}

// SellerTier is one rung of the seller-trust ladder. Both thresholds must be
// cleared simultaneously for the tier's points to apply.
type SellerTier struct {
	MinFeedbackPct float64 `toml:"min_feedback_pct"`
	MinCount       int     `toml:"min_count"`
	Points         float64 `toml:"points"`
}

// Keywords groups the per-stage keyword tables.
type Keywords struct {
	Lot     Rule `toml:"lot"`
	Sealed  Rule `toml:"sealed"`
	Reprint Rule `toml:"reprint"`
	Custom  Rule `toml:"custom"`
	Sticker Rule `toml:"sticker"`
	NonCard Rule `toml:"non_card"`
	Base    Rule `toml:"base"`

	// GradedMarkers identify third-party-graded listings (rejected when the
	// operator wants raw cards only).
	GradedMarkers []string `toml:"graded_markers"`

	// Condition signal classes. Damage terms hard-reject unconditionally.
	Damage        []string `toml:"damage"`
	HardReject    []string `toml:"hard_reject"` // explicit low-grade / as-is language
	GoodCentering []string `toml:"good_centering"`
	BadCentering  []string `toml:"bad_centering"`
	GoodCorners   []string `toml:"good_corners"`
	BadCorners    []string `toml:"bad_corners"`
	Mint          []string `toml:"mint"`
	PhotoLanguage []string `toml:"photo_language"`

	// ScamTerms indicate the photographed item differs from the claimed card.
	ScamTerms []string `toml:"scam_terms"`

	// TitleNoise is stripped from titles when building comparable search keys.
	TitleNoise []string `toml:"title_noise"`
}

// Thresholds groups every tunable numeric knob.
type Thresholds struct {
	// Comparable pricing.
	CompCorrection float64 `toml:"comp_correction"` // ask -> estimated sale, < 1
	GradingFee     float64 `toml:"grading_fee"`
	TierBFraction  float64 `toml:"tier_b_fraction"` // tier-B value as fraction of tier-A when no tier-B comps
	EVTierAWeight  float64 `toml:"ev_tier_a_weight"`
	EVTierBWeight  float64 `toml:"ev_tier_b_weight"`
	MinCompSamples int     `toml:"min_comp_samples"`
	MaxCompSamples int     `toml:"max_comp_samples"` // retained per tier for display

	// Outlier bands, as percentages of the comparable mean. Boundaries are
	// inclusive on the acceptable side: exactly 40% and exactly 80% pass.
	RejectBelowPct float64 `toml:"reject_below_pct"`
	SweetLowPct    float64 `toml:"sweet_low_pct"`
	SweetHighPct   float64 `toml:"sweet_high_pct"`
	RejectAbovePct float64 `toml:"reject_above_pct"`

	// Freshness.
	MaxListingAgeDays   int `toml:"max_listing_age_days"`
	AuctionDurationDays int `toml:"auction_duration_days"`

	// Scam detection.
	ScamPriceFloorPct  float64 `toml:"scam_price_floor_pct"` // % of estimated value
	ScamMinFeedbackPct float64 `toml:"scam_min_feedback_pct"`
	ScamMinCount       int     `toml:"scam_min_count"`

	// Seller-trust ladder, highest tier first.
	SellerTiers []SellerTier `toml:"seller_tiers"`

	// Query expansion.
	MaxAtomicSearches int `toml:"max_atomic_searches"`

	// Alerting.
	AlertMinScore float64 `toml:"alert_min_score"`
}

// Ruleset is the complete taxonomy plus thresholds and score weights.
type Ruleset struct {
	Version    string              `toml:"version"`
	Keywords   Keywords            `toml:"keywords"`
	CardTypes  []TypeGroup         `toml:"card_types"`
	Brands     []string            `toml:"brands"`
	Surnames   []string            `toml:"surnames"`
	Thresholds Thresholds          `toml:"thresholds"`
	Weights    domain.ScoreWeights `toml:"weights"`
}

// Load reads a TOML ruleset file over the built-in defaults and validates the
// result. A malformed ruleset is fatal: every stage depends on it.
func Load(path string) (*Ruleset, error) {
	rs := Defaults()
	if path != "" {
		if _, err := toml.DecodeFile(path, &rs); err != nil {
			return nil, fmt.Errorf("ruleset: decode %s: %w", path, err)
		}
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Validate checks the ruleset for values that would make a stage misbehave
// and returns a combined error describing every problem found.
func (rs *Ruleset) Validate() error {
	var errs []string

	if rs.Thresholds.CompCorrection <= 0 || rs.Thresholds.CompCorrection >= 1 {
		errs = append(errs, fmt.Sprintf("comp_correction must be in (0,1), got %v", rs.Thresholds.CompCorrection))
	}
	if rs.Thresholds.TierBFraction <= 0 || rs.Thresholds.TierBFraction >= 1 {
		errs = append(errs, fmt.Sprintf("tier_b_fraction must be in (0,1), got %v", rs.Thresholds.TierBFraction))
	}
	if rs.Thresholds.MinCompSamples < 1 {
		errs = append(errs, "min_comp_samples must be >= 1")
	}
	t := rs.Thresholds
	if !(t.RejectBelowPct < t.SweetLowPct && t.SweetLowPct < t.SweetHighPct && t.SweetHighPct < t.RejectAbovePct) {
		errs = append(errs, fmt.Sprintf("outlier bands must be strictly increasing, got %v < %v < %v < %v",
			t.RejectBelowPct, t.SweetLowPct, t.SweetHighPct, t.RejectAbovePct))
	}
	if t.MaxListingAgeDays < 1 {
		errs = append(errs, "max_listing_age_days must be >= 1")
	}
	if t.MaxAtomicSearches < 1 {
		errs = append(errs, "max_atomic_searches must be >= 1")
	}
	if math.Abs(rs.Weights.Sum()-1.0) > 1e-9 {
		errs = append(errs, fmt.Sprintf("score weights must sum to 1.0, got %v", rs.Weights.Sum()))
	}
	if len(rs.Thresholds.SellerTiers) == 0 {
		errs = append(errs, "seller_tiers must not be empty")
	}
	for i := 1; i < len(rs.Thresholds.SellerTiers); i++ {
		if rs.Thresholds.SellerTiers[i].Points > rs.Thresholds.SellerTiers[i-1].Points {
			errs = append(errs, "seller_tiers must be ordered highest tier first")
			break
		}
	}
	if len(rs.CardTypes) == 0 {
		errs = append(errs, "card_types must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", domain.ErrInvalidRuleset, strings.Join(errs, "\n  - "))
	}
	return nil
}

// ContainsAny reports whether any keyword occurs in text on word boundaries
// and returns the first that does. Both sides are compared lowercased.
// Keywords may span multiple words; a trailing plural "s" on the occurrence
// still matches. Boundary checks keep short keywords from firing inside
// unrelated words: "rc" never matches "marcus", "hole" never matches "whole".
func ContainsAny(text string, keywords []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if containsWord(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

// containsWord reports whether kw occurs in text with word boundaries on both
// sides. A boundary is the text edge or any non-alphanumeric byte; keyword
// edges that are themselves non-alphanumeric (e.g. "psa " or "/25") need no
// adjacent boundary. A plural "s" directly after the occurrence counts as part
// of the match.
func containsWord(text, kw string) bool {
	for start := 0; start <= len(text)-len(kw); {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)
		if boundaryBefore(text, kw, i) && boundaryAfter(text, kw, end) {
			return true
		}
		start = i + 1
	}
	return false
}

func boundaryBefore(text, kw string, i int) bool {
	if !isWordByte(kw[0]) {
		return true
	}
	return i == 0 || !isWordByte(text[i-1])
}

func boundaryAfter(text, kw string, end int) bool {
	if !isWordByte(kw[len(kw)-1]) {
		return true
	}
	if end == len(text) || !isWordByte(text[end]) {
		return true
	}
	// Tolerate a plural form of the keyword.
	if text[end] == 's' {
		return end+1 == len(text) || !isWordByte(text[end+1])
	}
	return false
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// CanonicalTypes returns the canonical keyword of every type group whose
// synonyms occur in text, in taxonomy order and de-duplicated.
func (rs *Ruleset) CanonicalTypes(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, g := range rs.CardTypes {
		if _, ok := ContainsAny(lower, g.Synonyms); ok {
			out = append(out, g.Canonical)
		}
	}
	return out
}

// TypeGroupFor returns the type group owning the given canonical keyword.
func (rs *Ruleset) TypeGroupFor(canonical string) (TypeGroup, bool) {
	for _, g := range rs.CardTypes {
		if g.Canonical == canonical {
			return g, true
		}
	}
	return TypeGroup{}, false
}

// IsBrand reports whether the word is a known card brand or set token.
func (rs *Ruleset) IsBrand(word string) bool {
	w := strings.ToLower(strings.Trim(word, ",."))
	for _, b := range rs.Brands {
		if w == b {
			return true
		}
	}
	return false
}

// IsTypeWord reports whether the word belongs to any card-type synonym group.
// A trailing plural "s" is ignored.
func (rs *Ruleset) IsTypeWord(word string) bool {
	w := strings.ToLower(strings.Trim(word, ",."))
	ws := strings.TrimSuffix(w, "s")
	for _, g := range rs.CardTypes {
		for _, syn := range g.Synonyms {
			if w == syn || ws == syn {
				return true
			}
		}
	}
	return false
}

// IsKnownSurname reports whether the word is in the curated surname list.
func (rs *Ruleset) IsKnownSurname(word string) bool {
	w := strings.ToLower(strings.Trim(word, ",."))
	for _, s := range rs.Surnames {
		if w == s {
			return true
		}
	}
	return false
}
