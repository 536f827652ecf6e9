// Package pricing derives comparable-price estimates, profit projections, and
// price-outlier verdicts for listings. All prices produced here are estimates
// from discounted active asks: no sold-price feed is queryable, and the
// estimated basis is carried in the data so downstream consumers can never
// mistake it for verified transaction data.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/ruleset"
)

// Grading-tier query suffixes appended to the cleaned key when searching for
// comparables.
const (
	tierAQuery = "PSA 10"
	tierBQuery = "PSA 9"
)

var (
	yearRe       = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	cardNumberRe = regexp.MustCompile(`#\s?\w+\b`)
)

// Estimator fetches active-listing comparables for a cleaned search key and
// caches them so one run never issues duplicate lookups for the same card.
type Estimator struct {
	provider domain.SearchProvider
	cache    domain.CompCache
	rules    *ruleset.Ruleset
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewEstimator creates an Estimator. cache may be nil, in which case every
// call queries the provider.
func NewEstimator(provider domain.SearchProvider, cache domain.CompCache, rules *ruleset.Ruleset, cacheTTL time.Duration, logger *slog.Logger) *Estimator {
	return &Estimator{
		provider: provider,
		cache:    cache,
		rules:    rules,
		cacheTTL: cacheTTL,
		logger:   logger.With(slog.String("component", "comp_estimator")),
	}
}

// CleanKey reduces a listing title to a comparable search key: the year token,
// a brand keyword, an insert/parallel keyword, up to one recognized player
// surname, and the card-number token, with grading and condition noise
// stripped. When fewer than two keywords can be extracted it falls back to a
// longer cleaned-title prefix.
func (e *Estimator) CleanKey(title string) string {
	lower := strings.ToLower(title)

	var parts []string
	if y := yearRe.FindString(lower); y != "" {
		parts = append(parts, y)
	}
	for _, tok := range strings.Fields(lower) {
		if e.rules.IsBrand(tok) {
			parts = append(parts, strings.Trim(tok, ",."))
			break
		}
	}
	for _, tok := range strings.Fields(lower) {
		if e.rules.IsKnownSurname(tok) {
			parts = append(parts, strings.Trim(tok, ",."))
			break
		}
	}
	if types := e.rules.CanonicalTypes(lower); len(types) > 0 {
		parts = append(parts, types[0])
	}
	if num := cardNumberRe.FindString(lower); num != "" {
		parts = append(parts, strings.ReplaceAll(num, " ", ""))
	}

	if len(parts) >= 2 {
		return strings.Join(parts, " ")
	}

	// Too few structured keywords: fall back to a cleaned title prefix.
	cleaned := lower
	for _, noise := range e.rules.Keywords.TitleNoise {
		cleaned = strings.ReplaceAll(cleaned, noise, " ")
	}
	for _, marker := range e.rules.Keywords.GradedMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, " ")
	}
	fields := strings.Fields(cleaned)
	if len(fields) > 6 {
		fields = fields[:6]
	}
	return strings.Join(fields, " ")
}

// Comparables returns the two-tier comparable set for a cleaned key, from
// cache when possible. A provider failure degrades the affected tier to zero
// samples; it is never fatal.
func (e *Estimator) Comparables(ctx context.Context, key string) domain.ComparableSet {
	if e.cache != nil {
		if set, err := e.cache.Get(ctx, key); err == nil {
			return set
		} else if !errors.Is(err, domain.ErrNotFound) {
			e.logger.WarnContext(ctx, "comp cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	set := domain.ComparableSet{
		Key:   key,
		TierA: e.fetchTier(ctx, key, tierAQuery),
		TierB: e.fetchTier(ctx, key, tierBQuery),
		Basis: domain.BasisEstimated,
	}

	if e.cache != nil && !set.Empty() {
		if err := e.cache.Set(ctx, set, e.cacheTTL); err != nil {
			e.logger.WarnContext(ctx, "comp cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return set
}

// fetchTier queries active listings for one grading tier and converts each ask
// into an estimated transaction price via the correction factor.
func (e *Estimator) fetchTier(ctx context.Context, key, tier string) domain.CompTier {
	query := fmt.Sprintf("%s %s", key, tier)
	listings, err := e.provider.Search(ctx, query, domain.SearchOptions{Limit: 25})
	if err != nil {
		e.logger.WarnContext(ctx, "comparable search failed, degrading to no data",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return domain.CompTier{}
	}

	correction := e.rules.Thresholds.CompCorrection
	maxSamples := e.rules.Thresholds.MaxCompSamples

	var out domain.CompTier
	var sum float64
	for _, l := range listings {
		if l.TotalPrice <= 0 {
			continue
		}
		est := l.TotalPrice * correction
		sum += est
		out.Count++
		if len(out.Samples) < maxSamples {
			out.Samples = append(out.Samples, domain.CompSample{
				EstimatedPrice: est,
				Source:         l.ID,
			})
		}
	}
	if out.Count > 0 {
		out.Average = sum / float64(out.Count)
	}
	return out
}
