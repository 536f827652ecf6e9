// Package query expands one free-text search phrase into a minimal covering
// set of atomic search strings.
package query

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/ruleset"
)

const (
	minCardYear = 1900
	maxCardYear = 2100

	// maxNameWords caps how many leading words of a comma segment can form a
	// candidate player name.
	maxNameWords = 3
)

var (
	betweenRangeRe = regexp.MustCompile(`\bbetween\s+(\d{4})\s+and\s+(\d{4})\b`)
	dashRangeRe    = regexp.MustCompile(`\b(\d{4})\s*-\s*(\d{4})\b`)
	toRangeRe      = regexp.MustCompile(`\b(\d{4})\s+to\s+(\d{4})\b`)
	yearTokenRe    = regexp.MustCompile(`^\d{4}(-\d{4})?$`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
)

// Expander turns free-text phrases into QueryPlans using the ruleset's brand,
// surname, and card-type taxonomies.
type Expander struct {
	rules  *ruleset.Ruleset
	logger *slog.Logger
}

// NewExpander creates an Expander.
func NewExpander(rules *ruleset.Ruleset, logger *slog.Logger) *Expander {
	return &Expander{
		rules:  rules,
		logger: logger.With(slog.String("component", "query_expander")),
	}
}

// Expand builds the QueryPlan for a phrase. The atomic search count is always
// players x max(1,years) x max(1,types), capped at the configured maximum;
// when nothing multi-valued is detected the plan contains exactly the original
// phrase.
func (e *Expander) Expand(phrase string) domain.QueryPlan {
	phrase = strings.TrimSpace(phrase)

	plan := domain.QueryPlan{Phrase: phrase}
	plan.Years = e.detectYearRange(phrase)
	plan.CardTypes = e.rules.CanonicalTypes(phrase)

	players, remainder := e.detectPlayers(phrase)
	if len(players) >= 2 {
		plan.Players = players
		for _, p := range players {
			sub := strings.TrimSpace(p + " " + remainder)
			plan.Searches = append(plan.Searches, e.expandSingle(sub)...)
		}
	} else {
		plan.Searches = e.expandSingle(phrase)
	}

	if cap := e.rules.Thresholds.MaxAtomicSearches; len(plan.Searches) > cap {
		e.logger.Warn("atomic search cap hit",
			slog.String("phrase", phrase),
			slog.Int("generated", len(plan.Searches)),
			slog.Int("cap", cap),
		)
		plan.Searches = plan.Searches[:cap]
	}

	years := 0
	if plan.Years != nil {
		years = len(plan.Years.Years())
	}
	plan.Explanation = fmt.Sprintf("%d searches: %d player(s) x %d year(s) x %d type(s)",
		len(plan.Searches), max(1, len(plan.Players)), max(1, years), max(1, len(plan.CardTypes)))

	return plan
}

// expandSingle handles a single-subject phrase: year-range and card-type
// detection plus cartesian composition. If neither a year range nor at least
// two card types are present the phrase is returned unchanged as the sole
// search, so simple queries never waste calls.
func (e *Expander) expandSingle(phrase string) []string {
	yr := e.detectYearRange(phrase)
	types := e.rules.CanonicalTypes(phrase)

	if yr == nil && len(types) < 2 {
		return []string{collapseSpaces(phrase)}
	}

	base := e.stripYearRange(phrase)

	// The type tokens move from the subject into the cartesian product only
	// when they actually multiply searches; a lone type with no year range
	// stays part of the subject.
	if len(types) >= 2 || (yr != nil && len(types) >= 1) {
		base = e.stripTypeTokens(base, types)
	}
	base = collapseSpaces(base)

	yearStrs := []string{""}
	if yr != nil {
		yearStrs = yearStrs[:0]
		for _, y := range yr.Years() {
			yearStrs = append(yearStrs, strconv.Itoa(y))
		}
	}
	typeStrs := types
	if len(typeStrs) == 0 {
		typeStrs = []string{""}
	}

	searches := make([]string, 0, len(yearStrs)*len(typeStrs))
	for _, y := range yearStrs {
		for _, t := range typeStrs {
			searches = append(searches, joinNonEmpty(y, base, t))
		}
	}
	return searches
}

// detectYearRange finds a year range in any of the three supported surface
// forms. Reversed or out-of-bounds ranges are treated as no range at all,
// without surfacing an error.
func (e *Expander) detectYearRange(phrase string) *domain.YearRange {
	lower := strings.ToLower(phrase)
	for _, re := range []*regexp.Regexp{betweenRangeRe, dashRangeRe, toRangeRe} {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if start < minCardYear || end > maxCardYear || start > end {
			continue
		}
		return &domain.YearRange{Start: start, End: end}
	}
	return nil
}

// stripYearRange removes year-range tokens from the phrase.
func (e *Expander) stripYearRange(phrase string) string {
	out := betweenRangeRe.ReplaceAllString(strings.ToLower(phrase), " ")
	out = dashRangeRe.ReplaceAllString(out, " ")
	out = toRangeRe.ReplaceAllString(out, " ")
	return out
}

// stripTypeTokens drops every token belonging to one of the detected type
// groups, along with conjunctions left dangling by the removal.
func (e *Expander) stripTypeTokens(phrase string, types []string) string {
	var synonyms []string
	for _, t := range types {
		if g, ok := e.rules.TypeGroupFor(t); ok {
			synonyms = append(synonyms, g.Synonyms...)
		}
	}

	tokens := strings.Fields(phrase)
	dropped := make([]bool, len(tokens))
	for i, tok := range tokens {
		w := strings.ToLower(strings.Trim(tok, ",."))
		ws := strings.TrimSuffix(w, "s")
		for _, syn := range synonyms {
			if w == syn || ws == syn {
				dropped[i] = true
				break
			}
		}
	}

	// Conjunctions between dropped tokens ("refractors and autos") go too.
	for i, tok := range tokens {
		w := strings.ToLower(tok)
		if w != "and" && w != "or" && w != "&" {
			continue
		}
		prevDropped := i > 0 && dropped[i-1]
		nextDropped := i < len(tokens)-1 && dropped[i+1]
		if prevDropped || nextDropped {
			dropped[i] = true
		}
	}

	kept := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if !dropped[i] {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// detectPlayers splits the phrase on commas and extracts a candidate player
// name from each segment. A query is multi-player only when at least two
// segments yield a valid name; otherwise the whole phrase is one subject. The
// remainder is everything the candidate names did not consume.
func (e *Expander) detectPlayers(phrase string) (players []string, remainder string) {
	segments := strings.Split(phrase, ",")
	if len(segments) < 2 {
		return nil, ""
	}

	var leftovers []string
	for _, seg := range segments {
		name, rest := e.extractCandidateName(seg)
		if name != "" {
			players = append(players, name)
		}
		if rest != "" {
			leftovers = append(leftovers, rest)
		}
	}
	if len(players) < 2 {
		return nil, ""
	}
	return players, collapseSpaces(strings.Join(leftovers, " "))
}

// extractCandidateName takes up to maxNameWords leading words of a segment as
// a player name, after skipping leading year tokens. A word that is a known
// brand or card-type keyword truncates the name there: brand always wins over
// name.
func (e *Expander) extractCandidateName(segment string) (name, rest string) {
	tokens := strings.Fields(strings.TrimSpace(segment))

	// Skip leading year and year-range tokens.
	start := 0
	for start < len(tokens) && yearTokenRe.MatchString(tokens[start]) {
		start++
	}

	var nameTokens []string
	i := start
	for ; i < len(tokens) && len(nameTokens) < maxNameWords; i++ {
		if e.rules.IsBrand(tokens[i]) || e.rules.IsTypeWord(tokens[i]) || yearTokenRe.MatchString(tokens[i]) {
			break
		}
		nameTokens = append(nameTokens, strings.Trim(tokens[i], ","))
	}

	restTokens := append(append([]string{}, tokens[:start]...), tokens[i:]...)
	return strings.Join(nameTokens, " "), strings.Join(restTokens, " ")
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return collapseSpaces(strings.Join(kept, " "))
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))
}
