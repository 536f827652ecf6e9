package score

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/ruleset"
)

// Relevance point values. Player identity dominates: a confirmed wrong-player
// listing is actively harmful to surface, so a missed full-name match is a
// severe penalty rather than a zero.
const (
	fullNameMatchPoints   = 5.0
	fullNameMissPenalty   = -5.0
	surnameMatchPoints    = 2.5
	typeMatchMaxPoints    = 2.5
	yearExactPoints       = 2.0
	yearNearPoints        = 1.5 // within 2 years
	yearClosePoints       = 1.0 // within 5 years
	noYearRequestedPoints = 1.0
	brandMatchMaxPoints   = 1.5
)

var relevanceYearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// relevance scores how well the listing matches the originating query. The
// second return value reports a full-name mismatch, surfaced as a flag.
func (s *Scorer) relevance(l domain.Listing, query string) (domain.Criterion, bool) {
	c := domain.Criterion{Name: "query_relevance", MaxPoints: maxCriterionPoints}
	title := strings.ToLower(l.Title)
	q := strings.ToLower(query)

	var raw float64
	var notes []string
	mismatch := false

	// (i) Player name.
	first, last, hasFullName := s.extractFullName(q)
	switch {
	case hasFullName:
		if containsWord(title, first) && containsWord(title, last) {
			raw += fullNameMatchPoints
			notes = append(notes, fmt.Sprintf("player %q %q matched", first, last))
		} else {
			raw += fullNameMissPenalty
			mismatch = true
			notes = append(notes, fmt.Sprintf("player %q %q NOT in title", first, last))
		}
	default:
		if surname, ok := s.querySurname(q); ok {
			if containsWord(title, surname) {
				raw += surnameMatchPoints
				notes = append(notes, fmt.Sprintf("surname %q matched", surname))
			} else {
				notes = append(notes, fmt.Sprintf("surname %q not in title", surname))
			}
		}
	}

	// (ii) Card types, scaled by how many requested types appear.
	if requested := s.rules.CanonicalTypes(q); len(requested) > 0 {
		matched := 0
		for _, t := range requested {
			if g, ok := s.rules.TypeGroupFor(t); ok {
				if _, hit := ruleset.ContainsAny(title, g.Synonyms); hit {
					matched++
				}
			}
		}
		pts := typeMatchMaxPoints * float64(matched) / float64(len(requested))
		raw += pts
		notes = append(notes, fmt.Sprintf("%d/%d card types matched", matched, len(requested)))
	}

	// (iii) Year proximity. Not requesting a year is not penalized.
	raw += s.yearProximity(q, title, &notes)

	// (iv) Brand/set, scaled like card types.
	if requested := s.queryBrands(q); len(requested) > 0 {
		matched := 0
		for _, b := range requested {
			if containsWord(title, b) {
				matched++
			}
		}
		pts := brandMatchMaxPoints * float64(matched) / float64(len(requested))
		raw += pts
		notes = append(notes, fmt.Sprintf("%d/%d brands matched", matched, len(requested)))
	}

	c.Points = clamp(raw, 0, maxCriterionPoints)
	c.Rationale = strings.Join(notes, "; ")
	return c, mismatch
}

// extractFullName finds the first pair of adjacent tokens in the query that
// look like a first+last name: alphabetic, and neither a brand, card-type, nor
// year token. Multi-word surnames are a known false-negative of this
// heuristic.
func (s *Scorer) extractFullName(query string) (first, last string, ok bool) {
	tokens := strings.Fields(query)
	isNameToken := func(tok string) bool {
		w := strings.Trim(tok, ",.#")
		if w == "" || relevanceYearRe.MatchString(w) {
			return false
		}
		if s.rules.IsBrand(w) || s.rules.IsTypeWord(w) {
			return false
		}
		for _, r := range w {
			if (r < 'a' || r > 'z') && r != '\'' && r != '-' {
				return false
			}
		}
		return true
	}
	for i := 0; i+1 < len(tokens); i++ {
		if isNameToken(tokens[i]) && isNameToken(tokens[i+1]) {
			return strings.Trim(tokens[i], ",.#"), strings.Trim(tokens[i+1], ",.#"), true
		}
	}
	return "", "", false
}

// querySurname falls back to the curated well-known surname list.
func (s *Scorer) querySurname(query string) (string, bool) {
	for _, tok := range strings.Fields(query) {
		if s.rules.IsKnownSurname(tok) {
			return strings.ToLower(strings.Trim(tok, ",.")), true
		}
	}
	return "", false
}

// yearProximity awards exact > near > close year matches, plus a small flat
// bonus when the query requested no year at all.
func (s *Scorer) yearProximity(query, title string, notes *[]string) float64 {
	qYear := relevanceYearRe.FindString(query)
	if qYear == "" {
		*notes = append(*notes, "no year requested")
		return noYearRequestedPoints
	}
	want, _ := strconv.Atoi(qYear)

	best := -1
	for _, y := range relevanceYearRe.FindAllString(title, -1) {
		got, _ := strconv.Atoi(y)
		diff := abs(want - got)
		if best == -1 || diff < best {
			best = diff
		}
	}

	switch {
	case best == 0:
		*notes = append(*notes, fmt.Sprintf("exact year %d match", want))
		return yearExactPoints
	case best > 0 && best <= 2:
		*notes = append(*notes, fmt.Sprintf("year within 2 of %d", want))
		return yearNearPoints
	case best > 0 && best <= 5:
		*notes = append(*notes, fmt.Sprintf("year within 5 of %d", want))
		return yearClosePoints
	default:
		*notes = append(*notes, fmt.Sprintf("no year near %d in title", want))
		return 0
	}
}

// queryBrands lists the known brand tokens present in the query.
func (s *Scorer) queryBrands(query string) []string {
	var out []string
	seen := map[string]bool{}
	for _, tok := range strings.Fields(query) {
		w := strings.ToLower(strings.Trim(tok, ",."))
		if s.rules.IsBrand(w) && !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// containsWord reports whether text contains word bounded by non-word
// characters on both sides.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
