package filter

import (
	"fmt"
	"strings"

	"github.com/cardscout/cardscout/internal/ruleset"
)

// Signal classifies one condition dimension from keyword presence. Unknown is
// neutral, never a rejection: silence about centering is not a red flag.
type Signal string

const (
	SignalGood    Signal = "good"
	SignalBad     Signal = "bad"
	SignalUnknown Signal = "unknown"
)

// Recommendation tiers for a listing's condition text.
const (
	RecommendStrongCandidate = "strong_candidate"
	RecommendGoodCandidate   = "good"
	RecommendProceed         = "proceed"
	RecommendReject          = "reject"
)

// ConditionReport is the outcome of analyzing a listing's title and condition
// text.
type ConditionReport struct {
	Pass           bool     `json:"pass"`
	HardReject     bool     `json:"hard_reject"`
	Score          float64  `json:"score"` // [0,10]
	Centering      Signal   `json:"centering"`
	Corners        Signal   `json:"corners"`
	Signals        []string `json:"signals,omitempty"`
	Recommendation string   `json:"recommendation"`
}

// ConditionAnalyzer scores listing text for condition signals. Damage keywords
// hard-reject before anything else is considered.
type ConditionAnalyzer struct {
	rules *ruleset.Ruleset
}

// NewConditionAnalyzer creates a ConditionAnalyzer over the given ruleset.
func NewConditionAnalyzer(rules *ruleset.Ruleset) *ConditionAnalyzer {
	return &ConditionAnalyzer{rules: rules}
}

// Analyze inspects title plus condition/description text and returns the
// condition report. A listing with no stated condition details always gets
// "proceed", never "reject".
func (a *ConditionAnalyzer) Analyze(title, condition string) ConditionReport {
	text := strings.ToLower(title + " " + condition)
	kw := a.rules.Keywords

	// Damage terms dominate every other signal.
	if term, ok := ruleset.ContainsAny(text, kw.Damage); ok {
		return ConditionReport{
			Pass:           false,
			HardReject:     true,
			Score:          0,
			Centering:      SignalUnknown,
			Corners:        SignalUnknown,
			Signals:        []string{fmt.Sprintf("damage: %q", term)},
			Recommendation: RecommendReject,
		}
	}

	report := ConditionReport{Pass: true}
	report.Centering = classify(text, kw.GoodCentering, kw.BadCentering)
	report.Corners = classify(text, kw.GoodCorners, kw.BadCorners)

	if report.Centering != SignalUnknown {
		report.Signals = append(report.Signals, "centering: "+string(report.Centering))
	}
	if report.Corners != SignalUnknown {
		report.Signals = append(report.Signals, "corners: "+string(report.Corners))
	}

	photo := a.photoScore(text)
	signal := signalScore(report.Centering, report.Corners)
	report.Score = clamp(0.6*photo+0.4*signal, 0, 10)

	switch {
	case report.Score >= 8 && report.Centering != SignalBad && report.Corners != SignalBad:
		report.Recommendation = RecommendStrongCandidate
	case report.Score >= 6:
		report.Recommendation = RecommendGoodCandidate
	default:
		report.Recommendation = RecommendProceed
	}
	return report
}

// photoScore estimates how completely the listing is photographed from the
// listing's language. There is no way to count actual photos from text alone,
// so this is a proxy.
func (a *ConditionAnalyzer) photoScore(text string) float64 {
	score := 5.0
	if strings.Contains(text, "front and back") {
		score += 2.5
	}
	if _, ok := ruleset.ContainsAny(text, a.rules.Keywords.PhotoLanguage); ok {
		score += 2.5
	}
	return clamp(score, 0, 10)
}

// classify resolves one condition dimension. A bad keyword wins over a good
// one when both appear; neither yields unknown.
func classify(text string, good, bad []string) Signal {
	if _, ok := ruleset.ContainsAny(text, bad); ok {
		return SignalBad
	}
	if _, ok := ruleset.ContainsAny(text, good); ok {
		return SignalGood
	}
	return SignalUnknown
}

func signalScore(centering, corners Signal) float64 {
	score := 5.0
	for _, s := range []Signal{centering, corners} {
		switch s {
		case SignalGood:
			score += 2.5
		case SignalBad:
			score -= 2.5
		}
	}
	return clamp(score, 0, 10)
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
