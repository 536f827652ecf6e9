// Package pipeline orchestrates a full evaluation run: query expansion, search
// fan-out, dedupe, the filter stages, comparable pricing, outlier detection,
// and scoring.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/filter"
	"github.com/cardscout/cardscout/internal/pricing"
	"github.com/cardscout/cardscout/internal/ruleset"
	"github.com/cardscout/cardscout/internal/score"
)

// Rejection stage names recorded on RejectedListing.
const (
	StageAuthenticity = "authenticity"
	StageCondition    = "condition"
	StageScam         = "scam"
	StageOutlier      = "outlier"
	StageScoring      = "scoring"
)

// Evaluator runs one listing through every filter and pricing stage. External
// failures (provider, cache) degrade inside the pricing layer; evaluation
// itself never returns an error.
type Evaluator struct {
	auth      *filter.AuthFilter
	condition *filter.ConditionAnalyzer
	scam      *filter.ScamDetector
	estimator *pricing.Estimator
	outlier   *pricing.OutlierDetector
	scorer    *score.Scorer
	rules     *ruleset.Ruleset
	logger    *slog.Logger
}

// NewEvaluator creates an Evaluator from the shared ruleset and the comp
// estimator.
func NewEvaluator(rules *ruleset.Ruleset, estimator *pricing.Estimator, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		auth:      filter.NewAuthFilter(rules),
		condition: filter.NewConditionAnalyzer(rules),
		scam:      filter.NewScamDetector(rules),
		estimator: estimator,
		outlier:   pricing.NewOutlierDetector(rules),
		scorer:    score.NewScorer(rules),
		rules:     rules,
		logger:    logger.With(slog.String("component", "evaluator")),
	}
}

// Evaluate runs the stages in order and short-circuits on the first rejection.
// Exactly one of the two return values is non-nil.
func (e *Evaluator) Evaluate(ctx context.Context, l domain.Listing, opts filter.AuthOptions) (*domain.EvaluatedListing, *domain.RejectedListing) {
	if ok, reason := e.auth.Check(l, opts); !ok {
		return nil, rejected(l, StageAuthenticity, reason)
	}

	cond := e.condition.Analyze(l.Title, l.Condition)
	if cond.HardReject {
		reason := "damaged card"
		if len(cond.Signals) > 0 {
			reason = cond.Signals[0]
		}
		return nil, rejected(l, StageCondition, reason)
	}

	key := e.estimator.CleanKey(l.Title)
	comps := e.estimator.Comparables(ctx, key)

	// Market value for the too-good-to-be-true check, preferring tier-A comps.
	estValue := comps.TierA.Average
	if comps.TierA.Count == 0 {
		estValue = comps.TierB.Average
	}
	if ok, reason := e.scam.Check(l, estValue); !ok {
		return nil, rejected(l, StageScam, reason)
	}

	verdict := e.outlier.Classify(l.TotalPrice, comps)
	if !verdict.Pass {
		return nil, rejected(l, StageOutlier, verdict.Reason)
	}

	profit := pricing.Profit(l.TotalPrice, comps, e.rules)

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	breakdown := e.scorer.Score(l, l.SourceQuery, now)
	if breakdown.Disqualified {
		reason := "disqualifying condition language"
		if len(breakdown.Flags) > 0 {
			reason = breakdown.Flags[0]
		}
		return nil, rejected(l, StageScoring, reason)
	}

	return &domain.EvaluatedListing{
		Listing: l,
		Comps:   &comps,
		Profit:  &profit,
		Outlier: verdict,
		Score:   breakdown,
	}, nil
}

func rejected(l domain.Listing, stage, reason string) *domain.RejectedListing {
	return &domain.RejectedListing{Listing: l, Stage: stage, Reason: reason}
}
