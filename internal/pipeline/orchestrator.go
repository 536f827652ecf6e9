package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/filter"
	"github.com/cardscout/cardscout/internal/notify"
	"github.com/cardscout/cardscout/internal/query"
	"github.com/cardscout/cardscout/internal/ruleset"
)

// RunArchiver is the optional long-term archive for finished runs.
type RunArchiver interface {
	Archive(ctx context.Context, run domain.RunResult) error
}

// DealBroadcaster pushes accepted deals to live subscribers.
type DealBroadcaster interface {
	BroadcastDeal(ev domain.EvaluatedListing)
}

// Options control one run.
type Options struct {
	// RawOnly rejects third-party-graded listings.
	RawOnly bool
	// ExcludeBase rejects base cards.
	ExcludeBase bool
	// MaxPrice caps the search price filter; zero means no cap.
	MaxPrice float64
	// Workers bounds concurrent searches and evaluations.
	Workers int
}

// Orchestrator runs the full evaluation pipeline for one search phrase:
// expand, search, dedupe, drop already-seen listings, evaluate, rank, then
// persist, archive, notify, and broadcast. The seen cache, run store,
// archiver, notifier, and broadcaster are all optional; a missing or failing
// side effect never fails the run.
type Orchestrator struct {
	expander    *query.Expander
	provider    domain.SearchProvider
	evaluator   *Evaluator
	rules       *ruleset.Ruleset
	seenStore   domain.SeenStore
	seenCache   domain.SeenCache
	runStore    domain.RunStore
	archiver    RunArchiver
	notifier    *notify.Notifier
	broadcaster DealBroadcaster
	opts        Options
	logger      *slog.Logger
}

// NewOrchestrator wires the pipeline together. Every collaborator after
// evaluator may be nil, seenStore included; without a seen store every run
// treats all listings as unseen.
func NewOrchestrator(
	expander *query.Expander,
	provider domain.SearchProvider,
	evaluator *Evaluator,
	rules *ruleset.Ruleset,
	seenStore domain.SeenStore,
	seenCache domain.SeenCache,
	runStore domain.RunStore,
	archiver RunArchiver,
	notifier *notify.Notifier,
	broadcaster DealBroadcaster,
	opts Options,
	logger *slog.Logger,
) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Orchestrator{
		expander:    expander,
		provider:    provider,
		evaluator:   evaluator,
		rules:       rules,
		seenStore:   seenStore,
		seenCache:   seenCache,
		runStore:    runStore,
		archiver:    archiver,
		notifier:    notifier,
		broadcaster: broadcaster,
		opts:        opts,
		logger:      logger.With(slog.String("component", "orchestrator")),
	}
}

// Run executes one full pipeline run for the phrase. It returns an error only
// when the run as a whole could not proceed (context cancelled, or every
// search failed); individual listing rejections are part of the result.
func (o *Orchestrator) Run(ctx context.Context, phrase string) (domain.RunResult, error) {
	started := time.Now().UTC()
	runID := uuid.NewString()
	log := o.logger.With(slog.String("run_id", runID), slog.String("phrase", phrase))

	plan := o.expander.Expand(phrase)
	log.InfoContext(ctx, "query expanded", slog.String("explanation", plan.Explanation))

	raw, searchErrs := o.searchAll(ctx, plan.Searches)
	if ctx.Err() != nil {
		return domain.RunResult{}, fmt.Errorf("pipeline: run %s: %w", runID, ctx.Err())
	}
	if len(raw) == 0 && searchErrs == len(plan.Searches) {
		return domain.RunResult{}, fmt.Errorf("pipeline: run %s: all %d searches failed", runID, searchErrs)
	}

	deduped := dedupe(raw)
	unseen := o.filterSeen(ctx, deduped)
	log.InfoContext(ctx, "listings gathered",
		slog.Int("raw", len(raw)),
		slog.Int("deduped", len(deduped)),
		slog.Int("unseen", len(unseen)),
		slog.Int("failed_searches", searchErrs),
	)

	accepted, rejectedList := o.evaluateAll(ctx, unseen)

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Score.FinalScore > accepted[j].Score.FinalScore
	})

	run := domain.RunResult{
		RunID:       runID,
		Phrase:      phrase,
		Plan:        plan,
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
		SearchCount: len(plan.Searches),
		RawCount:    len(raw),
		Accepted:    accepted,
		Rejected:    rejectedList,
	}

	o.markSeen(ctx, unseen)
	o.finish(ctx, run, log)
	return run, nil
}

// RunLoop executes Run for every phrase on a fixed interval until the context
// is cancelled. The first sweep happens immediately.
func (o *Orchestrator) RunLoop(ctx context.Context, phrases []string, interval time.Duration) error {
	sweep := func() {
		for _, phrase := range phrases {
			if ctx.Err() != nil {
				return
			}
			if _, err := o.Run(ctx, phrase); err != nil && ctx.Err() == nil {
				o.logger.ErrorContext(ctx, "run failed",
					slog.String("phrase", phrase),
					slog.String("error", err.Error()),
				)
				o.notifyError(ctx, phrase, err)
			}
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			sweep()
		}
	}
}

// searchAll fans the atomic searches out over a bounded errgroup and merges
// the results in search order. A failed search degrades to zero results; the
// count of failures is returned so Run can tell "no matches" from "provider
// down".
func (o *Orchestrator) searchAll(ctx context.Context, searches []string) ([]domain.Listing, int) {
	results := make([][]domain.Listing, len(searches))
	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)

	for i, search := range searches {
		g.Go(func() error {
			listings, err := o.provider.Search(gctx, search, domain.SearchOptions{
				MaxPrice: o.opts.MaxPrice,
			})
			if err != nil {
				o.logger.WarnContext(gctx, "search failed",
					slog.String("query", search),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			results[i] = listings
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.Listing
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, failed
}

// dedupe keeps the first occurrence of each listing ID.
func dedupe(listings []domain.Listing) []domain.Listing {
	seen := make(map[string]bool, len(listings))
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if l.ID == "" || seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	return out
}

// filterSeen drops listings already surfaced in a previous run. The cache is
// consulted first; the store settles whatever the cache did not rule out. If
// both fail, everything is treated as unseen: a duplicate alert beats a
// missed deal.
func (o *Orchestrator) filterSeen(ctx context.Context, listings []domain.Listing) []domain.Listing {
	if len(listings) == 0 {
		return listings
	}

	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}

	cached := map[string]bool{}
	if o.seenCache != nil {
		hits, err := o.seenCache.Contains(ctx, ids)
		if err != nil {
			o.logger.WarnContext(ctx, "seen cache check failed", slog.String("error", err.Error()))
		} else {
			cached = hits
		}
	}

	remaining := make([]string, 0, len(ids))
	for _, id := range ids {
		if !cached[id] {
			remaining = append(remaining, id)
		}
	}

	unseenIDs := remaining
	if o.seenStore != nil && len(remaining) > 0 {
		filtered, err := o.seenStore.FilterUnseen(ctx, remaining)
		if err != nil {
			o.logger.WarnContext(ctx, "seen store check failed, treating all as unseen",
				slog.String("error", err.Error()),
			)
		} else {
			unseenIDs = filtered
		}
	}

	keep := make(map[string]bool, len(unseenIDs))
	for _, id := range unseenIDs {
		keep[id] = true
	}

	out := make([]domain.Listing, 0, len(unseenIDs))
	for _, l := range listings {
		if keep[l.ID] {
			out = append(out, l)
		}
	}
	return out
}

// evaluateAll runs the evaluator over the listings with bounded concurrency.
func (o *Orchestrator) evaluateAll(ctx context.Context, listings []domain.Listing) ([]domain.EvaluatedListing, []domain.RejectedListing) {
	authOpts := filter.AuthOptions{
		RawOnly:     o.opts.RawOnly,
		ExcludeBase: o.opts.ExcludeBase,
	}

	var (
		mu       sync.Mutex
		accepted []domain.EvaluatedListing
		rejects  []domain.RejectedListing
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)

	for _, l := range listings {
		g.Go(func() error {
			ev, rej := o.evaluator.Evaluate(gctx, l, authOpts)
			mu.Lock()
			defer mu.Unlock()
			if ev != nil {
				accepted = append(accepted, *ev)
			} else {
				rejects = append(rejects, *rej)
			}
			return nil
		})
	}
	_ = g.Wait()
	return accepted, rejects
}

// markSeen records every evaluated listing so later runs skip it. Best effort
// on both tiers.
func (o *Orchestrator) markSeen(ctx context.Context, listings []domain.Listing) {
	if len(listings) == 0 {
		return
	}
	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}

	if o.seenStore != nil {
		if err := o.seenStore.MarkSeen(ctx, ids); err != nil {
			o.logger.WarnContext(ctx, "mark seen failed", slog.String("error", err.Error()))
		}
	}
	if o.seenCache != nil {
		if err := o.seenCache.Add(ctx, ids); err != nil {
			o.logger.WarnContext(ctx, "seen cache add failed", slog.String("error", err.Error()))
		}
	}
}

// finish runs the post-run side effects: persist, archive, broadcast, notify.
func (o *Orchestrator) finish(ctx context.Context, run domain.RunResult, log *slog.Logger) {
	if o.runStore != nil {
		if err := o.runStore.SaveRun(ctx, run); err != nil {
			log.ErrorContext(ctx, "save run failed", slog.String("error", err.Error()))
		}
	}
	if o.archiver != nil {
		if err := o.archiver.Archive(ctx, run); err != nil {
			log.ErrorContext(ctx, "archive run failed", slog.String("error", err.Error()))
		}
	}

	minScore := o.rules.Thresholds.AlertMinScore
	for _, ev := range run.Accepted {
		if o.broadcaster != nil {
			o.broadcaster.BroadcastDeal(ev)
		}
		if o.notifier != nil && ev.Score.FinalScore >= minScore {
			title, message := notify.FormatDealAlert(ev)
			if err := o.notifier.Notify(ctx, notify.EventDealFound, title, message); err != nil {
				log.WarnContext(ctx, "deal notification failed", slog.String("error", err.Error()))
			}
		}
	}

	if o.notifier != nil {
		title, message := notify.FormatRunSummary(run)
		if err := o.notifier.Notify(ctx, notify.EventRunComplete, title, message); err != nil {
			log.WarnContext(ctx, "run notification failed", slog.String("error", err.Error()))
		}
	}

	log.InfoContext(ctx, "run finished",
		slog.Int("accepted", len(run.Accepted)),
		slog.Int("rejected", len(run.Rejected)),
		slog.Duration("took", run.FinishedAt.Sub(run.StartedAt)),
	)
}

// notifyError reports a failed run on the error event channel.
func (o *Orchestrator) notifyError(ctx context.Context, phrase string, err error) {
	if o.notifier == nil {
		return
	}
	title := fmt.Sprintf("Run failed: %q", phrase)
	if nerr := o.notifier.Notify(ctx, notify.EventError, title, err.Error()); nerr != nil {
		o.logger.WarnContext(ctx, "error notification failed", slog.String("error", nerr.Error()))
	}
}
