package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/notify"
	"github.com/cardscout/cardscout/internal/pricing"
	"github.com/cardscout/cardscout/internal/query"
)

type fakeSeenStore struct {
	seen      map[string]bool
	marked    [][]string
	filterErr error
}

func (s *fakeSeenStore) MarkSeen(ctx context.Context, ids []string) error {
	s.marked = append(s.marked, ids)
	for _, id := range ids {
		s.seen[id] = true
	}
	return nil
}

func (s *fakeSeenStore) FilterUnseen(ctx context.Context, ids []string) ([]string, error) {
	if s.filterErr != nil {
		return nil, s.filterErr
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !s.seen[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeRunStore struct {
	saved []domain.RunResult
}

func (s *fakeRunStore) SaveRun(ctx context.Context, run domain.RunResult) error {
	s.saved = append(s.saved, run)
	return nil
}

func (s *fakeRunStore) GetRun(ctx context.Context, runID string) (domain.RunResult, error) {
	for _, r := range s.saved {
		if r.RunID == runID {
			return r, nil
		}
	}
	return domain.RunResult{}, domain.ErrNotFound
}

func (s *fakeRunStore) ListRecent(ctx context.Context, limit int) ([]domain.RunResult, error) {
	return s.saved, nil
}

type fakeArchiver struct {
	archived []domain.RunResult
}

func (a *fakeArchiver) Archive(ctx context.Context, run domain.RunResult) error {
	a.archived = append(a.archived, run)
	return nil
}

type fakeBroadcaster struct {
	deals []domain.EvaluatedListing
}

func (b *fakeBroadcaster) BroadcastDeal(ev domain.EvaluatedListing) {
	b.deals = append(b.deals, ev)
}

type fakeSender struct {
	titles []string
}

func (s *fakeSender) Send(ctx context.Context, title, message string) error {
	s.titles = append(s.titles, title)
	return nil
}

func (s *fakeSender) Name() string { return "fake" }

type orchFixture struct {
	orch        *Orchestrator
	provider    *fakeProvider
	estimator   *pricing.Estimator
	seenStore   *fakeSeenStore
	runStore    *fakeRunStore
	archiver    *fakeArchiver
	broadcaster *fakeBroadcaster
	sender      *fakeSender
}

func newOrchFixture(t *testing.T) *orchFixture {
	t.Helper()
	rules := testPipelineRules(t)
	logger := discardLogger()

	provider := &fakeProvider{results: map[string][]domain.Listing{}}
	est := pricing.NewEstimator(provider, nil, rules, time.Hour, logger)
	seenStore := &fakeSeenStore{seen: map[string]bool{}}
	runStore := &fakeRunStore{}
	archiver := &fakeArchiver{}
	broadcaster := &fakeBroadcaster{}
	sender := &fakeSender{}
	notifier := notify.NewNotifier([]notify.Sender{sender},
		[]string{notify.EventDealFound, notify.EventRunComplete}, logger)

	orch := NewOrchestrator(
		query.NewExpander(rules, logger),
		provider,
		NewEvaluator(rules, est, logger),
		rules,
		seenStore,
		nil,
		runStore,
		archiver,
		notifier,
		broadcaster,
		Options{Workers: 2},
		logger,
	)
	return &orchFixture{
		orch:        orch,
		provider:    provider,
		estimator:   est,
		seenStore:   seenStore,
		runStore:    runStore,
		archiver:    archiver,
		broadcaster: broadcaster,
		sender:      sender,
	}
}

func TestRunFullPipeline(t *testing.T) {
	fx := newOrchFixture(t)
	listedRecently := time.Now().Add(-12 * time.Hour)

	strongTitle := "2018 Panini Prizm Luka Doncic Rookie #280 Pack Fresh Well Centered Sharp Corners"
	strong := trustedSeller(domain.Listing{
		ID:          "strong-1",
		Title:       strongTitle,
		TotalPrice:  51,
		HasImage:    true,
		CreatedAt:   &listedRecently,
		SourceQuery: "luka doncic refractor",
	})
	modest := domain.Listing{
		ID:            "modest-1",
		Title:         "Luka Doncic #77",
		TotalPrice:    60,
		FeedbackPct:   95,
		FeedbackCount: 50,
		SourceQuery:   "luka doncic auto",
	}
	lot := trustedSeller(domain.Listing{ID: "lot-1", Title: "Lot of 5 Luka Doncic Prizm"})
	alreadySeen := trustedSeller(domain.Listing{ID: "seen-1", Title: "Luka Doncic Select"})
	fx.seenStore.seen["seen-1"] = true

	addComps(fx.estimator, fx.provider, strong.Title, 100)
	addComps(fx.estimator, fx.provider, modest.Title, 100)

	// "refractors and autos" expands to two atomic searches; the strong listing
	// comes back from both to exercise dedupe.
	fx.provider.results["luka doncic refractor"] = []domain.Listing{strong, lot, alreadySeen}
	fx.provider.results["luka doncic auto"] = []domain.Listing{strong, modest}

	run, err := fx.orch.Run(context.Background(), "luka doncic refractors and autos")
	require.NoError(t, err)

	assert.Equal(t, 2, run.SearchCount)
	assert.Equal(t, 5, run.RawCount)

	// Ranked by final score, strongest first.
	require.Len(t, run.Accepted, 2)
	assert.Equal(t, "strong-1", run.Accepted[0].Listing.ID)
	assert.Equal(t, "modest-1", run.Accepted[1].Listing.ID)
	assert.Greater(t, run.Accepted[0].Score.FinalScore, run.Accepted[1].Score.FinalScore)

	require.Len(t, run.Rejected, 1)
	assert.Equal(t, "lot-1", run.Rejected[0].Listing.ID)
	assert.Equal(t, StageAuthenticity, run.Rejected[0].Stage)

	// Everything that was evaluated is marked seen, rejections included.
	require.Len(t, fx.seenStore.marked, 1)
	assert.ElementsMatch(t, []string{"strong-1", "lot-1", "modest-1"}, fx.seenStore.marked[0])

	// Side effects: persisted, archived, every acceptance broadcast.
	require.Len(t, fx.runStore.saved, 1)
	assert.Equal(t, run.RunID, fx.runStore.saved[0].RunID)
	assert.Len(t, fx.archiver.archived, 1)
	assert.Len(t, fx.broadcaster.deals, 2)

	// Only the strong listing clears the alert threshold; the run summary
	// always goes out.
	require.Len(t, fx.sender.titles, 2)
	assert.Contains(t, fx.sender.titles[0], "Deal ")
	assert.Contains(t, fx.sender.titles[0], strongTitle[:40])
	assert.Contains(t, fx.sender.titles[1], "Run complete")
}

func TestRunSecondSweepSkipsSeen(t *testing.T) {
	fx := newOrchFixture(t)

	l := trustedSeller(domain.Listing{
		ID:          "repeat-1",
		Title:       "Luka Doncic #77",
		TotalPrice:  60,
		SourceQuery: "luka doncic",
	})
	addComps(fx.estimator, fx.provider, l.Title, 100)
	fx.provider.results["luka doncic"] = []domain.Listing{l}

	first, err := fx.orch.Run(context.Background(), "luka doncic")
	require.NoError(t, err)
	require.Len(t, first.Accepted, 1)

	second, err := fx.orch.Run(context.Background(), "luka doncic")
	require.NoError(t, err)
	assert.Empty(t, second.Accepted)
	assert.Empty(t, second.Rejected)
}

func TestRunSeenStoreFailureTreatsAllUnseen(t *testing.T) {
	fx := newOrchFixture(t)
	fx.seenStore.seen["only-1"] = true
	fx.seenStore.filterErr = errors.New("db down")

	l := trustedSeller(domain.Listing{
		ID:          "only-1",
		Title:       "Luka Doncic #77",
		TotalPrice:  60,
		SourceQuery: "luka doncic",
	})
	addComps(fx.estimator, fx.provider, l.Title, 100)
	fx.provider.results["luka doncic"] = []domain.Listing{l}

	run, err := fx.orch.Run(context.Background(), "luka doncic")
	require.NoError(t, err)
	// A duplicate surfacing beats a missed deal.
	assert.Len(t, run.Accepted, 1)
}

func TestRunWithoutSeenStoreTreatsAllUnseen(t *testing.T) {
	rules := testPipelineRules(t)
	logger := discardLogger()
	provider := &fakeProvider{results: map[string][]domain.Listing{}}
	est := pricing.NewEstimator(provider, nil, rules, time.Hour, logger)

	orch := NewOrchestrator(
		query.NewExpander(rules, logger),
		provider,
		NewEvaluator(rules, est, logger),
		rules,
		nil, nil, nil, nil, nil, nil,
		Options{Workers: 2},
		logger,
	)

	l := trustedSeller(domain.Listing{
		ID:          "bare-1",
		Title:       "Luka Doncic #77",
		TotalPrice:  60,
		SourceQuery: "luka doncic",
	})
	addComps(est, provider, l.Title, 100)
	provider.results["luka doncic"] = []domain.Listing{l}

	// Every optional collaborator is nil; both runs see the listing.
	for i := 0; i < 2; i++ {
		run, err := orch.Run(context.Background(), "luka doncic")
		require.NoError(t, err)
		assert.Len(t, run.Accepted, 1, "run %d", i)
	}
}

func TestRunFailsWhenEverySearchFails(t *testing.T) {
	fx := newOrchFixture(t)
	fx.provider.err = errors.New("provider down")

	_, err := fx.orch.Run(context.Background(), "luka doncic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "searches failed")
	assert.Empty(t, fx.runStore.saved)
}

func TestDedupe(t *testing.T) {
	in := []domain.Listing{
		{ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: ""}, {ID: "c"}, {ID: "b"},
	}
	out := dedupe(in)
	ids := make([]string, len(out))
	for i, l := range out {
		ids[i] = l.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
