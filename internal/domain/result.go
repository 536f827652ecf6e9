package domain

import "time"

// EvaluatedListing is one listing that survived every filter stage, together
// with everything the pipeline derived about it.
type EvaluatedListing struct {
	Listing Listing         `json:"listing"`
	Comps   *ComparableSet  `json:"comps,omitempty"`
	Profit  *ProfitEstimate `json:"profit,omitempty"`
	Outlier OutlierVerdict  `json:"outlier"`
	Score   ScoreBreakdown  `json:"score"`
}

// RejectedListing records a listing that was rejected, with the stage that
// rejected it and a human-readable reason, for auditability.
type RejectedListing struct {
	Listing Listing `json:"listing"`
	Stage   string  `json:"stage"`
	Reason  string  `json:"reason"`
}

// RunResult is the outcome of one full pipeline run over one search phrase.
// Accepted is sorted descending by final score.
type RunResult struct {
	RunID       string             `json:"run_id"`
	Phrase      string             `json:"phrase"`
	Plan        QueryPlan          `json:"plan"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	SearchCount int                `json:"search_count"`
	RawCount    int                `json:"raw_count"` // listings retrieved before dedupe
	Accepted    []EvaluatedListing `json:"accepted"`
	Rejected    []RejectedListing  `json:"rejected"`
}
