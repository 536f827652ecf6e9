package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardscout/cardscout/internal/domain"
)

type stubRunStore struct {
	runs    []domain.RunResult
	listErr error
}

func (s *stubRunStore) SaveRun(ctx context.Context, run domain.RunResult) error { return nil }

func (s *stubRunStore) GetRun(ctx context.Context, runID string) (domain.RunResult, error) {
	for _, r := range s.runs {
		if r.RunID == runID {
			return r, nil
		}
	}
	return domain.RunResult{}, domain.ErrNotFound
}

func (s *stubRunStore) ListRecent(ctx context.Context, limit int) ([]domain.RunResult, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if limit < len(s.runs) {
		return s.runs[:limit], nil
	}
	return s.runs, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRunsMux(store domain.RunStore) *http.ServeMux {
	h := NewRunHandler(store, discardLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/runs", h.ListRuns)
	mux.HandleFunc("GET /api/runs/{id}", h.GetRun)
	return mux
}

func TestListRuns(t *testing.T) {
	store := &stubRunStore{runs: []domain.RunResult{
		{RunID: "r1", Phrase: "luka doncic"},
		{RunID: "r2", Phrase: "ja morant"},
	}}
	mux := newRunsMux(store)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Runs  []domain.RunResult `json:"runs"`
		Count int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "r1", body.Runs[0].RunID)
}

func TestListRunsHonorsLimit(t *testing.T) {
	store := &stubRunStore{runs: []domain.RunResult{
		{RunID: "r1"}, {RunID: "r2"}, {RunID: "r3"},
	}}
	mux := newRunsMux(store)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestGetRun(t *testing.T) {
	store := &stubRunStore{runs: []domain.RunResult{{RunID: "r1", Phrase: "luka doncic"}}}
	mux := newRunsMux(store)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/r1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var run domain.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "luka doncic", run.Phrase)
}

func TestGetRunNotFound(t *testing.T) {
	mux := newRunsMux(&stubRunStore{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "run not found")
}

func TestTriggerScan(t *testing.T) {
	scanCh := make(chan string, 1)
	h := NewScanHandler(scanCh, discardLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(`{"phrase":" luka doncic "}`))
	h.TriggerScan(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case phrase := <-scanCh:
		assert.Equal(t, "luka doncic", phrase)
	default:
		t.Fatal("phrase was not enqueued")
	}
}

func TestTriggerScanRejectsBadInput(t *testing.T) {
	scanCh := make(chan string, 1)
	h := NewScanHandler(scanCh, discardLogger())

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"empty phrase", `{"phrase":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(tt.body))
			h.TriggerScan(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTriggerScanFullQueue(t *testing.T) {
	scanCh := make(chan string) // unbuffered and never drained
	h := NewScanHandler(scanCh, discardLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(`{"phrase":"luka"}`))
	h.TriggerScan(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(discardLogger())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"limit=5", 5},
		{"limit=0", 20},
		{"limit=-3", 20},
		{"limit=9999", 200},
		{"limit=abc", 20},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/runs?"+tt.query, nil)
		assert.Equal(t, tt.want, parseLimit(req, 20), tt.query)
	}
}
