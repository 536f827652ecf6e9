package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ScanHandler enqueues ad-hoc evaluation runs.
type ScanHandler struct {
	logger *slog.Logger
	scanCh chan<- string
}

// NewScanHandler creates a ScanHandler. The scan loop must receive from scanCh
// to run one evaluation for the enqueued phrase.
func NewScanHandler(scanCh chan<- string, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		logger: logHandler(logger, "scan"),
		scanCh: scanCh,
	}
}

type scanRequest struct {
	Phrase string `json:"phrase"`
}

// TriggerScan enqueues one run for the given phrase. The run happens
// asynchronously; results land in the run store and on the deal stream.
// POST /api/scan
func (h *ScanHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Phrase = strings.TrimSpace(req.Phrase)
	if req.Phrase == "" {
		writeError(w, http.StatusBadRequest, "phrase is required")
		return
	}

	select {
	case h.scanCh <- req.Phrase:
		h.logger.InfoContext(r.Context(), "scan enqueued", slog.String("phrase", req.Phrase))
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":       "accepted",
			"phrase":       req.Phrase,
			"requested_at": time.Now().UTC().Format(time.RFC3339),
		})
	default:
		writeError(w, http.StatusTooManyRequests, "scan queue is full")
	}
}
