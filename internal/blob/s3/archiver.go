package s3blob

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardscout/cardscout/internal/domain"
)

// RunArchiver uploads finished run results to object storage as gzipped JSON,
// partitioned by run date. The Postgres run store stays the primary record;
// the archive is the long-term copy that survives database retention.
type RunArchiver struct {
	writer domain.BlobWriter
	logger *slog.Logger
}

// NewRunArchiver creates a RunArchiver over the given blob writer.
func NewRunArchiver(writer domain.BlobWriter, logger *slog.Logger) *RunArchiver {
	return &RunArchiver{
		writer: writer,
		logger: logger.With(slog.String("component", "run_archiver")),
	}
}

// Archive serializes the run to gzipped JSON and uploads it to
// runs/YYYY-MM-DD/<run_id>.json.gz.
func (a *RunArchiver) Archive(ctx context.Context, run domain.RunResult) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("s3blob: encode run %s: %w", run.RunID, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("s3blob: compress run %s: %w", run.RunID, err)
	}

	path := archivePath(run)
	if err := a.writer.Put(ctx, path, buf.Bytes(), "application/gzip"); err != nil {
		return fmt.Errorf("s3blob: archive run %s: %w", run.RunID, err)
	}

	a.logger.InfoContext(ctx, "run archived",
		slog.String("run_id", run.RunID),
		slog.String("path", path),
		slog.Int("bytes", buf.Len()),
	)
	return nil
}

// archivePath builds the S3 key for a run archive, partitioned by run date.
//
//	runs/2026-08-31/3f1c9a2e-....json.gz
func archivePath(run domain.RunResult) string {
	day := run.StartedAt.Format(time.DateOnly)
	return fmt.Sprintf("runs/%s/%s.json.gz", day, run.RunID)
}
