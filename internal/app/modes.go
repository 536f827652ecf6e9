package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cardscout/cardscout/internal/pipeline"
	"github.com/cardscout/cardscout/internal/server"
)

// shutdownTimeout bounds the graceful HTTP drain on exit.
const shutdownTimeout = 10 * time.Second

// runOnce sweeps every configured query a single time and exits. A failed
// phrase is logged and the sweep continues; the mode fails only when every
// phrase failed.
func (a *App) runOnce(ctx context.Context, deps *Dependencies) error {
	queries := a.cfg.Scout.Queries
	if len(queries) == 0 {
		return fmt.Errorf("app: once mode needs at least one query")
	}

	failed := 0
	for _, phrase := range queries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		run, err := deps.Orchestrator.Run(ctx, phrase)
		if err != nil {
			failed++
			a.logger.ErrorContext(ctx, "run failed",
				slog.String("phrase", phrase),
				slog.String("error", err.Error()),
			)
			continue
		}
		a.logger.InfoContext(ctx, "run finished",
			slog.String("phrase", phrase),
			slog.String("run_id", run.RunID),
			slog.Int("accepted", len(run.Accepted)),
			slog.Int("rejected", len(run.Rejected)),
		)
	}
	if failed == len(queries) {
		return fmt.Errorf("app: once mode: all %d runs failed", failed)
	}
	return nil
}

// runScan sweeps the configured queries on the configured interval until the
// context is cancelled. No HTTP surface.
func (a *App) runScan(ctx context.Context, deps *Dependencies) error {
	return deps.Orchestrator.RunLoop(ctx, a.cfg.Scout.Queries, a.cfg.Scout.Interval.Duration)
}

// runServer serves the HTTP API and deal stream without a standing sweep.
// Runs only happen on demand through POST /api/scan.
func (a *App) runServer(ctx context.Context, deps *Dependencies) error {
	if deps.Server == nil {
		return fmt.Errorf("app: server mode requires server.enabled = true")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return deps.Hub.Run(ctx) })
	g.Go(func() error { return a.consumeScans(ctx, deps.ScanCh, deps.Orchestrator) })
	a.serveHTTP(g, ctx, deps.Server)
	return g.Wait()
}

// runFull combines the standing sweep with the HTTP API and deal stream.
func (a *App) runFull(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return deps.Orchestrator.RunLoop(ctx, a.cfg.Scout.Queries, a.cfg.Scout.Interval.Duration)
	})
	if deps.Server != nil {
		g.Go(func() error { return deps.Hub.Run(ctx) })
		g.Go(func() error { return a.consumeScans(ctx, deps.ScanCh, deps.Orchestrator) })
		a.serveHTTP(g, ctx, deps.Server)
	}
	return g.Wait()
}

// serveHTTP starts the server in the group and pairs it with a shutdown
// goroutine that drains in-flight requests once ctx is cancelled.
func (a *App) serveHTTP(g *errgroup.Group, ctx context.Context, srv *server.Server) {
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// consumeScans runs one evaluation per phrase received on scanCh. Run errors
// are logged, not fatal; a broken run must not take the server down.
func (a *App) consumeScans(ctx context.Context, scanCh <-chan string, orch *pipeline.Orchestrator) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case phrase := <-scanCh:
			run, err := orch.Run(ctx, phrase)
			if err != nil {
				a.logger.ErrorContext(ctx, "ad-hoc run failed",
					slog.String("phrase", phrase),
					slog.String("error", err.Error()),
				)
				continue
			}
			a.logger.InfoContext(ctx, "ad-hoc run finished",
				slog.String("phrase", phrase),
				slog.String("run_id", run.RunID),
				slog.Int("accepted", len(run.Accepted)),
			)
		}
	}
}
