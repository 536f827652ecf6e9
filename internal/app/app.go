// Package app wires the card scout together and runs the configured mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cardscout/cardscout/internal/config"
)

// App owns the application lifecycle: it wires dependencies, runs the
// configured mode until the context is cancelled, and closes everything in
// reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func() error
}

// New creates an App. Dependencies are wired lazily in Run so that a
// validation-only invocation never opens connections.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires the dependency graph and dispatches to the configured mode. It
// blocks until the mode finishes or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	deps, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire: %w", err)
	}
	a.closers = deps.Closers

	mode := strings.ToLower(a.cfg.Mode)
	a.logger.InfoContext(ctx, "starting", slog.String("mode", mode))

	switch mode {
	case "once":
		return a.runOnce(ctx, deps)
	case "scan":
		return a.runScan(ctx, deps)
	case "server":
		return a.runServer(ctx, deps)
	case "full":
		return a.runFull(ctx, deps)
	default:
		return fmt.Errorf("app: unknown mode %q", a.cfg.Mode)
	}
}

// Close releases all wired resources in reverse acquisition order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("close failed", slog.String("error", err.Error()))
		}
	}
	a.closers = nil
}
