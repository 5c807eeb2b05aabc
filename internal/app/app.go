// Package app runs merchantdesk: it wires the directory store, the payment
// API client, Redis, object storage and the services, then blocks in the
// configured mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/merchantdesk/internal/config"
)

// App owns one run of the process.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	alerts  alerter // nil when no alert channel is configured
	closers []func()
}

// New creates an App for cfg.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires the backends and blocks in the configured mode until ctx is
// cancelled or the mode fails. Backends stay open until Close.
func (a *App) Run(ctx context.Context) error {
	mode := strings.ToLower(a.cfg.Mode)
	a.logger.InfoContext(ctx, "starting merchantdesk",
		slog.String("mode", mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.closers = append(a.closers, cleanup)
	if deps.Notifier.Enabled() {
		a.alerts = deps.Notifier
	}

	svcs := NewServices(a.cfg, deps, a.logger)

	switch mode {
	case "server":
		return a.ServerMode(ctx, deps, svcs)
	case "report":
		return a.ReportMode(ctx, svcs)
	case "full":
		return a.FullMode(ctx, deps, svcs)
	}
	return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
}

// Close releases the backends in reverse order. Calling it again is a no-op.
func (a *App) Close() {
	if len(a.closers) == 0 {
		return
	}
	a.logger.Info("closing backends")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
