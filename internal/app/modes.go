package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
	"github.com/alanyoungcy/merchantdesk/internal/notify"
	"github.com/alanyoungcy/merchantdesk/internal/server"
	"github.com/alanyoungcy/merchantdesk/internal/server/handler"
)

// ServerMode serves the HTTP API until ctx is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, svcs)
	return g.Wait()
}

// ReportMode exports the top-sellers snapshot on every reports.interval tick
// until ctx is cancelled.
func (a *App) ReportMode(ctx context.Context, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting report mode",
		slog.Duration("interval", a.cfg.Reports.Interval.Duration),
	)
	if svcs.Reports == nil {
		return errors.New("report mode: object storage is not configured")
	}
	return a.runReportLoop(ctx, svcs.Reports)
}

// FullMode runs the HTTP API and the periodic report export together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting full mode")
	if svcs.Reports == nil {
		return errors.New("full mode: object storage is not configured")
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, svcs)
	g.Go(func() error {
		return a.runReportLoop(ctx, svcs.Reports)
	})
	return g.Wait()
}

// topSellersExporter is the part of ReportService the loop drives.
type topSellersExporter interface {
	ExportTopSellers(ctx context.Context, limit int) (domain.ExportResult, error)
}

// runReportLoop exports once immediately and then on every tick. A failed
// export is logged and retried on the next tick.
func (a *App) runReportLoop(ctx context.Context, exporter topSellersExporter) error {
	interval := a.cfg.Reports.Interval.Duration
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		a.exportOnce(ctx, exporter)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// alerter is the part of notify.Notifier the report loop uses.
type alerter interface {
	Notify(ctx context.Context, a notify.Alert) error
}

func (a *App) exportOnce(ctx context.Context, exporter topSellersExporter) {
	start := time.Now()
	res, err := exporter.ExportTopSellers(ctx, 0)
	switch {
	case err == nil:
		a.logger.InfoContext(ctx, "report exported",
			slog.String("kind", string(res.Kind)),
			slog.String("path", res.Path),
			slog.Int("records", res.Records),
			slog.Bool("degraded", res.Degraded),
			slog.Duration("took", time.Since(start)),
		)
		a.alert(ctx, notify.Alert{
			Event: notify.EventReportExported,
			Title: "Top sellers report exported",
			Lines: []string{
				"Path: " + res.Path,
				fmt.Sprintf("Sellers: %d", res.Records),
			},
		})
		if res.Degraded {
			a.alert(ctx, notify.Alert{
				Event: notify.EventSourceDegraded,
				Title: "Transaction source unavailable",
				Lines: []string{
					"The top sellers report was built without transaction data.",
					"Path: " + res.Path,
				},
			})
		}
	case errors.Is(err, domain.ErrLockHeld):
		a.logger.InfoContext(ctx, "report skipped; another export holds the lock")
	case ctx.Err() != nil:
		// shutting down
	default:
		a.logger.ErrorContext(ctx, "report export failed",
			slog.String("error", err.Error()),
		)
		a.alert(ctx, notify.Alert{
			Event: notify.EventReportFailed,
			Title: "Top sellers report failed",
			Lines: []string{"Error: " + err.Error()},
		})
	}
}

func (a *App) alert(ctx context.Context, alert notify.Alert) {
	if a.alerts == nil {
		return
	}
	if err := a.alerts.Notify(ctx, alert); err != nil {
		a.logger.WarnContext(ctx, "alert delivery failed",
			slog.String("event", string(alert.Event)),
			slog.String("error", err.Error()),
		)
	}
}

// startHTTPServer adds the HTTP server goroutines to g. The server is shut
// down gracefully when ctx is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *Services) {
	validate := handler.NewValidator()

	pingers := map[string]handler.Pinger{
		"postgres": deps.Postgres,
		"redis":    deps.Redis,
	}
	if deps.S3 != nil {
		pingers["s3"] = pingFunc(deps.S3.Health)
	}

	handlers := server.Handlers{
		Health:       handler.NewHealthHandler(pingers, a.logger),
		Dashboard:    handler.NewDashboardHandler(svcs.Reconciliation, svcs.Ranking, validate, a.logger),
		Sellers:      handler.NewSellerHandler(svcs.Reconciliation, a.logger),
		Merchants:    handler.NewMerchantHandler(svcs.Reconciliation, a.logger),
		Transactions: handler.NewTransactionHandler(svcs.Reconciliation, a.logger),
	}
	if svcs.Reports != nil {
		handlers.Reports = handler.NewReportHandler(svcs.Reports, validate, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:           a.cfg.Server.Port,
		CORSOrigins:    a.cfg.Server.CORSOrigins,
		APIKey:         a.cfg.Server.APIKey,
		RequestTimeout: a.cfg.Server.RequestTimeout.Duration,
		RateLimit:      a.cfg.Server.RateLimit,
		RateWindow:     a.cfg.Server.RateWindow.Duration,
	}, handlers, deps.RateLimiter, a.logger)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// pingFunc adapts a health probe with a different name to handler.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
