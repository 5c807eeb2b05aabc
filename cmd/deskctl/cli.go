package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/alanyoungcy/merchantdesk/internal/app"
	"github.com/alanyoungcy/merchantdesk/internal/config"
	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// reconciler is what the read commands need.
type reconciler interface {
	TopSellers(ctx context.Context, limit int) (domain.TopSellers, error)
	SellerDetail(ctx context.Context, sellerID string) (domain.SellerDetail, error)
	MerchantDetail(ctx context.Context, merchantID string) (domain.MerchantDetail, error)
	TransactionDetail(ctx context.Context, txID string) (domain.TransactionDetail, error)
	Overview(ctx context.Context) (domain.Overview, error)
	ListSellers(ctx context.Context) ([]domain.Seller, error)
	ListMerchants(ctx context.Context) ([]domain.Merchant, error)
}

// reporter is what the export commands need.
type reporter interface {
	ExportTopSellers(ctx context.Context, limit int) (domain.ExportResult, error)
	ExportTransactions(ctx context.Context, filter domain.TransactionFilter) (domain.ExportResult, error)
	ListReports(ctx context.Context, kind domain.ReportKind) ([]domain.BlobInfo, error)
	History(ctx context.Context, limit int) ([]domain.AuditEntry, error)
	OpenReport(ctx context.Context, path string) (io.ReadCloser, error)
}

// session is one connected set of backends. close releases them.
type session struct {
	recon   reconciler
	reports reporter // nil when object storage is disabled
	close   func()
}

// cli carries state shared by every command.
type cli struct {
	out        io.Writer
	errOut     io.Writer
	configPath string
	format     string
	verbose    bool

	// connect opens a session; replaced in tests.
	connect func(ctx context.Context, c *cli) (*session, error)
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{out: out, errOut: errOut, connect: connectBackends}
}

// connectBackends loads configuration and wires the real backends.
func connectBackends(ctx context.Context, c *cli) (*session, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	// The CLI never serves HTTP, so server settings are irrelevant here.
	cfg.Mode = "server"
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level}))

	deps, cleanup, err := app.Wire(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	svcs := app.NewServices(cfg, deps, logger)

	s := &session{recon: svcs.Reconciliation, close: cleanup}
	if svcs.Reports != nil {
		s.reports = svcs.Reports
	}
	return s, nil
}

// withSession runs fn against a freshly connected session.
func (c *cli) withSession(ctx context.Context, fn func(*session) error) error {
	s, err := c.connect(ctx, c)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer s.close()
	return fn(s)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
