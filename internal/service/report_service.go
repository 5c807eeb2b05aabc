package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

const (
	lockTopSellersReport   = "report:top-sellers"
	lockTransactionsReport = "report:transactions"
)

// ReportArchive stores report exports.
type ReportArchive interface {
	ArchiveTopSellers(ctx context.Context, report domain.TopSellersReport) (domain.ExportResult, error)
	ArchiveTransactions(ctx context.Context, filter domain.TransactionFilter, txs []domain.Transaction) (domain.ExportResult, error)
	ListReports(ctx context.Context, kind domain.ReportKind) ([]domain.BlobInfo, error)
	OpenReport(ctx context.Context, path string) (io.ReadCloser, error)
}

// ReportSource is the part of ReconciliationService that exports read.
type ReportSource interface {
	TopSellers(ctx context.Context, limit int) (domain.TopSellers, error)
	Overview(ctx context.Context) (domain.Overview, error)
	CollectTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
}

// ReportConfig tunes ReportService.
type ReportConfig struct {
	TopN     int           // ranking size of the top-sellers export
	LockTTL  time.Duration // how long an export may hold its lock
	CacheTTL time.Duration // ranking cache lifetime; zero disables warming
}

// ReportService writes report snapshots to object storage. Exports of the
// same kind never run concurrently across processes.
type ReportService struct {
	source  ReportSource
	archive ReportArchive
	locks   domain.LockManager  // optional
	cache   domain.RankingCache // optional
	audit   domain.AuditLog     // optional
	cfg     ReportConfig
	logger  *slog.Logger
}

// NewReportService creates a ReportService. locks, cache and audit may be
// nil.
func NewReportService(
	source ReportSource,
	archive ReportArchive,
	locks domain.LockManager,
	cache domain.RankingCache,
	audit domain.AuditLog,
	cfg ReportConfig,
	logger *slog.Logger,
) *ReportService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &ReportService{
		source:  source,
		archive: archive,
		locks:   locks,
		cache:   cache,
		audit:   audit,
		cfg:     cfg,
		logger:  logger,
	}
}

// ExportTopSellers writes the ranking and the overview as one snapshot.
// limit <= 0 uses the configured TopN. A degraded ranking is still
// exported; the snapshot carries the flag.
func (s *ReportService) ExportTopSellers(ctx context.Context, limit int) (domain.ExportResult, error) {
	if limit <= 0 {
		limit = s.cfg.TopN
	}

	release, err := s.acquire(ctx, lockTopSellersReport)
	if err != nil {
		return domain.ExportResult{}, err
	}
	defer release()

	ranking, err := s.source.TopSellers(ctx, limit)
	if err != nil {
		return domain.ExportResult{}, fmt.Errorf("report_service: top sellers: %w", err)
	}
	overview, err := s.source.Overview(ctx)
	if err != nil {
		return domain.ExportResult{}, fmt.Errorf("report_service: overview: %w", err)
	}

	res, err := s.archive.ArchiveTopSellers(ctx, domain.TopSellersReport{
		GeneratedAt: ranking.GeneratedAt,
		Ranking:     ranking,
		Overview:    overview,
	})
	if err != nil {
		return domain.ExportResult{}, fmt.Errorf("report_service: archive top sellers: %w", err)
	}
	res.Degraded = ranking.Degraded || overview.Degraded

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.SetTopSellers(ctx, limit, ranking, s.cfg.CacheTTL); err != nil {
			s.logger.WarnContext(ctx, "report_service: ranking cache set failed",
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "report_service: exported top sellers",
		slog.String("path", res.Path),
		slog.Int("sellers", res.Records),
		slog.Bool("degraded", ranking.Degraded),
	)
	return res, nil
}

// ExportTransactions writes every transaction matching filter as JSONL. A
// source failure fails the export.
func (s *ReportService) ExportTransactions(ctx context.Context, filter domain.TransactionFilter) (domain.ExportResult, error) {
	release, err := s.acquire(ctx, lockTransactionsReport)
	if err != nil {
		return domain.ExportResult{}, err
	}
	defer release()

	txs, err := s.source.CollectTransactions(ctx, filter)
	if err != nil {
		return domain.ExportResult{}, fmt.Errorf("report_service: collect: %w", err)
	}

	res, err := s.archive.ArchiveTransactions(ctx, filter, txs)
	if err != nil {
		return domain.ExportResult{}, fmt.Errorf("report_service: archive transactions: %w", err)
	}

	s.logger.InfoContext(ctx, "report_service: exported transactions",
		slog.String("filter", filter.String()),
		slog.String("path", res.Path),
		slog.Int("transactions", res.Records),
	)
	return res, nil
}

// ListReports returns stored exports of one kind.
func (s *ReportService) ListReports(ctx context.Context, kind domain.ReportKind) ([]domain.BlobInfo, error) {
	infos, err := s.archive.ListReports(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("report_service: list reports: %w", err)
	}
	return infos, nil
}

// OpenReport returns the body of a stored export. The caller closes it.
func (s *ReportService) OpenReport(ctx context.Context, path string) (io.ReadCloser, error) {
	body, err := s.archive.OpenReport(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("report_service: open %s: %w", path, err)
	}
	return body, nil
}

// History returns recent audit entries, newest first.
func (s *ReportService) History(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if s.audit == nil {
		return []domain.AuditEntry{}, nil
	}
	entries, err := s.audit.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("report_service: history: %w", err)
	}
	return entries, nil
}

func (s *ReportService) acquire(ctx context.Context, key string) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}
	release, err := s.locks.Acquire(ctx, key, s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			s.logger.InfoContext(ctx, "report_service: export already running",
				slog.String("lock", key),
			)
		}
		return nil, fmt.Errorf("report_service: acquire %s: %w", key, err)
	}
	return release, nil
}
