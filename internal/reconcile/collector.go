// Package reconcile joins directory records with transactions pulled from the
// payment API and derives activity statistics from the combined set. Every
// function here works on request-scoped data; nothing is cached between
// calls.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

const (
	DefaultPageSize = 100
	DefaultMaxPages = 1000
)

// CollectorConfig bounds a full scan.
type CollectorConfig struct {
	PageSize int // records requested per page
	MaxPages int // scan fails once this many pages were read without reaching the end
}

// Collector drives a TransactionSource across every page of a listing.
type Collector struct {
	source   domain.TransactionSource
	pageSize int
	maxPages int
	logger   *slog.Logger
}

// NewCollector creates a Collector. Zero config values fall back to
// DefaultPageSize and DefaultMaxPages.
func NewCollector(source domain.TransactionSource, cfg CollectorConfig, logger *slog.Logger) *Collector {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &Collector{
		source:   source,
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		logger:   logger.With(slog.String("component", "collector")),
	}
}

// CollectAll returns every transaction in the filtered listing. Pages are
// requested one after another until the reported current page reaches the
// reported total or a page comes back empty. Any page failure discards what
// was read so far and returns an error wrapping domain.ErrSourceUnavailable.
func (c *Collector) CollectAll(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	var all []domain.Transaction

	for page := 1; ; page++ {
		if page > c.maxPages {
			return nil, fmt.Errorf("collector: %s: gave up after %d pages: %w",
				filter, c.maxPages, domain.ErrSourceUnavailable)
		}

		res, err := c.source.FetchPage(ctx, filter, page, c.pageSize)
		if err != nil {
			return nil, fmt.Errorf("collector: %s page %d: %w", filter, page, asUnavailable(err))
		}

		all = append(all, res.Transactions...)

		if len(res.Transactions) == 0 || res.Pages.Current >= res.Pages.Total {
			c.logger.DebugContext(ctx, "scan complete",
				slog.String("filter", filter.String()),
				slog.Int("pages", page),
				slog.Int("transactions", len(all)),
			)
			return all, nil
		}
	}
}

// asUnavailable makes sure a fetch failure matches ErrSourceUnavailable
// without hiding its original cause.
func asUnavailable(err error) error {
	if errors.Is(err, domain.ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
}
