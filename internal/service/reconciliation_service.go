package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
	"github.com/alanyoungcy/merchantdesk/internal/reconcile"
)

// Field-level messages attached to TransactionDetail lookups.
const (
	msgMerchantIDUnavailable = "merchant id unavailable"
	msgMerchantNotFound      = "merchant not found"
	msgSellerNotFound        = "seller not found"
)

// ReconciliationService answers the dashboard questions by joining the
// directory with transactions from the payment API. Directory failures are
// returned as errors. Transaction source failures degrade the result
// instead, except for the primary fetch of TransactionDetail.
type ReconciliationService struct {
	directory domain.Directory
	source    domain.TransactionSource
	collector *reconcile.Collector
	logger    *slog.Logger
	now       func() time.Time
}

// NewReconciliationService creates a ReconciliationService.
func NewReconciliationService(
	directory domain.Directory,
	source domain.TransactionSource,
	collectorCfg reconcile.CollectorConfig,
	logger *slog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		directory: directory,
		source:    source,
		collector: reconcile.NewCollector(source, collectorCfg, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// TopSellers ranks every directory seller by the number of transactions
// whose user.id is the seller id.
func (s *ReconciliationService) TopSellers(ctx context.Context, limit int) (domain.TopSellers, error) {
	sellers, err := s.directory.ListSellers(ctx)
	if err != nil {
		return domain.TopSellers{}, fmt.Errorf("reconciliation_service: list sellers: %w", err)
	}

	result := domain.TopSellers{GeneratedAt: s.now().UTC()}

	var counts map[string]int
	txs, err := s.collector.CollectAll(ctx, domain.AllTransactions())
	if err != nil {
		s.degraded(ctx, "top sellers", err)
		result.Degraded = true
	} else {
		counts, result.TotalTransactions = reconcile.CountByUser(txs)
	}

	result.Sellers = reconcile.Rank(sellers, counts, result.TotalTransactions, limit)
	return result, nil
}

// SellerDetail returns one seller with its merchant, its transactions and
// their statistics.
func (s *ReconciliationService) SellerDetail(ctx context.Context, sellerID string) (domain.SellerDetail, error) {
	seller, err := s.directory.GetSeller(ctx, sellerID)
	if err != nil {
		return domain.SellerDetail{}, fmt.Errorf("reconciliation_service: get seller %q: %w", sellerID, err)
	}

	detail := domain.SellerDetail{
		Seller:       seller,
		Transactions: []domain.Transaction{},
		Stats:        domain.SellerStats{TotalAmount: decimal.Zero},
	}

	if seller.MerchantID != "" {
		m, err := s.directory.GetMerchant(ctx, seller.MerchantID)
		switch {
		case err == nil:
			detail.Merchant = &m
		case errors.Is(err, domain.ErrNotFound):
			s.logger.WarnContext(ctx, "reconciliation_service: seller merchant missing",
				slog.String("seller_id", seller.ID),
				slog.String("merchant_id", seller.MerchantID),
			)
		default:
			return domain.SellerDetail{}, fmt.Errorf("reconciliation_service: get merchant %q: %w", seller.MerchantID, err)
		}
	}

	filter := domain.AllTransactions()
	if seller.TerminalID != "" {
		filter = domain.ByTerminal(seller.TerminalID)
	}

	txs, err := s.collector.CollectAll(ctx, filter)
	if err != nil {
		s.degraded(ctx, "seller detail", err)
		detail.Degraded = true
		detail.SourceError = err.Error()
		return detail, nil
	}

	// The server-side filter is not trusted on its own.
	detail.Transactions = reconcile.FilterForSeller(txs, seller)
	detail.Stats = reconcile.SellerStatsFor(detail.Transactions)
	return detail, nil
}

// MerchantDetail returns one merchant with its sellers, its transactions and
// their statistics.
func (s *ReconciliationService) MerchantDetail(ctx context.Context, merchantID string) (domain.MerchantDetail, error) {
	merchant, err := s.directory.GetMerchant(ctx, merchantID)
	if err != nil {
		return domain.MerchantDetail{}, fmt.Errorf("reconciliation_service: get merchant %q: %w", merchantID, err)
	}

	sellers, err := s.directory.ListSellersByMerchant(ctx, merchant.ID)
	if err != nil {
		return domain.MerchantDetail{}, fmt.Errorf("reconciliation_service: list sellers of %q: %w", merchantID, err)
	}
	if sellers == nil {
		sellers = []domain.Seller{}
	}

	detail := domain.MerchantDetail{
		Merchant:     merchant,
		Sellers:      sellers,
		Transactions: []domain.Transaction{},
		Stats: domain.MerchantStats{
			TotalSellers:  len(sellers),
			ActiveSellers: countActive(sellers),
			Transactions:  reconcile.Summarize(nil),
		},
	}

	txs, err := s.collector.CollectAll(ctx, domain.ByMerchant(merchant.ID))
	if err != nil {
		s.degraded(ctx, "merchant detail", err)
		detail.Degraded = true
		detail.SourceError = err.Error()
		return detail, nil
	}

	if txs != nil {
		detail.Transactions = txs
	}
	detail.Stats.Transactions = reconcile.Summarize(txs)
	return detail, nil
}

// TransactionDetail fetches one transaction and looks up its merchant and
// seller. The lookups run concurrently and their failures are reported per
// field; only the transaction fetch itself can fail the call.
func (s *ReconciliationService) TransactionDetail(ctx context.Context, txID string) (domain.TransactionDetail, error) {
	tx, err := s.source.FetchTransaction(ctx, txID)
	if err != nil {
		return domain.TransactionDetail{}, fmt.Errorf("reconciliation_service: fetch transaction %q: %w", txID, err)
	}

	detail := domain.TransactionDetail{Transaction: tx, View: tx.View()}
	link := reconcile.Link(tx, nil)

	// Each goroutine owns one lookup field; neither returns an error.
	var g errgroup.Group
	g.Go(func() error {
		detail.Merchant = s.lookupMerchant(ctx, link.MerchantID)
		return nil
	})
	g.Go(func() error {
		detail.Seller = s.lookupSeller(ctx, link.SellerID)
		return nil
	})
	_ = g.Wait()

	return detail, nil
}

func (s *ReconciliationService) lookupMerchant(ctx context.Context, id string) domain.Lookup[domain.Merchant] {
	if id == "" {
		return domain.Lookup[domain.Merchant]{Error: msgMerchantIDUnavailable}
	}
	res := domain.Lookup[domain.Merchant]{ID: id}
	m, err := s.directory.GetMerchant(ctx, id)
	switch {
	case err == nil:
		res.Record = &m
	case errors.Is(err, domain.ErrNotFound):
		res.Error = msgMerchantNotFound
	default:
		s.logger.WarnContext(ctx, "reconciliation_service: merchant lookup failed",
			slog.String("merchant_id", id),
			slog.String("error", err.Error()),
		)
		res.Error = err.Error()
	}
	return res
}

func (s *ReconciliationService) lookupSeller(ctx context.Context, id string) domain.Lookup[domain.Seller] {
	if id == "" {
		return domain.Lookup[domain.Seller]{}
	}
	res := domain.Lookup[domain.Seller]{ID: id}
	seller, err := s.directory.GetSeller(ctx, id)
	switch {
	case err == nil:
		res.Record = &seller
	case errors.Is(err, domain.ErrNotFound):
		res.Error = msgSellerNotFound
	default:
		s.logger.WarnContext(ctx, "reconciliation_service: seller lookup failed",
			slog.String("seller_id", id),
			slog.String("error", err.Error()),
		)
		res.Error = err.Error()
	}
	return res
}

// Overview returns the dashboard headline figures.
func (s *ReconciliationService) Overview(ctx context.Context) (domain.Overview, error) {
	merchants, err := s.directory.ListMerchants(ctx)
	if err != nil {
		return domain.Overview{}, fmt.Errorf("reconciliation_service: list merchants: %w", err)
	}
	sellers, err := s.directory.ListSellers(ctx)
	if err != nil {
		return domain.Overview{}, fmt.Errorf("reconciliation_service: list sellers: %w", err)
	}

	ov := domain.Overview{
		TotalMerchants:   len(merchants),
		TotalSellers:     len(sellers),
		ActiveSellers:    countActive(sellers),
		SuccessfulAmount: decimal.Zero,
	}

	txs, err := s.collector.CollectAll(ctx, domain.AllTransactions())
	if err != nil {
		s.degraded(ctx, "overview", err)
		ov.Degraded = true
		ov.SourceError = err.Error()
		return ov, nil
	}

	stats := reconcile.Summarize(txs)
	ov.TotalTransactions = stats.TotalTransactions
	ov.SuccessfulAmount = stats.SuccessfulAmount
	return ov, nil
}

// ListSellers returns the seller directory in id order.
func (s *ReconciliationService) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	sellers, err := s.directory.ListSellers(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconciliation_service: list sellers: %w", err)
	}
	return sellers, nil
}

// ListMerchants returns the merchant directory in id order.
func (s *ReconciliationService) ListMerchants(ctx context.Context) ([]domain.Merchant, error) {
	merchants, err := s.directory.ListMerchants(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconciliation_service: list merchants: %w", err)
	}
	return merchants, nil
}

// CollectTransactions runs a full scan. Unlike the dashboard calls a source
// failure is returned as an error.
func (s *ReconciliationService) CollectTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	txs, err := s.collector.CollectAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("reconciliation_service: collect %s: %w", filter, err)
	}
	return txs, nil
}

func (s *ReconciliationService) degraded(ctx context.Context, call string, err error) {
	s.logger.WarnContext(ctx, "reconciliation_service: transaction source failed, returning degraded result",
		slog.String("call", call),
		slog.String("error", err.Error()),
	)
}

func countActive(sellers []domain.Seller) int {
	n := 0
	for _, s := range sellers {
		if s.Status.IsActive() {
			n++
		}
	}
	return n
}
