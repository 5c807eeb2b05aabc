package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type fakeDirectory struct {
	mu        sync.Mutex
	sellers   []domain.Seller
	merchants []domain.Merchant
	err       error // returned by every call when set
	calls     []string
}

func (d *fakeDirectory) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *fakeDirectory) GetSeller(_ context.Context, id string) (domain.Seller, error) {
	d.record("GetSeller:" + id)
	if d.err != nil {
		return domain.Seller{}, d.err
	}
	for _, s := range d.sellers {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Seller{}, fmt.Errorf("fake: seller %s: %w", id, domain.ErrNotFound)
}

func (d *fakeDirectory) ListSellers(context.Context) ([]domain.Seller, error) {
	d.record("ListSellers")
	if d.err != nil {
		return nil, d.err
	}
	return d.sellers, nil
}

func (d *fakeDirectory) ListSellersByMerchant(_ context.Context, merchantID string) ([]domain.Seller, error) {
	d.record("ListSellersByMerchant:" + merchantID)
	if d.err != nil {
		return nil, d.err
	}
	var out []domain.Seller
	for _, s := range d.sellers {
		if s.MerchantID == merchantID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *fakeDirectory) GetMerchant(_ context.Context, id string) (domain.Merchant, error) {
	d.record("GetMerchant:" + id)
	if d.err != nil {
		return domain.Merchant{}, d.err
	}
	for _, m := range d.merchants {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Merchant{}, fmt.Errorf("fake: merchant %s: %w", id, domain.ErrNotFound)
}

func (d *fakeDirectory) ListMerchants(context.Context) ([]domain.Merchant, error) {
	d.record("ListMerchants")
	if d.err != nil {
		return nil, d.err
	}
	return d.merchants, nil
}

// fakeSource returns every transaction on one page, filtered like the API.
type fakeSource struct {
	txs      []domain.Transaction
	err      error
	filters  []domain.TransactionFilter
	byID     map[string]domain.Transaction
	fetchErr error
}

func (s *fakeSource) FetchPage(_ context.Context, f domain.TransactionFilter, page, _ int) (domain.TransactionPage, error) {
	s.filters = append(s.filters, f)
	if s.err != nil {
		return domain.TransactionPage{}, s.err
	}
	var out []domain.Transaction
	for _, tx := range s.txs {
		switch f.Kind {
		case domain.FilterTerminal:
			if tx.TerminalTID != f.Value {
				continue
			}
		case domain.FilterMerchant:
			if tx.MerchantRefID != f.Value && tx.MerchantIDField != f.Value {
				continue
			}
		}
		out = append(out, tx)
	}
	return domain.TransactionPage{Transactions: out, Pages: domain.PageInfo{Current: page, Total: 1}}, nil
}

func (s *fakeSource) FetchTransaction(_ context.Context, id string) (domain.Transaction, error) {
	if s.fetchErr != nil {
		return domain.Transaction{}, s.fetchErr
	}
	tx, ok := s.byID[id]
	if !ok {
		return domain.Transaction{}, domain.ErrNotFound
	}
	return tx, nil
}

var errSourceDown = fmt.Errorf("fake: %w", domain.ErrSourceUnavailable)
var errDirectoryDown = errors.New("fake: directory down")

type mockLocks struct {
	mock.Mock
}

func (m *mockLocks) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	args := m.Called(ctx, key, ttl)
	if fn, ok := args.Get(0).(func()); ok {
		return fn, args.Error(1)
	}
	return nil, args.Error(1)
}

type memRankingCache struct {
	entries map[int]domain.TopSellers
	getErr  error
	sets    int
}

func (c *memRankingCache) GetTopSellers(_ context.Context, limit int) (domain.TopSellers, error) {
	if c.getErr != nil {
		return domain.TopSellers{}, c.getErr
	}
	ts, ok := c.entries[limit]
	if !ok {
		return domain.TopSellers{}, domain.ErrNotFound
	}
	return ts, nil
}

func (c *memRankingCache) SetTopSellers(_ context.Context, limit int, ts domain.TopSellers, _ time.Duration) error {
	if c.entries == nil {
		c.entries = map[int]domain.TopSellers{}
	}
	c.sets++
	c.entries[limit] = ts
	return nil
}
