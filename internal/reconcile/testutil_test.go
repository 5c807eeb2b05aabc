package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// fakeSource serves pre-built pages keyed by page number.
type fakeSource struct {
	pages  map[int]domain.TransactionPage
	failAt int
	err    error
	calls  []int
}

func (f *fakeSource) FetchPage(_ context.Context, _ domain.TransactionFilter, page, _ int) (domain.TransactionPage, error) {
	f.calls = append(f.calls, page)
	if f.failAt == page {
		if f.err == nil {
			return domain.TransactionPage{}, errors.New("boom")
		}
		return domain.TransactionPage{}, f.err
	}
	return f.pages[page], nil
}

func (f *fakeSource) FetchTransaction(context.Context, string) (domain.Transaction, error) {
	return domain.Transaction{}, domain.ErrNotFound
}

func page(current, total int, txs ...domain.Transaction) domain.TransactionPage {
	return domain.TransactionPage{
		Transactions: txs,
		Pages:        domain.PageInfo{Current: current, Total: total},
	}
}
