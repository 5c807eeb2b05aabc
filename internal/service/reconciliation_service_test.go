package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
	"github.com/alanyoungcy/merchantdesk/internal/reconcile"
)

func newTestService(dir *fakeDirectory, src *fakeSource) *ReconciliationService {
	svc := NewReconciliationService(dir, src, reconcile.CollectorConfig{}, discardLogger())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestTopSellers(t *testing.T) {
	dir := &fakeDirectory{sellers: []domain.Seller{
		{ID: "s1", Name: "Alpha"}, {ID: "s2", Name: "Beta"}, {ID: "s3", Name: "Gamma"},
	}}
	var txs []domain.Transaction
	for i := 0; i < 4; i++ {
		txs = append(txs, domain.Transaction{UserID: "s1"}, domain.Transaction{UserID: "s2"})
	}
	// terminal matches do not count for the ranking
	txs = append(txs, domain.Transaction{TerminalTID: "T3"})
	src := &fakeSource{txs: txs}

	got, err := newTestService(dir, src).TopSellers(context.Background(), 2)
	require.NoError(t, err)

	assert.False(t, got.Degraded)
	assert.Equal(t, 8, got.TotalTransactions)
	assert.Equal(t, []domain.TopSellerEntry{
		{ID: "s1", Name: "Alpha", TransactionCount: 4, PercentageActivity: 50},
		{ID: "s2", Name: "Beta", TransactionCount: 4, PercentageActivity: 50},
	}, got.Sellers)
	assert.Equal(t, []domain.TransactionFilter{domain.AllTransactions()}, src.filters)
}

func TestTopSellers_SourceFailureDegrades(t *testing.T) {
	dir := &fakeDirectory{sellers: []domain.Seller{{ID: "s1"}, {ID: "s2"}}}
	got, err := newTestService(dir, &fakeSource{err: errSourceDown}).TopSellers(context.Background(), 5)
	require.NoError(t, err)

	assert.True(t, got.Degraded)
	require.Len(t, got.Sellers, 2)
	for _, e := range got.Sellers {
		assert.Zero(t, e.TransactionCount)
		assert.Zero(t, e.PercentageActivity)
	}
}

func TestTopSellers_DirectoryFailureIsFatal(t *testing.T) {
	_, err := newTestService(&fakeDirectory{err: errDirectoryDown}, &fakeSource{}).TopSellers(context.Background(), 5)
	assert.ErrorIs(t, err, errDirectoryDown)
}

func TestSellerDetail(t *testing.T) {
	dir := &fakeDirectory{
		sellers:   []domain.Seller{{ID: "s1", TerminalID: "T1", MerchantID: "m1"}},
		merchants: []domain.Merchant{{ID: "m1", Name: "Shop"}},
	}
	src := &fakeSource{txs: []domain.Transaction{
		{ID: "a", TerminalTID: "T1", Status: "approved", Amount: amount("10")},
		{ID: "b", TerminalTID: "T1", Status: "failed", Amount: amount("5")},
		{ID: "c", TerminalTID: "T2", UserID: "s1", Status: "approved", Amount: amount("7")},
	}}

	got, err := newTestService(dir, src).SellerDetail(context.Background(), "s1")
	require.NoError(t, err)

	assert.False(t, got.Degraded)
	require.NotNil(t, got.Merchant)
	assert.Equal(t, "Shop", got.Merchant.Name)
	assert.Equal(t, []domain.TransactionFilter{domain.ByTerminal("T1")}, src.filters)
	// tx c is excluded server-side by the terminal filter
	assert.Len(t, got.Transactions, 2)
	assert.Equal(t, 2, got.Stats.TotalTransactions)
	assert.Equal(t, 1, got.Stats.SuccessfulTransactions)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Stats.TotalAmount))
}

func TestSellerDetail_NoTerminalScansEverythingAndFiltersByUser(t *testing.T) {
	dir := &fakeDirectory{sellers: []domain.Seller{{ID: "s1"}}}
	src := &fakeSource{txs: []domain.Transaction{
		{ID: "a", UserID: "s1", Status: "Accepted", Amount: amount("0")},
		{ID: "b", UserID: "s2", Status: "approved", Amount: amount("3")},
		{ID: "c", MetadataSellerID: "s1", Status: "approved", Amount: amount("4")},
	}}

	got, err := newTestService(dir, src).SellerDetail(context.Background(), "s1")
	require.NoError(t, err)

	assert.Nil(t, got.Merchant)
	assert.Equal(t, []domain.TransactionFilter{domain.AllTransactions()}, src.filters)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, 1, got.Stats.SuccessfulTransactions)
	assert.True(t, got.Stats.TotalAmount.IsZero())
}

func TestSellerDetail_SourceFailureDegrades(t *testing.T) {
	dir := &fakeDirectory{
		sellers:   []domain.Seller{{ID: "s1", TerminalID: "T1", MerchantID: "m1"}},
		merchants: []domain.Merchant{{ID: "m1"}},
	}

	got, err := newTestService(dir, &fakeSource{err: errSourceDown}).SellerDetail(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, "s1", got.Seller.ID)
	assert.NotNil(t, got.Merchant)
	assert.True(t, got.Degraded)
	assert.NotEmpty(t, got.SourceError)
	assert.Empty(t, got.Transactions)
	assert.Zero(t, got.Stats.TotalTransactions)
	assert.True(t, got.Stats.TotalAmount.IsZero())
}

func TestSellerDetail_MissingSellerAndMissingMerchant(t *testing.T) {
	dir := &fakeDirectory{sellers: []domain.Seller{{ID: "s1", MerchantID: "gone"}}}
	svc := newTestService(dir, &fakeSource{})

	_, err := svc.SellerDetail(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := svc.SellerDetail(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, got.Merchant)
}

func TestMerchantDetail(t *testing.T) {
	dir := &fakeDirectory{
		merchants: []domain.Merchant{{ID: "m1"}},
		sellers: []domain.Seller{
			{ID: "s1", MerchantID: "m1", Status: domain.AccountStatusActive},
			{ID: "s2", MerchantID: "m1", Status: domain.AccountStatusInactive},
			{ID: "s3", MerchantID: "m2", Status: domain.AccountStatusActive},
		},
	}
	src := &fakeSource{txs: []domain.Transaction{
		{MerchantRefID: "m1", Status: "approved", Amount: amount("10")},
		{MerchantIDField: "m1", Status: "declined", Amount: amount("2")},
		{MerchantIDField: "m2", Status: "approved", Amount: amount("99")},
	}}

	got, err := newTestService(dir, src).MerchantDetail(context.Background(), "m1")
	require.NoError(t, err)

	assert.Len(t, got.Sellers, 2)
	assert.Equal(t, 2, got.Stats.TotalSellers)
	assert.Equal(t, 1, got.Stats.ActiveSellers)
	assert.Equal(t, 2, got.Stats.Transactions.TotalTransactions)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Stats.Transactions.SuccessfulAmount))
	assert.True(t, decimal.NewFromInt(12).Equal(got.Stats.Transactions.GrossAmount))
}

func TestMerchantDetail_SourceFailureDegrades(t *testing.T) {
	dir := &fakeDirectory{
		merchants: []domain.Merchant{{ID: "m1"}},
		sellers:   []domain.Seller{{ID: "s1", MerchantID: "m1", Status: domain.AccountStatusActive}},
	}
	got, err := newTestService(dir, &fakeSource{err: errSourceDown}).MerchantDetail(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, got.Degraded)
	assert.Equal(t, 1, got.Stats.ActiveSellers)
	assert.Zero(t, got.Stats.Transactions.TotalTransactions)
}

func TestTransactionDetail(t *testing.T) {
	dir := &fakeDirectory{
		sellers:   []domain.Seller{{ID: "s1", Name: "Alpha"}},
		merchants: []domain.Merchant{{ID: "m1", Name: "Shop"}},
	}
	src := &fakeSource{byID: map[string]domain.Transaction{
		"tx": {ID: "tx", UserID: "s1", MerchantIDField: "m1", Receipt: &domain.Receipt{StatusMessage: "Approved"}},
	}}

	got, err := newTestService(dir, src).TransactionDetail(context.Background(), "tx")
	require.NoError(t, err)

	assert.Equal(t, "Approved", got.View.Status)
	require.NotNil(t, got.Merchant.Record)
	assert.Equal(t, "Shop", got.Merchant.Record.Name)
	assert.Empty(t, got.Merchant.Error)
	require.NotNil(t, got.Seller.Record)
	assert.Equal(t, "Alpha", got.Seller.Record.Name)
}

func TestTransactionDetail_NoMerchantID(t *testing.T) {
	dir := &fakeDirectory{sellers: []domain.Seller{{ID: "s1"}}}
	src := &fakeSource{byID: map[string]domain.Transaction{
		"tx": {ID: "tx", MetadataSellerID: "s1"},
	}}

	got, err := newTestService(dir, src).TransactionDetail(context.Background(), "tx")
	require.NoError(t, err)

	assert.Equal(t, msgMerchantIDUnavailable, got.Merchant.Error)
	assert.Nil(t, got.Merchant.Record)
	require.NotNil(t, got.Seller.Record)
	assert.Equal(t, "s1", got.Seller.Record.ID)
	for _, call := range dir.calls {
		assert.False(t, strings.HasPrefix(call, "GetMerchant"), call)
	}
}

func TestTransactionDetail_LookupFailuresStayFieldLevel(t *testing.T) {
	src := &fakeSource{byID: map[string]domain.Transaction{
		"tx": {ID: "tx", UserID: "s9", MerchantRefID: "m9"},
	}}

	got, err := newTestService(&fakeDirectory{}, src).TransactionDetail(context.Background(), "tx")
	require.NoError(t, err)
	assert.Equal(t, msgMerchantNotFound, got.Merchant.Error)
	assert.Equal(t, msgSellerNotFound, got.Seller.Error)

	got, err = newTestService(&fakeDirectory{err: errDirectoryDown}, src).TransactionDetail(context.Background(), "tx")
	require.NoError(t, err)
	assert.Contains(t, got.Merchant.Error, "directory down")
	assert.Contains(t, got.Seller.Error, "directory down")
}

func TestTransactionDetail_NoSellerIDSkipsLookup(t *testing.T) {
	dir := &fakeDirectory{merchants: []domain.Merchant{{ID: "m1"}}}
	src := &fakeSource{byID: map[string]domain.Transaction{"tx": {ID: "tx", MerchantRefID: "m1"}}}

	got, err := newTestService(dir, src).TransactionDetail(context.Background(), "tx")
	require.NoError(t, err)
	assert.Equal(t, domain.Lookup[domain.Seller]{}, got.Seller)
	assert.NotNil(t, got.Merchant.Record)
}

func TestTransactionDetail_FetchFailureIsFatal(t *testing.T) {
	svc := newTestService(&fakeDirectory{}, &fakeSource{fetchErr: errSourceDown})
	_, err := svc.TransactionDetail(context.Background(), "tx")
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)

	svc = newTestService(&fakeDirectory{}, &fakeSource{})
	_, err = svc.TransactionDetail(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOverview(t *testing.T) {
	dir := &fakeDirectory{
		merchants: []domain.Merchant{{ID: "m1"}, {ID: "m2"}},
		sellers:   []domain.Seller{{ID: "s1", Status: domain.AccountStatusActive}, {ID: "s2"}},
	}
	src := &fakeSource{txs: []domain.Transaction{
		{Status: "approved", Amount: amount("12.5")},
		{Status: "failed", Amount: amount("1")},
	}}

	got, err := newTestService(dir, src).Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalMerchants)
	assert.Equal(t, 2, got.TotalSellers)
	assert.Equal(t, 1, got.ActiveSellers)
	assert.Equal(t, 2, got.TotalTransactions)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got.SuccessfulAmount))

	got, err = newTestService(dir, &fakeSource{err: errSourceDown}).Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Degraded)
	assert.Equal(t, 2, got.TotalMerchants)
	assert.Zero(t, got.TotalTransactions)
}
