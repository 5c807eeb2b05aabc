package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AggregatedStats is the derived activity of one entity over a transaction
// set. It is recomputed per request.
type AggregatedStats struct {
	TotalTransactions      int             `json:"total_transactions"`
	SuccessfulTransactions int             `json:"successful_transactions"`
	SuccessfulAmount       decimal.Decimal `json:"successful_amount"`
	GrossAmount            decimal.Decimal `json:"gross_amount"`
}

// SuccessRate is the successful share of all transactions in percent. It is 0
// when there are no transactions.
func (s AggregatedStats) SuccessRate() float64 {
	if s.TotalTransactions == 0 {
		return 0
	}
	return float64(s.SuccessfulTransactions) / float64(s.TotalTransactions) * 100
}

// TopSellerEntry is one row of the seller activity ranking.
type TopSellerEntry struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	TransactionCount   int    `json:"transaction_count"`
	PercentageActivity int    `json:"percentage_activity"`
}

// TopSellers is the result of the ranking call site. Degraded is set when the
// transaction source failed and every count is a placeholder zero.
type TopSellers struct {
	Sellers           []TopSellerEntry `json:"sellers"`
	TotalTransactions int              `json:"total_transactions"`
	Degraded          bool             `json:"degraded"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// SellerStats summarises the transactions linked to one seller.
type SellerStats struct {
	TotalTransactions      int             `json:"total_transactions"`
	SuccessfulTransactions int             `json:"successful_transactions"`
	TotalAmount            decimal.Decimal `json:"total_amount"` // successful transactions only
}

// SellerDetail is the bundle returned for a single seller.
type SellerDetail struct {
	Seller       Seller        `json:"seller"`
	Merchant     *Merchant     `json:"merchant"`
	Transactions []Transaction `json:"transactions"`
	Stats        SellerStats   `json:"stats"`
	Degraded     bool          `json:"degraded"`
	SourceError  string        `json:"source_error,omitempty"`
}

// MerchantStats summarises a merchant's sellers and transactions.
type MerchantStats struct {
	TotalSellers  int             `json:"total_sellers"`
	ActiveSellers int             `json:"active_sellers"`
	Transactions  AggregatedStats `json:"transactions"`
}

// MerchantDetail is the bundle returned for a single merchant.
type MerchantDetail struct {
	Merchant     Merchant      `json:"merchant"`
	Sellers      []Seller      `json:"sellers"`
	Transactions []Transaction `json:"transactions"`
	Stats        MerchantStats `json:"stats"`
	Degraded     bool          `json:"degraded"`
	SourceError  string        `json:"source_error,omitempty"`
}

// Lookup is the outcome of one secondary directory lookup. Exactly one of
// Record and Error is set unless the lookup was skipped without complaint.
type Lookup[T any] struct {
	ID     string `json:"id,omitempty"`
	Record *T     `json:"record,omitempty"`
	Error  string `json:"error,omitempty"`
}

// TransactionDetail is the bundle returned for a single transaction.
type TransactionDetail struct {
	Transaction Transaction      `json:"transaction"`
	View        TransactionView  `json:"view"`
	Merchant    Lookup[Merchant] `json:"merchant_lookup"`
	Seller      Lookup[Seller]   `json:"seller_lookup"`
}

// Overview holds the dashboard headline figures.
type Overview struct {
	TotalMerchants    int             `json:"total_merchants"`
	TotalSellers      int             `json:"total_sellers"`
	ActiveSellers     int             `json:"active_sellers"`
	TotalTransactions int             `json:"total_transactions"`
	SuccessfulAmount  decimal.Decimal `json:"successful_amount"`
	Degraded          bool            `json:"degraded"`
	SourceError       string          `json:"source_error,omitempty"`
}
