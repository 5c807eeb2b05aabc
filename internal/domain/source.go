package domain

import "context"

// FilterKind selects how a transaction listing is scoped.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterMerchant
	FilterTerminal
)

// TransactionFilter scopes a transaction listing to nothing, one merchant, or
// one terminal. Single-record lookups use TransactionSource.FetchTransaction.
type TransactionFilter struct {
	Kind  FilterKind
	Value string
}

// AllTransactions returns the unfiltered scope.
func AllTransactions() TransactionFilter { return TransactionFilter{Kind: FilterNone} }

// ByMerchant scopes a listing to a merchant id.
func ByMerchant(merchantID string) TransactionFilter {
	return TransactionFilter{Kind: FilterMerchant, Value: merchantID}
}

// ByTerminal scopes a listing to a terminal id.
func ByTerminal(terminalID string) TransactionFilter {
	return TransactionFilter{Kind: FilterTerminal, Value: terminalID}
}

// String renders the filter for logs and object keys.
func (f TransactionFilter) String() string {
	switch f.Kind {
	case FilterMerchant:
		return "merchant:" + f.Value
	case FilterTerminal:
		return "terminal:" + f.Value
	default:
		return "all"
	}
}

// PageInfo is the pagination metadata reported with each page.
type PageInfo struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// TransactionPage is one page of a transaction listing.
type TransactionPage struct {
	Transactions []Transaction
	Pages        PageInfo
}

// TransactionSource is the external payment API. Implementations wrap
// transport failures in ErrSourceUnavailable and report a missing single
// record as ErrNotFound. They never retry.
type TransactionSource interface {
	FetchPage(ctx context.Context, filter TransactionFilter, page, limit int) (TransactionPage, error)
	FetchTransaction(ctx context.Context, id string) (Transaction, error)
}
