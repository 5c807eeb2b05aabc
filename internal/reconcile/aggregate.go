package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

var successfulStatuses = map[string]bool{
	"succeeded": true,
	"success":   true,
	"approved":  true,
	"accepted":  true,
}

// IsSuccessful reports whether a transaction status belongs to the successful
// set. Comparison is case-insensitive; unknown statuses are not successful.
func IsSuccessful(status string) bool {
	return successfulStatuses[strings.ToLower(strings.TrimSpace(status))]
}

// add folds one transaction into s.
func add(s domain.AggregatedStats, tx domain.Transaction) domain.AggregatedStats {
	s.TotalTransactions++
	ok := IsSuccessful(tx.Status)
	if ok {
		s.SuccessfulTransactions++
	}
	if tx.Amount != nil {
		s.GrossAmount = s.GrossAmount.Add(*tx.Amount)
		if ok {
			s.SuccessfulAmount = s.SuccessfulAmount.Add(*tx.Amount)
		}
	}
	return s
}

// Summarize aggregates a transaction set as a single entity.
func Summarize(txs []domain.Transaction) domain.AggregatedStats {
	s := domain.AggregatedStats{SuccessfulAmount: decimal.Zero, GrossAmount: decimal.Zero}
	for _, tx := range txs {
		s = add(s, tx)
	}
	return s
}

// KeyFunc maps a transaction to the entity it is grouped under. ok=false
// leaves the transaction out of every group.
type KeyFunc func(domain.Transaction) (key string, ok bool)

// ByUserID groups by user.id.
func ByUserID(tx domain.Transaction) (string, bool) {
	return tx.UserID, tx.UserID != ""
}

// ByMerchantID groups by the resolved merchant id.
func ByMerchantID(tx domain.Transaction) (string, bool) {
	return ResolveMerchantID(tx)
}

// AggregateBy groups txs by key and aggregates each group.
func AggregateBy(txs []domain.Transaction, key KeyFunc) map[string]domain.AggregatedStats {
	out := make(map[string]domain.AggregatedStats)
	for _, tx := range txs {
		k, ok := key(tx)
		if !ok {
			continue
		}
		s, seen := out[k]
		if !seen {
			s = domain.AggregatedStats{SuccessfulAmount: decimal.Zero, GrossAmount: decimal.Zero}
		}
		out[k] = add(s, tx)
	}
	return out
}

// CountByUser counts transactions per user.id. total is the number of
// transactions that carried a user.id, whether or not that user is a known
// seller.
func CountByUser(txs []domain.Transaction) (counts map[string]int, total int) {
	counts = make(map[string]int)
	for _, tx := range txs {
		id, ok := ByUserID(tx)
		if !ok {
			continue
		}
		counts[id]++
		total++
	}
	return counts, total
}

// SellerStatsFor summarises transactions already filtered to one seller:
// every transaction is counted, only successful ones are summed.
func SellerStatsFor(txs []domain.Transaction) domain.SellerStats {
	s := Summarize(txs)
	return domain.SellerStats{
		TotalTransactions:      s.TotalTransactions,
		SuccessfulTransactions: s.SuccessfulTransactions,
		TotalAmount:            s.SuccessfulAmount,
	}
}

// Percent returns part/total*100 rounded half up. A zero or negative total
// yields 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (part*200 + total) / (2 * total)
}
