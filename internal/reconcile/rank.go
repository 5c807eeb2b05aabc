package reconcile

import (
	"sort"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// DefaultTopLimit is the ranking size used when the caller gives none.
const DefaultTopLimit = 5

// Rank orders sellers by transaction count, highest first, and returns at
// most limit entries. The sort is stable so equal counts keep the directory
// listing order. Sellers without transactions take part with a zero count.
func Rank(sellers []domain.Seller, counts map[string]int, total, limit int) []domain.TopSellerEntry {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	entries := make([]domain.TopSellerEntry, len(sellers))
	for i, s := range sellers {
		n := counts[s.ID]
		entries[i] = domain.TopSellerEntry{
			ID:                 s.ID,
			Name:               s.Name,
			TransactionCount:   n,
			PercentageActivity: Percent(n, total),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TransactionCount > entries[j].TransactionCount
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
