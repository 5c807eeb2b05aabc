package reconcile

import "github.com/alanyoungcy/merchantdesk/internal/domain"

// idAccessor reads one optional linkage field; "" means absent.
type idAccessor func(domain.Transaction) string

func userID(tx domain.Transaction) string           { return tx.UserID }
func metadataSellerID(tx domain.Transaction) string { return tx.MetadataSellerID }
func merchantRefID(tx domain.Transaction) string    { return tx.MerchantRefID }
func merchantIDField(tx domain.Transaction) string  { return tx.MerchantIDField }

// Fallback chains, evaluated in order.
var (
	merchantChain      = []idAccessor{merchantRefID, merchantIDField}
	displaySellerChain = []idAccessor{userID, metadataSellerID}
)

func firstPresent(tx domain.Transaction, chain []idAccessor) (string, bool) {
	for _, get := range chain {
		if v := get(tx); v != "" {
			return v, true
		}
	}
	return "", false
}

// ResolveMerchantID returns merchant.id, else merchant_id.
func ResolveMerchantID(tx domain.Transaction) (string, bool) {
	return firstPresent(tx, merchantChain)
}

// DisplaySellerID returns user.id, else metadata.seller_id. It is a
// best-effort label for showing one transaction and must not be used to
// decide which transactions belong to a seller.
func DisplaySellerID(tx domain.Transaction) (string, bool) {
	return firstPresent(tx, displaySellerChain)
}

// MatchesSeller is the strict filtering rule: the transaction belongs to the
// seller when the seller's terminal id is set and equals terminal.tid, or
// when user.id equals the seller id. Both channels are checked.
func MatchesSeller(tx domain.Transaction, seller domain.Seller) bool {
	byTerminal := seller.TerminalID != "" && tx.TerminalTID == seller.TerminalID
	byUser := tx.UserID != "" && tx.UserID == seller.ID
	return byTerminal || byUser
}

// MatchesSellerByUser is the coarse rule used for ranking: user.id equality
// only.
func MatchesSellerByUser(tx domain.Transaction, sellerID string) bool {
	return tx.UserID != "" && tx.UserID == sellerID
}

// LinkResult is the resolved relationship of one transaction.
type LinkResult struct {
	SellerID   string
	MerchantID string
}

// HasSeller reports whether a seller was linked.
func (r LinkResult) HasSeller() bool { return r.SellerID != "" }

// HasMerchant reports whether a merchant was linked.
func (r LinkResult) HasMerchant() bool { return r.MerchantID != "" }

// Link resolves the merchant and seller of tx. With a candidate seller the
// strict rule decides whether the candidate is linked; without one the
// display fallback chain supplies the seller id.
func Link(tx domain.Transaction, candidate *domain.Seller) LinkResult {
	var res LinkResult
	res.MerchantID, _ = ResolveMerchantID(tx)
	if candidate != nil {
		if MatchesSeller(tx, *candidate) {
			res.SellerID = candidate.ID
		}
		return res
	}
	res.SellerID, _ = DisplaySellerID(tx)
	return res
}

// FilterForSeller keeps the transactions passing MatchesSeller, preserving
// order.
func FilterForSeller(txs []domain.Transaction, seller domain.Seller) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if MatchesSeller(tx, seller) {
			out = append(out, tx)
		}
	}
	return out
}
