package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the alternate representation of a transaction embedded by the
// payment API. Only the first receipt is kept.
type Receipt struct {
	AmountAuthorized string `json:"amount_authorized,omitempty"`
	Currency         string `json:"currency,omitempty"`
	StatusMessage    string `json:"status_message,omitempty"`
	TransactionType  string `json:"transaction_type,omitempty"`
}

// Transaction is a card transaction as reported by the payment API. Linkage
// fields are empty strings when the API omitted them.
type Transaction struct {
	ID        string           `json:"id"`
	Amount    *decimal.Decimal `json:"amount,omitempty"` // nil when absent or non-numeric
	Currency  string           `json:"currency,omitempty"`
	Status    string           `json:"status,omitempty"`
	Type      string           `json:"type,omitempty"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`

	UserID           string `json:"user_id,omitempty"`            // user.id
	TerminalTID      string `json:"terminal_tid,omitempty"`       // terminal.tid
	MerchantRefID    string `json:"merchant_ref_id,omitempty"`    // merchant.id
	MerchantIDField  string `json:"merchant_id,omitempty"`        // merchant_id
	MetadataSellerID string `json:"metadata_seller_id,omitempty"` // metadata.seller_id

	Receipt *Receipt `json:"receipt,omitempty"`
}

// TransactionView carries the values shown for a single transaction after
// falling back to the embedded receipt for any absent primary field.
type TransactionView struct {
	Amount   *decimal.Decimal `json:"amount"`
	Currency string           `json:"currency"`
	Status   string           `json:"status"`
	Type     string           `json:"type"`
}

const unknownDisplay = "Unknown"

// View resolves display values. The receipt is consulted only for fields the
// transaction itself does not carry.
func (t Transaction) View() TransactionView {
	v := TransactionView{
		Amount:   t.Amount,
		Currency: t.Currency,
		Status:   t.Status,
		Type:     t.Type,
	}
	if r := t.Receipt; r != nil {
		if v.Amount == nil && r.AmountAuthorized != "" {
			if amt, err := decimal.NewFromString(strings.TrimSpace(r.AmountAuthorized)); err == nil {
				v.Amount = &amt
			}
		}
		if v.Currency == "" {
			v.Currency = r.Currency
		}
		if v.Status == "" {
			v.Status = r.StatusMessage
		}
		if v.Type == "" {
			v.Type = r.TransactionType
		}
	}
	if v.Status == "" {
		v.Status = unknownDisplay
	}
	if v.Type == "" {
		v.Type = unknownDisplay
	}
	return v
}
