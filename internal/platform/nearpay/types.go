package nearpay

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// flexAmount accepts a JSON number, a numeric string or null. Anything that
// does not parse as a number leaves the amount absent instead of failing the
// whole page.
type flexAmount struct {
	value *decimal.Decimal
}

func (f *flexAmount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return nil
	}
	f.value = &d
	return nil
}

// flexString accepts a JSON string or number and keeps its text form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
	}
	return nil
}

type apiRef struct {
	ID flexString `json:"id"`
}

type apiTerminal struct {
	TID flexString `json:"tid"`
}

type apiLocalized struct {
	English string `json:"english"`
}

type apiReceipt struct {
	AmountAuthorized *struct {
		Value flexString `json:"value"`
	} `json:"amount_authorized"`
	Currency        *apiLocalized `json:"currency"`
	StatusMessage   *apiLocalized `json:"status_message"`
	TransactionType *struct {
		Name *apiLocalized `json:"name"`
	} `json:"transaction_type"`
}

// APITransaction is a transaction as returned by the payment API.
type APITransaction struct {
	ID         flexString     `json:"id"`
	Amount     flexAmount     `json:"amount"`
	Currency   string         `json:"currency"`
	Status     string         `json:"status"`
	Type       string         `json:"type"`
	CreatedAt  string         `json:"created_at"`
	User       *apiRef        `json:"user"`
	Terminal   *apiTerminal   `json:"terminal"`
	Merchant   *apiRef        `json:"merchant"`
	MerchantID flexString     `json:"merchant_id"`
	Metadata   map[string]any `json:"metadata"`
	Receipts   []apiReceipt   `json:"receipts"`
}

// APIPages is the pagination block of a listing response.
type APIPages struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// APITransactionList is the listing response.
type APITransactionList struct {
	Transactions []APITransaction `json:"transactions"`
	Pages        APIPages         `json:"pages"`
}

// ToDomainTransaction converts the API shape into a domain.Transaction.
// Absent nested objects leave the matching linkage field empty.
func (t *APITransaction) ToDomainTransaction() domain.Transaction {
	tx := domain.Transaction{
		ID:              string(t.ID),
		Amount:          t.Amount.value,
		Currency:        strings.TrimSpace(t.Currency),
		Status:          strings.TrimSpace(t.Status),
		Type:            strings.TrimSpace(t.Type),
		MerchantIDField: string(t.MerchantID),
	}

	if t.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, t.CreatedAt); err == nil {
			tx.CreatedAt = &ts
		}
	}
	if t.User != nil {
		tx.UserID = string(t.User.ID)
	}
	if t.Terminal != nil {
		tx.TerminalTID = string(t.Terminal.TID)
	}
	if t.Merchant != nil {
		tx.MerchantRefID = string(t.Merchant.ID)
	}
	if t.Metadata != nil {
		tx.MetadataSellerID = domain.Document(t.Metadata).String("seller_id")
	}
	if len(t.Receipts) > 0 {
		tx.Receipt = t.Receipts[0].toDomain()
	}
	return tx
}

func (r *apiReceipt) toDomain() *domain.Receipt {
	out := &domain.Receipt{}
	if r.AmountAuthorized != nil {
		out.AmountAuthorized = string(r.AmountAuthorized.Value)
	}
	if r.Currency != nil {
		out.Currency = r.Currency.English
	}
	if r.StatusMessage != nil {
		out.StatusMessage = r.StatusMessage.English
	}
	if r.TransactionType != nil && r.TransactionType.Name != nil {
		out.TransactionType = r.TransactionType.Name.English
	}
	return out
}
