package domain

import "time"

// Seller is an end user operating a payment terminal on behalf of a merchant.
// It is a read-only copy of a directory document.
type Seller struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email,omitempty"`
	Mobile      string        `json:"mobile,omitempty"`
	CountryCode string        `json:"country_code,omitempty"`
	City        string        `json:"city,omitempty"`
	Status      AccountStatus `json:"status"`
	MerchantID  string        `json:"merchant_id,omitempty"` // empty when unassigned
	TerminalID  string        `json:"terminal_id,omitempty"` // empty when no terminal is provisioned
	TID         string        `json:"tid,omitempty"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
}

// SellerFromDocument coerces an untyped directory document into a Seller.
// docID is used when the document body carries no id of its own.
func SellerFromDocument(docID string, fields map[string]any) Seller {
	d := Document(fields)
	id := d.String("id")
	if id == "" {
		id = docID
	}
	return Seller{
		ID:          id,
		Name:        d.String("name"),
		Email:       d.String("email"),
		Mobile:      d.String("mobile"),
		CountryCode: d.String("country_code"),
		City:        d.String("city"),
		Status:      ParseAccountStatus(d.String("status")),
		MerchantID:  d.String("merchant_id"),
		TerminalID:  d.String("terminal_id"),
		TID:         d.String("tid"),
		CreatedAt:   d.Time("created_at"),
	}
}
