package domain

import "time"

// MerchantDocuments holds references to identity and registration images
// uploaded for a merchant.
type MerchantDocuments struct {
	FrontIDCard            string `json:"front_id_card,omitempty"`
	BackIDCard             string `json:"back_id_card,omitempty"`
	CommercialRegistration string `json:"commercial_registration,omitempty"`
}

// Merchant is a business account owning one or more sellers.
type Merchant struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	BrandName   string            `json:"brand_name,omitempty"`
	Email       string            `json:"email,omitempty"`
	Mobile      string            `json:"mobile,omitempty"`
	CountryCode string            `json:"country_code,omitempty"`
	Address     string            `json:"address,omitempty"`
	City        string            `json:"city,omitempty"`
	District    string            `json:"district,omitempty"`
	Status      AccountStatus     `json:"status"`
	Logo        string            `json:"logo,omitempty"`
	IBAN        string            `json:"iban,omitempty"`
	Documents   MerchantDocuments `json:"documents"`
	CreatedAt   *time.Time        `json:"created_at,omitempty"`
}

// DisplayName prefers the brand name over the legal name.
func (m Merchant) DisplayName() string {
	if m.BrandName != "" {
		return m.BrandName
	}
	return m.Name
}

// MerchantFromDocument coerces an untyped directory document into a Merchant.
func MerchantFromDocument(docID string, fields map[string]any) Merchant {
	d := Document(fields)
	id := d.String("id")
	if id == "" {
		id = docID
	}
	return Merchant{
		ID:          id,
		Name:        d.String("name"),
		BrandName:   d.String("brand_name"),
		Email:       d.String("email"),
		Mobile:      d.String("mobile"),
		CountryCode: d.String("country_code"),
		Address:     d.String("address"),
		City:        d.String("city"),
		District:    d.String("district"),
		Status:      ParseAccountStatus(d.String("status")),
		Logo:        d.String("logo"),
		IBAN:        d.String("iban"),
		Documents: MerchantDocuments{
			FrontIDCard:            d.String("image_front_id_card"),
			BackIDCard:             d.String("image_back_id_card"),
			CommercialRegistration: d.String("image_commercial_registration_or_freelance_focument"),
		},
		CreatedAt: d.Time("created_at"),
	}
}
