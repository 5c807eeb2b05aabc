package domain

import "context"

// SellerDirectory reads seller records from the directory store.
type SellerDirectory interface {
	GetSeller(ctx context.Context, id string) (Seller, error)
	ListSellers(ctx context.Context) ([]Seller, error)
	ListSellersByMerchant(ctx context.Context, merchantID string) ([]Seller, error)
}

// MerchantDirectory reads merchant records from the directory store.
type MerchantDirectory interface {
	GetMerchant(ctx context.Context, id string) (Merchant, error)
	ListMerchants(ctx context.Context) ([]Merchant, error)
}

// Directory is the read-only view of the internal directory store. Lookups
// by id return ErrNotFound when no document exists.
type Directory interface {
	SellerDirectory
	MerchantDirectory
}
