package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// SellerStore implements domain.SellerDirectory using PostgreSQL.
type SellerStore struct {
	pool *pgxpool.Pool
}

var _ domain.SellerDirectory = (*SellerStore)(nil)

// NewSellerStore creates a new SellerStore backed by the given connection pool.
func NewSellerStore(pool *pgxpool.Pool) *SellerStore {
	return &SellerStore{pool: pool}
}

// GetSeller retrieves a seller by document id.
func (s *SellerStore) GetSeller(ctx context.Context, id string) (domain.Seller, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+documentCols+` FROM sellers WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Seller{}, fmt.Errorf("postgres: seller %s: %w", id, domain.ErrNotFound)
		}
		return domain.Seller{}, fmt.Errorf("postgres: get seller %s: %w", id, err)
	}
	return domain.SellerFromDocument(doc.ID, doc.Fields), nil
}

// ListSellers returns every seller ordered by id.
func (s *SellerStore) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+documentCols+` FROM sellers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sellers: %w", err)
	}
	sellers, err := collectSellers(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sellers: %w", err)
	}
	return sellers, nil
}

// ListSellersByMerchant returns the sellers assigned to merchantID, ordered
// by id.
func (s *SellerStore) ListSellersByMerchant(ctx context.Context, merchantID string) ([]domain.Seller, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentCols+` FROM sellers WHERE data->>'merchant_id' = $1 ORDER BY id`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sellers for merchant %s: %w", merchantID, err)
	}
	sellers, err := collectSellers(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sellers for merchant %s: %w", merchantID, err)
	}
	return sellers, nil
}

func collectSellers(rows pgx.Rows) ([]domain.Seller, error) {
	defer rows.Close()

	var sellers []domain.Seller
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		sellers = append(sellers, domain.SellerFromDocument(doc.ID, doc.Fields))
	}
	return sellers, rows.Err()
}
