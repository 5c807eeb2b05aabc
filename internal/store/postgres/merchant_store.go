package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// MerchantStore implements domain.MerchantDirectory using PostgreSQL.
type MerchantStore struct {
	pool *pgxpool.Pool
}

var _ domain.MerchantDirectory = (*MerchantStore)(nil)

// NewMerchantStore creates a new MerchantStore backed by the given connection pool.
func NewMerchantStore(pool *pgxpool.Pool) *MerchantStore {
	return &MerchantStore{pool: pool}
}

// GetMerchant retrieves a merchant by document id.
func (s *MerchantStore) GetMerchant(ctx context.Context, id string) (domain.Merchant, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+documentCols+` FROM merchants WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Merchant{}, fmt.Errorf("postgres: merchant %s: %w", id, domain.ErrNotFound)
		}
		return domain.Merchant{}, fmt.Errorf("postgres: get merchant %s: %w", id, err)
	}
	return domain.MerchantFromDocument(doc.ID, doc.Fields), nil
}

// ListMerchants returns every merchant ordered by id.
func (s *MerchantStore) ListMerchants(ctx context.Context) ([]domain.Merchant, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+documentCols+` FROM merchants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list merchants: %w", err)
	}
	defer rows.Close()

	var merchants []domain.Merchant
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan merchant: %w", err)
		}
		merchants = append(merchants, domain.MerchantFromDocument(doc.ID, doc.Fields))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list merchants: %w", err)
	}
	return merchants, nil
}

// Directory bundles the seller and merchant stores into a domain.Directory.
type Directory struct {
	*SellerStore
	*MerchantStore
}

var _ domain.Directory = (*Directory)(nil)

// NewDirectory creates both stores over one pool.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{
		SellerStore:   NewSellerStore(pool),
		MerchantStore: NewMerchantStore(pool),
	}
}
