package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

const (
	defaultAuditLimit = 50

	insertAuditSQL = `INSERT INTO audit_log (event, detail) VALUES ($1, $2)`
	listAuditSQL   = `
		SELECT id, event, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1`
)

// AuditStore keeps the export history in the audit_log table.
type AuditStore struct {
	pool *pgxpool.Pool
}

var _ domain.AuditLog = (*AuditStore)(nil)

// NewAuditStore creates an AuditStore on pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Log appends an entry. A nil detail is stored as an empty object.
func (s *AuditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	if detail == nil {
		detail = map[string]any{}
	}
	// pgx encodes the map through its JSONB codec.
	if _, err := s.pool.Exec(ctx, insertAuditSQL, event, detail); err != nil {
		return fmt.Errorf("postgres: audit %s: %w", event, err)
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 means 50.
func (s *AuditStore) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	rows, err := s.pool.Query(ctx, listAuditSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit log: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit log: %w", err)
	}
	return entries, nil
}

func scanAuditEntry(row pgx.CollectableRow) (domain.AuditEntry, error) {
	var e domain.AuditEntry
	err := row.Scan(&e.ID, &e.Event, &e.Detail, &e.CreatedAt)
	return e, err
}
