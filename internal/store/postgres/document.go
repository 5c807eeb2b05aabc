package postgres

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// documentRow is one row of a directory table.
type documentRow struct {
	ID        string
	Fields    map[string]any
	CreatedAt *time.Time
}

func scanDocument(row pgx.Row) (documentRow, error) {
	var (
		d   documentRow
		raw []byte
	)
	if err := row.Scan(&d.ID, &raw, &d.CreatedAt); err != nil {
		return documentRow{}, err
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return documentRow{}, fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	d.Fields = withRowTimestamp(fields, d.CreatedAt)
	return d, nil
}

// decodeFields unmarshals a JSONB body keeping numbers as json.Number so
// large numeric ids are not rounded through float64.
func decodeFields(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// withRowTimestamp fills created_at from the row when the document has none.
func withRowTimestamp(fields map[string]any, createdAt *time.Time) map[string]any {
	if _, ok := fields["created_at"]; !ok && createdAt != nil {
		fields["created_at"] = *createdAt
	}
	return fields
}

const documentCols = `id, data, created_at`
