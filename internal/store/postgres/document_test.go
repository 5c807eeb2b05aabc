package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

func TestDecodeFields_KeepsLargeNumericIDs(t *testing.T) {
	fields, err := decodeFields([]byte(`{"terminal_id": 12345678901234567890, "name": " Shop "}`))
	require.NoError(t, err)

	assert.Equal(t, json.Number("12345678901234567890"), fields["terminal_id"])

	s := domain.SellerFromDocument("doc-1", fields)
	assert.Equal(t, "doc-1", s.ID)
	assert.Equal(t, "12345678901234567890", s.TerminalID)
	assert.Equal(t, "Shop", s.Name)
}

func TestDecodeFields_EmptyAndNull(t *testing.T) {
	fields, err := decodeFields(nil)
	require.NoError(t, err)
	assert.Empty(t, fields)

	fields, err = decodeFields([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, fields)

	_, err = decodeFields([]byte("{broken"))
	assert.Error(t, err)
}

func TestWithRowTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	fields := withRowTimestamp(map[string]any{}, &ts)
	got := domain.SellerFromDocument("s1", fields)
	require.NotNil(t, got.CreatedAt)
	assert.True(t, ts.Equal(*got.CreatedAt))

	fields = withRowTimestamp(map[string]any{"created_at": "2023-01-02"}, &ts)
	got = domain.SellerFromDocument("s1", fields)
	require.NotNil(t, got.CreatedAt)
	assert.Equal(t, 2023, got.CreatedAt.Year())
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db:5432/desk?sslmode=disable",
		DSN(ClientConfig{User: "u", Password: "p", Host: "db", Database: "desk"}))
	assert.Equal(t, "postgres://x", DSN(ClientConfig{DSN: "postgres://x", Host: "ignored"}))
}

func TestMigrationNamesAreOrdered(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_directory.sql", names[0])
	assert.IsIncreasing(t, names)
}
