package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
)

func setupTableStore(t *testing.T) *TableStore {
	t.Helper()
	store, err := NewTableStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestTableStore_LoadCreatesTable(t *testing.T) {
	store := setupTableStore(t)
	ctx := context.Background()

	rows := [][]any{
		{"2024-01-02", 10.5, int64(100)},
		{"2024-01-03", 11.0, int64(90)},
	}
	written, err := store.Load(ctx, "ohlcv_daily", []string{"date", "open", "volume"}, rows, domain.LoadAppend)
	require.NoError(t, err)
	assert.Equal(t, int64(2), written)

	count, err := store.Count(ctx, "ohlcv_daily")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTableStore_AppendAccumulates(t *testing.T) {
	store := setupTableStore(t)
	ctx := context.Background()

	cols := []string{"date", "open"}
	_, err := store.Load(ctx, "bars", cols, [][]any{{"2024-01-02", 10.0}}, domain.LoadAppend)
	require.NoError(t, err)
	_, err = store.Load(ctx, "bars", cols, [][]any{{"2024-01-03", 11.0}}, domain.LoadAppend)
	require.NoError(t, err)

	count, err := store.Count(ctx, "bars")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTableStore_ReplaceClearsFirst(t *testing.T) {
	store := setupTableStore(t)
	ctx := context.Background()

	cols := []string{"date", "open"}
	_, err := store.Load(ctx, "bars", cols, [][]any{{"2024-01-02", 10.0}, {"2024-01-03", 11.0}}, domain.LoadAppend)
	require.NoError(t, err)

	_, err = store.Load(ctx, "bars", cols, [][]any{{"2024-01-04", 12.0}}, domain.LoadReplace)
	require.NoError(t, err)

	count, err := store.Count(ctx, "bars")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestTableStore_CountMissingTable(t *testing.T) {
	store := setupTableStore(t)

	_, err := store.Count(context.Background(), "never_loaded")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTableStore_RejectsBadIdentifiers(t *testing.T) {
	store := setupTableStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "bad table", []string{"a"}, nil, domain.LoadAppend)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.Load(ctx, "ok", []string{"drop table;--"}, nil, domain.LoadAppend)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.Count(ctx, "bad table")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTableStore_RejectsWidthMismatch(t *testing.T) {
	store := setupTableStore(t)

	_, err := store.Load(context.Background(), "bars", []string{"a", "b"}, [][]any{{"only one"}}, domain.LoadAppend)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTableStore_RejectsNoColumns(t *testing.T) {
	store := setupTableStore(t)

	_, err := store.Load(context.Background(), "bars", nil, nil, domain.LoadAppend)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
