package driven

import (
	"context"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
)

// TableStore writes cleaned, typed rows into curated tables. Each
// transform worker holds its own handle; workers never share mutable
// state through it.
type TableStore interface {
	// Load writes rows into the named table, creating it from the
	// column list if it does not exist. LoadReplace clears the table
	// first inside the same transaction, making content re-runs
	// idempotent. Returns the number of rows written. I/O failures
	// wrap domain.ErrStorage.
	Load(ctx context.Context, table string, columns []string, rows [][]any, mode domain.LoadMode) (int64, error)

	// Count returns the row count of a table, or domain.ErrNotFound
	// if it was never created.
	Count(ctx context.Context, table string) (int64, error)
}
