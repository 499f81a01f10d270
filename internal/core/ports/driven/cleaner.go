package driven

import (
	"context"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
)

// Cleaner is one cleaning routine: it types and validates a parsed
// table, returning clean rows plus any rows it set aside. Recipes
// reference cleaners by ID through the registry, which is what lets
// one classifier and worker pair serve arbitrarily many formats
// without per-format code in the worker.
type Cleaner interface {
	// ID is the name recipes use to select this routine.
	ID() string

	// Clean validates and types the table. Row-level problems go
	// into the result's Quarantined list rather than failing the
	// file; only structural problems (which the worker has already
	// screened via RequiredColumns) are errors.
	Clean(ctx context.Context, table *domain.Table, recipe *domain.FormatRecipe) (*domain.CleanResult, error)
}

// CleanerRegistry resolves cleaner IDs to routines. It is populated
// once at startup and immutable afterwards.
type CleanerRegistry interface {
	// Get returns the cleaner for an ID, or domain.ErrUnsupportedType.
	Get(id string) (Cleaner, error)

	// IDs returns all registered cleaner IDs, sorted.
	IDs() []string
}
