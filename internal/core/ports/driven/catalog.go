package driven

import (
	"context"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
)

// CatalogLoader reads the format recipe catalog at the start of a
// run. The loaded catalog is an immutable value for the run's
// duration; loaders may re-read between runs.
type CatalogLoader interface {
	// Load parses and validates the catalog source.
	Load(ctx context.Context) (*domain.Catalog, error)
}
