package driven

import (
	"context"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
)

// ContentStore persists immutable raw payloads keyed by content hash.
// It is append-only: many concurrent readers are safe, and two writers
// putting identical bytes race onto the same key as a no-op.
type ContentStore interface {
	// Put stores the bytes and returns their hash. Storing identical
	// bytes twice returns the same hash without a duplicate write.
	// An I/O failure wraps domain.ErrStorage; callers must not
	// create a manifest record when Put fails.
	Put(ctx context.Context, data []byte) (domain.Hash, error)

	// Get returns the bytes for a hash, or domain.ErrNotFound. A
	// miss for a hash the manifest knows indicates corruption and is
	// fatal for that file.
	Get(ctx context.Context, hash domain.Hash) ([]byte, error)
}
