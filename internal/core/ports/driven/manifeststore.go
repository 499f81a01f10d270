package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
)

// ManifestStore is the durable registry of one record per unique file
// content. Reads are safe from any goroutine; UpdateTerminal is called
// only by the orchestrator, which is the single writer of terminal
// state.
type ManifestStore interface {
	// Exists reports whether a record for the hash is present.
	Exists(ctx context.Context, hash domain.Hash) (bool, error)

	// Insert creates a new record. Returns domain.ErrAlreadyExists
	// if the hash is already registered; callers treat that as
	// "already ingested, skip".
	Insert(ctx context.Context, rec *domain.ManifestRecord) error

	// Get returns the record for a hash, or domain.ErrNotFound.
	Get(ctx context.Context, hash domain.Hash) (*domain.ManifestRecord, error)

	// ListByStatus returns all records in the given state.
	ListByStatus(ctx context.Context, status domain.Status) ([]domain.ManifestRecord, error)

	// CountByStatus returns record counts keyed by status.
	CountByStatus(ctx context.Context) (map[domain.Status]int64, error)

	// UpdateTerminal writes a transform result as the record's
	// terminal state. It must be observed at most once per hash per
	// run: a second call within the same run (any call against a
	// record whose last transform ended at or after runStarted)
	// returns domain.ErrAlreadyExists and changes nothing.
	UpdateTerminal(ctx context.Context, runStarted time.Time, res *domain.TransformResult) error
}

// RowQuarantineStore persists rows set aside by cleaning routines.
type RowQuarantineStore interface {
	// Add appends quarantine entries for a file.
	Add(ctx context.Context, entries []domain.RowQuarantine) error

	// ListByFile returns the quarantined rows of one file.
	ListByFile(ctx context.Context, hash domain.Hash) ([]domain.RowQuarantine, error)
}
