package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist. For a
	// manifest record with no backing content this is a fatal
	// inconsistency, not a recoverable miss.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists. It is the
	// expected, non-fatal signal that content was ingested before.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage indicates an I/O failure on the content or table
	// store, fatal for the affected file only.
	ErrStorage = errors.New("storage failure")

	// ErrClassificationMiss indicates no catalog recipe matched. It
	// is an expected business outcome that quarantines the file, not
	// a bug.
	ErrClassificationMiss = errors.New("no matching format recipe")

	// ErrParse indicates the file could not be tokenised per its
	// recipe; the whole file fails.
	ErrParse = errors.New("parse failure")

	// ErrSchema indicates required columns are missing after
	// parsing; the whole file fails.
	ErrSchema = errors.New("schema mismatch")

	// ErrRowValidation indicates a single row failed cleaning. It is
	// isolated into the row quarantine and never fails the file.
	ErrRowValidation = errors.New("row validation failure")

	// ErrUnsupportedType indicates an unknown parser kind or
	// cleaner id.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrRunInProgress indicates a transform run is already active
	// on this orchestrator.
	ErrRunInProgress = errors.New("run in progress")
)
