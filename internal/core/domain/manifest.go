package domain

import "time"

// Status is the lifecycle state of a manifest record.
type Status string

const (
	// StatusRawIngested is the initial state set by ingestion.
	StatusRawIngested Status = "RAW_INGESTED"

	// StatusTransformedSuccess is terminal: the file was classified,
	// cleaned and loaded into its target table.
	StatusTransformedSuccess Status = "TRANSFORMED_SUCCESS"

	// StatusQuarantined is terminal for the run but re-enterable: no
	// catalog recipe matched the file's fingerprint. A later run in
	// reprocess mode may pick it up again after the catalog grows.
	StatusQuarantined Status = "QUARANTINED"

	// StatusTransformationFailed is terminal: fetch, parse, clean or
	// load failed for the whole file.
	StatusTransformationFailed Status = "TRANSFORMATION_FAILED"
)

// Terminal reports whether the status ends a file's processing for
// the current run.
func (s Status) Terminal() bool {
	switch s {
	case StatusTransformedSuccess, StatusQuarantined, StatusTransformationFailed:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusRawIngested, StatusTransformedSuccess, StatusQuarantined, StatusTransformationFailed:
		return true
	}
	return false
}

// ManifestRecord tracks one unique file content end to end. There is
// exactly one record per content hash: ingesting identical bytes under
// a different path is recognised as already known and does not create
// a second record.
type ManifestRecord struct {
	// FileHash is the content digest and primary key.
	FileHash Hash

	// OriginalPath is the path the content was first seen under.
	OriginalPath string

	// SourceSystem identifies where the file came from (a vendor
	// name, connector id, or "local").
	SourceSystem string

	// Status is the current lifecycle state.
	Status Status

	// IngestedAt is when the record was created.
	IngestedAt time.Time

	// TransformStartedAt is when a worker last picked the file up.
	TransformStartedAt *time.Time

	// TransformEndedAt is when the last transform attempt finished.
	TransformEndedAt *time.Time

	// MatchedFingerprint is the catalog fingerprint that classified
	// the file, or the computed fingerprint for quarantined files.
	MatchedFingerprint string

	// TargetTable is the curated table the rows were loaded into.
	TargetTable string

	// ProcessedRowCount is the number of clean rows loaded.
	ProcessedRowCount int64

	// ErrorMessage explains a failure or quarantine.
	ErrorMessage string

	// Notes carries free-form operator annotations.
	Notes string
}

// TransformResult is what a transform worker reports back to the
// orchestrator for exactly one file. The orchestrator is the only
// component that turns results into manifest updates.
type TransformResult struct {
	// FileHash identifies the file the result is for.
	FileHash Hash

	// Status is the terminal status to record.
	Status Status

	// MatchedFingerprint is the fingerprint computed during
	// classification, recorded even on a quarantine so operators can
	// build a catalog entry for it offline.
	MatchedFingerprint string

	// TargetTable is the table rows were loaded into, empty unless
	// Status is TRANSFORMED_SUCCESS.
	TargetTable string

	// ProcessedRowCount is the number of clean rows loaded.
	ProcessedRowCount int64

	// QuarantinedRowCount is the number of rows set aside by the
	// cleaning routine.
	QuarantinedRowCount int64

	// ErrorMessage explains a failure or quarantine.
	ErrorMessage string

	// StartedAt and EndedAt bound the transform attempt.
	StartedAt time.Time
	EndedAt   time.Time
}

// RowQuarantine is a single row set aside by a cleaning routine
// because its values could not be validated. Row quarantine never
// fails the file; it is persisted beside the load for diagnostics.
type RowQuarantine struct {
	// ID is a unique identifier for the entry.
	ID string

	// FileHash identifies the file the row came from.
	FileHash Hash

	// RowNumber is the 1-based data row index in the parsed table.
	RowNumber int

	// RawRow is the original row, delimiter-joined.
	RawRow string

	// Reason explains why the row was rejected.
	Reason string
}
