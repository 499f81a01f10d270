package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/skema-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
)

// Store is the SQLite-backed metadata storage. It exposes the
// manifest, content and row-quarantine store interfaces through
// wrapper types sharing one connection pool.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates the metadata store under the given data directory.
// If dataDir is empty, defaults to ~/.skema/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".skema", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ManifestStore returns a ManifestStore interface backed by this store.
func (s *Store) ManifestStore() driven.ManifestStore {
	return &manifestStore{store: s}
}

// ContentStore returns a ContentStore interface backed by this store.
func (s *Store) ContentStore() driven.ContentStore {
	return &contentStore{store: s}
}

// RowQuarantineStore returns a RowQuarantineStore interface backed by this store.
func (s *Store) RowQuarantineStore() driven.RowQuarantineStore {
	return &rowQuarantineStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Manifest Store ====================

// manifestStore implements driven.ManifestStore.
type manifestStore struct {
	store *Store
}

var _ driven.ManifestStore = (*manifestStore)(nil)

// Exists reports whether a record for the hash is present.
func (s *manifestStore) Exists(ctx context.Context, hash domain.Hash) (bool, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM manifest WHERE file_hash = ?", hash.String()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking manifest: %w", err)
	}
	return count > 0, nil
}

// Insert creates a new manifest record.
func (s *manifestStore) Insert(ctx context.Context, rec *domain.ManifestRecord) error {
	if !domain.ValidStatus(rec.Status) {
		return fmt.Errorf("%w: status %q", domain.ErrInvalidInput, rec.Status)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO manifest
			(file_hash, original_path, source_system, status, ingested_at, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.FileHash.String(), rec.OriginalPath, rec.SourceSystem,
		string(rec.Status), rec.IngestedAt, rec.Notes)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("inserting manifest record: %w", err)
	}
	return nil
}

// Get retrieves a record by hash.
func (s *manifestStore) Get(ctx context.Context, hash domain.Hash) (*domain.ManifestRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT file_hash, original_path, source_system, status, ingested_at,
		       transform_started_at, transform_ended_at, matched_fingerprint,
		       target_table, processed_row_count, error_message, notes
		FROM manifest WHERE file_hash = ?
	`, hash.String())

	rec, err := scanManifestRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListByStatus returns all records in the given state.
func (s *manifestStore) ListByStatus(ctx context.Context, status domain.Status) ([]domain.ManifestRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT file_hash, original_path, source_system, status, ingested_at,
		       transform_started_at, transform_ended_at, matched_fingerprint,
		       target_table, processed_row_count, error_message, notes
		FROM manifest WHERE status = ?
		ORDER BY ingested_at
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("querying manifest: %w", err)
	}
	defer rows.Close()

	var records []domain.ManifestRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanManifestRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manifest: %w", err)
	}

	return records, nil
}

// CountByStatus returns record counts keyed by status.
func (s *manifestStore) CountByStatus(ctx context.Context) (map[domain.Status]int64, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM manifest GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting manifest: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Status]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[domain.Status(status)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}

	return counts, nil
}

// UpdateTerminal writes a transform result as terminal state. The
// WHERE clause is the at-most-once-per-run guard: once a transform
// end timestamp at or after runStarted is written, further updates
// within the run match zero rows.
func (s *manifestStore) UpdateTerminal(ctx context.Context, runStarted time.Time, res *domain.TransformResult) error {
	if !res.Status.Terminal() {
		return fmt.Errorf("%w: %q is not a terminal status", domain.ErrInvalidInput, res.Status)
	}

	result, err := s.store.db.ExecContext(ctx, `
		UPDATE manifest SET
			status = ?,
			transform_started_at = ?,
			transform_ended_at = ?,
			matched_fingerprint = ?,
			target_table = ?,
			processed_row_count = ?,
			error_message = ?
		WHERE file_hash = ?
		  AND (transform_ended_at IS NULL OR transform_ended_at < ?)
	`, string(res.Status), res.StartedAt, res.EndedAt,
		nullString(res.MatchedFingerprint), nullString(res.TargetTable),
		res.ProcessedRowCount, nullString(res.ErrorMessage),
		res.FileHash.String(), runStarted)
	if err != nil {
		return fmt.Errorf("updating manifest record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		exists, err := s.Exists(ctx, res.FileHash)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrAlreadyExists
	}
	return nil
}

// scanManifestRecord scans one manifest row via the given scan func.
func scanManifestRecord(scan func(...any) error) (*domain.ManifestRecord, error) {
	var rec domain.ManifestRecord
	var hashHex, status string
	var startedAt, endedAt sql.NullTime
	var fingerprint, targetTable, errorMessage sql.NullString
	var rowCount sql.NullInt64

	if err := scan(&hashHex, &rec.OriginalPath, &rec.SourceSystem, &status,
		&rec.IngestedAt, &startedAt, &endedAt, &fingerprint,
		&targetTable, &rowCount, &errorMessage, &rec.Notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning manifest record: %w", err)
	}

	hash, err := domain.ParseHash(hashHex)
	if err != nil {
		return nil, fmt.Errorf("scanning manifest record: %w", err)
	}
	rec.FileHash = hash
	rec.Status = domain.Status(status)
	if startedAt.Valid {
		rec.TransformStartedAt = &startedAt.Time
	}
	if endedAt.Valid {
		rec.TransformEndedAt = &endedAt.Time
	}
	rec.MatchedFingerprint = fingerprint.String
	rec.TargetTable = targetTable.String
	rec.ProcessedRowCount = rowCount.Int64
	rec.ErrorMessage = errorMessage.String

	return &rec, nil
}

// ==================== Content Store ====================

// contentStore implements driven.ContentStore.
type contentStore struct {
	store *Store
}

var _ driven.ContentStore = (*contentStore)(nil)

// Put stores the bytes under their content hash. Identical bytes are
// a no-op thanks to INSERT OR IGNORE on the hash key; two concurrent
// writers of the same content race harmlessly onto the same row.
func (s *contentStore) Put(ctx context.Context, data []byte) (domain.Hash, error) {
	content := domain.NewRawContent(data)

	_, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO contents (hash, bytes, size) VALUES (?, ?, ?)
	`, content.Hash.String(), content.Bytes, content.Size)
	if err != nil {
		return domain.Hash{}, fmt.Errorf("%w: writing content: %v", domain.ErrStorage, err)
	}
	return content.Hash, nil
}

// Get returns the bytes for a hash.
func (s *contentStore) Get(ctx context.Context, hash domain.Hash) ([]byte, error) {
	var data []byte
	err := s.store.db.QueryRowContext(ctx,
		"SELECT bytes FROM contents WHERE hash = ?", hash.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: reading content: %v", domain.ErrStorage, err)
	}
	return data, nil
}

// ==================== Row Quarantine Store ====================

// rowQuarantineStore implements driven.RowQuarantineStore.
type rowQuarantineStore struct {
	store *Store
}

var _ driven.RowQuarantineStore = (*rowQuarantineStore)(nil)

// Add appends quarantine entries for a file.
func (s *rowQuarantineStore) Add(ctx context.Context, entries []domain.RowQuarantine) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO row_quarantine (id, file_hash, row_number, raw_row, reason)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, e.FileHash.String(),
			e.RowNumber, e.RawRow, e.Reason); err != nil {
			return fmt.Errorf("saving quarantined row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListByFile returns the quarantined rows of one file.
func (s *rowQuarantineStore) ListByFile(ctx context.Context, hash domain.Hash) ([]domain.RowQuarantine, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, file_hash, row_number, raw_row, reason
		FROM row_quarantine WHERE file_hash = ?
		ORDER BY row_number
	`, hash.String())
	if err != nil {
		return nil, fmt.Errorf("querying row quarantine: %w", err)
	}
	defer rows.Close()

	var entries []domain.RowQuarantine //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.RowQuarantine
		var hashHex string
		if err := rows.Scan(&e.ID, &hashHex, &e.RowNumber, &e.RawRow, &e.Reason); err != nil {
			return nil, fmt.Errorf("scanning quarantined row: %w", err)
		}
		h, err := domain.ParseHash(hashHex)
		if err != nil {
			return nil, fmt.Errorf("scanning quarantined row: %w", err)
		}
		e.FileHash = h
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating row quarantine: %w", err)
	}

	return entries, nil
}

// ==================== Helper Functions ====================

// nullString maps empty strings to SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation detects a primary-key conflict from the driver's
// error text; modernc.org/sqlite does not expose typed errors for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
