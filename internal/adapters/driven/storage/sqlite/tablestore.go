package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
)

// Ensure TableStore implements the interface.
var _ driven.TableStore = (*TableStore)(nil)

// identPattern is what curated table and column names must match.
// Names come from the catalog, but they are still spliced into SQL;
// anything outside this alphabet is rejected up front.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableStore loads cleaned rows into curated tables in their own
// SQLite database. Tables are created on first load from the cleaned
// column list; cleaning routines own typing, so columns carry no
// declared affinity.
type TableStore struct {
	db   *sql.DB
	path string
}

// NewTableStore opens (or creates) the curated database under the
// given data directory.
func NewTableStore(dataDir string) (*TableStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "curated.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening curated database: %w", err)
	}

	return &TableStore{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *TableStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *TableStore) Path() string {
	return s.path
}

// Load writes rows into the named table, creating it if needed. The
// whole load is one transaction: LoadReplace clears the table first
// inside it, so a failed load never leaves the table half-replaced.
func (s *TableStore) Load(ctx context.Context, table string, columns []string, rows [][]any, mode domain.LoadMode) (int64, error) {
	if err := validIdent(table); err != nil {
		return 0, err
	}
	for _, col := range columns {
		if err := validIdent(col); err != nil {
			return 0, err
		}
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("%w: load with no columns", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: beginning transaction: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, createTableSQL(table, columns)); err != nil {
		return 0, fmt.Errorf("%w: creating table %s: %v", domain.ErrStorage, table, err)
	}

	if mode == domain.LoadReplace {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %q`, table)); err != nil {
			return 0, fmt.Errorf("%w: clearing table %s: %v", domain.ErrStorage, table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("%w: preparing insert: %v", domain.ErrStorage, err)
	}
	defer stmt.Close()

	var written int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("%w: row has %d values, want %d", domain.ErrInvalidInput, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("%w: inserting into %s: %v", domain.ErrStorage, table, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing load: %v", domain.ErrStorage, err)
	}
	return written, nil
}

// Count returns the row count of a curated table.
func (s *TableStore) Count(ctx context.Context, table string) (int64, error) {
	if err := validIdent(table); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table)).Scan(&count)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("%w: counting %s: %v", domain.ErrStorage, table, err)
	}
	return count, nil
}

// validIdent rejects names that cannot be safely spliced into SQL.
func validIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: identifier %q", domain.ErrInvalidInput, name)
	}
	return nil
}

func createTableSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = fmt.Sprintf("%q", col)
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (%s)`, table, strings.Join(quoted, ", "))
}

func insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = fmt.Sprintf("%q", col)
		placeholders[i] = "?"
	}
	return fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
		table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}
