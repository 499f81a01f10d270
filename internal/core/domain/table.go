package domain

import (
	"strings"
	"unicode"
)

// Table is a parsed file: a header plus string-valued data rows.
// Typing happens later, in the cleaning routine.
type Table struct {
	// Columns is the header, in source order, as parsed.
	Columns []string

	// Rows are the data rows. Each row has len(Columns) fields;
	// parsers pad or truncate ragged rows to fit.
	Rows [][]string
}

// NormalizeColumn reduces a column name to its canonical form: leading
// and trailing space trimmed, ALL internal whitespace removed, then
// lowercased. The same normalisation feeds the format fingerprint, so
// column matching is independent of vendor casing and spacing.
func NormalizeColumn(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// ColumnIndex returns the index of the named column, matching on
// normalised names. Returns -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	want := NormalizeColumn(name)
	for i, c := range t.Columns {
		if NormalizeColumn(c) == want {
			return i
		}
	}
	return -1
}

// MissingColumns returns the required names not present in the table.
func (t *Table) MissingColumns(required []string) []string {
	var missing []string
	for _, name := range required {
		if t.ColumnIndex(name) < 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

// CleanResult is what a cleaning routine produces: typed rows ready to
// load plus the rows it set aside. Quarantined rows never fail the
// file.
type CleanResult struct {
	// Columns is the output schema, in load order.
	Columns []string

	// Rows are the cleaned, typed rows aligned to Columns.
	Rows [][]any

	// Quarantined are the rows rejected at row granularity.
	Quarantined []RowQuarantine
}
