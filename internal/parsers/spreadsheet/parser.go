// Package spreadsheet parses XLSX workbooks into tables.
package spreadsheet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser reads XLSX workbooks.
type Parser struct{}

// New creates a spreadsheet parser.
func New() *Parser {
	return &Parser{}
}

// Kind returns the parser kind this implementation serves.
func (p *Parser) Kind() domain.ParserKind {
	return domain.ParserSpreadsheet
}

// Parse opens the workbook, selects the recipe's sheet (or the first
// one), and reads header plus data rows. The encoding hint is ignored:
// XLSX is a binary container with its own text handling.
func (p *Parser) Parse(_ context.Context, data []byte, opts domain.ParserOptions, _ string) (*domain.Table, error) {
	rows, err := ReadRows(data, opts.Sheet)
	if err != nil {
		return nil, err
	}

	if opts.SkipRows > 0 {
		if opts.SkipRows >= len(rows) {
			return nil, fmt.Errorf("%w: skip_rows %d leaves no content", domain.ErrParse, opts.SkipRows)
		}
		rows = rows[opts.SkipRows:]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet has no rows", domain.ErrParse)
	}

	header := rows[0]
	table := &domain.Table{Columns: header}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		fitted := make([]string, len(header))
		copy(fitted, row)
		table.Rows = append(table.Rows, fitted)
	}
	return table, nil
}

// ReadRows returns the raw cell rows of one sheet. The classifier
// uses it too, to fingerprint workbook headers without going through
// the text-decoding path.
func ReadRows(data []byte, sheet string) ([][]string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: opening workbook: %v", domain.ErrParse, err)
	}
	defer book.Close()

	if sheet == "" {
		sheet = book.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrParse)
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %q: %v", domain.ErrParse, sheet, err)
	}
	return rows, nil
}

// IsWorkbook sniffs the zip magic that opens every XLSX file.
func IsWorkbook(data []byte) bool {
	return len(data) >= 4 && bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
