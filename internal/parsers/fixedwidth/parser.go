// Package fixedwidth parses column-offset text layouts. The layout
// comes entirely from the recipe's parser options; there is no header
// row in the file itself beyond what the offsets slice out.
package fixedwidth

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
	"github.com/custodia-labs/skema-cli/internal/parsers"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser slices fixed-width lines into fields.
type Parser struct{}

// New creates a fixed-width parser.
func New() *Parser {
	return &Parser{}
}

// Kind returns the parser kind this implementation serves.
func (p *Parser) Kind() domain.ParserKind {
	return domain.ParserFixedWidth
}

// Parse decodes the bytes and slices every line at the recipe's rune
// offsets. Offsets are validated once up front; lines shorter than an
// offset produce empty fields rather than errors.
func (p *Parser) Parse(_ context.Context, data []byte, opts domain.ParserOptions, encoding string) (*domain.Table, error) {
	if len(opts.Columns) == 0 {
		return nil, fmt.Errorf("%w: fixed-width recipe has no columns", domain.ErrParse)
	}
	for _, col := range opts.Columns {
		if col.Name == "" || col.Start < 0 || col.End <= col.Start {
			return nil, fmt.Errorf("%w: bad fixed-width column %+v", domain.ErrParse, col)
		}
	}

	if encoding == "" {
		encoding = parsers.EncUTF8
	}
	text, err := parsers.Decode(data, encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	lines := parsers.SplitLines(text)
	if opts.SkipRows > 0 {
		if opts.SkipRows >= len(lines) {
			return nil, fmt.Errorf("%w: skip_rows %d leaves no content", domain.ErrParse, opts.SkipRows)
		}
		lines = lines[opts.SkipRows:]
	}

	table := &domain.Table{Columns: make([]string, len(opts.Columns))}
	for i, col := range opts.Columns {
		table.Columns[i] = col.Name
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		runes := []rune(line)
		row := make([]string, len(opts.Columns))
		for i, col := range opts.Columns {
			row[i] = strings.TrimSpace(slice(runes, col.Start, col.End))
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// slice extracts [start, end) from runes, clamping to the line length.
func slice(runes []rune, start, end int) string {
	if start >= len(runes) {
		return ""
	}
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}
