// Package delimited parses CSV, TSV and other single-character
// delimited text files.
package delimited

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
	"github.com/custodia-labs/skema-cli/internal/parsers"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser tokenises delimiter-separated text.
type Parser struct{}

// New creates a delimited parser.
func New() *Parser {
	return &Parser{}
}

// Kind returns the parser kind this implementation serves.
func (p *Parser) Kind() domain.ParserKind {
	return domain.ParserDelimited
}

// Parse decodes the bytes with the classified encoding, skips the
// configured preamble rows, and reads header plus data rows. Ragged
// rows are padded or truncated to the header width rather than
// rejected; value-level validation belongs to the cleaning routine.
func (p *Parser) Parse(_ context.Context, data []byte, opts domain.ParserOptions, encoding string) (*domain.Table, error) {
	if encoding == "" {
		encoding = parsers.EncUTF8
	}
	text, err := parsers.Decode(data, encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	delim := ','
	if opts.Delimiter != "" {
		runes := []rune(opts.Delimiter)
		if len(runes) != 1 {
			return nil, fmt.Errorf("%w: delimiter must be one character, got %q", domain.ErrParse, opts.Delimiter)
		}
		delim = runes[0]
	}

	lines := parsers.SplitLines(text)
	if opts.SkipRows > 0 {
		if opts.SkipRows >= len(lines) {
			return nil, fmt.Errorf("%w: skip_rows %d leaves no content", domain.ErrParse, opts.SkipRows)
		}
		lines = lines[opts.SkipRows:]
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", domain.ErrParse, err)
	}

	table := &domain.Table{Columns: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading row %d: %v", domain.ErrParse, len(table.Rows)+1, err)
		}
		if isBlank(record) {
			continue
		}
		table.Rows = append(table.Rows, fitWidth(record, len(header)))
	}
	return table, nil
}

// isBlank reports whether every field of the record is empty.
func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// fitWidth pads or truncates a record to the header width.
func fitWidth(record []string, width int) []string {
	if len(record) == width {
		return record
	}
	fitted := make([]string, width)
	copy(fitted, record)
	return fitted
}
