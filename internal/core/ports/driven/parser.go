package driven

import (
	"context"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
)

// Parser turns raw bytes into a Table per one ParserKind's strategy.
// Each kind (delimited, spreadsheet, fixed-width) has its own
// decode-and-tokenise implementation.
type Parser interface {
	// Kind returns the parser kind this implementation serves.
	Kind() domain.ParserKind

	// Parse tokenises the bytes. The encoding hint comes from
	// classification and names the text encoding that decoded the
	// file; binary formats ignore it. Failures wrap domain.ErrParse.
	Parse(ctx context.Context, data []byte, opts domain.ParserOptions, encoding string) (*domain.Table, error)
}
