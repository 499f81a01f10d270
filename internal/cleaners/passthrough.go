package cleaners

import (
	"context"
	"strings"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
)

// Ensure Passthrough implements the interface.
var _ driven.Cleaner = (*Passthrough)(nil)

// Passthrough loads every parsed column as trimmed text. It is the
// routine for formats that need no typing, and the safe default when
// building a new recipe before its dedicated routine exists. It never
// quarantines rows.
type Passthrough struct{}

// NewPassthrough creates the passthrough routine.
func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

// ID is the name recipes use to select this routine.
func (c *Passthrough) ID() string {
	return "passthrough"
}

// Clean emits every row with normalised column names, trimmed text
// values, and the recipe's default values appended for columns the
// source omits.
func (c *Passthrough) Clean(_ context.Context, table *domain.Table, recipe *domain.FormatRecipe) (*domain.CleanResult, error) {
	columns := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		columns[i] = domain.NormalizeColumn(col)
	}
	columns, defaults := appendDefaults(columns, recipe.DefaultValues)

	result := &domain.CleanResult{Columns: columns}
	for _, row := range table.Rows {
		out := make([]any, 0, len(columns))
		for _, v := range row {
			out = append(out, strings.TrimSpace(v))
		}
		for _, d := range defaults {
			out = append(out, d)
		}
		result.Rows = append(result.Rows, out)
	}
	return result, nil
}

// appendDefaults extends the column list with defaulted columns the
// source did not provide, returning the values to append per row.
func appendDefaults(columns []string, defaultValues map[string]string) ([]string, []string) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var defaults []string
	for _, name := range sortedKeys(defaultValues) {
		norm := domain.NormalizeColumn(name)
		if _, ok := present[norm]; ok {
			continue
		}
		columns = append(columns, norm)
		defaults = append(defaults, defaultValues[name])
	}
	return columns, defaults
}
