package cleaners

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
)

// Ensure DailyPrices implements the interface.
var _ driven.Cleaner = (*DailyPrices)(nil)

// DailyPrices cleans daily OHLCV bar files: one row per trading day
// with open, high, low, close prices and volume. Rows with
// unparseable values or impossible price relations are quarantined at
// row granularity; the file itself succeeds.
type DailyPrices struct{}

// NewDailyPrices creates the OHLCV cleaning routine.
func NewDailyPrices() *DailyPrices {
	return &DailyPrices{}
}

// ID is the name recipes use to select this routine.
func (c *DailyPrices) ID() string {
	return "ohlcv_daily"
}

// Clean types each bar and validates its internal consistency.
func (c *DailyPrices) Clean(_ context.Context, table *domain.Table, recipe *domain.FormatRecipe) (*domain.CleanResult, error) {
	idx, err := columnIndexes(table, "date", "open", "high", "low", "close", "volume")
	if err != nil {
		return nil, err
	}

	columns, defaults := appendDefaults(
		[]string{"date", "open", "high", "low", "close", "volume"}, recipe.DefaultValues)
	result := &domain.CleanResult{Columns: columns}

	for rowNum, row := range table.Rows {
		bar, reason := cleanBar(row, idx)
		if reason != "" {
			result.Quarantined = append(result.Quarantined, domain.RowQuarantine{
				RowNumber: rowNum + 1,
				RawRow:    strings.Join(row, ","),
				Reason:    reason,
			})
			continue
		}
		for _, d := range defaults {
			bar = append(bar, d)
		}
		result.Rows = append(result.Rows, bar)
	}
	return result, nil
}

// cleanBar types one row, returning a non-empty reason on rejection.
func cleanBar(row []string, idx map[string]int) ([]any, string) {
	date, err := parseDate(row[idx["date"]])
	if err != nil {
		return nil, fmt.Sprintf("date: %v", err)
	}

	prices := make(map[string]float64, 4)
	for _, name := range []string{"open", "high", "low", "close"} {
		v, err := parseFloat(row[idx[name]])
		if err != nil {
			return nil, fmt.Sprintf("%s: %v", name, err)
		}
		if v < 0 {
			return nil, fmt.Sprintf("%s is negative", name)
		}
		prices[name] = v
	}
	if prices["high"] < prices["low"] {
		return nil, "high below low"
	}

	volume, err := parseInt(row[idx["volume"]])
	if err != nil {
		return nil, fmt.Sprintf("volume: %v", err)
	}
	if volume < 0 {
		return nil, "volume is negative"
	}

	return []any{date, prices["open"], prices["high"], prices["low"], prices["close"], volume}, ""
}

// columnIndexes resolves required columns to indexes. The worker has
// already verified presence; a miss here is a programming error in
// the recipe's required_columns list.
func columnIndexes(table *domain.Table, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(names))
	for _, name := range names {
		i := table.ColumnIndex(name)
		if i < 0 {
			return nil, fmt.Errorf("%w: column %q not in parsed table", domain.ErrSchema, name)
		}
		idx[name] = i
	}
	return idx, nil
}
