package cleaners

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
)

// Ensure TradeTicks implements the interface.
var _ driven.Cleaner = (*TradeTicks)(nil)

// TradeTicks cleans tick-level trade files: one row per execution
// with a timestamp, price and size. An optional side column is kept
// when present.
type TradeTicks struct{}

// NewTradeTicks creates the trade tick cleaning routine.
func NewTradeTicks() *TradeTicks {
	return &TradeTicks{}
}

// ID is the name recipes use to select this routine.
func (c *TradeTicks) ID() string {
	return "trade_ticks"
}

// Clean types each tick; bad rows go to the row quarantine.
func (c *TradeTicks) Clean(_ context.Context, table *domain.Table, recipe *domain.FormatRecipe) (*domain.CleanResult, error) {
	idx, err := columnIndexes(table, "timestamp", "price", "size")
	if err != nil {
		return nil, err
	}
	sideIdx := table.ColumnIndex("side")

	columns := []string{"timestamp", "price", "size"}
	if sideIdx >= 0 {
		columns = append(columns, "side")
	}
	columns, defaults := appendDefaults(columns, recipe.DefaultValues)
	result := &domain.CleanResult{Columns: columns}

	for rowNum, row := range table.Rows {
		tick, reason := cleanTick(row, idx, sideIdx)
		if reason != "" {
			result.Quarantined = append(result.Quarantined, domain.RowQuarantine{
				RowNumber: rowNum + 1,
				RawRow:    strings.Join(row, ","),
				Reason:    reason,
			})
			continue
		}
		for _, d := range defaults {
			tick = append(tick, d)
		}
		result.Rows = append(result.Rows, tick)
	}
	return result, nil
}

// cleanTick types one row, returning a non-empty reason on rejection.
func cleanTick(row []string, idx map[string]int, sideIdx int) ([]any, string) {
	ts, err := parseTimestamp(row[idx["timestamp"]])
	if err != nil {
		return nil, fmt.Sprintf("timestamp: %v", err)
	}

	price, err := parseFloat(row[idx["price"]])
	if err != nil {
		return nil, fmt.Sprintf("price: %v", err)
	}
	if price <= 0 {
		return nil, "price not positive"
	}

	size, err := parseInt(row[idx["size"]])
	if err != nil {
		return nil, fmt.Sprintf("size: %v", err)
	}
	if size <= 0 {
		return nil, "size not positive"
	}

	tick := []any{ts, price, size}
	if sideIdx >= 0 {
		side := strings.ToLower(strings.TrimSpace(row[sideIdx]))
		switch side {
		case "buy", "b":
			side = "buy"
		case "sell", "s":
			side = "sell"
		case "":
			side = ""
		default:
			return nil, fmt.Sprintf("unrecognised side %q", row[sideIdx])
		}
		tick = append(tick, side)
	}
	return tick, ""
}
