package cleaners

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
)

func TestPassthrough_TrimsAndNormalises(t *testing.T) {
	table := &domain.Table{
		Columns: []string{" Trade Date ", "OPEN"},
		Rows:    [][]string{{" 2024-01-02 ", " 10 "}},
	}

	result, err := NewPassthrough().Clean(context.Background(), table, &domain.FormatRecipe{})
	require.NoError(t, err)

	assert.Equal(t, []string{"tradedate", "open"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, []any{"2024-01-02", "10"}, result.Rows[0])
	assert.Empty(t, result.Quarantined)
}

func TestPassthrough_AppendsDefaults(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"date", "open"},
		Rows:    [][]string{{"2024-01-02", "10"}},
	}
	recipe := &domain.FormatRecipe{
		DefaultValues: map[string]string{"currency": "USD", "venue": "XNYS"},
	}

	result, err := NewPassthrough().Clean(context.Background(), table, recipe)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "open", "currency", "venue"}, result.Columns)
	assert.Equal(t, []any{"2024-01-02", "10", "USD", "XNYS"}, result.Rows[0])
}

func TestPassthrough_DefaultSkippedWhenColumnPresent(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"date", "currency"},
		Rows:    [][]string{{"2024-01-02", "EUR"}},
	}
	recipe := &domain.FormatRecipe{
		DefaultValues: map[string]string{"currency": "USD"},
	}

	result, err := NewPassthrough().Clean(context.Background(), table, recipe)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "currency"}, result.Columns)
	assert.Equal(t, []any{"2024-01-02", "EUR"}, result.Rows[0])
}

func TestDailyPrices_TypesValidBars(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"Date", "Open", "High", "Low", "Close", "Volume"},
		Rows: [][]string{
			{"2024/01/02", "10.5", "12", "9.5", "11", "1,000"},
		},
	}

	result, err := NewDailyPrices().Clean(context.Background(), table, &domain.FormatRecipe{})
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, []any{"2024-01-02", 10.5, 12.0, 9.5, 11.0, int64(1000)}, result.Rows[0])
}

func TestDailyPrices_QuarantinesBadRows(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"date", "open", "high", "low", "close", "volume"},
		Rows: [][]string{
			{"2024-01-02", "10", "12", "9", "11", "100"},
			{"not-a-date", "10", "12", "9", "11", "100"},
			{"2024-01-03", "-1", "12", "9", "11", "100"},
			{"2024-01-04", "10", "8", "9", "11", "100"}, // high < low
			{"2024-01-05", "10", "12", "9", "11", "oops"},
		},
	}

	result, err := NewDailyPrices().Clean(context.Background(), table, &domain.FormatRecipe{})
	require.NoError(t, err)

	assert.Len(t, result.Rows, 1)
	require.Len(t, result.Quarantined, 4)
	assert.Equal(t, 2, result.Quarantined[0].RowNumber)
	assert.Contains(t, result.Quarantined[0].Reason, "date")
	assert.Contains(t, result.Quarantined[1].Reason, "negative")
	assert.Equal(t, "high below low", result.Quarantined[2].Reason)
	assert.Contains(t, result.Quarantined[3].Reason, "volume")
}

func TestDailyPrices_ColumnOrderIrrelevant(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"Volume", "Close", "Low", "High", "Open", "Date"},
		Rows:    [][]string{{"100", "11", "9", "12", "10", "2024-01-02"}},
	}

	result, err := NewDailyPrices().Clean(context.Background(), table, &domain.FormatRecipe{})
	require.NoError(t, err)
	assert.Equal(t, []any{"2024-01-02", 10.0, 12.0, 9.0, 11.0, int64(100)}, result.Rows[0])
}

func TestTradeTicks_TypesValidTicks(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"timestamp", "price", "size", "side"},
		Rows: [][]string{
			{"2024-01-02T09:30:00Z", "10.5", "100", "B"},
			{"1704187800", "10.6", "50", "sell"},
		},
	}

	result, err := NewTradeTicks().Clean(context.Background(), table, &domain.FormatRecipe{})
	require.NoError(t, err)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, []string{"timestamp", "price", "size", "side"}, result.Columns)
	assert.Equal(t, []any{"2024-01-02T09:30:00Z", 10.5, int64(100), "buy"}, result.Rows[0])
	assert.Equal(t, "sell", result.Rows[1][3])
}

func TestTradeTicks_SideOptional(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"timestamp", "price", "size"},
		Rows:    [][]string{{"2024-01-02T09:30:00Z", "10.5", "100"}},
	}

	result, err := NewTradeTicks().Clean(context.Background(), table, &domain.FormatRecipe{})
	require.NoError(t, err)
	assert.Equal(t, []string{"timestamp", "price", "size"}, result.Columns)
}

func TestTradeTicks_QuarantinesBadTicks(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"timestamp", "price", "size"},
		Rows: [][]string{
			{"2024-01-02T09:30:00Z", "0", "100"},
			{"2024-01-02T09:30:01Z", "10.5", "-5"},
			{"yesterday", "10.5", "100"},
		},
	}

	result, err := NewTradeTicks().Clean(context.Background(), table, &domain.FormatRecipe{})
	require.NoError(t, err)

	assert.Empty(t, result.Rows)
	require.Len(t, result.Quarantined, 3)
	assert.Equal(t, "price not positive", result.Quarantined[0].Reason)
	assert.Equal(t, "size not positive", result.Quarantined[1].Reason)
	assert.Contains(t, result.Quarantined[2].Reason, "timestamp")
}

func TestParseDate_Layouts(t *testing.T) {
	for _, in := range []string{"2024-01-02", "2024/01/02", "01/02/2024", "02.01.2024", "20240102"} {
		got, err := parseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2024-01-02", got, in)
	}

	_, err := parseDate("Jan 2nd")
	assert.Error(t, err)
}

func TestParseFloat_Separators(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"10.5", 10.5},
		{"1,234.56", 1234.56},
		{"1234,56", 1234.56},
		{"-3", -3},
	}
	for _, tt := range tests {
		got, err := parseFloat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseFloat("n/a")
	assert.Error(t, err)
}

func TestParseInt_Tolerances(t *testing.T) {
	got, err := parseInt("1,000")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got)

	got, err = parseInt("250.0")
	require.NoError(t, err)
	assert.Equal(t, int64(250), got)

	_, err = parseInt("12.5")
	assert.Error(t, err)
}

func TestParseTimestamp_Epoch(t *testing.T) {
	got, err := parseTimestamp("1704187800")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T09:30:00Z", got)

	got, err = parseTimestamp("1704187800123")
	require.NoError(t, err)
	assert.Contains(t, got, "2024-01-02T09:30:00.123")
}

func TestBuiltin_IDs(t *testing.T) {
	ids := make([]string, 0)
	for _, c := range Builtin() {
		ids = append(ids, c.ID())
	}
	assert.ElementsMatch(t, []string{"passthrough", "ohlcv_daily", "trade_ticks"}, ids)
}
