package delimited

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
)

func TestParse_BasicCSV(t *testing.T) {
	p := New()

	table, err := p.Parse(context.Background(), []byte("date,open,close\n2024-01-02,10,11\n2024-01-03,11,12\n"), domain.ParserOptions{}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "open", "close"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"2024-01-02", "10", "11"}, table.Rows[0])
}

func TestParse_CustomDelimiterAndSkipRows(t *testing.T) {
	p := New()

	data := []byte("exported by vendor\nreport: daily\ndate;open;close\n2024-01-02;10;11\n")
	table, err := p.Parse(context.Background(), data, domain.ParserOptions{Delimiter: ";", SkipRows: 2}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "open", "close"}, table.Columns)
	require.Len(t, table.Rows, 1)
}

func TestParse_RaggedRowsFitHeaderWidth(t *testing.T) {
	p := New()

	data := []byte("a,b,c\n1,2\n1,2,3,4\n")
	table, err := p.Parse(context.Background(), data, domain.ParserOptions{}, "")
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"1", "2", ""}, table.Rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, table.Rows[1])
}

func TestParse_SkipsBlankRows(t *testing.T) {
	p := New()

	table, err := p.Parse(context.Background(), []byte("a,b\n1,2\n\n   ,\n3,4\n"), domain.ParserOptions{}, "")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestParse_QuotedFields(t *testing.T) {
	p := New()

	data := []byte("name,note\nacme,\"hello, world\"\n")
	table, err := p.Parse(context.Background(), data, domain.ParserOptions{}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "hello, world"}, table.Rows[0])
}

func TestParse_BadDelimiter(t *testing.T) {
	p := New()

	_, err := p.Parse(context.Background(), []byte("a,b\n"), domain.ParserOptions{Delimiter: "ab"}, "")
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestParse_SkipRowsBeyondContent(t *testing.T) {
	p := New()

	_, err := p.Parse(context.Background(), []byte("a,b\n1,2\n"), domain.ParserOptions{SkipRows: 10}, "")
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestParse_InvalidUTF8(t *testing.T) {
	p := New()

	_, err := p.Parse(context.Background(), []byte{0xff, 0xfe, 0x00, 0x41}, domain.ParserOptions{}, "utf-8")
	assert.ErrorIs(t, err, domain.ErrParse)
}
