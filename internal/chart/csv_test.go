package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/ledger"
)

func TestRoundTrip(t *testing.T) {
	entries := []Entry{
		{Path: "Assets", Type: ledger.TypeAsset, Description: "What you own"},
		{Path: "Assets:Checking", Type: ledger.TypeChecking},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, entries))

	got, err := ReadChart(&buf)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestReadChart_Empty(t *testing.T) {
	got, err := ReadChart(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	tests := []struct {
		name   string
		record []string
		want   string
	}{
		{"field count", []string{"Assets", "ASSET"}, "expected 3 fields"},
		{"empty path", []string{"", "ASSET", ""}, "empty path"},
		{"bad type", []string{"Assets", "GOLD", ""}, "unknown account type"},
		{"root", []string{"Root", "ROOT", ""}, "root accounts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalEntry(tt.record)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestUnmarshalEntry_TypeCaseInsensitive(t *testing.T) {
	e, err := UnmarshalEntry([]string{"Expenses:Food", "expense", "groceries"})
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeExpense, e.Type)
	assert.Equal(t, "Food", e.Name())
}
