package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/journal"
)

func TestExport(t *testing.T) {
	cfgPath := initLedger(t)

	for _, tx := range [][]string{
		{"--date", "2024-03-01", "--from", "Assets:Checking", "--to", "Expenses:Groceries", "--amount", "42.50", "--memo", "market"},
		{"--date", "2024-04-02", "--from", "Income:Salary", "--to", "Assets:Checking", "--amount", "1000"},
	} {
		_, err := runLedger(t, append(append([]string{"tx", "add"}, tx...), "--config", cfgPath)...)
		require.NoError(t, err)
	}

	out, err := runLedger(t, "export", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 entries (4 legs)")
	assert.Contains(t, out, "Months: 2024-03, 2024-04")

	root := filepath.Join(filepath.Dir(cfgPath), "journal")
	_, err = os.Stat(filepath.Join(root, "2024", "03", journal.FileName))
	require.NoError(t, err)

	legs, err := journal.NewExporter(root, ":", journal.PathSet{}).ReadMonth(2024, 3)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, "2024-03-001a", legs[0].EntryID)
	assert.Equal(t, "market", legs[0].Description)
}

func TestExport_CustomDir(t *testing.T) {
	cfgPath := initLedger(t)
	dir := filepath.Join(t.TempDir(), "out")

	out, err := runLedger(t, "export", "--dir", dir, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 0 entries (0 legs)")
	assert.NotContains(t, out, "Months:")
}
