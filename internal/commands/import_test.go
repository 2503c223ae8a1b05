package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statement = "date,description,amount\n" +
	"2024-03-01,Corner Cafe,-3.50\n" +
	"2024-03-02,Grocer,-40.00\n" +
	"2024-03-05,Paycheck,1000\n"

func TestImport_File(t *testing.T) {
	cfgPath := initLedger(t)
	file := filepath.Join(t.TempDir(), "march.csv")
	require.NoError(t, os.WriteFile(file, []byte(statement), 0o644))

	args := []string{"import", file, "--format", "simple", "--account", "Assets:Checking", "--offset", "Expenses:Groceries", "--config", cfgPath}
	out, err := runLedger(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "march.csv: 3 added, 0 skipped")

	out, err = runLedger(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "march.csv: 0 added, 3 skipped")

	out, err = runLedger(t, "account", "balance", "Assets:Checking", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "956.50")
}

func TestImport_ScanDir(t *testing.T) {
	cfgPath := initLedger(t)
	dir := filepath.Dir(cfgPath)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "import"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "bank.csv"), []byte(statement), 0o644))

	out, err := runLedger(t, "import", "-f", "simple", "-a", "Assets:Checking", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "bank.csv: 3 added")

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "bank.csv"))
	require.NoError(t, err)
}

func TestImport_UnknownFormat(t *testing.T) {
	cfgPath := initLedger(t)

	_, err := runLedger(t, "import", "-f", "ofx", "-a", "Assets:Checking", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown import format "ofx"`)
}
