package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/homeledger/internal/chart"
	"github.com/cleared-dev/homeledger/internal/config"
)

func runLedger(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, stderr bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// initLedger creates a ledger in a temp dir and returns its config path.
func initLedger(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	out, err := runLedger(t, append([]string{"init", dir, "--name", t.Name()}, args...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Initialized ledger")
	return filepath.Join(dir, config.FileName)
}

func TestInit_CreatesFiles(t *testing.T) {
	cfgPath := initLedger(t)
	dir := filepath.Dir(cfgPath)

	for _, name := range []string{config.FileName, chart.FileName, "ledger.db"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "%s should exist", name)
	}

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "USD", cfg.Engine.DefaultCurrency)
	assert.Equal(t, "sqlite", cfg.Data.Backend)
	assert.Equal(t, t.Name(), cfg.Engine.Name)
}

func TestInit_SeedsChart(t *testing.T) {
	dir := t.TempDir()
	out, err := runLedger(t, "init", dir, "--name", t.Name(), "--chart", "minimal", "--currency", "eur")
	require.NoError(t, err)
	assert.Contains(t, out, "5 accounts, EUR")

	out, err = runLedger(t, "account", "list", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Contains(t, out, "Assets:Checking")
	assert.Contains(t, out, "CHECKING")
}

func TestInit_Separator(t *testing.T) {
	cfgPath := initLedger(t, "--chart", "minimal", "--separator", "/")

	out, err := runLedger(t, "account", "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Assets/Checking")
}

func TestInit_AlreadyInitialized(t *testing.T) {
	cfgPath := initLedger(t)

	_, err := runLedger(t, "init", filepath.Dir(cfgPath))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInit_BadBackend(t *testing.T) {
	_, err := runLedger(t, "init", t.TempDir(), "--backend", "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown data.backend "postgres"`)
}

func TestMissingConfig(t *testing.T) {
	_, err := runLedger(t, "account", "list", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestVersion(t *testing.T) {
	out, err := runLedger(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}
