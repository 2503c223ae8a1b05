package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Engine.DefaultCurrency = "EUR"
	cfg.Engine.UpdateOnStartup = true
	cfg.Data.Path = "/var/lib/homeledger/ledger.db"
	cfg.Log.Pretty = true

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "EUR", got.Engine.DefaultCurrency)
	assert.True(t, got.Engine.UpdateOnStartup)
	assert.Equal(t, "/var/lib/homeledger/ledger.db", got.Data.Path)
	assert.Equal(t, 2*time.Minute, got.Engine.TrashMaxAge.Std())
	assert.Equal(t, 5*time.Minute+45*time.Second, got.Engine.TrashSweepInterval.Std())
	assert.True(t, got.Log.Pretty)
	assert.Equal(t, 2, got.Quotes.RequestsPerSecond)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "sqlite", cfg.Data.Backend)
	assert.Equal(t, "ledger.db", cfg.Data.Path)
	assert.Equal(t, "USD", cfg.Engine.DefaultCurrency)
	assert.Equal(t, ":", cfg.Engine.AccountSeparator)
	assert.Equal(t, 12*time.Hour, cfg.Quotes.CacheTTL.Std())
	assert.False(t, cfg.Engine.UpdateOnStartup)
	assert.False(t, cfg.Git.Enabled)
	assert.Equal(t, "homeledger", cfg.Git.AuthorName)
	require.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_RelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("data:\n  path: books/ledger.db\naudit:\n  dir: logs\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "books", "ledger.db"), cfg.Data.Path)
	assert.Equal(t, filepath.Join(dir, "logs"), cfg.Audit.Dir)
	assert.Equal(t, "sqlite", cfg.Data.Backend, "unset keys keep defaults")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown backend", "data:\n  backend: postgres\n"},
		{"bad duration", "engine:\n  trash_max_age: soon\n"},
		{"no currency", "engine:\n  default_currency: \"\"\n"},
		{"sqlite without path", "data:\n  path: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "backend: sqlite")
	assert.Contains(t, contents, "default_currency: USD")
	assert.Contains(t, contents, "trash_max_age: 2m0s")
	assert.Contains(t, contents, "trash_sweep_interval: 5m45s")
	assert.Contains(t, contents, "author_email: homeledger@localhost")
}
