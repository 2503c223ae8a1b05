package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the data directory.
const FileName = "homeledger.yaml"

// Config represents the top-level homeledger.yaml configuration.
type Config struct {
	Data   DataConfig   `yaml:"data"`
	Engine EngineConfig `yaml:"engine"`
	Log    LogConfig    `yaml:"log"`
	Quotes QuotesConfig `yaml:"quotes"`
	Audit  AuditConfig  `yaml:"audit"`
	Git    GitConfig    `yaml:"git"`
}

// DataConfig selects where the ledger is stored.
type DataConfig struct {
	Backend string `yaml:"backend"` // sqlite or memory
	Path    string `yaml:"path"`    // relative paths resolve against the config file
}

// EngineConfig tunes the engine.
type EngineConfig struct {
	Name               string   `yaml:"name"`
	DefaultCurrency    string   `yaml:"default_currency"`
	AccountSeparator   string   `yaml:"account_separator"`
	TrashMaxAge        Duration `yaml:"trash_max_age"`
	TrashSweepInterval Duration `yaml:"trash_sweep_interval"`
	UpdateOnStartup    bool     `yaml:"update_on_startup"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// QuotesConfig controls the quote sources used by background updates.
type QuotesConfig struct {
	CacheTTL          Duration `yaml:"cache_ttl"`
	RequestsPerSecond int      `yaml:"requests_per_second"`
}

// AuditConfig controls the CSV audit trail.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// GitConfig controls snapshots of the ledger directory.
type GitConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Duration is a time.Duration written as "2m" or "5m45s".
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	v, err := time.ParseDuration(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads a homeledger.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Data.Path != "" && !filepath.IsAbs(cfg.Data.Path) {
		cfg.Data.Path = filepath.Join(filepath.Dir(path), cfg.Data.Path)
	}
	if cfg.Audit.Dir != "" && !filepath.IsAbs(cfg.Audit.Dir) {
		cfg.Audit.Dir = filepath.Join(filepath.Dir(path), cfg.Audit.Dir)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Backend: "sqlite",
			Path:    "ledger.db",
		},
		Engine: EngineConfig{
			Name:               "default",
			DefaultCurrency:    "USD",
			AccountSeparator:   ":",
			TrashMaxAge:        Duration(2 * time.Minute),
			TrashSweepInterval: Duration(5*time.Minute + 45*time.Second),
		},
		Log: LogConfig{
			Level: "info",
		},
		Quotes: QuotesConfig{
			CacheTTL:          Duration(12 * time.Hour),
			RequestsPerSecond: 2,
		},
		Audit: AuditConfig{
			Enabled: true,
			Dir:     ".",
		},
		Git: GitConfig{
			AuthorName:  "homeledger",
			AuthorEmail: "homeledger@localhost",
		},
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Data.Backend {
	case "sqlite":
		if c.Data.Path == "" {
			return fmt.Errorf("data.path is required for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown data.backend %q", c.Data.Backend)
	}
	if c.Engine.DefaultCurrency == "" {
		return fmt.Errorf("engine.default_currency is required")
	}
	if c.Engine.TrashMaxAge < 0 || c.Engine.TrashSweepInterval < 0 {
		return fmt.Errorf("engine durations must not be negative")
	}
	return nil
}
