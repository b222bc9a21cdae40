package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the clearance service configuration
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Log       LogConfig       `toml:"log"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	Server    ServerConfig    `toml:"server"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, console
}

// ReconcileConfig tunes the reconciliation driver.
type ReconcileConfig struct {
	Interval      Duration `toml:"interval"`       // time between scheduled passes
	Debounce      Duration `toml:"debounce"`       // window for coalescing change triggers
	Workers       int      `toml:"workers"`        // concurrent fact gatherers per pass
	FetchAttempts int      `toml:"fetch_attempts"` // attempts per request before skipping it
	FetchBackoff  Duration `toml:"fetch_backoff"`  // initial retry delay, doubled per attempt
}

// ServerConfig configures the HTTP action handler.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration that reads and writes as "1m30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "~/.clearance/clearance.db"},
		Log:      LogConfig{Level: "info", Format: "console"},
		Reconcile: ReconcileConfig{
			Interval:      Duration{time.Minute},
			Debounce:      Duration{2 * time.Second},
			Workers:       4,
			FetchAttempts: 3,
			FetchBackoff:  Duration{200 * time.Millisecond},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// DefaultPath returns ~/.clearance/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".clearance", "config.toml"), nil
}

// LoadConfig reads the TOML file at path on top of the defaults.
// A missing file is not an error - the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes the configuration as TOML, creating parent directories.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path must be set")
	}
	if c.Reconcile.Workers < 1 {
		return fmt.Errorf("reconcile.workers must be at least 1 (got %d)", c.Reconcile.Workers)
	}
	if c.Reconcile.FetchAttempts < 1 {
		return fmt.Errorf("reconcile.fetch_attempts must be at least 1 (got %d)", c.Reconcile.FetchAttempts)
	}
	if c.Reconcile.Interval.Duration <= 0 {
		return errors.New("reconcile.interval must be positive")
	}
	if c.Reconcile.Debounce.Duration < 0 {
		return errors.New("reconcile.debounce must not be negative")
	}
	return nil
}

// DatabasePath returns the database path with a leading ~ expanded.
func (c *Config) DatabasePath() (string, error) {
	return ExpandHome(c.Database.Path)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
