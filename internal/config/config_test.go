package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[database]
path = "/var/lib/clearance/clearance.db"

[log]
level = "debug"
format = "json"

[reconcile]
interval = "30s"
workers = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/clearance/clearance.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 30*time.Second, cfg.Reconcile.Interval.Duration)
	assert.Equal(t, 8, cfg.Reconcile.Workers)
	// untouched keys keep their defaults
	assert.Equal(t, 2*time.Second, cfg.Reconcile.Debounce.Duration)
	assert.Equal(t, 3, cfg.Reconcile.FetchAttempts)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown key",
			content: "[reconcile]\nthreads = 2\n",
			wantErr: "unknown config keys: reconcile.threads",
		},
		{
			name:    "zero workers",
			content: "[reconcile]\nworkers = 0\n",
			wantErr: "reconcile.workers must be at least 1 (got 0)",
		},
		{
			name:    "bad duration",
			content: "[reconcile]\ninterval = \"soon\"\n",
			wantErr: "failed to parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Reconcile.Workers = 2
	cfg.Reconcile.FetchBackoff = Duration{time.Second}
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/.clearance/clearance.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".clearance", "clearance.db"), got)

	got, err = ExpandHome("/tmp/clearance.db")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/clearance.db", got)
}
