package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshul/stackdash/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, path, err := Load("", t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesFile(t *testing.T) {
	dir := t.TempDir()
	want := writeConfig(t, dir, `
launcher: scripts/app.sh
interpreter: ""
refresh_interval: 2s
command_timeout: 90s
markers:
  build: dist
log_capacity: 200
`)

	cfg, path, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, want, path)
	assert.Equal(t, "scripts/app.sh", cfg.Launcher)
	assert.Equal(t, "", cfg.Interpreter)
	assert.Equal(t, 2*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 90*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "dist", cfg.Markers.Build)
	assert.Equal(t, "package.json", cfg.Markers.Manifest, "unset keys keep their defaults")
	assert.Equal(t, 200, cfg.LogCapacity)
	assert.True(t, cfg.AutoRefresh)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STACKDASH_REFRESH_INTERVAL", "15s")
	t.Setenv("STACKDASH_MARKERS_BUILD", "build")

	cfg, _, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "build", cfg.Markers.Build)
}

func TestLoadExplicitMissing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "launcher: [unclosed\n")

	_, _, err := Load("", dir)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "empty launcher", mutate: func(c *Config) { c.Launcher = " " }, wantErr: "launcher is empty"},
		{name: "zero interval", mutate: func(c *Config) { c.RefreshInterval = 0 }, wantErr: "refresh_interval must be positive"},
		{name: "negative timeout", mutate: func(c *Config) { c.CommandTimeout = -time.Second }, wantErr: "command_timeout must be positive"},
		{name: "zero capacity", mutate: func(c *Config) { c.LogCapacity = 0 }, wantErr: "log_capacity must be at least 1"},
		{name: "no manifest marker", mutate: func(c *Config) { c.Markers.Manifest = "" }, wantErr: "markers.manifest is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteThenLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Launcher = "bot.sh"
	cfg.RefreshInterval = 7 * time.Second
	cfg.WatchMarkers = false

	path := filepath.Join(dir, FileName)
	require.NoError(t, Write(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "refresh_interval: 7s")

	loaded, _, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	read, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "bot.sh", read.Launcher)
}

func TestReadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "supervisor: pm2\nrefresh_intervall: 5s\n")

	_, err := Read(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "refresh_intervall")
}

func TestReadPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "supervisor: pm2\n")

	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "pm2", cfg.Supervisor)
	assert.Empty(t, cfg.Launcher)
}

func TestMarkersStatus(t *testing.T) {
	m := Default().Markers.Status()
	assert.Equal(t, "package.json", m.Manifest)
	assert.Equal(t, "node_modules", m.Dependencies)
	assert.Equal(t, ".output", m.Build)
}
