package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestParse_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""), noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "data", cfg.Storage.Path)
	assert.Equal(t, "http://localhost:8080/api/sheets", cfg.Sync.ProxyURL)
	assert.Equal(t, TargetAppsScript, cfg.Sync.Target)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 15*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, 5, cfg.Sync.MaxAttempts)
	assert.Equal(t, 12*time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, "Roster", cfg.Sheets.RosterRange)
	assert.Equal(t, "America/New_York", cfg.Location().String())
	assert.False(t, cfg.NeedsGoogle())
}

func TestParse_FullConfig(t *testing.T) {
	yamlContent := `
server:
  addr: ":9090"
storage:
  backend: sqlite
  path: /var/lib/portal/portal.db
sync:
  proxyURL: https://portal.example.com/api/sheets
  target: sheetsApi
  interval: 1m
  timeout: 5s
  maxAttempts: 3
sessions:
  ttl: 2h
sheets:
  spreadsheetID: sheet123
  rosterRange: "Band!A1:C"
gmail:
  enabled: true
  sender: director@example.com
timezone: America/Chicago
appsScriptURL: https://script.google.com/macros/s/abc/exec
`
	cfg, err := Parse([]byte(yamlContent), noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 5*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, 3, cfg.Sync.MaxAttempts)
	assert.Equal(t, 2*time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, "Band!A1:C", cfg.Sheets.RosterRange)
	assert.True(t, cfg.NeedsGoogle())
	assert.Equal(t, "America/Chicago", cfg.Location().String())
}

func TestParse_EnvOverrides(t *testing.T) {
	env := map[string]string{
		EnvAppsScriptURL: "https://script.google.com/macros/s/fromenv/exec",
		EnvAddr:          ":7000",
	}

	cfg, err := Parse([]byte("appsScriptURL: https://script.google.com/macros/s/fromfile/exec\n"), func(k string) string { return env[k] })
	require.NoError(t, err)
	assert.Equal(t, "https://script.google.com/macros/s/fromenv/exec", cfg.AppsScriptURL)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}

func TestParse_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown backend", "storage:\n  backend: mongo\n", "validation failed"},
		{"unknown target", "sync:\n  target: carrierPigeon\n", "validation failed"},
		{"bad proxy url", "sync:\n  proxyURL: not a url\n", "validation failed"},
		{"sheets api without spreadsheet", "sync:\n  target: sheetsApi\n", "spreadsheetID is required"},
		{"bad script url", "appsScriptURL: https://example.com/exec\n", "appsScriptURL"},
		{"bad sender", "gmail:\n  sender: nobody\n", "validation failed"},
		{"bad timezone", "timezone: Mars/Olympus\n", "invalid timezone"},
		{"negative attempts", "sync:\n  maxAttempts: -1\n", "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), noEnv)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unclosed"), noEnv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "portal_config.test.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("storage:\n  backend: memory\n"), 0644))

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/portal_config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
