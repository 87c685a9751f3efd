package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/florianilch/preverify/internal/app"
)

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfigFile(t, `
log_level = "debug"
log_format = "json"

[api]
base_url = "https://verify.example.org/api"
timeout = "5s"

[storage]
backend = "sqlite"
path = "/tmp/preverify.db"
`)

	cfg, err := loadConfig(path, nil, environ())
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, app.LogFormatJSON)
	}
	if cfg.API.BaseURL != "https://verify.example.org/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout.Seconds() != 5 {
		t.Errorf("API.Timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.Storage.Backend != app.StorageBackendSQLite {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, app.StorageBackendSQLite)
	}
	if cfg.Server.Port != app.DefaultConfigServerPort {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, app.DefaultConfigServerPort)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[api]
base_url = "https://file.example.org"
`)

	cfg, err := loadConfig(path, nil, environ(
		"PREVERIFY_API__BASE_URL=https://env.example.org",
		"PREVERIFY_LOG_FORMAT=json",
		"PREVERIFY_STORAGE__VOTER_ID_ENV=VOTER_ID",
		"PREVERIFY_SECRET=not-a-config-key",
		"UNRELATED=1",
	))
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.API.BaseURL != "https://env.example.org" {
		t.Errorf("API.BaseURL = %q, want env value", cfg.API.BaseURL)
	}
	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, app.LogFormatJSON)
	}
	if cfg.Storage.VoterIDEnv != "VOTER_ID" {
		t.Errorf("Storage.VoterIDEnv = %q, want VOTER_ID", cfg.Storage.VoterIDEnv)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     []string
		wantErr string
	}{
		{
			name:    "missing base url",
			wantErr: "invalid config",
		},
		{
			name:    "unknown backend",
			env:     []string{"PREVERIFY_API__BASE_URL=https://x.example.org", "PREVERIFY_STORAGE__BACKEND=floppy"},
			wantErr: "invalid config",
		},
		{
			name:    "malformed file",
			file:    "api = [",
			wantErr: "loading config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			_, err := loadConfig(path, nil, environ(tt.env...))
			if err == nil {
				t.Fatal("loadConfig() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), nil, environ())
	if err == nil {
		t.Fatal("loadConfig() error = nil, want error for missing file")
	}
}
