package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
	LogFormatOTel LogFormat = "otel"
)

// LogExporter selects where OpenTelemetry logs are sent when LogFormat is otel.
type LogExporter string

const (
	LogExporterStdout   LogExporter = "stdout"
	LogExporterOTLPHTTP LogExporter = "otlp-http"
	LogExporterOTLPGRPC LogExporter = "otlp-grpc"
)

// StorageBackend represents the different backends supported for credentials.
type StorageBackend string

const (
	StorageBackendFile    StorageBackend = "file"
	StorageBackendSQLite  StorageBackend = "sqlite"
	StorageBackendKeyring StorageBackend = "keyring"
)

// Default configuration values
const (
	DefaultConfigLogFormat        = LogFormatText
	DefaultConfigLogExporter      = LogExporterStdout
	DefaultConfigServerHost       = "127.0.0.1"
	DefaultConfigServerPort       = 4100
	DefaultConfigShutdownTimeout  = 5 * time.Second
	DefaultConfigStorageBackend   = StorageBackendFile
	DefaultConfigKeyringService   = "preverify"
	DefaultConfigStorageSecretEnv = "PREVERIFY_SECRET"
	DefaultConfigAPITimeout       = 30 * time.Second
	DefaultConfigAPIMaxRetries    = uint(3)
)

// ServerConfig holds configuration of the local trigger server.
type ServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// StorageConfig describes how to construct the credential store.
type StorageConfig struct {
	Backend StorageBackend `json:"backend" validate:"required,oneof=file sqlite keyring"`

	// Backend-specific settings
	Path           string `json:"path,omitempty"`            // For file (directory) and sqlite (database file)
	KeyringService string `json:"keyring_service,omitempty"` // For keyring storage: service identifier
	SecretEnv      string `json:"secret_env,omitempty"`      // For file and sqlite: variable holding the sealing secret

	// VoterIDEnv sources the voter id from an environment variable instead of the backend.
	VoterIDEnv string `json:"voter_id_env,omitempty"`
}

// APIAuthConfig holds optional OAuth2 client credentials for the verification service.
type APIAuthConfig struct {
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	TokenURL     string   `json:"token_url,omitempty" validate:"omitempty,url"`
	Scopes       []string `json:"scopes,omitempty"`
}

// APIConfig holds verification service configuration.
type APIConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`
	// Timeout bounds each call including retries.
	Timeout time.Duration `json:"timeout"`
	// MaxRetries after network-level failures; nil uses the default, 0 disables retries.
	MaxRetries *uint         `json:"max_retries,omitempty"`
	Auth       APIAuthConfig `json:"auth"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel    slog.Level     `json:"log_level"`
	LogFormat   LogFormat      `json:"log_format" validate:"oneof=text json otel"`
	LogExporter LogExporter    `json:"log_exporter" validate:"oneof=stdout otlp-http otlp-grpc"`
	Server      ServerConfig   `json:"server"`
	Shutdown    ShutdownConfig `json:"shutdown"`
	Storage     StorageConfig  `json:"storage"`
	API         APIConfig      `json:"api"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.LogExporter == "" {
		c.LogExporter = DefaultConfigLogExporter
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultConfigAPITimeout
	}
	if c.API.MaxRetries == nil {
		retries := DefaultConfigAPIMaxRetries
		c.API.MaxRetries = &retries
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultConfigStorageBackend
	}

	// Dynamic defaults based on storage backend
	switch c.Storage.Backend {
	case StorageBackendFile, StorageBackendSQLite:
		if c.Storage.SecretEnv == "" {
			c.Storage.SecretEnv = DefaultConfigStorageSecretEnv
		}
		if c.Storage.Path == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("storage.path required (auto-detect failed: %w)", err)
			}
			name := "credentials"
			if c.Storage.Backend == StorageBackendSQLite {
				name = "credentials.db"
			}
			c.Storage.Path = filepath.Join(configDir, "preverify", name)
		}
	case StorageBackendKeyring:
		if c.Storage.KeyringService == "" {
			c.Storage.KeyringService = DefaultConfigKeyringService
		}
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case StorageBackendFile, StorageBackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("path required for %s storage", c.Storage.Backend)
		}
		if c.Storage.SecretEnv == "" {
			return fmt.Errorf("secret_env required for %s storage", c.Storage.Backend)
		}
	case StorageBackendKeyring:
		if c.Storage.KeyringService == "" {
			return errors.New("keyring_service required for keyring storage")
		}
	}

	if c.API.Auth.ClientID != "" && c.API.Auth.TokenURL == "" {
		return errors.New("api.auth.token_url required when api.auth.client_id is set")
	}

	return nil
}
