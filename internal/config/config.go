package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

const (
	TargetAppsScript = "appsScript"
	TargetSheetsAPI  = "sheetsApi"

	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Environment variables that override the config file
const (
	EnvAppsScriptURL = "APPS_SCRIPT_URL"
	EnvAddr          = "PORTAL_ADDR"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StorageConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=file sqlite postgres memory"`
	Path        string `yaml:"path"`
	PostgresDSN string `yaml:"postgresDSN,omitempty"`
}

type SyncConfig struct {
	ProxyURL    string        `yaml:"proxyURL" validate:"url"`
	Target      string        `yaml:"target" validate:"oneof=appsScript sheetsApi"`
	Interval    time.Duration `yaml:"interval" validate:"min=0"`
	Timeout     time.Duration `yaml:"timeout" validate:"min=0"`
	MaxAttempts int           `yaml:"maxAttempts" validate:"min=0"`
}

type SessionsConfig struct {
	TTL time.Duration `yaml:"ttl" validate:"min=0"`
}

type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheetID,omitempty"`
	RosterRange   string `yaml:"rosterRange"`
}

type GmailConfig struct {
	Enabled bool   `yaml:"enabled"`
	Sender  string `yaml:"sender,omitempty" validate:"omitempty,email"`
}

// Config represents the application configuration
type Config struct {
	Server        ServerConfig   `yaml:"server"`
	Storage       StorageConfig  `yaml:"storage"`
	Sync          SyncConfig     `yaml:"sync"`
	Sessions      SessionsConfig `yaml:"sessions"`
	Sheets        SheetsConfig   `yaml:"sheets"`
	Gmail         GmailConfig    `yaml:"gmail"`
	Timezone      string         `yaml:"timezone"`
	AppsScriptURL string         `yaml:"appsScriptURL,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration used when no file sets a value
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads the configuration for env, falling back to defaults when no file exists
func Load(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		cfg := Default()
		applyEnvOverrides(cfg, os.Getenv)
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data, os.Getenv)
}

// Parse decodes YAML, applies defaults and environment overrides, then validates
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg, getenv)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and the cross-field rules
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Sync.Target == TargetSheetsAPI && cfg.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("config validation failed: sheets.spreadsheetID is required when sync.target is %s", TargetSheetsAPI)
	}

	if cfg.AppsScriptURL != "" && !model.IsScriptURL(cfg.AppsScriptURL) {
		return fmt.Errorf("config validation failed: appsScriptURL must be a deployed Apps Script URL ending in /exec")
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return nil
}

// Location returns the configured timezone, or the local zone if it cannot be loaded
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// NeedsGoogle reports whether any enabled feature calls a Google API directly
func (c *Config) NeedsGoogle() bool {
	return c.Sync.Target == TargetSheetsAPI || c.Gmail.Enabled
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFile
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data"
	}
	if cfg.Sync.ProxyURL == "" {
		cfg.Sync.ProxyURL = "http://localhost:8080/api/sheets"
	}
	if cfg.Sync.Target == "" {
		cfg.Sync.Target = TargetAppsScript
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 30 * time.Second
	}
	if cfg.Sync.Timeout == 0 {
		cfg.Sync.Timeout = 15 * time.Second
	}
	if cfg.Sync.MaxAttempts == 0 {
		cfg.Sync.MaxAttempts = 5
	}
	if cfg.Sessions.TTL == 0 {
		cfg.Sessions.TTL = 12 * time.Hour
	}
	if cfg.Sheets.RosterRange == "" {
		cfg.Sheets.RosterRange = "Roster"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "America/New_York"
	}
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvAppsScriptURL); v != "" {
		cfg.AppsScriptURL = v
	}
	if v := getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
}

// findConfigFile searches for portal_config.<env>.yaml
func findConfigFile(env string) (string, error) {
	configFileName := "portal_config.yaml"
	if env != "" {
		configFileName = "portal_config." + env + ".yaml"
	}

	path, err := locateFile(configFileName)
	if err != nil {
		return "", fmt.Errorf("config file %s: %w", configFileName, err)
	}
	return path, nil
}

// locateFile returns name if it exists in the working directory, else the
// same name in the home directory. A miss wraps os.ErrNotExist.
func locateFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("not found in current or home directory: %w", os.ErrNotExist)
}
