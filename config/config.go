package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/habedi/apiclient/pkg/validation"
	"gopkg.in/yaml.v3"
)

// DefaultTokenPath is the OAuth token endpoint used for login and refresh.
const DefaultTokenPath = "/auth/oauth/token"

// DefaultTimeout bounds a single HTTP exchange.
const DefaultTimeout = 30 * time.Second

// Environment variables that override values from the config file.
const (
	EnvBaseURL  = "APICLIENT_BASE_URL"
	EnvAPIKey   = "APICLIENT_API_KEY"
	EnvTenant   = "APICLIENT_TENANT"
	EnvDatabase = "APICLIENT_DATABASE"
)

// Config holds the settings needed to build an API client.
type Config struct {
	BaseURL    string            `yaml:"base_url"`
	APIKey     string            `yaml:"api_key"`
	TenantName string            `yaml:"tenant_name"`
	TokenPath  string            `yaml:"token_path"`
	ClientID   string            `yaml:"client_id,omitempty"`
	Timeout    time.Duration     `yaml:"timeout"`
	Headers    map[string]string `yaml:"headers,omitempty"`
	RateLimit  float64           `yaml:"rate_limit,omitempty"`
	Database   string            `yaml:"database"`
}

// DefaultConfig returns a configuration pointing at a local development server.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "http://localhost:8080",
		TokenPath: DefaultTokenPath,
		Timeout:   DefaultTimeout,
		Database:  filepath.Join(defaultDir(), "credentials.db"),
	}
}

func defaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".apiclient"
	}
	return filepath.Join(homeDir, ".apiclient")
}

// DefaultPath returns the default location of the config file.
func DefaultPath() string {
	return filepath.Join(defaultDir(), "config.yaml")
}

// Load reads the config file at path, falling back to defaults if it doesn't exist,
// and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// The file may hold an API key.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvTenant); v != "" {
		c.TenantName = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
}

func (c *Config) fillDefaults() {
	if c.TokenPath == "" {
		c.TokenPath = DefaultTokenPath
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Database == "" {
		c.Database = filepath.Join(defaultDir(), "credentials.db")
	}
}

// Validate checks that the configuration can be used to build a client.
func (c *Config) Validate() error {
	if err := validation.ValidateBaseURL(c.BaseURL); err != nil {
		return err
	}
	if err := validation.ValidateEndpointPath(c.TokenPath); err != nil {
		return fmt.Errorf("invalid token_path: %w", err)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit)
	}
	return nil
}
