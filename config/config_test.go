package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/habedi/apiclient/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, config.DefaultTokenPath, cfg.TokenPath)
	assert.Equal(t, config.DefaultTimeout, cfg.Timeout)
	assert.NotEmpty(t, cfg.Database)
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `base_url: https://api.example.com
api_key: key-123
tenant_name: acme
timeout: 5s
rate_limit: 2.5
headers:
  X-App-Version: "1.2.3"
database: /tmp/creds.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, "key-123", cfg.APIKey)
	assert.Equal(t, "acme", cfg.TenantName)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, map[string]string{"X-App-Version": "1.2.3"}, cfg.Headers)
	assert.Equal(t, "/tmp/creds.db", cfg.Database)
	assert.Equal(t, config.DefaultTokenPath, cfg.TokenPath, "token path falls back to the default")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: [unterminated"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://file.example.com\ntenant_name: from-file\n"), 0o600))

	t.Setenv(config.EnvBaseURL, "https://env.example.com")
	t.Setenv(config.EnvTenant, "from-env")
	t.Setenv(config.EnvAPIKey, "env-key")
	t.Setenv(config.EnvDatabase, "/tmp/env.db")

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
	assert.Equal(t, "from-env", cfg.TenantName)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "/tmp/env.db", cfg.Database)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.DefaultConfig()
	cfg.BaseURL = "https://saved.example.com"
	cfg.TenantName = "saved"

	require.NoError(t, config.Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example.com", loaded.BaseURL)
	assert.Equal(t, "saved", loaded.TenantName)
}

func TestValidate(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.BaseURL = "not a url"
	assert.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.TokenPath = "https://elsewhere.example.com/token"
	assert.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.RateLimit = -1
	assert.Error(t, cfg.Validate())
}
