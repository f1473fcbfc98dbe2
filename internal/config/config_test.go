package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultHTTPPath, cfg.HTTPPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevIdentity)
	assert.True(t, cfg.SeedCatalog)
	assert.Equal(t, float64(DefaultRateLimit), cfg.RateLimit)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ":9240", cfg.Addr())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"ACME_DB_PATH":      ":memory:",
		"ACME_TRANSPORT":    "STDIO",
		"PORT":              "8080",
		"LOGLEVEL":          "DEBUG",
		"ACME_LOG_FORMAT":   "console",
		"ACME_DEV_IDENTITY": "true",
		"ACME_SEED_CATALOG": "false",
		"ACME_RATE_LIMIT":   "0",
		"ACME_USER_INFO":    "name=A;email=a@x.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, MemoryDBPath, cfg.DBPath)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.True(t, cfg.DevIdentity)
	assert.False(t, cfg.SeedCatalog)
	assert.Zero(t, cfg.RateLimit)
	assert.Equal(t, "name=A;email=a@x.com", cfg.UserInfo)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_ParseErrors(t *testing.T) {
	for _, key := range []string{"PORT", "ACME_DEV_IDENTITY", "ACME_SEED_CATALOG", "ACME_RATE_LIMIT"} {
		_, err := FromEnv(lookupFrom(map[string]string{key: "nope"}))
		assert.ErrorContains(t, err, key)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"transport", func(c *Config) { c.Transport = "grpc" }},
		{"port low", func(c *Config) { c.Port = 0 }},
		{"port high", func(c *Config) { c.Port = 70000 }},
		{"path", func(c *Config) { c.HTTPPath = "mcp" }},
		{"rate", func(c *Config) { c.RateLimit = -1 }},
		{"format", func(c *Config) { c.LogFormat = "xml" }},
		{"db", func(c *Config) { c.DBPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromEnv(lookupFrom(nil))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_EnvFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ACME_TRANSPORT=stdio\nPORT=7000\n"), 0o600))

	// godotenv does not override variables already set
	for _, key := range []string{"ACME_TRANSPORT", "PORT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(envFile, []string{"--port", "7100"})
	require.NoError(t, err)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, 7100, cfg.Port)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	t.Setenv("ACME_TRANSPORT", "http")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"), nil)
	require.NoError(t, err)
	assert.Equal(t, TransportHTTP, cfg.Transport)
}

func TestLoad_InvalidFlag(t *testing.T) {
	_, err := Load("", []string{"--port", "0"})
	assert.Error(t, err)
}

func TestEnsureDBDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{DBPath: filepath.Join(dir, "nested", "products.db")}
	require.NoError(t, cfg.EnsureDBDir())
	assert.DirExists(t, filepath.Join(dir, "nested"))

	mem := &Config{DBPath: MemoryDBPath}
	assert.NoError(t, mem.EnsureDBDir())
}
