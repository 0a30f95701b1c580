package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                "8000",
		Env:                 "development",
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		JWTExpireHours:      168,
		DBDriver:            "postgres",
		DBPassword:          "secure-password",
		DBSSLMode:           "require",
		ViewDedupWindowMS:   1000,
		ViewDedupMaxEntries: 10,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development", func(_ *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, true},
		{"mysql driver", func(c *Config) { c.DBDriver = "mysql" }, false},
		{"sqlite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"zero dedup window", func(c *Config) { c.ViewDedupWindowMS = 0 }, true},
		{"zero dedup capacity", func(c *Config) { c.ViewDedupMaxEntries = 0 }, true},
		{"production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"production weak db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, true},
		{"production postgres without tls", func(c *Config) {
			c.Env = "prod"
			c.DBSSLMode = "disable"
		}, true},
		{"production sqlite ignores db password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
			c.DBPassword = ""
		}, false},
		{"production ok", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("VIEW_DEDUP_WINDOW_MS", "250")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 250*time.Millisecond, c.ViewDedupWindow())
	assert.Equal(t, 7*24*time.Hour, c.JWTExpiry())
}

func TestLoadConfig_MissingProfileFileIsTolerated(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("APP_ENV", "test")
	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "8000", c.Port)
}

func TestLoadConfig_ReadsDotEnvWithoutOverridingProcessEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/.env",
		[]byte("AI_MODEL=from-dotenv\nVIEW_DEDUP_WINDOW_MS=750\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// Register restores, then clear AI_MODEL so the file can supply it.
	t.Setenv("AI_MODEL", "")
	require.NoError(t, os.Unsetenv("AI_MODEL"))
	t.Setenv("VIEW_DEDUP_WINDOW_MS", "300")
	t.Setenv("APP_ENV", "development")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", c.AIModel)
	assert.Equal(t, 300*time.Millisecond, c.ViewDedupWindow())
}
