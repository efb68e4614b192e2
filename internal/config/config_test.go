package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:             "development",
		JWTSecret:       "secure-secret-at-least-32-chars-long",
		SessionTTLHours: 24,
		Port:            "8080",
		StorageDriver:   DriverJSON,
		DocstoreDir:     "data",
		DBPassword:      "secure-password",
		DBSSLMode:       "disable",
		PasswordPolicy:  "basic",
		FeedLimit:       50,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode
			c.StorageDriver = DriverPostgres

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateStorageDriver(t *testing.T) {
	tests := []struct {
		driver      string
		docDir      string
		expectError bool
	}{
		{DriverPostgres, "", false},
		{DriverSQLite, "", false},
		{DriverJSON, "data", false},
		{DriverJSON, "", true},
		{"mongo", "data", true},
		{"", "data", true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			c := validConfig()
			c.StorageDriver = tt.driver
			c.DocstoreDir = tt.docDir

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing port", func(c *Config) { c.Port = "" }},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"zero session ttl", func(c *Config) { c.SessionTTLHours = 0 }},
		{"zero feed limit", func(c *Config) { c.FeedLimit = 0 }},
		{"unknown password policy", func(c *Config) { c.PasswordPolicy = "paranoid" }},
		{"admin bootstrap without password", func(c *Config) { c.AdminBootstrap = true }},
		{"default secret in production", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}},
		{"short secret in production", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("STORAGE_DRIVER")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("STORAGE_DRIVER", " SQLite ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, DriverSQLite, c.StorageDriver)
	assert.Equal(t, 50, c.FeedLimit)
	assert.False(t, c.IsProduction())
}
