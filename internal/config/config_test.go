package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBPassword:               "secure-password",
		DBSSLMode:                "disable",
		Port:                     "8080",
		DBConnMaxLifetimeMinutes: 1,
		RedisURL:                 "redis://localhost:6379",
		TracingExporter:          "stdout",
		TracingSampleRatio:       1,
		NotifyWorkers:            2,
		NotifyQueueSize:          16,
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
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing port", func(c *Config) { c.Port = "" }},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }},
		{"missing redis", func(c *Config) { c.RedisURL = "" }},
		{"negative workers", func(c *Config) { c.NotifyWorkers = -1 }},
		{"negative certificate ttl", func(c *Config) { c.CertificateTTLDays = -3 }},
		{"sample ratio above one", func(c *Config) { c.TracingSampleRatio = 1.5 }},
		{"unknown exporter", func(c *Config) { c.TracingExporter = "zipkin" }},
		{"default secret in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.JWTSecret = defaultJWTSecret
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
	defer os.Unsetenv("DB_SCHEMA_MODE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("DB_SCHEMA_MODE", " Auto ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "auto", c.DBSchemaMode)
	assert.Equal(t, 4, c.NotifyWorkers)
	assert.Equal(t, 1024, c.NotifyQueueSize)
	assert.Equal(t, "tether", c.DBName)
}

func TestLoadConfig_CertificateAndFlags(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("CERTIFICATE_TTL_DAYS")
	defer os.Unsetenv("FEATURE_FLAGS")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("CERTIFICATE_TTL_DAYS", "30")
	os.Setenv("FEATURE_FLAGS", "realtime=off")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, c.CertificateTTL())
	assert.Equal(t, "realtime=off", c.FeatureFlags)
}

func TestCertificateTTL_ZeroMeansNoExpiry(t *testing.T) {
	c := validConfig()
	c.CertificateTTLDays = 0
	assert.Zero(t, c.CertificateTTL())
}
