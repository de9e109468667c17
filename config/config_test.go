package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("CONTACT_FIELD", "")
	t.Setenv("PHONE_DIGITS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "email", cfg.Registration.ContactField)
	assert.Equal(t, 10, cfg.Registration.PhoneDigits)
	assert.Equal(t, 15, cfg.Delivery.SinkTimeoutSec)
	assert.False(t, cfg.Server.EnableOTPStub)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("CONTACT_FIELD", "phone")
	t.Setenv("REQUIRE_PHONE", "true")
	t.Setenv("ENABLE_OTP_STUB", "1")
	t.Setenv("PHONE_DIGITS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, "phone", cfg.Registration.ContactField)
	assert.True(t, cfg.Registration.RequirePhone)
	assert.True(t, cfg.Server.EnableOTPStub)
	assert.Equal(t, 10, cfg.Registration.PhoneDigits)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Store:        StoreConfig{Driver: DriverPostgres},
			Database:     DatabaseConfig{URL: "postgres://localhost/yogacamp"},
			Registration: RegistrationConfig{ContactField: "email", PhoneDigits: 10},
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid postgres", func(c *Config) {}, false},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, true},
		{"redis without addr", func(c *Config) { c.Store.Driver = DriverRedis }, true},
		{"redis with addr", func(c *Config) { c.Store.Driver = DriverRedis; c.Redis.Addr = "localhost:6379" }, false},
		{"sqlite without path", func(c *Config) { c.Store.Driver = DriverSQLite }, true},
		{"memory", func(c *Config) { c.Store.Driver = DriverMemory; c.Database.URL = "" }, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, true},
		{"bad contact field", func(c *Config) { c.Registration.ContactField = "name" }, true},
		{"zero phone digits", func(c *Config) { c.Registration.PhoneDigits = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
