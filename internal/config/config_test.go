// File: internal/config/config_test.go
package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 60*time.Second, cfg.Network.DefaultTimeout)
	assert.Equal(t, "https://www.xiaohongshu.com", cfg.Session.BaseURL)
	assert.Equal(t, "xiaohongshu.com", cfg.Session.CookieDomain)
	assert.Equal(t, "我", cfg.Session.IdentityMarker)
	assert.Equal(t, 3, cfg.Session.MaxLoginAttempts)
	assert.Equal(t, 10, cfg.Extract.DefaultLimit)
	assert.True(t, cfg.Browser.Headless)

	require.NoError(t, cfg.Validate())
}

func newEnvAwareViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("REDNOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestDefaultTimeoutEnvOverride(t *testing.T) {
	t.Setenv("REDNOTE_NETWORK_DEFAULT_TIMEOUT", "90s")

	cfg, err := NewConfigFromViper(newEnvAwareViper())
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Network.DefaultTimeout)
}

func TestSessionSelectorEnvOverride(t *testing.T) {
	t.Setenv("REDNOTE_SESSION_IDENTITY_SELECTOR", ".sidebar .me")

	cfg, err := NewConfigFromViper(newEnvAwareViper())
	require.NoError(t, err)
	assert.Equal(t, ".sidebar .me", cfg.Session.IdentitySelector)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero default timeout", func(c *Config) { c.Network.DefaultTimeout = 0 }},
		{"negative default timeout", func(c *Config) { c.Network.DefaultTimeout = -time.Second }},
		{"zero login attempts", func(c *Config) { c.Session.MaxLoginAttempts = 0 }},
		{"missing base url", func(c *Config) { c.Session.BaseURL = "" }},
		{"negative pacing min", func(c *Config) { c.Extract.PacingMinSeconds = -1 }},
		{"inverted pacing window", func(c *Config) {
			c.Extract.PacingMinSeconds = 5
			c.Extract.PacingMaxSeconds = 1
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
