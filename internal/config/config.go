// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser process.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string `mapstructure:"args" yaml:"args"`
	UserAgent       string   `mapstructure:"user_agent" yaml:"user_agent"`
}

// NetworkConfig tunes the timeout behavior of the application.
// DefaultTimeout is the overall budget applied to an operation when the
// caller does not supply one; REDNOTE_NETWORK_DEFAULT_TIMEOUT overrides it.
type NetworkConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	PostLoadWait   time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// SessionConfig drives the login state machine. The selectors and the
// identity marker are site-coupled and deliberately live here rather than in
// code: when the site markup shifts, this is a config edit.
type SessionConfig struct {
	BaseURL             string        `mapstructure:"base_url" yaml:"base_url"`
	CookieDomain        string        `mapstructure:"cookie_domain" yaml:"cookie_domain"`
	CookieFile          string        `mapstructure:"cookie_file" yaml:"cookie_file"`
	IdentitySelector    string        `mapstructure:"identity_selector" yaml:"identity_selector"`
	IdentityMarker      string        `mapstructure:"identity_marker" yaml:"identity_marker"`
	LoginDialogSelector string        `mapstructure:"login_dialog_selector" yaml:"login_dialog_selector"`
	QrImageSelector     string        `mapstructure:"qr_image_selector" yaml:"qr_image_selector"`
	MaxLoginAttempts    int           `mapstructure:"max_login_attempts" yaml:"max_login_attempts"`
	RetryBackoff        time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
}

// ExtractConfig tunes the extraction workflows.
type ExtractConfig struct {
	SearchURL        string  `mapstructure:"search_url" yaml:"search_url"`
	DefaultLimit     int     `mapstructure:"default_limit" yaml:"default_limit"`
	PacingMinSeconds float64 `mapstructure:"pacing_min_seconds" yaml:"pacing_min_seconds"`
	PacingMaxSeconds float64 `mapstructure:"pacing_max_seconds" yaml:"pacing_max_seconds"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "rednote-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")

	// -- Network --
	v.SetDefault("network.default_timeout", "60s")
	v.SetDefault("network.post_load_wait", "1s")

	// -- Session --
	v.SetDefault("session.base_url", "https://www.xiaohongshu.com")
	v.SetDefault("session.cookie_domain", "xiaohongshu.com")
	// Empty cookie_file resolves to the per-user application directory.
	v.SetDefault("session.cookie_file", "")
	v.SetDefault("session.identity_selector", ".main-container .user .channel")
	v.SetDefault("session.identity_marker", "我")
	v.SetDefault("session.login_dialog_selector", ".login-container")
	v.SetDefault("session.qr_image_selector", ".login-container .qrcode-img")
	v.SetDefault("session.max_login_attempts", 3)
	v.SetDefault("session.retry_backoff", "2s")

	// -- Extract --
	v.SetDefault("extract.search_url", "https://www.xiaohongshu.com/search_result?keyword=%s")
	v.SetDefault("extract.default_limit", 10)
	v.SetDefault("extract.pacing_min_seconds", 1.0)
	v.SetDefault("extract.pacing_max_seconds", 3.0)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only, but fail loudly if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Network.DefaultTimeout <= 0 {
		return fmt.Errorf("network.default_timeout must be a positive duration")
	}
	if c.Session.MaxLoginAttempts <= 0 {
		return fmt.Errorf("session.max_login_attempts must be a positive integer")
	}
	if c.Session.BaseURL == "" {
		return fmt.Errorf("session.base_url is a required configuration field")
	}
	if c.Extract.PacingMinSeconds < 0 || c.Extract.PacingMaxSeconds < c.Extract.PacingMinSeconds {
		return fmt.Errorf("extract pacing window must satisfy 0 <= min <= max")
	}
	return nil
}
