package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Config holds client configuration values.
type Config struct {
	APIBaseURL           string        `mapstructure:"api_base_url" yaml:"api_base_url"`
	WSBaseURL            string        `mapstructure:"ws_base_url" yaml:"ws_base_url"`
	DefaultLanguage      string        `mapstructure:"default_language" yaml:"default_language"`
	LogLevel             string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile              string        `mapstructure:"log_file" yaml:"log_file"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	AutocompleteDelay    time.Duration `mapstructure:"autocomplete_delay" yaml:"autocomplete_delay"`
	ReconnectBase        time.Duration `mapstructure:"reconnect_base" yaml:"reconnect_base"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
	NotificationTTL      time.Duration `mapstructure:"notification_ttl" yaml:"notification_ttl"`
	ErrorTTL             time.Duration `mapstructure:"error_ttl" yaml:"error_ttl"`
}

// Default returns configuration matching a backend on localhost:8000.
func Default() Config {
	return Config{
		APIBaseURL:           "http://localhost:8000",
		WSBaseURL:            "ws://localhost:8000",
		DefaultLanguage:      "python",
		LogLevel:             "info",
		RequestTimeout:       10 * time.Second,
		AutocompleteDelay:    400 * time.Millisecond,
		ReconnectBase:        2 * time.Second,
		MaxReconnectAttempts: 5,
		NotificationTTL:      3 * time.Second,
		ErrorTTL:             5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.APIBaseURL != "" {
		c.APIBaseURL = other.APIBaseURL
	}
	if other.WSBaseURL != "" {
		c.WSBaseURL = other.WSBaseURL
	}
	if other.DefaultLanguage != "" {
		c.DefaultLanguage = other.DefaultLanguage
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.RequestTimeout != 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.AutocompleteDelay != 0 {
		c.AutocompleteDelay = other.AutocompleteDelay
	}
	if other.ReconnectBase != 0 {
		c.ReconnectBase = other.ReconnectBase
	}
	if other.MaxReconnectAttempts != 0 {
		c.MaxReconnectAttempts = other.MaxReconnectAttempts
	}
	if other.NotificationTTL != 0 {
		c.NotificationTTL = other.NotificationTTL
	}
	if other.ErrorTTL != 0 {
		c.ErrorTTL = other.ErrorTTL
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := checkURL(c.APIBaseURL, "http", "https"); err != nil {
		return fmt.Errorf("api_base_url: %w", err)
	}
	if err := checkURL(c.WSBaseURL, "ws", "wss"); err != nil {
		return fmt.Errorf("ws_base_url: %w", err)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.AutocompleteDelay <= 0 {
		return errors.New("autocomplete_delay must be positive")
	}
	if c.ReconnectBase <= 0 {
		return errors.New("reconnect_base must be positive")
	}
	if c.MaxReconnectAttempts < 0 {
		return errors.New("max_reconnect_attempts must not be negative")
	}
	return nil
}

// LogPath returns where the editor writes logs while the terminal is in raw mode.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(os.TempDir(), "wirecode.log")
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}
