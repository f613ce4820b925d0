// Package config loads process settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fortuna/nhl-predictor/internal/predictor"
	"github.com/fortuna/nhl-predictor/internal/session"
)

// DefaultKeepActiveHeader is the header the keep-active token travels in.
const DefaultKeepActiveHeader = "KEEP-ACTIVE-TOKEN"

// Config holds every setting the binaries read.
type Config struct {
	PredictionAPIBaseURL string        `mapstructure:"prediction_api_base_url"`
	WebPort              string        `mapstructure:"web_port"`
	StubPort             string        `mapstructure:"stub_port"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	SessionIdleTimeout   time.Duration `mapstructure:"session_idle_timeout"`
	LogLevel             string        `mapstructure:"log_level"`
	LogFormat            string        `mapstructure:"log_format"`
	KeepActiveURL        string        `mapstructure:"keep_active_url"`
	KeepActiveToken      string        `mapstructure:"keep_active_access_token"`
	KeepActiveHeader     string        `mapstructure:"keep_active_header"`
}

var defaults = map[string]any{
	"prediction_api_base_url":  predictor.DefaultBaseURL,
	"web_port":                 "8080",
	"stub_port":                "8002",
	"request_timeout":          predictor.DefaultTimeout,
	"session_idle_timeout":     session.DefaultIdleTimeout,
	"log_level":                "info",
	"log_format":               "text",
	"keep_active_url":          "",
	"keep_active_access_token": "",
	"keep_active_header":       DefaultKeepActiveHeader,
}

// Load reads .env files (when present) into the environment, then resolves
// settings from the environment over the defaults. Environment variables are
// the upper-case setting names, e.g. PREDICTION_API_BASE_URL.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("loading env files: %w", err)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.PredictionAPIBaseURL = strings.TrimSpace(c.PredictionAPIBaseURL)
	if c.PredictionAPIBaseURL == "" {
		return errors.New("PREDICTION_API_BASE_URL must not be empty")
	}
	if !strings.HasSuffix(c.PredictionAPIBaseURL, "/") {
		c.PredictionAPIBaseURL += "/"
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.SessionIdleTimeout)
	}
	if c.KeepActiveHeader == "" {
		c.KeepActiveHeader = DefaultKeepActiveHeader
	}
	return nil
}
