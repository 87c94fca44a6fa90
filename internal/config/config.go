// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, and command-line flags, in increasing precedence.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the runtime configuration for the service.
type Config struct {
	HTTPAddr    string        `koanf:"http_addr"`
	MetricsAddr string        `koanf:"metrics_addr"`
	DatabaseURL string        `koanf:"database_url"`
	CookieName  string        `koanf:"cookie_name"`
	SessionTTL  time.Duration `koanf:"session_ttl"`
	CaptchaTTL  time.Duration `koanf:"captcha_ttl"`
	LogFormat   string        `koanf:"log_format"`
}

// Default values. The metrics server binds loopback only; expose it
// deliberately if scraping from elsewhere.
const (
	DefaultHTTPAddr    = ":8000"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultCookieName  = "session_id"
	DefaultSessionTTL  = 24 * time.Hour
	DefaultCaptchaTTL  = 10 * time.Minute
	DefaultLogFormat   = "json"
)

// Load builds the configuration. Precedence: defaults, then the YAML file
// at path (skipped when path is empty), then any flags set on flags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"http_addr":    DefaultHTTPAddr,
		"metrics_addr": DefaultMetricsAddr,
		"database_url": "",
		"cookie_name":  DefaultCookieName,
		"session_ttl":  DefaultSessionTTL,
		"captcha_ttl":  DefaultCaptchaTTL,
		"log_format":   DefaultLogFormat,
	}
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("operation", "load config file").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").
				With("operation", "load flags").
				Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}
	if c.SessionTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session_ttl must be positive")
	}
	if c.CaptchaTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("captcha_ttl must be positive")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be json or text")
	}
	return nil
}
