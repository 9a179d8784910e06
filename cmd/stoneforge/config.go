// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package main

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// serveConfig holds configuration for the serve command. Values come
// from flag defaults, then the optional YAML config file, then explicit
// flags, in increasing precedence. Secrets (DATABASE_URL and the JWT
// signing key) come only from the environment.
type serveConfig struct {
	httpAddr     string
	metricsAddr  string
	logFormat    string
	logLevel     string
	algorithm    string
	accessTTL    time.Duration
	refreshTTL   time.Duration
	reapInterval time.Duration
}

// Default values for serve command flags.
const (
	defaultHTTPAddr     = "localhost:8080"
	defaultMetricsAddr  = "127.0.0.1:9100"
	defaultLogFormat    = "json"
	defaultLogLevel     = "info"
	defaultAlgorithm    = "HS256"
	defaultReapInterval = time.Hour
)

// Validate checks that the configuration is valid.
func (cfg *serveConfig) Validate() error {
	if cfg.httpAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("http-addr is required")
	}
	if cfg.logFormat != "json" && cfg.logFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", cfg.logFormat).
			Errorf("log-format must be 'json' or 'text'")
	}
	if cfg.accessTTL < 0 || cfg.refreshTTL < 0 {
		return oops.Code("CONFIG_INVALID").Errorf("token TTLs must be positive")
	}
	if cfg.reapInterval <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("reap-interval must be positive")
	}
	return nil
}

// loadServeConfig merges the optional YAML config file with the command
// flags. Flags set explicitly on the command line win over the file;
// the file wins over flag defaults.
func loadServeConfig(flags *pflag.FlagSet, configPath string) (*serveConfig, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("path", configPath).
				Wrap(err)
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	return &serveConfig{
		httpAddr:     k.String("http-addr"),
		metricsAddr:  k.String("metrics-addr"),
		logFormat:    k.String("log-format"),
		logLevel:     k.String("log-level"),
		algorithm:    k.String("jwt-algorithm"),
		accessTTL:    k.Duration("access-ttl"),
		refreshTTL:   k.Duration("refresh-ttl"),
		reapInterval: k.Duration("reap-interval"),
	}, nil
}
