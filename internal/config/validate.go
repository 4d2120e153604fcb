// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.Similarity.ScorerConfig().Validate(); err != nil {
		return err
	}
	if err := c.validateBuild(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBuild() error {
	if c.Build.Threshold < 0 {
		return fmt.Errorf("build.threshold must be non-negative, got %d", c.Build.Threshold)
	}
	if c.Build.Workers < 0 {
		return fmt.Errorf("build.workers must be non-negative, got %d", c.Build.Workers)
	}
	switch c.Build.Mode {
	case "dense", "sparse":
	default:
		return fmt.Errorf("build.mode must be 'dense' or 'sparse', got %q", c.Build.Mode)
	}
	if c.Build.TopK < 1 || c.Build.TopK > 100 {
		return fmt.Errorf("build.top_k must be between 1 and 100, got %d", c.Build.TopK)
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the file backend")
		}
	case "badger":
	default:
		return fmt.Errorf("storage.backend must be 'file' or 'badger', got %q", c.Storage.Backend)
	}
	if c.Storage.Name == "" || strings.ContainsAny(c.Storage.Name, `/\:`) {
		return fmt.Errorf("storage.name must be non-empty without path separators or colons, got %q", c.Storage.Name)
	}
	if c.Storage.KeepVersions < 1 {
		return fmt.Errorf("storage.keep_versions must be at least 1, got %d", c.Storage.KeepVersions)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.ReloadInterval < 0 {
		return fmt.Errorf("server.reload_interval must be non-negative, got %v", c.Server.ReloadInterval)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 {
			return fmt.Errorf("server.rate_limit_reqs must be positive, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive, got %v", c.Server.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}
