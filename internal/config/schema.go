// Package config loads and validates gantry.yaml, the per-project
// harness configuration.
package config

import "time"

// Config represents the root configuration structure for gantry.yaml
type Config struct {
	Version  string            `yaml:"version" mapstructure:"version"`
	Image    string            `yaml:"image" mapstructure:"image"`
	Fixtures string            `yaml:"fixtures" mapstructure:"fixtures"`
	Router   RouterConfig      `yaml:"router" mapstructure:"router"`
	Upstream UpstreamConfig    `yaml:"upstream" mapstructure:"upstream"`
	Run      RunConfig         `yaml:"run" mapstructure:"run"`
	Env      map[string]string `yaml:"env,omitempty" mapstructure:"env"`
	Log      LogConfig         `yaml:"log" mapstructure:"log"`
}

// RouterConfig defines the front-facing router process. An empty
// command means no managed router: traffic reaches the container
// through published ports or an externally managed router.
type RouterConfig struct {
	Command     []string      `yaml:"command,omitempty" mapstructure:"command"`
	Dir         string        `yaml:"dir,omitempty" mapstructure:"dir"`
	StopTimeout time.Duration `yaml:"stop_timeout,omitempty" mapstructure:"stop_timeout"`
}

// UpstreamConfig defines the default mock upstream. Handler and
// Endpoint are mutually exclusive; a fixture-level directive overrides
// both.
type UpstreamConfig struct {
	Handler  string `yaml:"handler,omitempty" mapstructure:"handler"`
	Endpoint string `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
}

// RunConfig tunes run sessions started from the CLI.
type RunConfig struct {
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	Grace      time.Duration `yaml:"grace" mapstructure:"grace"`
	Memory     string        `yaml:"memory,omitempty" mapstructure:"memory"`
	Links      []string      `yaml:"links,omitempty" mapstructure:"links"`
	Ports      []string      `yaml:"ports,omitempty" mapstructure:"ports"`
	CaptureLog bool          `yaml:"capture_log" mapstructure:"capture_log"`
}

// LogConfig controls the optional harness log file.
type LogConfig struct {
	Dir        string `yaml:"dir,omitempty" mapstructure:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" mapstructure:"max_age_days"`
	MaxBackups int    `yaml:"max_backups,omitempty" mapstructure:"max_backups"`
}

// Validate checks the loaded configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Image == "" {
		return &ValidationError{Field: "image", Message: "must not be empty"}
	}
	if c.Run.MaxRetries < 0 {
		return &ValidationError{Field: "run.max_retries", Message: "must not be negative", Value: c.Run.MaxRetries}
	}
	if c.Run.Grace < 0 {
		return &ValidationError{Field: "run.grace", Message: "must not be negative", Value: c.Run.Grace.String()}
	}
	if c.Upstream.Handler != "" && c.Upstream.Endpoint != "" {
		return &ValidationError{Field: "upstream", Message: "handler and endpoint are mutually exclusive"}
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}
