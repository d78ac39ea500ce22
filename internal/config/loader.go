package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the default configuration file name
const ConfigFileName = "gantry.yaml"

// Loader handles loading and parsing of gantry configuration
type Loader struct {
	workDir string
	viper   *viper.Viper
}

// NewLoader creates a new configuration loader for the given working directory
func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir: workDir,
		viper:   viper.New(),
	}
}

// Load reads and parses the gantry.yaml configuration file
func (l *Loader) Load() (*Config, error) {
	configPath := l.ConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &ConfigNotFoundError{Path: configPath}
	}

	l.viper.SetConfigFile(configPath)
	l.viper.SetConfigType("yaml")

	// Set defaults from DefaultConfig
	defaults := DefaultConfig()
	l.viper.SetDefault("version", defaults.Version)
	l.viper.SetDefault("image", defaults.Image)
	l.viper.SetDefault("fixtures", defaults.Fixtures)
	l.viper.SetDefault("run.max_retries", defaults.Run.MaxRetries)
	l.viper.SetDefault("run.grace", defaults.Run.Grace)

	if err := l.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := l.viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Fix env map key case - viper lowercases keys, but env vars need
	// their original case
	if err := l.fixEnvKeyCase(&cfg, configPath); err != nil {
		// Non-fatal: the env vars still work, just with lowercase names
	}

	return &cfg, nil
}

// fixEnvKeyCase re-reads the YAML to preserve original case for env var keys.
// Viper/mapstructure lowercases all map keys, but env vars are case-sensitive.
func (l *Loader) fixEnvKeyCase(cfg *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var raw struct {
		Env map[string]string `yaml:"env"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw.Env) > 0 {
		cfg.Env = raw.Env
	}
	return nil
}

// ConfigPath returns the full path to the config file
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.workDir, ConfigFileName)
}

// Exists checks if the configuration file exists
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}

// ConfigNotFoundError is returned when the config file doesn't exist
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s", e.Path)
}

// IsConfigNotFound returns true if the error is a ConfigNotFoundError
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}
