package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader("/test/path")
	if loader.workDir != "/test/path" {
		t.Errorf("NewLoader().workDir = %q, want %q", loader.workDir, "/test/path")
	}
}

func TestLoaderConfigPath(t *testing.T) {
	loader := NewLoader("/test/path")
	expected := "/test/path/gantry.yaml"
	if loader.ConfigPath() != expected {
		t.Errorf("Loader.ConfigPath() = %q, want %q", loader.ConfigPath(), expected)
	}
}

func TestLoaderExists(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gantry-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	loader := NewLoader(tmpDir)

	// Should not exist initially
	if loader.Exists() {
		t.Error("Loader.Exists() should return false when config doesn't exist")
	}

	// Create config file
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("version: '1'"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	// Should exist now
	if !loader.Exists() {
		t.Error("Loader.Exists() should return true when config exists")
	}
}

func TestLoaderLoadMissingFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gantry-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	loader := NewLoader(tmpDir)
	_, err = loader.Load()

	if err == nil {
		t.Error("Loader.Load() should return error when config file is missing")
	}

	if !IsConfigNotFound(err) {
		t.Errorf("Loader.Load() error should be ConfigNotFoundError, got %T", err)
	}
}

func TestLoaderLoadValidConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gantry-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `
version: "1"
image: "gantry/nginx:test"
fixtures: "testdata/apps"
router:
  command:
    - nginx
    - -g
    - daemon off;
  stop_timeout: 3s
upstream:
  handler: "pong"
run:
  max_retries: 12
  grace: 750ms
  memory: "256m"
  links:
    - redis
  ports:
    - "8080:80"
  capture_log: true
`
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader(tmpDir)
	cfg, err := loader.Load()

	if err != nil {
		t.Fatalf("Loader.Load() returned error: %v", err)
	}

	// Verify loaded values
	if cfg.Version != "1" {
		t.Errorf("cfg.Version = %q, want %q", cfg.Version, "1")
	}
	if cfg.Image != "gantry/nginx:test" {
		t.Errorf("cfg.Image = %q, want %q", cfg.Image, "gantry/nginx:test")
	}
	if cfg.Fixtures != "testdata/apps" {
		t.Errorf("cfg.Fixtures = %q, want %q", cfg.Fixtures, "testdata/apps")
	}
	if len(cfg.Router.Command) != 3 || cfg.Router.Command[0] != "nginx" {
		t.Errorf("cfg.Router.Command = %v, want nginx command", cfg.Router.Command)
	}
	if cfg.Router.StopTimeout != 3*time.Second {
		t.Errorf("cfg.Router.StopTimeout = %v, want %v", cfg.Router.StopTimeout, 3*time.Second)
	}
	if cfg.Upstream.Handler != "pong" {
		t.Errorf("cfg.Upstream.Handler = %q, want %q", cfg.Upstream.Handler, "pong")
	}
	if cfg.Run.MaxRetries != 12 {
		t.Errorf("cfg.Run.MaxRetries = %d, want %d", cfg.Run.MaxRetries, 12)
	}
	if cfg.Run.Grace != 750*time.Millisecond {
		t.Errorf("cfg.Run.Grace = %v, want %v", cfg.Run.Grace, 750*time.Millisecond)
	}
	if cfg.Run.Memory != "256m" {
		t.Errorf("cfg.Run.Memory = %q, want %q", cfg.Run.Memory, "256m")
	}
	if len(cfg.Run.Links) != 1 || cfg.Run.Links[0] != "redis" {
		t.Errorf("cfg.Run.Links = %v, want [redis]", cfg.Run.Links)
	}
	if len(cfg.Run.Ports) != 1 || cfg.Run.Ports[0] != "8080:80" {
		t.Errorf("cfg.Run.Ports = %v, want [8080:80]", cfg.Run.Ports)
	}
	if !cfg.Run.CaptureLog {
		t.Error("cfg.Run.CaptureLog should be true")
	}
}

func TestLoaderLoadWithDefaults(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gantry-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// Create a minimal config file (missing many fields)
	configContent := `
version: "1"
`
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader(tmpDir)
	cfg, err := loader.Load()

	if err != nil {
		t.Fatalf("Loader.Load() returned error: %v", err)
	}

	// Verify defaults are applied
	if cfg.Image != "gantry/app:latest" {
		t.Errorf("cfg.Image should default to 'gantry/app:latest', got %q", cfg.Image)
	}
	if cfg.Fixtures != "fixtures" {
		t.Errorf("cfg.Fixtures should default to 'fixtures', got %q", cfg.Fixtures)
	}
	if cfg.Run.MaxRetries != 30 {
		t.Errorf("cfg.Run.MaxRetries should default to 30, got %d", cfg.Run.MaxRetries)
	}
	if cfg.Run.Grace != 500*time.Millisecond {
		t.Errorf("cfg.Run.Grace should default to 500ms, got %v", cfg.Run.Grace)
	}
}

func TestLoaderLoadEnvKeyCase(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gantry-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `
version: "1"
env:
  UPSTREAM: "http://${PROXY_IP_ADDRESS}:9292"
  App_Mode: "test"
`
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader(tmpDir)
	cfg, err := loader.Load()

	if err != nil {
		t.Fatalf("Loader.Load() returned error: %v", err)
	}

	// Env var names are case-sensitive; viper lowercases all map keys,
	// so the loader re-reads them from the raw YAML.
	if _, ok := cfg.Env["UPSTREAM"]; !ok {
		t.Errorf("cfg.Env should preserve key %q, got keys %v", "UPSTREAM", envKeys(cfg.Env))
	}
	if got := cfg.Env["UPSTREAM"]; got != "http://${PROXY_IP_ADDRESS}:9292" {
		t.Errorf("cfg.Env[UPSTREAM] = %q, want placeholder value", got)
	}
	if _, ok := cfg.Env["App_Mode"]; !ok {
		t.Errorf("cfg.Env should preserve key %q, got keys %v", "App_Mode", envKeys(cfg.Env))
	}
}

func envKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	return keys
}

func TestLoaderLoadInvalidYAML(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gantry-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `
version: "1"
image: "test
  invalid yaml here
`
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader(tmpDir)
	_, err = loader.Load()

	if err == nil {
		t.Error("Loader.Load() should return error for invalid YAML")
	}
}

func TestConfigNotFoundError(t *testing.T) {
	err := &ConfigNotFoundError{Path: "/test/gantry.yaml"}

	expected := "configuration file not found: /test/gantry.yaml"
	if err.Error() != expected {
		t.Errorf("ConfigNotFoundError.Error() = %q, want %q", err.Error(), expected)
	}
}

func TestIsConfigNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "ConfigNotFoundError returns true",
			err:  &ConfigNotFoundError{Path: "/test"},
			want: true,
		},
		{
			name: "other error returns false",
			err:  os.ErrNotExist,
			want: false,
		},
		{
			name: "nil returns false",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsConfigNotFound(tt.err)
			if got != tt.want {
				t.Errorf("IsConfigNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigFileName(t *testing.T) {
	if ConfigFileName != "gantry.yaml" {
		t.Errorf("ConfigFileName = %q, want %q", ConfigFileName, "gantry.yaml")
	}
}
