package config

import "time"

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Version:  "1",
		Image:    "gantry/app:latest",
		Fixtures: "fixtures",
		Run: RunConfig{
			MaxRetries: 30,
			Grace:      500 * time.Millisecond,
		},
		Env: map[string]string{},
	}
}

// DefaultConfigYAML returns the default configuration as YAML for scaffolding
const DefaultConfigYAML = `# Gantry Configuration
# Documentation: https://github.com/schmitthub/gantry

version: "1"

# Container image the fixtures run under
image: "gantry/app:latest"

# Directory holding fixture apps; each subdirectory is one fixture,
# bind-mounted at /src in the container
fixtures: "fixtures"

router:
  # Command launching the front-facing router process. Leave empty to
  # manage the router yourself or publish container ports directly.
  # command: ["nginx", "-g", "daemon off;"]
  # stop_timeout: 5s

upstream:
  # Serve this body from the built-in mock upstream on port 9292:
  # handler: "ok"
  # ...or point at an already-running upstream instead:
  # endpoint: "10.0.0.7:9292"

run:
  # Retries for each request against the router (linear backoff)
  max_retries: 30
  # How long to wait for the readiness sentinel before proceeding
  grace: 500ms
  # memory: "512m"
  # ports:
  #   - "8080:80"
  # capture_log: true

# Environment for the application container. Values may reference the
# upstream address with ${PROXY_IP_ADDRESS}.
env:
  # APP_ENV: "test"
`
