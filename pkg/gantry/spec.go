package gantry

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// AppSpec describes one application container under test.
type AppSpec struct {
	// Fixture is the host directory bind-mounted at /src inside the
	// container. Relative paths resolve against the working directory.
	Fixture string

	// Image is the container image reference to run.
	Image string

	// Cmd overrides the image's default command when non-empty.
	Cmd []string

	// Env is the application environment. Values may reference the
	// upstream's address with ${PROXY_IP_ADDRESS}; the token is
	// resolved before container creation.
	Env map[string]string

	// Upstream optionally fronts the app with a mock upstream.
	Upstream UpstreamDirective

	// Links names running containers linked into the app, each under
	// its own name as the alias.
	Links []string

	// Ports publishes container ports to the host, "host:container".
	Ports []string

	// Memory caps container memory in Docker units, such as "512m".
	Memory string

	// Debug echoes container output while a run is active.
	Debug bool
}

func (s AppSpec) validate() error {
	if s.Fixture == "" {
		return fmt.Errorf("app spec: fixture path is required")
	}
	if s.Image == "" {
		return fmt.Errorf("app spec: image is required")
	}
	return nil
}

// envPairs renders env as deterministic KEY=VALUE pairs, sorted by key.
func envPairs(env map[string]string) ([]string, error) {
	keys := make([]string, 0, len(env))
	for k := range env {
		if k == "" || strings.Contains(k, "=") {
			return nil, fmt.Errorf("app spec: invalid environment key %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs, nil
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// containerName derives a unique container name from the fixture, in
// the form gantry.<fixture>.<nonce>.
func containerName(fixture string) string {
	base := invalidNameChars.ReplaceAllString(filepath.Base(fixture), "-")
	nonce := uuid.NewString()[:8]
	return fmt.Sprintf("gantry.%s.%s", base, nonce)
}
