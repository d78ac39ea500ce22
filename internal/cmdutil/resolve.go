package cmdutil

import (
	"path/filepath"

	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/logger"
	"github.com/schmitthub/gantry/pkg/gantry"
)

// ResolveConfig loads the project configuration, falling back to
// defaults when no gantry.yaml exists so one-off fixtures work without
// scaffolding first.
func ResolveConfig(load func() (*config.Config, error)) (*config.Config, error) {
	cfg, err := load()
	if err != nil {
		if config.IsConfigNotFound(err) {
			logger.Debug().Err(err).Msg("no gantry.yaml, using defaults")
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FixturePath resolves a fixture argument against the configured
// fixtures root. Absolute arguments are used as given.
func FixturePath(workDir string, cfg *config.Config, fixture string) string {
	if filepath.IsAbs(fixture) {
		return fixture
	}
	return filepath.Join(workDir, cfg.Fixtures, fixture)
}

// AppSpecFromConfig assembles the container spec for one fixture from
// the project configuration.
func AppSpecFromConfig(cfg *config.Config, workDir, fixture string, debug bool) gantry.AppSpec {
	spec := gantry.AppSpec{
		Fixture: FixturePath(workDir, cfg, fixture),
		Image:   cfg.Image,
		Env:     cfg.Env,
		Links:   cfg.Run.Links,
		Ports:   cfg.Run.Ports,
		Memory:  cfg.Run.Memory,
		Debug:   debug,
	}
	switch {
	case cfg.Upstream.Handler != "":
		spec.Upstream = gantry.UpstreamHandler(cfg.Upstream.Handler)
	case cfg.Upstream.Endpoint != "":
		spec.Upstream = gantry.UpstreamEndpoint(cfg.Upstream.Endpoint)
	}
	return spec
}

// RouterFromConfig builds the router for run sessions. An empty
// command means no managed router.
func RouterFromConfig(cfg *config.Config, workDir string) gantry.Router {
	if len(cfg.Router.Command) == 0 {
		return gantry.NopRouter{}
	}
	dir := cfg.Router.Dir
	if dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(workDir, dir)
	}
	return &gantry.ProcessRouter{
		Command:     cfg.Router.Command,
		Dir:         dir,
		StopTimeout: cfg.Router.StopTimeout,
	}
}
