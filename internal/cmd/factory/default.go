package factory

import (
	"context"
	"os"
	"sync"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/pkg/moor"
)

// New creates a fully-wired Factory with lazy-initialized dependency closures.
// Called exactly once at the CLI entry point (internal/gantry/cmd.go).
// Tests should NOT import this package — construct &cmdutil.Factory{} directly.
func New(version, commit string) *cmdutil.Factory {
	ios := iostreams.NewIOStreams()
	if !ios.IsOutputTTY() || os.Getenv("NO_COLOR") != "" {
		ios.SetColorEnabled(false)
	}

	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	f := &cmdutil.Factory{
		WorkDir:   workDir,
		Version:   version,
		Commit:    commit,
		IOStreams: ios,
	}

	// --- Lazy dependency closures ---

	// Docker engine
	var (
		engineOnce sync.Once
		engine     *moor.Engine
		engineErr  error
	)
	f.Engine = func(ctx context.Context) (*moor.Engine, error) {
		engineOnce.Do(func() {
			engine, engineErr = moor.New(ctx, moor.Options{})
		})
		return engine, engineErr
	}
	f.CloseEngine = func() {
		if engine != nil {
			engine.Close()
		}
	}

	// Config
	var (
		configOnce   sync.Once
		configLoader *config.Loader
		configData   *config.Config
		configErr    error
	)
	f.ConfigLoader = func() *config.Loader {
		configOnce.Do(func() {
			configLoader = config.NewLoader(f.WorkDir)
		})
		return configLoader
	}
	f.Config = func() (*config.Config, error) {
		if configData != nil || configErr != nil {
			return configData, configErr
		}
		configData, configErr = f.ConfigLoader().Load()
		return configData, configErr
	}

	return f
}
