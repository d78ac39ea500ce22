// Package gantry wires the CLI together: factory, root command,
// execution, and exit-code mapping.
package gantry

import (
	"errors"
	"fmt"

	"github.com/schmitthub/gantry/internal/cmd/factory"
	"github.com/schmitthub/gantry/internal/cmd/root"
	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/logger"
)

// Build-time variables injected via ldflags
var (
	Version = "dev"
	Commit  = "none"
)

// Main is the entry point for the gantry CLI.
// It initializes the Factory, creates the root command, and executes it.
func Main() int {
	defer logger.CloseFile()

	f := factory.New(Version, Commit)
	defer f.CloseEngine()

	rootCmd := root.NewCmdRoot(f, Version, Commit)

	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		if errors.Is(err, cmdutil.SilentError) {
			return 1
		}
		var flagErr *cmdutil.FlagError
		if errors.As(err, &flagErr) {
			fmt.Fprintln(f.IOStreams.ErrOut, cmd.UsageString())
			return 2
		}
		return 1
	}

	return 0
}
