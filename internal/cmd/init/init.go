package init

import (
	"context"
	"fmt"
	"os"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/spf13/cobra"
)

// InitOptions contains the options for the init command.
type InitOptions struct {
	IOStreams    *iostreams.IOStreams
	ConfigLoader func() *config.Loader

	Force bool
}

// NewCmdInit creates the init command.
func NewCmdInit(f *cmdutil.Factory, runF func(context.Context, *InitOptions) error) *cobra.Command {
	opts := &InitOptions{
		IOStreams:    f.IOStreams,
		ConfigLoader: f.ConfigLoader,
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold gantry.yaml in the working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return initRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing gantry.yaml")

	return cmd
}

func initRun(ctx context.Context, opts *InitOptions) error {
	loader := opts.ConfigLoader()

	if loader.Exists() && !opts.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", loader.ConfigPath())
	}

	if err := os.WriteFile(loader.ConfigPath(), []byte(config.DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(opts.IOStreams.ErrOut, "Created %s\n", loader.ConfigPath())
	return nil
}
