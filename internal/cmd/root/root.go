package root

import (
	getcmd "github.com/schmitthub/gantry/internal/cmd/get"
	initcmd "github.com/schmitthub/gantry/internal/cmd/init"
	upcmd "github.com/schmitthub/gantry/internal/cmd/up"
	versioncmd "github.com/schmitthub/gantry/internal/cmd/version"
	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/logger"
	"github.com/spf13/cobra"
)

// NewCmdRoot creates the root command for the gantry CLI.
func NewCmdRoot(f *cmdutil.Factory, version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gantry",
		Short: "Boot app containers behind a router and poke them over HTTP",
		Long: `Gantry boots an application container together with its router process
and an optional mock upstream, waits for the app to come up, and issues
retried HTTP requests against it. Sessions tear everything down on every
exit path, so repeated runs start clean.

Quick start:
  gantry init                   # Scaffold gantry.yaml
  gantry get myapp /health      # Boot fixture "myapp", GET /health, tear down
  gantry up myapp               # Boot fixture "myapp" and hold until Ctrl-C`,
		SilenceUsage: true,
		Annotations: map[string]string{
			"versionInfo": versioncmd.Format(version, commit),
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(f.Debug)

			logger.Debug().
				Str("version", f.Version).
				Bool("debug", f.Debug).
				Msg("gantry starting")

			return nil
		},
		Version: f.Version,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "D", false, "Enable debug logging and echo container output")
	cmd.PersistentFlags().StringVarP(&f.WorkDir, "workdir", "w", f.WorkDir, "Directory holding gantry.yaml")

	cmd.SetVersionTemplate(versioncmd.Format(version, commit) + "\n")

	cmd.AddCommand(initcmd.NewCmdInit(f, nil))
	cmd.AddCommand(getcmd.NewCmdGet(f, nil))
	cmd.AddCommand(upcmd.NewCmdUp(f, nil))
	cmd.AddCommand(versioncmd.NewCmdVersion(f, version, commit))

	return cmd
}
