package up

import (
	"context"
	"fmt"
	"time"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/logger"
	"github.com/schmitthub/gantry/internal/signals"
	"github.com/schmitthub/gantry/pkg/gantry"
	"github.com/schmitthub/gantry/pkg/moor"
	"github.com/spf13/cobra"
)

// UpOptions contains the options for the up command.
type UpOptions struct {
	IOStreams *iostreams.IOStreams
	Engine    func(context.Context) (*moor.Engine, error)
	Config    func() (*config.Config, error)
	WorkDir   string

	Fixture string
	Image   string
	Grace   time.Duration
	Quiet   bool
}

// NewCmdUp creates the up command.
func NewCmdUp(f *cmdutil.Factory, runF func(context.Context, *UpOptions) error) *cobra.Command {
	opts := &UpOptions{
		IOStreams: f.IOStreams,
		Engine:    f.Engine,
		Config:    f.Config,
	}

	cmd := &cobra.Command{
		Use:   "up <fixture>",
		Short: "Boot a fixture and hold it until interrupted",
		Long: `Boots the fixture's container and router, echoes container output, and
holds the session open so you can poke the app manually. Ctrl-C tears
everything down.`,
		Example: `  gantry up myapp
  curl http://127.0.0.1:8080/health   # from another shell`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return cmdutil.FlagErrorf("fixture name must not be empty")
			}
			opts.Fixture = args[0]
			opts.WorkDir = f.WorkDir

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return upRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Image, "image", "", "Container image, overriding gantry.yaml")
	cmd.Flags().DurationVar(&opts.Grace, "grace", 0, "Readiness wait bound, 0 for the configured default")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Do not echo container output")

	return cmd
}

func upRun(ctx context.Context, opts *UpOptions) error {
	ios := opts.IOStreams

	cfg, err := cmdutil.ResolveConfig(opts.Config)
	if err != nil {
		return err
	}

	engine, err := opts.Engine(ctx)
	if err != nil {
		return err
	}

	spec := cmdutil.AppSpecFromConfig(cfg, opts.WorkDir, opts.Fixture, !opts.Quiet)
	if opts.Image != "" {
		spec.Image = opts.Image
	}

	stack, err := gantry.New(ctx, engine, cmdutil.RouterFromConfig(cfg, opts.WorkDir), spec)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Destroy(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().Err(err).Msg("stack teardown left residue")
		}
	}()

	grace := opts.Grace
	if grace <= 0 {
		grace = cfg.Run.Grace
	}

	sigCtx, stop := signals.SetupSignalContext(ctx)
	defer stop()

	_, _, err = gantry.Run(sigCtx, stack, gantry.RunOptions{Grace: grace}, func(ctx context.Context) (struct{}, error) {
		fmt.Fprintf(ios.ErrOut, "%s is up at http://%s:%s, press Ctrl-C to stop\n",
			stack.ContainerName(), gantry.RouterHostIP, gantry.RouterHostPort)

		<-ctx.Done()
		fmt.Fprintln(ios.ErrOut, "\nshutting down")
		return struct{}{}, nil
	})
	return err
}
