package get

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/logger"
	"github.com/schmitthub/gantry/pkg/gantry"
	"github.com/schmitthub/gantry/pkg/moor"
	"github.com/spf13/cobra"
)

// GetOptions contains the options for the get command.
type GetOptions struct {
	IOStreams *iostreams.IOStreams
	Engine    func(context.Context) (*moor.Engine, error)
	Config    func() (*config.Config, error)
	WorkDir   string
	Debug     bool

	Fixture    string
	Path       string
	Image      string
	MaxRetries int
	Grace      time.Duration
	Logs       bool
}

// NewCmdGet creates the get command.
func NewCmdGet(f *cmdutil.Factory, runF func(context.Context, *GetOptions) error) *cobra.Command {
	opts := &GetOptions{
		IOStreams: f.IOStreams,
		Engine:    f.Engine,
		Config:    f.Config,
	}

	cmd := &cobra.Command{
		Use:   "get <fixture> <path>",
		Short: "Boot a fixture and issue one GET through the router",
		Long: `Boots the fixture's container and router, waits for readiness, issues
one retried GET against the router, prints the response, and tears the
whole session down regardless of the response status.`,
		Example: `  # GET /health against the "myapp" fixture
  gantry get myapp /health

  # Dump captured container output after the request
  gantry get myapp / --logs`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return cmdutil.FlagErrorf("fixture name must not be empty")
			}
			opts.Fixture = args[0]
			opts.Path = args[1]
			opts.WorkDir = f.WorkDir
			opts.Debug = f.Debug

			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return getRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Image, "image", "", "Container image, overriding gantry.yaml")
	cmd.Flags().IntVar(&opts.MaxRetries, "max-retries", 0, "Request retries, 0 for the configured default")
	cmd.Flags().DurationVar(&opts.Grace, "grace", 0, "Readiness wait bound, 0 for the configured default")
	cmd.Flags().BoolVar(&opts.Logs, "logs", false, "Print captured container output to stderr")

	return cmd
}

func getRun(ctx context.Context, opts *GetOptions) error {
	ios := opts.IOStreams

	cfg, err := cmdutil.ResolveConfig(opts.Config)
	if err != nil {
		return err
	}

	engine, err := opts.Engine(ctx)
	if err != nil {
		return err
	}

	spec := cmdutil.AppSpecFromConfig(cfg, opts.WorkDir, opts.Fixture, opts.Debug)
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

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = cfg.Run.MaxRetries
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = cfg.Run.Grace
	}

	resp, captured, err := stack.Get(ctx, opts.Path, gantry.GetOptions{
		CaptureLog: opts.Logs || cfg.Run.CaptureLog,
		MaxRetries: maxRetries,
		Grace:      grace,
	})

	if opts.Logs && captured != "" {
		fmt.Fprintln(ios.ErrOut, "--- container output ---")
		fmt.Fprint(ios.ErrOut, captured)
		if !strings.HasSuffix(captured, "\n") {
			fmt.Fprintln(ios.ErrOut)
		}
		fmt.Fprintln(ios.ErrOut, "------------------------")
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(ios.Out, resp.Status)
	if len(resp.Body) > 0 {
		ios.Out.Write(resp.Body)
		if resp.Body[len(resp.Body)-1] != '\n' {
			fmt.Fprintln(ios.Out)
		}
	}

	return nil
}
