package gantry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/schmitthub/gantry/internal/logger"
	"github.com/schmitthub/gantry/pkg/fetch"
)

// Fixed router endpoint. The retry client defaults to this address, so
// tests can pass bare paths.
const (
	RouterHostIP   = fetch.DefaultHost
	RouterHostPort = fetch.DefaultPort
)

// defaultRouterStopTimeout bounds graceful router shutdown before the
// process is killed.
const defaultRouterStopTimeout = 5 * time.Second

// Router supervises the front-facing process that receives test
// traffic on the fixed host address and forwards it to the container.
type Router interface {
	// Start launches the router. Implementations must be safe to call
	// on an already-started router.
	Start(ctx context.Context) error

	// Stop halts the router between run sessions.
	Stop(ctx context.Context) error

	// Destroy releases everything the router holds. The router is not
	// usable afterwards.
	Destroy(ctx context.Context) error
}

// NopRouter satisfies Router without managing any process. It serves
// setups where the container publishes its port straight to the host
// or an externally managed router is already listening.
type NopRouter struct{}

func (NopRouter) Start(context.Context) error   { return nil }
func (NopRouter) Stop(context.Context) error    { return nil }
func (NopRouter) Destroy(context.Context) error { return nil }

// ProcessRouter runs the router as a host process launched from a
// command line. Stop sends SIGTERM and escalates to SIGKILL when the
// process does not exit within StopTimeout.
type ProcessRouter struct {
	// Command is the argv used to launch the router.
	Command []string

	// Dir is the working directory for the process. Empty means the
	// current directory.
	Dir string

	// Env is appended to the parent environment.
	Env []string

	// StopTimeout bounds graceful shutdown. Defaults to 5 seconds.
	StopTimeout time.Duration

	mu      sync.Mutex
	cmd     *exec.Cmd
	done    chan struct{}
	running bool
}

// Start launches the router process and begins reaping it in the
// background. Starting an already-running router is a no-op.
func (r *ProcessRouter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}
	if len(r.Command) == 0 {
		return errors.New("router: no command configured")
	}

	cmd := exec.Command(r.Command[0], r.Command[1:]...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("router: start %q: %w", strings.Join(r.Command, " "), err)
	}

	done := make(chan struct{})
	r.cmd = cmd
	r.done = done
	r.running = true

	go func() {
		err := cmd.Wait()
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		if err != nil {
			logger.Debug().Err(err).Int("pid", cmd.Process.Pid).Msg("router process exited")
		}
		close(done)
	}()

	logger.Info().Str("command", strings.Join(r.Command, " ")).Int("pid", cmd.Process.Pid).Msg("router started")
	return nil
}

// Stop asks the router process to exit and waits for it. A router
// that was never started, or already exited, stops cleanly.
func (r *ProcessRouter) Stop(ctx context.Context) error {
	r.mu.Lock()
	cmd := r.cmd
	done := r.done
	r.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	default:
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("router: signal: %w", err)
	}

	timeout := r.StopTimeout
	if timeout <= 0 {
		timeout = defaultRouterStopTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
	case <-timer.C:
		logger.Warn().Int("pid", cmd.Process.Pid).Dur("timeout", timeout).Msg("router did not exit, killing")
	}

	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("router: kill: %w", err)
	}
	<-done
	return nil
}

// Destroy stops the process. A ProcessRouter holds no other resources.
func (r *ProcessRouter) Destroy(ctx context.Context) error {
	return r.Stop(ctx)
}

// Running reports whether the router process is alive.
func (r *ProcessRouter) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
