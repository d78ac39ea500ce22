// Package gantry orchestrates application containers for integration
// tests. A Stack boots an application container behind a router
// process, optionally fronted by a mock upstream, watches the
// container's log stream for a readiness sentinel, and guarantees
// teardown on every exit path so tests never leak containers or
// processes.
package gantry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schmitthub/gantry/internal/logger"
	"github.com/schmitthub/gantry/pkg/envsubst"
	"github.com/schmitthub/gantry/pkg/fetch"
	"github.com/schmitthub/gantry/pkg/moor"
)

// ReadySentinel is the log substring that marks the application
// container ready to accept traffic. Boot output is unstructured, so
// readiness detection is substring matching over the live log stream
// rather than a port probe.
const ReadySentinel = "Starting nginx..."

// DefaultMaxRetries bounds fetch retries for Get. Thirty linear-backoff
// attempts cover a container cold start.
const DefaultMaxRetries = 30

// attachJoinTimeout bounds the wait for the attach task after the
// container was asked to stop.
const attachJoinTimeout = 5 * time.Second

// ErrRunActive rejects overlapping run sessions on one stack. The
// container handle, router, and log buffer belong to a single session
// at a time.
var ErrRunActive = errors.New("gantry: run session already active")

// Runtime is the container engine surface a stack drives. *moor.Engine
// implements it.
type Runtime interface {
	ContainerCreate(ctx context.Context, spec moor.ContainerSpec) (string, error)
	ContainerStart(ctx context.Context, containerID string) error
	ContainerStop(ctx context.Context, containerID string, timeout *int) error
	ContainerRemove(ctx context.Context, containerID string, force bool) error
	ContainerAttach(ctx context.Context, containerID string) (*moor.AttachStream, error)
}

// Stack owns one application container, its router, and an optional
// mock upstream for the duration of a test.
type Stack struct {
	spec     AppSpec
	runtime  Runtime
	router   Router
	upstream *upstream

	containerID   string
	containerName string

	gate     *Gate
	debugOut io.Writer

	mu     sync.Mutex
	active bool
}

// New provisions a stack. When the spec configures an upstream it is
// started first, so its live address can replace ${PROXY_IP_ADDRESS}
// in the environment. The application container is created but not
// started; Run starts it. A nil router defaults to NopRouter.
func New(ctx context.Context, runtime Runtime, router Router, spec AppSpec) (*Stack, error) {
	if runtime == nil {
		return nil, errors.New("gantry: runtime is required")
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if router == nil {
		router = NopRouter{}
	}

	s := &Stack{
		spec:     spec,
		runtime:  runtime,
		router:   router,
		gate:     NewGate(),
		debugOut: os.Stderr,
	}

	fail := func(err error) (*Stack, error) {
		if s.upstream != nil {
			if derr := s.upstream.destroy(context.WithoutCancel(ctx)); derr != nil {
				logger.Error().Err(derr).Msg("upstream rollback failed")
			}
		}
		return nil, err
	}

	env := make(map[string]string, len(spec.Env))
	maps.Copy(env, spec.Env)

	if spec.Upstream != nil {
		s.upstream = newUpstream(spec.Upstream)
		if err := s.upstream.start(); err != nil {
			return fail(err)
		}
		addr, err := s.upstream.ipAddress()
		if err != nil {
			return fail(err)
		}
		vars := map[string]string{UpstreamAddrVar: addr}
		for k, v := range env {
			env[k] = envsubst.Expand(v, vars)
		}
	}

	for k, v := range env {
		if envsubst.Contains(v, UpstreamAddrVar) {
			return fail(fmt.Errorf("gantry: env %s references ${%s} but no upstream is configured", k, UpstreamAddrVar))
		}
	}

	pairs, err := envPairs(env)
	if err != nil {
		return fail(err)
	}

	fixture, err := filepath.Abs(spec.Fixture)
	if err != nil {
		return fail(fmt.Errorf("gantry: resolve fixture path: %w", err))
	}

	name := containerName(spec.Fixture)
	cspec := moor.ContainerSpec{
		Name:   name,
		Image:  spec.Image,
		Cmd:    spec.Cmd,
		Env:    pairs,
		Binds:  []string{fixture + ":/src"},
		Ports:  spec.Ports,
		Memory: spec.Memory,
	}
	for _, link := range spec.Links {
		cspec.Links = append(cspec.Links, link+":"+link)
	}

	id, err := runtime.ContainerCreate(ctx, cspec)
	if err != nil {
		return fail(err)
	}

	s.containerID = id
	s.containerName = name
	logger.Debug().Str("container", name).Str("id", id).Str("image", spec.Image).Msg("stack provisioned")
	return s, nil
}

// ContainerID returns the application container's ID.
func (s *Stack) ContainerID() string { return s.containerID }

// ContainerName returns the application container's name.
func (s *Stack) ContainerName() string { return s.containerName }

// Active reports whether a run session currently owns the stack.
func (s *Stack) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Stack) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrRunActive
	}
	s.active = true
	return nil
}

func (s *Stack) end() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// RunOptions tunes a single run session.
type RunOptions struct {
	// CaptureLog collects container output and returns it alongside
	// the action's result.
	CaptureLog bool

	// Grace bounds the readiness wait. Defaults to DefaultGrace.
	Grace time.Duration
}

// Run executes action inside a managed session: it attaches to and
// starts the application container, starts the router concurrently,
// waits for the readiness sentinel up to the grace window, runs the
// action, and tears the session down on every exit path. The returned
// string holds the captured container log when opts.CaptureLog is set.
//
// The readiness wait is best effort. When the sentinel never appears
// the action still runs after the grace window, and tests must
// tolerate the rare run that starts fractionally before readiness.
func Run[T any](ctx context.Context, s *Stack, opts RunOptions, action func(context.Context) (T, error)) (T, string, error) {
	var zero T

	if err := s.begin(); err != nil {
		return zero, "", err
	}
	defer s.end()

	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	stream, err := s.runtime.ContainerAttach(ctx, s.containerID)
	if err != nil {
		return zero, "", err
	}

	var logBuf bytes.Buffer
	attachDone := make(chan error, 1)
	go func() {
		attachDone <- stream.Stream(func(chunk []byte) {
			if s.spec.Debug {
				s.debugOut.Write(chunk)
			}
			if opts.CaptureLog {
				logBuf.Write(chunk)
			}
			if !s.gate.Released() && strings.Contains(string(chunk), ReadySentinel) {
				logger.Debug().Str("container", s.containerName).Msg("readiness sentinel observed")
				s.gate.Release()
			}
		})
	}()

	if err := s.runtime.ContainerStart(ctx, s.containerID); err != nil {
		stream.Close()
		<-attachDone
		return zero, "", err
	}

	routerStart := make(chan error, 1)
	go func() { routerStart <- s.router.Start(ctx) }()

	var (
		tearOnce sync.Once
		tearErr  error
	)
	teardown := func() {
		tearOnce.Do(func() {
			tearErr = s.teardown(ctx, stream, attachDone, routerStart)
		})
	}
	defer teardown()

	if !s.gate.Wait(ctx, grace) {
		logger.Warn().Str("container", s.containerName).Dur("grace", grace).
			Msg("readiness sentinel not observed, proceeding")
	}

	result, actionErr := action(ctx)

	teardown()
	if actionErr != nil {
		return zero, logBuf.String(), actionErr
	}
	return result, logBuf.String(), tearErr
}

// teardown runs the guaranteed end-of-session steps in order: stop the
// container, stop the router, join the attach task, release the attach
// transport. Each step runs even when earlier ones fail.
func (s *Stack) teardown(ctx context.Context, stream *moor.AttachStream, attachDone <-chan error, routerStart <-chan error) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error

	if err := s.runtime.ContainerStop(ctx, s.containerID, nil); err != nil {
		logger.Error().Err(err).Str("container", s.containerName).Msg("container stop failed")
		errs = append(errs, err)
		// The daemon won't close the attach stream for us now.
		stream.Close()
	}

	if err := <-routerStart; err != nil {
		logger.Error().Err(err).Msg("router failed to start")
		errs = append(errs, err)
	}
	if err := s.router.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("router stop failed")
		errs = append(errs, err)
	}

	select {
	case err := <-attachDone:
		if err != nil {
			logger.Debug().Err(err).Msg("attach stream ended with error")
			errs = append(errs, err)
		}
	case <-time.After(attachJoinTimeout):
		stream.Close()
		if err := <-attachDone; err != nil {
			errs = append(errs, err)
		}
	}
	stream.Close()

	return errors.Join(errs...)
}

// GetOptions tunes Get.
type GetOptions struct {
	// CaptureLog collects container output when Get starts its own
	// run session. Ignored when a session is already active.
	CaptureLog bool

	// MaxRetries bounds fetch retries. Zero means DefaultMaxRetries;
	// negative means a single attempt.
	MaxRetries int

	// Grace bounds the readiness wait when Get starts its own run
	// session. Defaults to DefaultGrace.
	Grace time.Duration

	// Client overrides the fetch client, which by default targets the
	// fixed router address.
	Client *fetch.Client
}

// Get issues one retried GET against the router. Inside an active run
// session it fetches directly; otherwise it wraps the fetch in a full
// session, so a one-shot test gets the whole lifecycle from a single
// call. The returned string holds the captured log for sessions Get
// started itself.
func (s *Stack) Get(ctx context.Context, path string, opts GetOptions) (*fetch.Response, string, error) {
	client := opts.Client
	if client == nil {
		client = &fetch.Client{}
	}
	retries := opts.MaxRetries
	if retries == 0 {
		retries = DefaultMaxRetries
	}

	if s.Active() {
		resp, err := client.Get(ctx, path, retries)
		return resp, "", err
	}

	return Run(ctx, s, RunOptions{CaptureLog: opts.CaptureLog, Grace: opts.Grace}, func(ctx context.Context) (*fetch.Response, error) {
		return client.Get(ctx, path, retries)
	})
}

// Destroy tears the stack down: it stops and removes the upstream and
// its temp directory, destroys the router, and force-removes the
// container. Destroy tolerates partial prior teardown and keeps going
// when individual steps fail, so it is safe to defer unconditionally.
func (s *Stack) Destroy(ctx context.Context) error {
	var errs []error

	if s.upstream != nil {
		if err := s.upstream.destroy(ctx); err != nil {
			logger.Error().Err(err).Msg("upstream teardown failed")
			errs = append(errs, err)
		}
	}

	if err := s.router.Destroy(ctx); err != nil {
		logger.Error().Err(err).Msg("router teardown failed")
		errs = append(errs, err)
	}

	if s.containerID != "" {
		err := s.runtime.ContainerRemove(ctx, s.containerID, true)
		if err != nil && !moor.IsNotFound(err) {
			logger.Error().Err(err).Str("container", s.containerName).Msg("container remove failed")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
