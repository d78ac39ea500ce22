package gantry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schmitthub/gantry/internal/logger"
)

const (
	// UpstreamAddrVar is the environment placeholder resolved against
	// the running upstream's address before container creation.
	UpstreamAddrVar = "PROXY_IP_ADDRESS"

	// DefaultUpstreamPort is the port the in-process upstream serves on.
	DefaultUpstreamPort = "9292"

	// DefaultUpstreamBody is served when a handler directive is empty.
	DefaultUpstreamBody = "ok"

	// handlerFile is the handler body's file name inside the scoped
	// temp directory.
	handlerFile = "handler.txt"
)

// UpstreamDirective selects the mock upstream fronting a stack. A nil
// directive means the stack runs without one.
type UpstreamDirective interface {
	isUpstreamDirective()
}

// UpstreamHandler serves its value as the response body from an
// in-process HTTP server on DefaultUpstreamPort. The empty string
// serves DefaultUpstreamBody.
type UpstreamHandler string

func (UpstreamHandler) isUpstreamDirective() {}

// UpstreamEndpoint points the stack at an already-running upstream,
// given as a host or host:port. The stack never manages its lifecycle.
type UpstreamEndpoint string

func (UpstreamEndpoint) isUpstreamDirective() {}

// upstream supervises the mock upstream behind a directive. For
// handler directives it owns a temp directory with the handler body
// and an HTTP server bound to all interfaces, so containers can reach
// it through the host's routable address.
type upstream struct {
	directive UpstreamDirective

	mu       sync.Mutex
	running  bool
	dir      string
	listener net.Listener
	server   *http.Server
	host     string
	port     string
}

func newUpstream(directive UpstreamDirective) *upstream {
	return &upstream{directive: directive, port: DefaultUpstreamPort}
}

// start makes the upstream reachable. Its address is only known after
// start returns.
func (u *upstream) start() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.running {
		return nil
	}

	switch d := u.directive.(type) {
	case UpstreamEndpoint:
		host, port, err := net.SplitHostPort(string(d))
		if err != nil {
			host, port = string(d), DefaultUpstreamPort
		}
		u.host = host
		u.port = port
		u.running = true
		logger.Debug().Str("host", host).Str("port", port).Msg("using external upstream")
		return nil
	case UpstreamHandler:
		return u.startHandlerLocked(string(d))
	default:
		return fmt.Errorf("upstream: unsupported directive %T", d)
	}
}

func (u *upstream) startHandlerLocked(body string) error {
	if body == "" {
		body = DefaultUpstreamBody
	}

	dir, err := os.MkdirTemp("", "gantry-upstream-")
	if err != nil {
		return fmt.Errorf("upstream: temp dir: %w", err)
	}

	path := filepath.Join(dir, handlerFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("upstream: write handler: %w", err)
	}

	host, err := hostIPv4()
	if err != nil {
		os.RemoveAll(dir)
		return err
	}

	listener, err := net.Listen("tcp", net.JoinHostPort("0.0.0.0", u.port))
	if err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("upstream: listen on port %s: %w", u.port, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("upstream handler read failed")
			http.Error(w, "handler unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(content)
	})

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	u.dir = dir
	u.listener = listener
	u.server = server
	u.host = host
	u.running = true

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			u.mu.Lock()
			u.running = false
			u.mu.Unlock()
			logger.Error().Err(err).Msg("upstream server error")
		}
	}()

	logger.Info().Str("host", host).Str("port", u.port).Str("dir", dir).Msg("upstream started")
	return nil
}

// ipAddress returns the address containers reach the upstream on.
// It fails before start.
func (u *upstream) ipAddress() (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.running {
		return "", errors.New("upstream: not started")
	}
	return u.host, nil
}

// stop shuts the upstream server down. Stopping an already-stopped
// upstream, or one pointing at an external endpoint, is a no-op.
func (u *upstream) stop(ctx context.Context) error {
	u.mu.Lock()
	if !u.running {
		u.mu.Unlock()
		return nil
	}
	u.running = false
	server := u.server
	u.server = nil
	u.listener = nil
	u.mu.Unlock()

	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("upstream: shutdown: %w", err)
	}
	logger.Debug().Msg("upstream stopped")
	return nil
}

// destroy stops the upstream and removes its temp directory. The
// directory removal runs even when the stop fails.
func (u *upstream) destroy(ctx context.Context) error {
	err := u.stop(ctx)

	u.mu.Lock()
	dir := u.dir
	u.dir = ""
	u.mu.Unlock()

	if dir != "" {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			err = errors.Join(err, fmt.Errorf("upstream: remove %s: %w", dir, rmErr))
		}
	}
	return err
}

// handlerPath returns the handler file location, or "" when the
// upstream has no backing directory.
func (u *upstream) handlerPath() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.dir == "" {
		return ""
	}
	return filepath.Join(u.dir, handlerFile)
}

// hostIPv4 returns the host's first non-loopback IPv4 address, the
// address containers can reach host services on.
func hostIPv4() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("upstream: interface addresses: %w", err)
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", errors.New("upstream: no non-loopback IPv4 address found")
}
