// Package fetch provides the retrying HTTP client used to drive a
// gantry stack from tests.
//
// The client resolves bare paths against the stack router's fixed
// address and retries a small set of transient connection failures
// with linear backoff. Anything else, including HTTP error statuses,
// is handed back to the caller untouched.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/schmitthub/gantry/internal/logger"
)

const (
	// DefaultHost is the fixed router bind address.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the fixed router port.
	DefaultPort = "8080"

	// DefaultStep is the base wait unit between retries. The wait
	// before retry n is n*Step, so waits grow linearly.
	DefaultStep = 10 * time.Millisecond
)

// Response is a fully drained HTTP response. The body is read eagerly
// so assertions remain valid after the stack is torn down.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Client issues GETs against a stack's router, retrying transient
// connection failures with linear backoff. The zero value targets the
// default router address and uses http.DefaultClient.
type Client struct {
	// Host and Port form the default request target for bare paths.
	Host string
	Port string

	// HTTPClient overrides http.DefaultClient when set.
	HTTPClient *http.Client

	// Step scales the linear backoff. Defaults to DefaultStep.
	Step time.Duration
}

func (c *Client) host() string {
	if c.Host == "" {
		return DefaultHost
	}
	return c.Host
}

func (c *Client) port() string {
	if c.Port == "" {
		return DefaultPort
	}
	return c.Port
}

func (c *Client) step() time.Duration {
	if c.Step <= 0 {
		return DefaultStep
	}
	return c.Step
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

// Resolve normalizes a request path or URL against the router target.
// A bare path gets the router host and port. A URL naming the router
// host with a missing or different port is forced onto the router
// port. The scheme defaults to plain HTTP.
func (c *Client) Resolve(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %q: %w", rawURL, err)
	}

	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		u.Host = net.JoinHostPort(c.host(), c.port())
	} else if u.Hostname() == c.host() && u.Port() != c.port() {
		u.Host = net.JoinHostPort(c.host(), c.port())
	}

	return u, nil
}

// Get issues an HTTP GET for path, retrying transient connection
// failures up to maxRetries times after the initial attempt. The wait
// before retry n is n*Step; there is no wait before the first attempt.
// Exhausting retries returns the last transient failure itself, with
// no synthetic wrapping. Non-transient failures return immediately.
func (c *Client) Get(ctx context.Context, path string, maxRetries int) (*Response, error) {
	u, err := c.Resolve(path)
	if err != nil {
		return nil, err
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	target := u.String()
	attempt := 0
	operation := func() (*Response, error) {
		attempt++
		resp, err := c.do(ctx, target)
		if err != nil {
			if isTransient(err) {
				logger.Debug().Err(err).Str("url", target).Int("attempt", attempt).
					Msg("transient fetch failure")
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return resp, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(&linearBackOff{Step: c.step()}),
		backoff.WithMaxTries(uint(maxRetries)+1),
	)
}

// do performs a single GET and drains the body.
func (c *Client) do(ctx context.Context, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// isTransient reports whether err is one of the three retried
// conditions: connection refused, connection reset, or a stream that
// ended before the response completed.
func isTransient(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
