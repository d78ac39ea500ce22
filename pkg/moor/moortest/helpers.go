package moortest

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"slices"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/schmitthub/gantry/pkg/moor"
)

const (
	// TestLabelPrefix is the label prefix used by test engines.
	TestLabelPrefix = "com.moortest"

	// TestManagedLabel is the managed label suffix used by test engines.
	TestManagedLabel = "managed"
)

// TestEngineOptions returns Options configured for unit testing.
func TestEngineOptions() moor.Options {
	return moor.Options{
		LabelPrefix:  TestLabelPrefix,
		ManagedLabel: TestManagedLabel,
	}
}

// NewFakeAPIClient creates a FakeAPIClient with sensible defaults:
// Ping succeeds and Close is a no-op. Everything else must be
// configured by the test.
func NewFakeAPIClient() *FakeAPIClient {
	return &FakeAPIClient{
		PingFn:  func(context.Context) (types.Ping, error) { return types.Ping{}, nil },
		CloseFn: func() error { return nil },
	}
}

// framed encodes chunks as stdout frames in Docker's multiplexed
// stream format.
func framed(chunks ...string) []byte {
	var buf bytes.Buffer
	w := stdcopy.NewStdWriter(&buf, stdcopy.Stdout)
	for _, c := range chunks {
		_, _ = w.Write([]byte(c))
	}
	return buf.Bytes()
}

// ScriptedAttach returns a HijackedResponse that replays chunks as
// stdout frames and then ends the stream, as if the container exited.
func ScriptedAttach(chunks ...string) types.HijackedResponse {
	server, conn := net.Pipe()
	data := framed(chunks...)
	go func() {
		if len(data) > 0 {
			_, _ = server.Write(data)
		}
		_ = server.Close()
	}()
	return types.HijackedResponse{Conn: conn, Reader: bufio.NewReader(conn)}
}

// HoldOpenAttach returns a HijackedResponse that replays chunks as
// stdout frames and then keeps the stream open until the response is
// closed, as a running container would.
func HoldOpenAttach(chunks ...string) types.HijackedResponse {
	resp, _ := AttachPipe(chunks...)
	return resp
}

// AttachPipe is HoldOpenAttach with the server end of the stream
// exposed, so a test can end the stream itself, the way the daemon
// does when the container stops.
func AttachPipe(chunks ...string) (types.HijackedResponse, net.Conn) {
	server, conn := net.Pipe()
	data := framed(chunks...)
	go func() {
		if len(data) > 0 {
			_, _ = server.Write(data)
		}
	}()
	return types.HijackedResponse{Conn: conn, Reader: bufio.NewReader(conn)}, server
}

// --- Assertion helpers ---

// AssertCalled fails the test if the given method was not called on the fake.
func AssertCalled(t *testing.T, fake *FakeAPIClient, method string) {
	t.Helper()
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !slices.Contains(fake.Calls, method) {
		t.Errorf("expected %s to be called, but it was not; calls: %v", method, fake.Calls)
	}
}

// AssertNotCalled fails the test if the given method was called on the fake.
func AssertNotCalled(t *testing.T, fake *FakeAPIClient, method string) {
	t.Helper()
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if slices.Contains(fake.Calls, method) {
		t.Errorf("expected %s to NOT be called, but it was; calls: %v", method, fake.Calls)
	}
}

// AssertCalledN fails the test if the given method was not called exactly n times.
func AssertCalledN(t *testing.T, fake *FakeAPIClient, method string, n int) {
	t.Helper()
	fake.mu.Lock()
	defer fake.mu.Unlock()
	count := 0
	for _, c := range fake.Calls {
		if c == method {
			count++
		}
	}
	if count != n {
		t.Errorf("expected %s to be called %d times, but was called %d times; calls: %v", method, n, count, fake.Calls)
	}
}
