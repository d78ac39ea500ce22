package moor_test

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/schmitthub/gantry/pkg/moor"
	"github.com/schmitthub/gantry/pkg/moor/moortest"
)

func attachedStream(t *testing.T, resp types.HijackedResponse) *moor.AttachStream {
	t.Helper()
	fake := moortest.NewFakeAPIClient()
	fake.ContainerAttachFn = func(context.Context, string, container.AttachOptions) (types.HijackedResponse, error) {
		return resp, nil
	}
	eng := moor.NewFromExisting(fake, moortest.TestEngineOptions())
	stream, err := eng.ContainerAttach(context.Background(), "id1")
	if err != nil {
		t.Fatalf("ContainerAttach failed: %v", err)
	}
	return stream
}

func TestStream_DeliversChunks(t *testing.T) {
	stream := attachedStream(t, moortest.ScriptedAttach("Starting nginx...", "ready\n"))
	defer stream.Close()

	var chunks []string
	err := stream.Stream(func(p []byte) {
		chunks = append(chunks, string(p))
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	joined := ""
	for _, c := range chunks {
		joined += c
	}
	if joined != "Starting nginx...ready\n" {
		t.Errorf("streamed output = %q", joined)
	}
}

func TestStream_InterleavesStdoutAndStderr(t *testing.T) {
	server, conn := net.Pipe()
	go func() {
		var buf bytes.Buffer
		out := stdcopy.NewStdWriter(&buf, stdcopy.Stdout)
		errw := stdcopy.NewStdWriter(&buf, stdcopy.Stderr)
		out.Write([]byte("to stdout "))
		errw.Write([]byte("to stderr"))
		server.Write(buf.Bytes())
		server.Close()
	}()

	stream := attachedStream(t, types.HijackedResponse{Conn: conn, Reader: bufio.NewReader(conn)})
	defer stream.Close()

	var got string
	if err := stream.Stream(func(p []byte) { got += string(p) }); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if got != "to stdout to stderr" {
		t.Errorf("streamed output = %q", got)
	}
}

func TestStream_CloseUnblocks(t *testing.T) {
	stream := attachedStream(t, moortest.HoldOpenAttach("booting"))

	done := make(chan error, 1)
	first := make(chan struct{})
	var once sync.Once
	go func() {
		done <- stream.Stream(func([]byte) {
			once.Do(func() { close(first) })
		})
	}()

	// Wait for the scripted chunk to arrive, then sever the connection.
	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first chunk")
	}
	stream.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stream should end cleanly on Close, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stream did not unblock after Close")
	}

	// A second Close must be a no-op.
	stream.Close()
}

func TestStream_ChunksAreCopies(t *testing.T) {
	stream := attachedStream(t, moortest.ScriptedAttach("first", "second"))
	defer stream.Close()

	var kept [][]byte
	if err := stream.Stream(func(p []byte) { kept = append(kept, p) }); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	if len(kept) == 0 {
		t.Fatal("no chunks delivered")
	}
	if string(kept[0]) != "first" {
		t.Errorf("retained chunk = %q, want %q (chunks must not be reused buffers)", kept[0], "first")
	}
}
