package moor

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

// ContainerAttach attaches to a container's stdout and stderr. Attach
// before starting the container to observe output from the first byte:
// the daemon buffers the stream for a created container.
func (e *Engine) ContainerAttach(ctx context.Context, containerID string) (*AttachStream, error) {
	resp, err := e.apiClient.ContainerAttach(ctx, containerID, container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return nil, ErrAttachFailed(err)
	}
	return &AttachStream{resp: resp}, nil
}

// AttachStream is a live container output stream over a hijacked
// connection.
type AttachStream struct {
	resp      types.HijackedResponse
	closeOnce sync.Once
}

// Stream demultiplexes the container's framed output, invoking onChunk
// once per payload write until the stream ends. Stdout and stderr are
// interleaved in arrival order. Returns nil on orderly end of stream,
// including when Close severs the connection from another goroutine.
func (s *AttachStream) Stream(onChunk func([]byte)) error {
	w := &chunkWriter{onChunk: onChunk}
	if _, err := stdcopy.StdCopy(w, w, s.resp.Reader); err != nil {
		if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		return ErrStreamInterrupted(err)
	}
	return nil
}

// Close severs the attach connection. Safe to call more than once and
// concurrently with Stream; a blocked Stream unblocks and returns nil.
func (s *AttachStream) Close() {
	s.closeOnce.Do(func() {
		s.resp.Close()
	})
}

// chunkWriter adapts the demuxer's writes into per-chunk callbacks.
type chunkWriter struct {
	onChunk func([]byte)
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if w.onChunk != nil && len(p) > 0 {
		// The demuxer reuses p between writes.
		buf := make([]byte, len(p))
		copy(buf, p)
		w.onChunk(buf)
	}
	return len(p), nil
}
