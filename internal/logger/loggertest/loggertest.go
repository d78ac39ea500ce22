// Package loggertest captures global logger output for assertions.
package loggertest

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/schmitthub/gantry/internal/logger"
)

// Buffer is a goroutine-safe sink for captured log output.
type Buffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String returns everything captured so far.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Contains reports whether the captured output contains s.
func (b *Buffer) Contains(s string) bool {
	return strings.Contains(b.String(), s)
}

// Capture redirects the global logger into a buffer at debug level for
// the duration of the test. The previous logger is restored on cleanup.
func Capture(t *testing.T) *Buffer {
	t.Helper()
	buf := &Buffer{}
	prev := logger.Log
	logger.Log = zerolog.New(buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { logger.Log = prev })
	return buf
}
