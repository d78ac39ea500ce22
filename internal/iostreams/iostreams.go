// Package iostreams provides access to the CLI's input/output streams.
// It follows the GitHub CLI pattern for testable I/O.
package iostreams

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IOStreams bundles the standard streams so commands never touch
// os.Stdout directly. Tests swap in buffers via iostreamstest.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// isOutputTTY caches whether stdout is a terminal.
	// -1 = unchecked, 0 = false, 1 = true
	isOutputTTY int

	// isStderrTTY caches whether stderr is a terminal.
	isStderrTTY int

	// colorEnabled controls color output.
	// -1 = auto (detect from TTY), 0 = disabled, 1 = enabled
	colorEnabled int
}

// NewIOStreams creates an IOStreams connected to standard streams.
func NewIOStreams() *IOStreams {
	return &IOStreams{
		In:           os.Stdin,
		Out:          os.Stdout,
		ErrOut:       os.Stderr,
		isOutputTTY:  -1,
		isStderrTTY:  -1,
		colorEnabled: -1,
	}
}

// IsOutputTTY returns true if stdout is a terminal.
func (s *IOStreams) IsOutputTTY() bool {
	if s.isOutputTTY == -1 {
		if f, ok := s.Out.(*os.File); ok {
			s.isOutputTTY = boolToInt(term.IsTerminal(int(f.Fd())))
		} else {
			s.isOutputTTY = 0
		}
	}
	return s.isOutputTTY == 1
}

// IsStderrTTY returns true if stderr is a terminal.
func (s *IOStreams) IsStderrTTY() bool {
	if s.isStderrTTY == -1 {
		if f, ok := s.ErrOut.(*os.File); ok {
			s.isStderrTTY = boolToInt(term.IsTerminal(int(f.Fd())))
		} else {
			s.isStderrTTY = 0
		}
	}
	return s.isStderrTTY == 1
}

// SetColorEnabled forces color output on or off.
func (s *IOStreams) SetColorEnabled(enabled bool) {
	s.colorEnabled = boolToInt(enabled)
}

// ColorEnabled reports whether output should carry color codes.
func (s *IOStreams) ColorEnabled() bool {
	if s.colorEnabled == -1 {
		s.colorEnabled = boolToInt(s.IsOutputTTY() && os.Getenv("NO_COLOR") == "")
	}
	return s.colorEnabled == 1
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
