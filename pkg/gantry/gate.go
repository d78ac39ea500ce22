package gantry

import (
	"context"
	"sync"
	"time"
)

// DefaultGrace bounds how long a run waits for the readiness sentinel
// before proceeding anyway. Readiness is best effort: a boot that
// never prints the sentinel still gets its action executed.
const DefaultGrace = 500 * time.Millisecond

// Gate is a one-shot readiness signal. The zero value is not usable;
// create gates with NewGate.
type Gate struct {
	once sync.Once
	ch   chan struct{}
}

// NewGate returns an unreleased gate.
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Release opens the gate. Calling it again has no effect.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.ch) })
}

// Released reports whether the gate has opened.
func (g *Gate) Released() bool {
	select {
	case <-g.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the gate opens, the grace window elapses, or ctx
// is done, whichever comes first. It reports whether the gate opened.
func (g *Gate) Wait(ctx context.Context, grace time.Duration) bool {
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-g.ch:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
