package fetch

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// linearBackOff yields waits that grow linearly with the retry count:
// Step before the first retry, 2*Step before the second, and so on.
type linearBackOff struct {
	Step time.Duration

	n int
}

var _ backoff.BackOff = (*linearBackOff)(nil)

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.Step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}
