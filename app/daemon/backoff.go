package daemon

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrBackoffConfigInvalid returned for factor < 1 or non-positive delays
var ErrBackoffConfigInvalid = errors.New("invalid backoff config")

// Backoff grows poll delay on empty cycles. After n empty cycles the delay is min(initial*factor^n, max).
type Backoff struct {
	initial time.Duration
	factor  float64
	max     time.Duration
	n       int
	current time.Duration
}

// NewBackoff makes Backoff, validating params
func NewBackoff(initial time.Duration, factor float64, maxDelay time.Duration) (*Backoff, error) {
	if factor < 1 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("factor %v, must be >= 1: %w", factor, ErrBackoffConfigInvalid)
	}
	if initial <= 0 {
		return nil, fmt.Errorf("delay %v, must be positive: %w", initial, ErrBackoffConfigInvalid)
	}
	if maxDelay < initial {
		return nil, fmt.Errorf("max delay %v less than delay %v: %w", maxDelay, initial, ErrBackoffConfigInvalid)
	}
	return &Backoff{initial: initial, factor: factor, max: maxDelay, current: initial}, nil
}

// Current returns delay for the next sleep
func (b *Backoff) Current() time.Duration { return b.current }

// Next returns current delay and grows it for the following call
func (b *Backoff) Next() time.Duration {
	res := b.current
	if b.current < b.max {
		b.n++
		d := float64(b.initial) * math.Pow(b.factor, float64(b.n))
		b.current = b.max
		if d < float64(b.max) {
			b.current = time.Duration(d)
		}
	}
	return res
}

// Reset sets delay back to initial
func (b *Backoff) Reset() {
	b.n = 0
	b.current = b.initial
}
