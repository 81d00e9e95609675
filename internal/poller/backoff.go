package poller

import (
	"math/rand/v2"
	"time"
)

// Backoff computes the delay between poll attempts.
//
// The schedule is exponential: each call to [Backoff.Next] returns the
// current delay (with jitter applied) and doubles the delay for the next
// call, capped at the ceiling. [Backoff.Reset] drops the delay back to the
// base value; callers invoke it when the server reported something new,
// treating a status change as a signal that faster polling is warranted.
//
// Jitter is a bounded random offset, positive or negative, proportional to
// the computed delay. It desynchronizes concurrent clients polling the same
// service so their requests do not arrive in lockstep.
//
// Backoff is not safe for concurrent use; each poll session owns its own
// instance exclusively.
type Backoff struct {
	base    time.Duration
	ceiling time.Duration
	jitter  float64

	cur time.Duration

	// rand returns a value in [0, 1). Overridable for deterministic tests.
	rand func() float64
}

// NewBackoff creates a [Backoff] with the given base delay, ceiling, and
// jitter fraction.
//
// The jitter fraction is the maximum relative offset applied to each delay:
// 0.1 means the returned delay may deviate up to ±10% from the computed
// value. A fraction of 0 disables jitter entirely, making the schedule
// deterministic.
//
// Out-of-range inputs are normalized rather than rejected: a non-positive
// base or ceiling falls back to 1s/30s, and the ceiling is raised to the
// base if it is below it.
func NewBackoff(base, ceiling time.Duration, jitter float64) *Backoff {
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = 30 * time.Second
	}
	if ceiling < base {
		ceiling = base
	}
	if jitter < 0 {
		jitter = 0
	}

	return &Backoff{
		base:    base,
		ceiling: ceiling,
		jitter:  jitter,
		cur:     base,
		rand:    rand.Float64,
	}
}

// Next returns the delay to wait before the next attempt and advances the
// schedule.
//
// The returned value is the current delay plus jitter, clamped to the
// ceiling. The undelayed schedule (base, 2×base, 4×base, ...) is
// non-decreasing; only the jitter offset can make one returned value
// smaller than the previous one, and never by more than the jitter bound.
func (b *Backoff) Next() time.Duration {
	d := b.cur

	if b.jitter > 0 {
		// offset in [-jitter*d, +jitter*d)
		offset := time.Duration(float64(d) * b.jitter * (2*b.rand() - 1))
		d += offset
	}

	if d > b.ceiling {
		d = b.ceiling
	}
	if d < 0 {
		d = 0
	}

	// grow the undelayed schedule for the next call
	b.cur *= 2
	if b.cur > b.ceiling {
		b.cur = b.ceiling
	}

	return d
}

// Reset drops the schedule back to the base delay.
func (b *Backoff) Reset() {
	b.cur = b.base
}

// Current returns the next undelayed (jitter-free) delay in the schedule.
func (b *Backoff) Current() time.Duration {
	return b.cur
}
