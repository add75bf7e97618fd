package scheduler

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/simtime"
)

// RetryPolicy schedules a failed spawn's retry delay via exponential
// backoff rather than a fixed tick, grounded on MKuranowski-WarsawGTFS's
// realtime/positions.Loop backoff.ExponentialBackOff configuration — here
// applied to simulated time instead of wall-clock retries, since a blocked
// spawn (no room / intersection contention, §7) should back off the same
// way a failed network call does: fast at first, slower if it keeps
// failing, capped so it never stalls forever.
type RetryPolicy struct {
	backoffs map[model.CommandKey]*backoff.ExponentialBackOff
}

// NewRetryPolicy returns an empty policy; each key gets its own backoff
// state the first time NextDelay sees it.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{backoffs: make(map[model.CommandKey]*backoff.ExponentialBackOff)}
}

// NextDelay returns how long to wait before retrying the command keyed by
// key, advancing that key's backoff state.
func (p *RetryPolicy) NextDelay(key model.CommandKey) simtime.D {
	b, ok := p.backoffs[key]
	if !ok {
		b = &backoff.ExponentialBackOff{
			InitialInterval:     1 * time.Second,
			RandomizationFactor: 0.2,
			Multiplier:          2,
			MaxInterval:         30 * time.Second,
			MaxElapsedTime:      0, // never gives up; the spawn command itself is cancelled by its caller if abandoned
			Clock:               backoff.SystemClock,
		}
		b.Reset()
		p.backoffs[key] = b
	}
	return simtime.D(b.NextBackOff())
}

// Clear drops a key's backoff state, called once a retried command
// finally succeeds.
func (p *RetryPolicy) Clear(key model.CommandKey) {
	delete(p.backoffs, key)
}
