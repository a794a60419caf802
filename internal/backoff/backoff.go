package backoff

import (
	"math/rand"
	"sync"
	"time"
)

// attemptCap keeps the shift in calcExponentialDelay from overflowing.
const attemptCap = 63

// exponential doubles the delay after every failed attempt:
// initialDelay * 2^attempt, capped at maxDelay.
type exponential struct {
	initialDelay time.Duration
	maxDelay     time.Duration
}

func newExponential(initialDelay, maxDelay time.Duration) *exponential {
	return &exponential{initialDelay: initialDelay, maxDelay: maxDelay}
}

func (e *exponential) NextDelay(attemptNumber int, lastError error) time.Duration {
	return calcExponentialDelay(attemptNumber, e.initialDelay, e.maxDelay)
}

func (e *exponential) Reset() {}

// jittered is exponential backoff with a random multiplier of
// 1 ± jitterFactor, which keeps a pool of workers that failed together
// from retrying together.
type jittered struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	jitterFactor float64

	mu  sync.Mutex
	rng *rand.Rand
}

func newJittered(initialDelay, maxDelay time.Duration, jitterFactor float64) *jittered {
	return &jittered{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		jitterFactor: clampFloat(jitterFactor, 0, 1),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- retry jitter, not security sensitive
	}
}

func (j *jittered) NextDelay(attemptNumber int, lastError error) time.Duration {
	if attemptNumber < 0 {
		return 0
	}
	base := calcExponentialDelay(attemptNumber, j.initialDelay, j.maxDelay)

	j.mu.Lock()
	multiplier := 1.0 + (j.rng.Float64()*2-1)*j.jitterFactor
	j.mu.Unlock()

	delay := time.Duration(float64(base) * multiplier)
	if delay < 0 {
		return 0
	}
	if delay > j.maxDelay {
		return j.maxDelay
	}
	return delay
}

func (j *jittered) Reset() {}

// decorrelated implements AWS-style decorrelated jitter:
// delay = random(initialDelay, prevDelay*3), capped at maxDelay. Each
// delay depends on the previous one rather than the attempt number, which
// spreads concurrent retry chains apart over time.
type decorrelated struct {
	initialDelay time.Duration
	maxDelay     time.Duration

	mu        sync.Mutex
	prevDelay time.Duration
	rng       *rand.Rand
}

func newDecorrelated(initialDelay, maxDelay time.Duration) *decorrelated {
	return &decorrelated{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		prevDelay:    initialDelay,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- retry jitter, not security sensitive
	}
}

func (d *decorrelated) NextDelay(attemptNumber int, lastError error) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if attemptNumber == 0 {
		d.prevDelay = d.initialDelay
		return d.initialDelay
	}

	upper := d.prevDelay * 3
	if upper > d.maxDelay {
		upper = d.maxDelay
	}
	span := upper - d.initialDelay
	if span <= 0 {
		d.prevDelay = d.initialDelay
		return d.initialDelay
	}

	delay := d.initialDelay + time.Duration(d.rng.Int63n(int64(span)))
	d.prevDelay = delay
	return delay
}

func (d *decorrelated) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prevDelay = d.initialDelay
}

func calcExponentialDelay(attemptNumber int, initialDelay, maxDelay time.Duration) time.Duration {
	if attemptNumber < 0 {
		return 0
	}
	if attemptNumber >= attemptCap {
		return maxDelay
	}

	delay := time.Duration(int64(1)<<uint(attemptNumber)) * initialDelay
	if delay > maxDelay || delay < 0 {
		return maxDelay
	}
	return delay
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
