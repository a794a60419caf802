package backoff

import "time"

// Kind selects the delay algorithm.
type Kind int

const (
	// Exponential is the plain doubling strategy (default).
	Exponential Kind = iota
	// Jittered randomizes each exponential delay by a jitter factor.
	Jittered
	// Decorrelated chains each delay off the previous one, AWS style.
	Decorrelated
)

// New builds a Strategy. Strategies are safe for concurrent use, but the
// stateful ones track one retry chain, so give each worker its own.
func New(kind Kind, initialDelay, maxDelay time.Duration, jitterFactor float64) Strategy {
	switch kind {
	case Jittered:
		return newJittered(initialDelay, maxDelay, jitterFactor)
	case Decorrelated:
		return newDecorrelated(initialDelay, maxDelay)
	default:
		return newExponential(initialDelay, maxDelay)
	}
}
