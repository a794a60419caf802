// Package backoff implements the retry delay strategies behind the
// pipeline's opt-in save-retry extension. A worker holds one Strategy per
// goroutine and resets it between frames.
package backoff

import "time"

// Strategy defines how the delay before a retry attempt is calculated.
type Strategy interface {
	// NextDelay returns the wait before retry attempt attemptNumber
	// (0-indexed: 0 is the first retry after the initial failure).
	// lastError lets adaptive strategies react to the failure kind.
	NextDelay(attemptNumber int, lastError error) time.Duration

	// Reset clears internal state. Call it when starting a new frame so
	// stateful strategies (decorrelated jitter) do not carry the previous
	// frame's delay chain forward.
	Reset()
}
