package pipeline

import (
	"context"
	"time"
)

// Pacer aligns production to a target frame rate. Every deadline derives
// from the single run-start anchor, never from the previous frame's
// completion time, so a late frame cannot shift the schedule of every
// frame after it; the schedule realigns by skipping instead of drifting.
type Pacer struct {
	start time.Time
	rate  float64
}

// NewPacer anchors a pacer at start. rate is frames per second; zero
// disables pacing entirely: ShouldSkip never fires and Wait never
// suspends.
func NewPacer(rate float64, start time.Time) *Pacer {
	return &Pacer{start: start, rate: rate}
}

// Deadline is the ideal wall-clock instant for work on frame i to begin:
// start + i/rate. The offset is computed from i in one step rather than
// accumulated, so rounding error does not compound over long runs. With
// pacing disabled the anchor itself is returned.
func (p *Pacer) Deadline(i uint64) time.Time {
	if p.rate <= 0 {
		return p.start
	}
	return p.start.Add(time.Duration(float64(i) / p.rate * float64(time.Second)))
}

// ShouldSkip reports whether frame i is irrecoverably behind schedule,
// meaning its entire slot has already elapsed: the clock has reached the
// deadline of frame i+1 before generation for frame i even began. Lateness
// within the slot is not enough to skip, so timer wake-up overshoot after
// Wait never discards an on-time frame. A skipped frame still consumes its
// sequence number.
func (p *Pacer) ShouldSkip(i uint64) bool {
	if p.rate <= 0 {
		return false
	}
	return !time.Now().Before(p.Deadline(i + 1))
}

// Wait suspends without spinning until frame i's deadline, returning
// immediately when pacing is disabled or the deadline is already past.
// Cancellation wins over the deadline and returns the context error.
func (p *Pacer) Wait(ctx context.Context, i uint64) error {
	if p.rate <= 0 {
		return nil
	}
	wait := time.Until(p.Deadline(i))
	if wait <= 0 {
		return nil
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rate reports the configured frames per second; zero means unlimited.
func (p *Pacer) Rate() float64 { return p.rate }
