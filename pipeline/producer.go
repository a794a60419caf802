package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// producer drives the generation side of a run: termination checks,
// pacing, sequence assignment, and the single queue close that ends the
// stream. There is exactly one producer per run.
type producer struct {
	cfg     *config
	queue   *frameQueue
	pacer   *Pacer
	metrics *Metrics
	source  GenerateFunc
}

// run produces frames until the frame budget is spent, the production
// duration elapses, or ctx is canceled, then closes the queue and records
// the producer-phase timer. Per-frame failures never abort the run: a
// source error, empty buffer, or panic counts as a failed generation and
// the loop moves on. Every sequence number is consumed exactly once,
// including for skipped and failed frames.
func (p *producer) run(ctx context.Context, started time.Time) {
	defer func() {
		p.queue.Close()
		p.metrics.markProducerDone(time.Since(started))
		debugLog("producer done: produced=%d enqueued=%d",
			p.metrics.produced.Load(), p.metrics.enqueued.Load())
	}()

	for seq := uint64(0); ; seq++ {
		if ctx.Err() != nil {
			return
		}
		if p.cfg.frameBudget > 0 && int64(seq) >= p.cfg.frameBudget {
			return
		}
		if p.cfg.duration > 0 && time.Since(started) >= p.cfg.duration {
			return
		}

		if p.pacer.ShouldSkip(seq) {
			p.metrics.droppedByDelay.Add(1)
			p.dropped(seq, DropBehindSchedule)
			continue
		}

		pixels, err := p.generate()
		if err != nil || len(pixels) == 0 {
			p.metrics.generateFailed.Add(1)
			p.dropped(seq, DropGenerateFailed)
			// Keep the schedule even on failure, otherwise a source that
			// fails instantly turns the loop into a busy spin.
			if p.pacer.Wait(ctx, seq+1) != nil {
				return
			}
			continue
		}

		frame := &Frame{
			Pixels: pixels,
			Width:  p.cfg.width,
			Height: p.cfg.height,
			Seq:    seq,
		}
		p.metrics.produced.Add(1)

		if err := p.queue.Push(frame); err != nil {
			// Closed underneath us: the run is shutting down.
			return
		}
		p.metrics.enqueued.Add(1)

		if p.pacer.Wait(ctx, seq+1) != nil {
			return
		}
	}
}

// generate invokes the frame source with panic containment so a
// misbehaving source degrades to a counted failure instead of tearing the
// run down.
func (p *producer) generate() (pixels []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 64<<10)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("frame source panic: %v\nstack trace:\n%s", r, buf[:n])
		}
	}()
	return p.source(p.cfg.width, p.cfg.height)
}

func (p *producer) dropped(seq uint64, reason DropReason) {
	if p.cfg.onFrameDropped != nil {
		p.cfg.onFrameDropped(seq, reason)
	}
}
