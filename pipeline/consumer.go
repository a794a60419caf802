package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/LBrownI/VeryFastImageGenerator/internal/backoff"
)

// consumer is one writer worker. All workers of a run share the queue,
// the metrics, and the optional write throttle; each owns its retry
// backoff chain.
type consumer struct {
	cfg     *config
	queue   *frameQueue
	metrics *Metrics
	sink    PersistFunc

	// retry is nil unless maxAttempts > 1.
	retry backoff.Strategy
}

// run drains the queue until it reports end of stream: closed and empty,
// observed in one atomic step by Pop. A failed save is counted and the
// worker moves on; nothing a frame does terminates a worker.
func (c *consumer) run(ctx context.Context) error {
	for {
		frame, ok := c.queue.Pop()
		if !ok {
			debugLog("worker exiting: stream drained")
			return nil
		}
		c.handle(ctx, frame)
	}
}

func (c *consumer) handle(ctx context.Context, frame *Frame) {
	if c.cfg.throttle != nil {
		// On cancellation Wait returns early; the save still runs so the
		// frame ends up accounted either as saved or as failed.
		_ = c.cfg.throttle.Wait(ctx)
	}

	path := c.framePath(frame.Seq)
	n, err := c.persistWithRetry(ctx, frame, path)
	if err != nil {
		c.metrics.saveFailed.Add(1)
	} else {
		c.metrics.saved.Add(1)
		c.metrics.bytesWritten.Add(n)
	}

	if c.cfg.onFrameSaved != nil {
		c.cfg.onFrameSaved(frame, n, err)
	}
}

// persistWithRetry drives up to maxAttempts persist calls with backoff
// between them. The frame is counted once by the caller, based on the
// final outcome. Cancellation during a backoff wait abandons the
// remaining attempts and reports the last error.
func (c *consumer) persistWithRetry(ctx context.Context, frame *Frame, path string) (int64, error) {
	if c.retry != nil {
		c.retry.Reset()
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retry.NextDelay(attempt-1, lastErr)):
			case <-ctx.Done():
				return 0, lastErr
			}
		}

		n, err := c.persist(ctx, frame, path)
		if err == nil {
			return n, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

// persist invokes the sink with panic containment, mirroring the
// producer's treatment of the source: a panicking sink is a failed save,
// not a dead worker.
func (c *consumer) persist(ctx context.Context, frame *Frame, path string) (n int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 64<<10)
			stackLen := runtime.Stack(buf, false)
			err = fmt.Errorf("sink panic: %v\nstack trace:\n%s", r, buf[:stackLen])
		}
	}()
	return c.sink(ctx, frame, path)
}

func (c *consumer) framePath(seq uint64) string {
	return filepath.Join(c.cfg.outputDir, fmt.Sprintf("%s%d.%s", c.cfg.prefix, seq, c.cfg.extension))
}
