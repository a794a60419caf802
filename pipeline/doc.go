// Package pipeline implements a bounded-queue producer/consumer pipeline
// that generates synthetic images at a target rate and persists them
// through a pool of writer workers, tracking throughput and loss exactly.
//
// The primary type is Pipeline: one producer paced against a wall-clock
// schedule, a fixed-capacity queue with a configurable overflow policy,
// and N concurrent writers draining it. The pixel source and the persist
// sink are plugged in as functions, so the core never depends on codecs
// or storage.
//
// # Basic Usage
//
//	p, err := pipeline.New(source, sink,
//	    pipeline.WithDimensions(1920, 1080),
//	    pipeline.WithRate(30),
//	    pipeline.WithDuration(10*time.Second),
//	    pipeline.WithWorkers(7),
//	)
//	if err != nil {
//	    return err
//	}
//	stats, err := p.Run(ctx)
//
// # Pacing
//
// With a target rate, frame i's deadline is anchored to the run start:
// start + i/rate. A frame whose entire slot already elapsed before its
// generation began is skipped (counted as dropped by delay) rather than
// produced late, so one slow frame never shifts the schedule of every
// frame after it. Rate 0 disables pacing entirely.
//
// # Overflow
//
// When the queue is full, BlockProducer suspends the producer until a
// writer frees a slot; DropOldest evicts the oldest queued frame, counts
// it, and admits the new one without blocking. DropOldest preserves the
// production rate when storage cannot keep up.
//
// # Shutdown
//
// The producer closes the queue when its budget, duration, or context
// ends; workers drain every remaining frame and exit when they observe
// closed-and-empty in a single atomic step. Cancelling ctx feeds the same
// path, so a run always drains what it enqueued and the accounting
// identity enqueued == saved + saveFailed + droppedByQueueFull holds once
// Run returns.
//
// # Accounting
//
// Every frame consumes a sequence number exactly once. The Metrics
// registry counts produced, enqueued, both drop causes, failed
// generations, saves, failed saves, and bytes written, each independently
// atomic; Stats adds the producer-phase and whole-run timers.
//
// # Configuration Options
//
//   - WithDimensions(w, h): frame size handed to the source (required)
//   - WithRate(fps): target production rate (default: 0, unlimited)
//   - WithFrameBudget(n) / WithDuration(d): production bounds
//   - WithWorkers(n): writer pool size (default: 7)
//   - WithQueueCapacity(n) / WithOverflowPolicy(p): queue behavior
//   - WithOutputDir(dir) / WithNaming(prefix, ext): artifact naming
//   - WithWriteRateLimit(perSecond, burst): throttle sink calls
//   - WithSaveRetries(attempts, delay) / WithRetryBackoff(...): retry
//     failed saves before counting them lost (off by default)
//   - WithOnFrameSaved(fn) / WithOnFrameDropped(fn): per-event hooks
//
// # Error Handling
//
// Per-frame failures never abort a run: source errors and panics count as
// failed generations, sink errors and panics as failed saves. Only
// configuration problems are fatal, rejected by New before anything
// starts. Panics are recovered with their stack traces attached.
package pipeline
