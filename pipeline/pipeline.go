package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LBrownI/VeryFastImageGenerator/internal/backoff"
)

// ErrAlreadyRan is returned by Run on a Pipeline that has run before.
// A Pipeline is one-shot; construct a new one per run.
var ErrAlreadyRan = errors.New("pipeline already ran")

// Pipeline ties one producer, one bounded queue, and a pool of writer
// workers together for a single run. All state, including the counters,
// belongs to the instance: several pipelines can run in one process
// without sharing anything.
type Pipeline struct {
	cfg     *config
	source  GenerateFunc
	sink    PersistFunc
	metrics *Metrics
	ran     atomic.Bool
}

// New builds a pipeline around the two collaborators. Configuration
// problems are fatal here, before anything runs: every option value is
// validated and the first violation is returned wrapped in ErrBadConfig.
func New(source GenerateFunc, sink PersistFunc, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: frame source must not be nil", ErrBadConfig)
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: sink must not be nil", ErrBadConfig)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:     cfg,
		source:  source,
		sink:    sink,
		metrics: NewMetrics(),
	}, nil
}

// Metrics exposes the run's live counters, for progress displays. Values
// are exact per counter but mutually consistent only after Run returns.
func (p *Pipeline) Metrics() *Metrics { return p.metrics }

// Run executes the pipeline: it spawns the writer pool, produces frames
// on the calling goroutine until the configured bounds (or ctx) end the
// production phase, then drains every queued frame and joins the workers
// before returning the final snapshot.
//
// Cancelling ctx stops production at the next iteration boundary and
// releases a producer suspended in a full-queue push; frames already
// queued are still drained. No worker is interrupted mid-save, though
// sinks receive ctx and may honor it. With no frame budget, no duration,
// and a background context the run continues until canceled.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	if !p.ran.CompareAndSwap(false, true) {
		return Stats{}, ErrAlreadyRan
	}

	queue := newFrameQueue(p.cfg.capacity, p.cfg.policy, p.metrics, p.evictHook())

	// Cancellation and queue close are the same event: this wakes a
	// producer blocked on a full queue and turns the run into a drain.
	stop := context.AfterFunc(ctx, queue.Close)
	defer stop()

	started := time.Now()

	var writers errgroup.Group
	for i := 0; i < p.cfg.workers; i++ {
		w := &consumer{
			cfg:     p.cfg,
			queue:   queue,
			metrics: p.metrics,
			sink:    p.sink,
		}
		if p.cfg.maxAttempts > 1 {
			w.retry = backoff.New(
				backoffKind(p.cfg.backoffKind),
				p.cfg.backoffInitialDelay,
				p.cfg.backoffMaxDelay,
				p.cfg.backoffJitterFactor,
			)
		}
		writers.Go(func() error {
			return w.run(ctx)
		})
	}

	prod := &producer{
		cfg:     p.cfg,
		queue:   queue,
		pacer:   NewPacer(p.cfg.rate, started),
		metrics: p.metrics,
		source:  p.source,
	}
	prod.run(ctx, started)

	err := writers.Wait()
	p.metrics.markRunDone(time.Since(started))
	return p.metrics.Snapshot(), err
}

func (p *Pipeline) evictHook() func(*Frame) {
	if p.cfg.onFrameDropped == nil {
		return nil
	}
	fn := p.cfg.onFrameDropped
	return func(f *Frame) {
		fn(f.Seq, DropQueueFull)
	}
}

func backoffKind(kind BackoffKind) backoff.Kind {
	switch kind {
	case BackoffJittered:
		return backoff.Jittered
	case BackoffDecorrelated:
		return backoff.Decorrelated
	default:
		return backoff.Exponential
	}
}
