package pipeline

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ErrBadConfig wraps every configuration rejection returned by New.
// Invalid parameters are fatal before any goroutine starts; they are never
// clamped or silently ignored.
var ErrBadConfig = errors.New("invalid pipeline configuration")

// Option is a functional option for configuring a Pipeline.
type Option func(*config)

// BackoffKind selects the delay algorithm used between save retry
// attempts. It only matters together with WithSaveRetries.
type BackoffKind int

const (
	// BackoffExponential doubles the delay after every failed attempt.
	BackoffExponential BackoffKind = iota
	// BackoffJittered is exponential with a random jitter factor applied,
	// which avoids synchronized retry bursts across workers.
	BackoffJittered
	// BackoffDecorrelated uses AWS-style decorrelated jitter.
	BackoffDecorrelated
)

type config struct {
	width  int
	height int

	rate        float64
	frameBudget int64
	duration    time.Duration

	workers  int
	capacity int
	policy   OverflowPolicy

	outputDir string
	prefix    string
	extension string

	throttlePerSecond float64
	throttleBurst     int
	throttle          *rate.Limiter

	maxAttempts         int
	backoffKind         BackoffKind
	backoffInitialDelay time.Duration
	backoffMaxDelay     time.Duration
	backoffJitterFactor float64

	onFrameSaved   func(f *Frame, bytesWritten int64, err error)
	onFrameDropped func(seq uint64, reason DropReason)
}

func defaultConfig() *config {
	return &config{
		workers:             7,
		capacity:            64,
		policy:              BlockProducer,
		outputDir:           ".",
		prefix:              "image_",
		extension:           "png",
		maxAttempts:         1,
		backoffKind:         BackoffExponential,
		backoffInitialDelay: 100 * time.Millisecond,
		backoffMaxDelay:     5 * time.Second,
		backoffJitterFactor: 0.1,
	}
}

// WithDimensions sets the width and height passed to the frame source.
// There is no default; New rejects a pipeline without positive dimensions.
func WithDimensions(width, height int) Option {
	return func(cfg *config) {
		cfg.width = width
		cfg.height = height
	}
}

// WithRate sets the target production rate in frames per second.
// Zero (the default) disables pacing: the producer runs flat out and no
// frame is ever skipped for being behind schedule.
func WithRate(framesPerSecond float64) Option {
	return func(cfg *config) {
		cfg.rate = framesPerSecond
	}
}

// WithFrameBudget bounds the run to n produced-or-skipped frames.
// Zero (the default) means no frame bound; the run then ends with the
// duration bound or context cancellation.
func WithFrameBudget(n int64) Option {
	return func(cfg *config) {
		cfg.frameBudget = n
	}
}

// WithDuration bounds the production phase to d of wall-clock time.
// Zero (the default) means no duration bound. Draining queued frames is
// not covered by d; a run always drains what it enqueued.
func WithDuration(d time.Duration) Option {
	return func(cfg *config) {
		cfg.duration = d
	}
}

// WithWorkers sets the number of concurrent writer workers.
// Defaults to 7.
func WithWorkers(count int) Option {
	return func(cfg *config) {
		cfg.workers = count
	}
}

// WithQueueCapacity sets the bounded queue's fixed capacity.
// Defaults to 64.
func WithQueueCapacity(capacity int) Option {
	return func(cfg *config) {
		cfg.capacity = capacity
	}
}

// WithOverflowPolicy selects the behavior of a push into a full queue:
// BlockProducer (the default) suspends the producer, DropOldest evicts the
// oldest queued frame and never blocks.
func WithOverflowPolicy(policy OverflowPolicy) Option {
	return func(cfg *config) {
		cfg.policy = policy
	}
}

// WithOutputDir sets the directory frame files are written into. The
// directory must already exist; the pipeline does not create it.
// Defaults to the current directory.
func WithOutputDir(dir string) Option {
	return func(cfg *config) {
		cfg.outputDir = dir
	}
}

// WithNaming sets the artifact name pattern <prefix><seq>.<extension>.
// Defaults to image_<seq>.png.
func WithNaming(prefix, extension string) Option {
	return func(cfg *config) {
		cfg.prefix = prefix
		cfg.extension = extension
	}
}

// WithWriteRateLimit throttles sink calls across all workers to
// perSecond with the given burst. Useful to keep a shared disk or a
// remote store from being overwhelmed. Off by default.
//
// Example:
//
//	WithWriteRateLimit(120, 8) // at most 120 saves/sec, bursts of 8
func WithWriteRateLimit(perSecond float64, burst int) Option {
	return func(cfg *config) {
		cfg.throttlePerSecond = perSecond
		cfg.throttleBurst = burst
	}
}

// WithSaveRetries enables retrying failed saves. maxAttempts is the total
// number of attempts per frame (1, the default, means no retry);
// initialDelay seeds the backoff between attempts. A frame counts as
// save-failed once, after its final attempt fails.
func WithSaveRetries(maxAttempts int, initialDelay time.Duration) Option {
	return func(cfg *config) {
		cfg.maxAttempts = maxAttempts
		if initialDelay > 0 {
			cfg.backoffInitialDelay = initialDelay
		}
	}
}

// WithRetryBackoff selects the retry delay algorithm and its bounds.
// jitterFactor only applies to BackoffJittered and must be in [0, 1].
func WithRetryBackoff(kind BackoffKind, initialDelay, maxDelay time.Duration, jitterFactor float64) Option {
	return func(cfg *config) {
		cfg.backoffKind = kind
		cfg.backoffInitialDelay = initialDelay
		cfg.backoffMaxDelay = maxDelay
		cfg.backoffJitterFactor = jitterFactor
	}
}

// WithOnFrameSaved registers a callback invoked once per dequeued frame
// after its save completes, retries included: err is nil on success.
// Called concurrently from worker goroutines with the queue lock
// released; keep it fast.
func WithOnFrameSaved(fn func(f *Frame, bytesWritten int64, err error)) Option {
	return func(cfg *config) {
		cfg.onFrameSaved = fn
	}
}

// WithOnFrameDropped registers a callback invoked whenever a frame is
// abandoned before reaching storage: skipped by the pacer, displaced from
// a full queue, or failed generation. Called outside the queue lock.
func WithOnFrameDropped(fn func(seq uint64, reason DropReason)) Option {
	return func(cfg *config) {
		cfg.onFrameDropped = fn
	}
}

func (cfg *config) validate() error {
	if cfg.width <= 0 || cfg.height <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrBadConfig, cfg.width, cfg.height)
	}
	if cfg.rate < 0 {
		return fmt.Errorf("%w: rate must be >= 0, got %g", ErrBadConfig, cfg.rate)
	}
	if cfg.frameBudget < 0 {
		return fmt.Errorf("%w: frame budget must be >= 0, got %d", ErrBadConfig, cfg.frameBudget)
	}
	if cfg.duration < 0 {
		return fmt.Errorf("%w: duration must be >= 0, got %v", ErrBadConfig, cfg.duration)
	}
	if cfg.workers < 1 {
		return fmt.Errorf("%w: need at least one worker, got %d", ErrBadConfig, cfg.workers)
	}
	if cfg.capacity < 1 {
		return fmt.Errorf("%w: queue capacity must be >= 1, got %d", ErrBadConfig, cfg.capacity)
	}
	if cfg.policy != BlockProducer && cfg.policy != DropOldest {
		return fmt.Errorf("%w: unknown overflow policy %d", ErrBadConfig, int(cfg.policy))
	}
	if cfg.extension == "" {
		return fmt.Errorf("%w: file extension must not be empty", ErrBadConfig)
	}
	if cfg.throttlePerSecond < 0 || (cfg.throttlePerSecond > 0 && cfg.throttleBurst < 1) {
		return fmt.Errorf("%w: write rate limit needs perSecond > 0 and burst >= 1, got %g/%d",
			ErrBadConfig, cfg.throttlePerSecond, cfg.throttleBurst)
	}
	if cfg.maxAttempts < 1 {
		return fmt.Errorf("%w: save attempts must be >= 1, got %d", ErrBadConfig, cfg.maxAttempts)
	}
	if cfg.backoffInitialDelay < 0 || cfg.backoffMaxDelay < 0 {
		return fmt.Errorf("%w: backoff delays must be >= 0", ErrBadConfig)
	}
	if cfg.backoffJitterFactor < 0 || cfg.backoffJitterFactor > 1 {
		return fmt.Errorf("%w: jitter factor must be in [0, 1], got %g", ErrBadConfig, cfg.backoffJitterFactor)
	}

	if cfg.throttlePerSecond > 0 {
		cfg.throttle = rate.NewLimiter(rate.Limit(cfg.throttlePerSecond), cfg.throttleBurst)
	}
	return nil
}
