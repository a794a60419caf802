package pipeline

import "context"

// Frame is one generated image on its way from the producer to a writer
// worker. The pixel buffer is owned by exactly one goroutine at a time:
// the producer fills it, the queue holds it, and whichever worker dequeues
// it consumes it. It is never shared or copied.
type Frame struct {
	// Pixels is the raw payload handed to the sink. The pipeline treats it
	// as opaque bytes; the bundled sinks interpret it as tightly packed
	// RGBA, 4 bytes per pixel.
	Pixels []byte

	// Width and Height describe the payload so a sink can reconstruct the
	// image without consulting configuration.
	Width  int
	Height int

	// Seq is assigned by the producer and strictly increases for the
	// lifetime of one run. Skipped and dropped frames still consume a
	// sequence number, so gaps in persisted output are expected and name
	// collisions are impossible.
	Seq uint64
}

// GenerateFunc produces the pixel payload for one frame. It is called only
// by the producer goroutine. Returning an error (or an empty buffer) marks
// the frame as failed generation; the run continues with the next frame.
// It must not block indefinitely.
type GenerateFunc func(width, height int) ([]byte, error)

// PersistFunc durably stores one frame at path and reports the number of
// bytes written. It is called concurrently by writer workers with the
// queue lock released. A returned error counts the frame as a failed save;
// it must never report success for a corrupt or partial write. The context
// is the run context: implementations doing slow I/O should honor its
// cancellation so shutdown can drain promptly.
type PersistFunc func(ctx context.Context, frame *Frame, path string) (int64, error)

// OverflowPolicy selects what a push does when the queue is already full.
type OverflowPolicy int

const (
	// BlockProducer suspends the producer until a worker frees a slot or
	// the run shuts down. Every generated frame is eventually enqueued,
	// at the cost of pacing fidelity under sustained backpressure.
	BlockProducer OverflowPolicy = iota

	// DropOldest evicts the single oldest queued frame to admit the new
	// one, never blocking the producer. The eviction is counted as
	// dropped-by-queue-full. This preserves the production rate when the
	// sinks cannot keep up.
	DropOldest
)

// String returns the flag-style name of the policy.
func (p OverflowPolicy) String() string {
	switch p {
	case BlockProducer:
		return "block"
	case DropOldest:
		return "drop-oldest"
	default:
		return "unknown"
	}
}

// DropReason explains why a frame was abandoned before reaching storage.
type DropReason int

const (
	// DropBehindSchedule means the pacer found the frame's entire slot
	// already elapsed, so it was never generated.
	DropBehindSchedule DropReason = iota

	// DropQueueFull means the frame was enqueued and later evicted to
	// make room under the DropOldest policy.
	DropQueueFull

	// DropGenerateFailed means the frame source returned an error, an
	// empty buffer, or panicked.
	DropGenerateFailed
)

func (r DropReason) String() string {
	switch r {
	case DropBehindSchedule:
		return "behind-schedule"
	case DropQueueFull:
		return "queue-full"
	case DropGenerateFailed:
		return "generate-failed"
	default:
		return "unknown"
	}
}
