package pipeline

import (
	"sync/atomic"
	"time"
)

// Metrics is the counter registry for a single run. Every counter is an
// independent atomic: reads are exact per counter but there is no
// cross-counter snapshot until all goroutines have joined, at which point
// Snapshot returns stable values. A Pipeline owns one Metrics instance;
// nothing here is process-global, so multiple pipelines can run in one
// process (and in one test) without interfering.
type Metrics struct {
	produced           atomic.Int64
	enqueued           atomic.Int64
	droppedByDelay     atomic.Int64
	droppedByQueueFull atomic.Int64
	generateFailed     atomic.Int64
	saved              atomic.Int64
	saveFailed         atomic.Int64
	bytesWritten       atomic.Int64

	producerNanos atomic.Int64
	totalNanos    atomic.Int64
}

// NewMetrics returns a zeroed registry.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Produced is the number of frames whose generation completed successfully.
func (m *Metrics) Produced() int64 { return m.produced.Load() }

// Enqueued is the number of frames admitted into the queue.
func (m *Metrics) Enqueued() int64 { return m.enqueued.Load() }

// DroppedByDelay is the number of frames skipped because their entire
// schedule slot had already elapsed before generation began.
func (m *Metrics) DroppedByDelay() int64 { return m.droppedByDelay.Load() }

// DroppedByQueueFull is the number of frames evicted from a full queue
// under the DropOldest policy.
func (m *Metrics) DroppedByQueueFull() int64 { return m.droppedByQueueFull.Load() }

// GenerateFailed is the number of frames abandoned because the source
// returned an error, an empty buffer, or panicked.
func (m *Metrics) GenerateFailed() int64 { return m.generateFailed.Load() }

// Saved is the number of frames persisted successfully.
func (m *Metrics) Saved() int64 { return m.saved.Load() }

// SaveFailed is the number of frames whose final persist attempt failed.
func (m *Metrics) SaveFailed() int64 { return m.saveFailed.Load() }

// BytesWritten is the total bytes reported by successful persists.
func (m *Metrics) BytesWritten() int64 { return m.bytesWritten.Load() }

func (m *Metrics) markProducerDone(elapsed time.Duration) {
	m.producerNanos.Store(int64(elapsed))
}

func (m *Metrics) markRunDone(elapsed time.Duration) {
	m.totalNanos.Store(int64(elapsed))
}

// Snapshot copies every counter into a Stats value. Call after Run returns
// for stable, mutually consistent numbers; calling mid-run yields live
// values that are only per-counter consistent.
func (m *Metrics) Snapshot() Stats {
	return Stats{
		Produced:           m.produced.Load(),
		Enqueued:           m.enqueued.Load(),
		DroppedByDelay:     m.droppedByDelay.Load(),
		DroppedByQueueFull: m.droppedByQueueFull.Load(),
		GenerateFailed:     m.generateFailed.Load(),
		Saved:              m.saved.Load(),
		SaveFailed:         m.saveFailed.Load(),
		BytesWritten:       m.bytesWritten.Load(),
		ProducerElapsed:    time.Duration(m.producerNanos.Load()),
		TotalElapsed:       time.Duration(m.totalNanos.Load()),
	}
}

// Stats is a read-only snapshot of a run's counters and timers.
type Stats struct {
	Produced           int64 `json:"produced"`
	Enqueued           int64 `json:"enqueued"`
	DroppedByDelay     int64 `json:"dropped_by_delay"`
	DroppedByQueueFull int64 `json:"dropped_by_queue_full"`
	GenerateFailed     int64 `json:"generate_failed"`
	Saved              int64 `json:"saved"`
	SaveFailed         int64 `json:"save_failed"`
	BytesWritten       int64 `json:"bytes_written"`

	// ProducerElapsed covers the production phase only: run start until
	// the producer closed the queue. TotalElapsed additionally covers the
	// drain until the last worker joined.
	ProducerElapsed time.Duration `json:"producer_elapsed_ns"`
	TotalElapsed    time.Duration `json:"total_elapsed_ns"`
}

// GeneratedPerSecond is the effective production rate over the producer
// phase. Zero when the phase duration was not recorded.
func (s Stats) GeneratedPerSecond() float64 {
	if s.ProducerElapsed <= 0 {
		return 0
	}
	return float64(s.Produced) / s.ProducerElapsed.Seconds()
}

// SavedPerSecond is the effective persistence rate over the whole run.
// Zero when the run duration was not recorded.
func (s Stats) SavedPerSecond() float64 {
	if s.TotalElapsed <= 0 {
		return 0
	}
	return float64(s.Saved) / s.TotalElapsed.Seconds()
}
