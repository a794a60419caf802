package benchmarks

import (
	"fmt"
	"testing"
	"time"

	"github.com/LBrownI/VeryFastImageGenerator/internal/backoff"
	"github.com/LBrownI/VeryFastImageGenerator/pipeline"
)

// =============================================================================
// Policy Comparison Benchmarks - Head-to-Head Overflow Behavior
// =============================================================================

// BenchmarkPolicy_SlowSinkBackpressure compares the overflow policies under
// storage that cannot keep up. BlockProducer waits for the writers, so it
// saves everything slowly; DropOldest sheds load to stay on pace, so saved
// frames per second and the saved fraction are the honest comparison.
func BenchmarkPolicy_SlowSinkBackpressure(b *testing.B) {
	policies := []struct {
		name   string
		policy pipeline.OverflowPolicy
	}{
		{"BlockProducer", pipeline.BlockProducer},
		{"DropOldest", pipeline.DropOldest},
	}
	const frames = 500

	for _, tc := range policies {
		b.Run(tc.name, func(b *testing.B) {
			var saved int64
			for i := 0; i < b.N; i++ {
				stats := runOnce(b, blankSource(), slowSink(100*time.Microsecond),
					pipeline.WithDimensions(8, 8),
					pipeline.WithFrameBudget(frames),
					pipeline.WithWorkers(4),
					pipeline.WithQueueCapacity(8),
					pipeline.WithOverflowPolicy(tc.policy),
				)
				saved += stats.Saved
			}
			b.StopTimer()

			nsPerOp := float64(b.Elapsed().Nanoseconds()) / float64(b.N)
			savedPerOp := float64(saved) / float64(b.N)
			b.ReportMetric(savedPerOp/(nsPerOp/1e9), "saved/sec")
			b.ReportMetric(savedPerOp/frames, "saved_fraction")
		})
	}
}

// BenchmarkContention_CapacityOne measures the pathological queue: every
// push and pop fights for the same single slot.
func BenchmarkContention_CapacityOne(b *testing.B) {
	workerCounts := []int{1, 4, 16}
	const frames = 2000

	for _, workers := range workerCounts {
		b.Run(fmt.Sprintf("Workers_%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				runOnce(b, blankSource(), discardSink(),
					pipeline.WithDimensions(8, 8),
					pipeline.WithFrameBudget(frames),
					pipeline.WithWorkers(workers),
					pipeline.WithQueueCapacity(1),
				)
			}
			b.StopTimer()

			reportFrameRate(b, frames, workers)
		})
	}
}

// =============================================================================
// Retry Backoff Benchmarks - Delay Computation Cost
// =============================================================================

func BenchmarkBackoff_Strategies(b *testing.B) {
	kinds := []struct {
		name string
		kind backoff.Kind
	}{
		{"Exponential", backoff.Exponential},
		{"Jittered", backoff.Jittered},
		{"Decorrelated", backoff.Decorrelated},
	}

	for _, tc := range kinds {
		b.Run(tc.name, func(b *testing.B) {
			s := backoff.New(tc.kind, time.Millisecond, time.Second, 0.2)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = s.NextDelay(i%10, nil)
			}
		})
	}
}
