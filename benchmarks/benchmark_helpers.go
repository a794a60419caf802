package benchmarks

import (
	"context"
	"testing"
	"time"

	"github.com/LBrownI/VeryFastImageGenerator/pipeline"
)

// blankSource hands out zeroed payloads so benchmarks measure pipeline
// overhead rather than pixel generation.
func blankSource() pipeline.GenerateFunc {
	return func(width, height int) ([]byte, error) {
		return make([]byte, width*height*4), nil
	}
}

// discardSink accepts every frame without touching the disk.
func discardSink() pipeline.PersistFunc {
	return func(ctx context.Context, f *pipeline.Frame, path string) (int64, error) {
		return int64(len(f.Pixels)), nil
	}
}

// slowSink simulates storage that takes delay per frame.
func slowSink(delay time.Duration) pipeline.PersistFunc {
	return func(ctx context.Context, f *pipeline.Frame, path string) (int64, error) {
		time.Sleep(delay)
		return int64(len(f.Pixels)), nil
	}
}

// runOnce builds and runs one pipeline; pipelines are one-shot, so every
// benchmark iteration constructs a fresh one.
func runOnce(b *testing.B, source pipeline.GenerateFunc, sink pipeline.PersistFunc, opts ...pipeline.Option) pipeline.Stats {
	b.Helper()
	p, err := pipeline.New(source, sink, opts...)
	if err != nil {
		b.Fatal(err)
	}
	stats, err := p.Run(context.Background())
	if err != nil {
		b.Fatal(err)
	}
	return stats
}

// reportFrameRate derives frames/sec metrics from the benchmark timer, the
// way every throughput benchmark in this suite reports its numbers.
func reportFrameRate(b *testing.B, framesPerOp int64, workers int) {
	nsPerOp := float64(b.Elapsed().Nanoseconds()) / float64(b.N)
	framesPerSec := float64(framesPerOp) / (nsPerOp / 1e9)
	b.ReportMetric(framesPerSec, "frames/sec")
	if workers > 0 {
		b.ReportMetric(framesPerSec/float64(workers), "frames/sec/worker")
	}
}
