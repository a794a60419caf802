// Command vfig generates synthetic images at a target rate and persists
// them through a bounded-queue writer pool, then reports exact
// throughput and loss statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/LBrownI/VeryFastImageGenerator/internal/imaging"
	"github.com/LBrownI/VeryFastImageGenerator/internal/report"
	"github.com/LBrownI/VeryFastImageGenerator/pipeline"
)

const sessionFile = "vfig-sessions.json"

func main() {
	widthFlag := flag.Int("width", 1920, "Frame width in pixels")
	heightFlag := flag.Int("height", 1080, "Frame height in pixels")
	fpsFlag := flag.Float64("fps", 30, "Target generation rate in frames per second (0 = unlimited)")
	durationFlag := flag.Duration("duration", 10*time.Second, "Production phase length; with -fps it derives the frame budget")
	framesFlag := flag.Int64("frames", 0, "Explicit frame budget (0 = derive from fps and duration)")
	workersFlag := flag.Int("workers", 7, "Number of writer workers")
	queueFlag := flag.Int("queue", 64, "Bounded queue capacity")
	policyFlag := flag.String("policy", "block", "Overflow policy: 'block' or 'drop-oldest'")
	outFlag := flag.String("out", "output", "Output directory, created if missing")
	extFlag := flag.String("ext", "png", "Image format: png, jpg, jpeg, raw")
	prefixFlag := flag.String("prefix", "image_", "Artifact filename prefix")
	seedFlag := flag.Int64("seed", 0, "Noise seed (0 = derive from the clock)")
	throttleFlag := flag.Float64("throttle", 0, "Maximum saves per second across all workers (0 = off)")
	retriesFlag := flag.Int("retries", 1, "Persist attempts per frame (1 = no retry)")
	progressFlag := flag.Bool("progress", false, "Display a live progress bar")
	jsonFlag := flag.Bool("json", false, "Append a session record to "+sessionFile)
	quietFlag := flag.Bool("quiet", false, "Suppress the banner and summary table")
	flag.Parse()

	policy, err := parsePolicy(*policyFlag)
	if err != nil {
		fatal(err)
	}
	format, err := imaging.ParseFormat(*extFlag)
	if err != nil {
		fatal(err)
	}

	budget, productionWindow := resolveBounds(*framesFlag, *fpsFlag, *durationFlag)
	if budget == 0 && productionWindow == 0 {
		fmt.Println("Nothing to generate: frame budget is zero and no production window is set.")
		return
	}

	if err := os.MkdirAll(*outFlag, 0o755); err != nil {
		fatal(fmt.Errorf("cannot create output directory %s: %w", *outFlag, err))
	}

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	opts := []pipeline.Option{
		pipeline.WithDimensions(*widthFlag, *heightFlag),
		pipeline.WithRate(*fpsFlag),
		pipeline.WithFrameBudget(budget),
		pipeline.WithDuration(productionWindow),
		pipeline.WithWorkers(*workersFlag),
		pipeline.WithQueueCapacity(*queueFlag),
		pipeline.WithOverflowPolicy(policy),
		pipeline.WithOutputDir(*outFlag),
		pipeline.WithNaming(*prefixFlag, *extFlag),
	}
	if *throttleFlag > 0 {
		opts = append(opts, pipeline.WithWriteRateLimit(*throttleFlag, *workersFlag))
	}
	if *retriesFlag > 1 {
		opts = append(opts, pipeline.WithSaveRetries(*retriesFlag, 100*time.Millisecond))
	}

	var bar *progressbar.ProgressBar
	if *progressFlag {
		bar = makeProgressBar(budget)
		opts = append(opts,
			pipeline.WithOnFrameSaved(func(*pipeline.Frame, int64, error) { _ = bar.Add(1) }),
			pipeline.WithOnFrameDropped(func(uint64, pipeline.DropReason) { _ = bar.Add(1) }),
		)
	}

	p, err := pipeline.New(imaging.NoiseSource(seed), imaging.FileSink(format), opts...)
	if err != nil {
		fatal(err)
	}

	if !*quietFlag {
		printBanner(*widthFlag, *heightFlag, *fpsFlag, budget, productionWindow, *workersFlag, *queueFlag, policy, *outFlag, *extFlag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	stats, err := p.Run(ctx)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		fatal(err)
	}
	if ctx.Err() != nil {
		_, _ = report.Yellow.Fprintln(os.Stderr, "\ninterrupted: production stopped early, queued frames were drained")
	}

	if !*quietFlag {
		report.PrintSummary(os.Stdout, stats, countArtifacts(*outFlag, *prefixFlag, *extFlag))
	}

	if *jsonFlag {
		rec := report.NewRecord(started, report.RunConfig{
			Width:     *widthFlag,
			Height:    *heightFlag,
			Rate:      *fpsFlag,
			Frames:    budget,
			Duration:  productionWindow.String(),
			Workers:   *workersFlag,
			Capacity:  *queueFlag,
			Policy:    policy.String(),
			OutputDir: *outFlag,
			Extension: *extFlag,
		}, stats)
		if err := report.AppendSession(sessionFile, rec); err != nil {
			fatal(fmt.Errorf("cannot write session record: %w", err))
		}
		fmt.Printf("Appended session %s to %s\n", rec.RunID, sessionFile)
	}
}

// resolveBounds turns the flag surface into pipeline bounds. An explicit
// -frames wins; otherwise the budget derives from fps × duration, the
// original tool's contract. An unlimited-rate run without an explicit
// budget falls back to the duration as a wall-clock production window.
func resolveBounds(frames int64, fps float64, duration time.Duration) (budget int64, window time.Duration) {
	if frames > 0 {
		return frames, 0
	}
	if fps > 0 && duration > 0 {
		return int64(fps * duration.Seconds()), 0
	}
	return 0, duration
}

func parsePolicy(s string) (pipeline.OverflowPolicy, error) {
	switch s {
	case "block":
		return pipeline.BlockProducer, nil
	case "drop-oldest":
		return pipeline.DropOldest, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q (want 'block' or 'drop-oldest')", s)
	}
}

// countArtifacts reports how many files matching the run's naming pattern
// exist in dir, so the summary can verify the saved counter against the
// filesystem. Returns -1 when the directory cannot be scanned.
func countArtifacts(dir, prefix, ext string) int {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*."+ext))
	if err != nil {
		return -1
	}
	return len(matches)
}

func printBanner(width, height int, fps float64, budget int64, window time.Duration, workers, capacity int, policy pipeline.OverflowPolicy, out, ext string) {
	_, _ = report.Bold.Println("VeryFastImageGenerator")
	switch {
	case budget > 0:
		fmt.Printf("  %dx%d %s, %s frames at %g fps -> %s\n", width, height, ext, report.FormatNumber(budget), fps, out)
	default:
		fmt.Printf("  %dx%d %s, unlimited rate for %s -> %s\n", width, height, ext, window, out)
	}
	fmt.Printf("  workers=%d queue=%d policy=%s\n\n", workers, capacity, policy)
}

func makeProgressBar(budget int64) *progressbar.ProgressBar {
	total := budget
	if total == 0 {
		total = -1
	}
	return progressbar.NewOptions(int(total),
		progressbar.OptionSetDescription("Generating frames"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func fatal(err error) {
	_, _ = report.Red.Fprintf(os.Stderr, "vfig: %v\n", err)
	os.Exit(1)
}
