package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/LBrownI/VeryFastImageGenerator/pipeline"
)

// Color helpers shared with the CLI.
var (
	Bold   = color.New(color.Bold)
	Green  = color.New(color.FgGreen)
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
)

// PrintSummary renders the final run report: the counter table, the
// timers, the effective rates, and the on-disk verification line.
// filesOnDisk < 0 means the caller did not count files.
func PrintSummary(w io.Writer, stats pipeline.Stats, filesOnDisk int) {
	printSectionHeader(w, "RUN SUMMARY")

	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Count")
	_ = table.Append("Frames generated", FormatNumber(stats.Produced))
	_ = table.Append("Frames enqueued", FormatNumber(stats.Enqueued))
	_ = table.Append("Frames saved", FormatNumber(stats.Saved))
	_ = table.Append("Save failures", FormatNumber(stats.SaveFailed))
	_ = table.Append("Skipped (behind schedule)", FormatNumber(stats.DroppedByDelay))
	_ = table.Append("Evicted (queue full)", FormatNumber(stats.DroppedByQueueFull))
	_ = table.Append("Generation failures", FormatNumber(stats.GenerateFailed))
	_ = table.Append("Bytes written", FormatBytes(stats.BytesWritten))
	if err := table.Render(); err != nil {
		colorFprintLn(Red, w, "error rendering summary table:", err)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Producer phase:    %s\n", FormatDuration(stats.ProducerElapsed))
	fmt.Fprintf(w, "  Total with drain:  %s\n", FormatDuration(stats.TotalElapsed))
	fmt.Fprintf(w, "  Generation rate:   %.2f fps\n", stats.GeneratedPerSecond())
	fmt.Fprintf(w, "  Save rate:         %.2f fps\n", stats.SavedPerSecond())

	if lost := stats.DroppedByDelay + stats.DroppedByQueueFull + stats.SaveFailed + stats.GenerateFailed; lost > 0 {
		colorFprintf(Yellow, w, "  %s frames never reached storage\n", FormatNumber(lost))
	}

	if filesOnDisk >= 0 {
		if int64(filesOnDisk) == stats.Saved {
			colorFprintf(Green, w, "  Output directory verified: %s files on disk\n", FormatNumber(int64(filesOnDisk)))
		} else {
			colorFprintf(Red, w, "  Output mismatch: %s files on disk, %s saves counted\n",
				FormatNumber(int64(filesOnDisk)), FormatNumber(stats.Saved))
		}
	}
	fmt.Fprintln(w)
}

func printSectionHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	colorFprintLn(Bold, w, "═══════════════════════════════════════════════════════════")
	colorFprintLn(Bold, w, title)
	colorFprintLn(Bold, w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w)
}

func colorFprintLn(c *color.Color, w io.Writer, a ...any) {
	_, _ = c.Fprintln(w, a...)
}

func colorFprintf(c *color.Color, w io.Writer, format string, a ...any) {
	_, _ = c.Fprintf(w, format, a...)
}
