// Command plotstats renders throughput charts from the session records
// that vfig -json appends, one PNG per frame resolution. Each line tracks
// one configuration family (overflow policy and queue capacity) across
// worker counts, with error bars spanning the observed min and max.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/LBrownI/VeryFastImageGenerator/internal/report"
)

// sample holds the throughput spread observed at one worker count.
type sample struct {
	x      float64
	min    float64
	median float64
	max    float64
}

// samplePoints implements plotter.XYer and plotter.YErrorer so each series
// renders as a median line with min/max error bars.
type samplePoints []sample

func (s samplePoints) Len() int                { return len(s) }
func (s samplePoints) XY(i int) (x, y float64) { return s[i].x, s[i].median }
func (s samplePoints) YError(i int) (low, high float64) {
	return s[i].median - s[i].min, s[i].max - s[i].median
}

// workerTicks pins X-axis ticks to the worker counts that actually appear
// in the data instead of letting the axis interpolate fractional workers.
type workerTicks []float64

func (w workerTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for _, pos := range w {
		if pos >= min && pos <= max {
			ticks = append(ticks, plot.Tick{
				Value: pos,
				Label: strconv.FormatFloat(pos, 'f', -1, 64),
			})
		}
	}
	return ticks
}

func main() {
	jsonFile := flag.String("jsonfile", "vfig-sessions.json", "Path to the session record file written by vfig -json")
	outputPrefix := flag.String("out", "throughput_graph", "Output image filename prefix")
	metricFlag := flag.String("metric", "saved", "Throughput to chart: 'generated' or 'saved'")
	flag.Parse()

	if *metricFlag != "generated" && *metricFlag != "saved" {
		fmt.Fprintf(os.Stderr, "unknown metric %q (want 'generated' or 'saved')\n", *metricFlag)
		os.Exit(1)
	}

	sessions, err := report.LoadSessions(*jsonFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading sessions: %v\n", err)
		os.Exit(1)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "No session records to chart.")
		os.Exit(1)
	}

	// Group by resolution -> configuration family -> worker count -> fps
	// samples. Every run of the same shape contributes one sample.
	byResolution := make(map[string]map[string]map[float64][]float64)
	for _, rec := range sessions {
		resolution := fmt.Sprintf("%dx%d", rec.Config.Width, rec.Config.Height)
		family := fmt.Sprintf("%s queue=%d", rec.Config.Policy, rec.Config.Capacity)
		x := float64(rec.Config.Workers)
		y := rec.SavedPerSec
		if *metricFlag == "generated" {
			y = rec.GeneratedPerSec
		}

		if _, ok := byResolution[resolution]; !ok {
			byResolution[resolution] = make(map[string]map[float64][]float64)
		}
		familyMap := byResolution[resolution]
		if _, ok := familyMap[family]; !ok {
			familyMap[family] = make(map[float64][]float64)
		}
		familyMap[family][x] = append(familyMap[family][x], y)
	}

	for resolution, familyMap := range byResolution {
		if err := renderChart(resolution, familyMap, *metricFlag, *outputPrefix); err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering chart for %s: %v\n", resolution, err)
		}
	}
}

func renderChart(resolution string, familyMap map[string]map[float64][]float64, metric, outputPrefix string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s frames/sec vs. writers (%s)", metric, resolution)
	p.X.Label.Text = "Writer workers"
	p.Y.Label.Text = "Frames per second"
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	// Union of worker counts across families drives the tick positions.
	workerSet := make(map[float64]struct{})
	for _, familyData := range familyMap {
		for workers := range familyData {
			workerSet[workers] = struct{}{}
		}
	}
	var workers []float64
	for w := range workerSet {
		workers = append(workers, w)
	}
	sort.Float64s(workers)
	p.X.Tick.Marker = workerTicks(workers)

	var families []string
	for family := range familyMap {
		families = append(families, family)
	}
	sort.Strings(families)

	colors := plotutil.SoftColors
	shapes := []draw.GlyphDrawer{
		draw.CircleGlyph{},
		draw.SquareGlyph{},
		draw.TriangleGlyph{},
		draw.CrossGlyph{},
		draw.PlusGlyph{},
	}

	for i, family := range families {
		points := buildSamples(familyMap[family])
		if len(points) == 0 {
			continue
		}

		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("line for %s: %w", family, err)
		}
		line.Color = colors[i%len(colors)]

		scatter, err := plotter.NewScatter(points)
		if err != nil {
			return fmt.Errorf("scatter for %s: %w", family, err)
		}
		scatter.GlyphStyle.Radius = vg.Points(4)
		scatter.Color = colors[i%len(colors)]
		scatter.Shape = shapes[i%len(shapes)]

		errBars, err := plotter.NewYErrorBars(points)
		if err != nil {
			return fmt.Errorf("error bars for %s: %w", family, err)
		}
		errBars.Color = colors[i%len(colors)]

		p.Add(line, scatter, errBars)
		p.Legend.Add(family, line, scatter)
	}

	filename := fmt.Sprintf("%s_%s_%s.png", outputPrefix, metric, resolution)
	if err := p.Save(12*vg.Inch, 9*vg.Inch, filename); err != nil {
		return err
	}
	fmt.Printf("Chart for %s saved to %s\n", resolution, filename)
	return nil
}

// buildSamples collapses the fps samples at each worker count into a
// min/median/max point, sorted by worker count for line rendering.
func buildSamples(familyData map[float64][]float64) samplePoints {
	var out samplePoints
	for x, vals := range familyData {
		if len(vals) == 0 {
			continue
		}
		sort.Float64s(vals)
		out = append(out, sample{
			x:      x,
			min:    vals[0],
			median: median(vals),
			max:    vals[len(vals)-1],
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].x < out[b].x })
	return out
}

func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return 0.5 * (sorted[mid-1] + sorted[mid])
}
