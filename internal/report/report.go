// Package report produces the supplementary per-run artifacts: an
// HTML bar chart of per-class pixel counts (go-echarts) and, when depth
// was generated, a PNG depth histogram (gonum/plot). Neither artifact
// affects the bit-exact per-record outputs; both are written once after
// a run completes.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ClassLabel resolves a train-id to a display name, for axis labels.
type ClassLabel func(trainID uint8) string

// Summary is the data a run report is built from.
type Summary struct {
	RunID          string
	RunVersion     string
	NRecords       int
	CountByTrainID map[uint8]int64

	// DepthSamples holds per-pixel normalised depth values pooled across
	// the run; empty when depth generation was disabled.
	DepthSamples []float64
}

// WriteSummary writes report.html (always) and, when s.DepthSamples is
// non-empty, report_depth_histogram.png, both under outputDir.
func WriteSummary(outputDir string, s Summary, label ClassLabel) error {
	if err := writeClassBarChart(outputDir, s, label); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if len(s.DepthSamples) > 0 {
		if err := writeDepthHistogram(outputDir, s); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	return nil
}

func writeClassBarChart(outputDir string, s Summary, label ClassLabel) error {
	ids := make([]uint8, 0, len(s.CountByTrainID))
	for id := range s.CountByTrainID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	x := make([]string, 0, len(ids))
	y := make([]opts.BarData, 0, len(ids))
	for _, id := range ids {
		name := label(id)
		if name == "" {
			name = fmt.Sprintf("id %d", id)
		}
		x = append(x, name)
		y = append(y, opts.BarData{Value: s.CountByTrainID[id]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Pixel count by class", Subtitle: fmt.Sprintf("run=%s version=%s records=%d", s.RunID, s.RunVersion, s.NRecords)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("pixels", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)

	page := components.NewPage()
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render class bar chart: %w", err)
	}
	return os.WriteFile(filepath.Join(outputDir, "report.html"), buf.Bytes(), 0o644)
}

func writeDepthHistogram(outputDir string, s Summary) error {
	mean, stddev := stat.MeanStdDev(s.DepthSamples, nil)

	values := make(plotter.Values, len(s.DepthSamples))
	copy(values, s.DepthSamples)

	hist, err := plotter.NewHist(values, 32)
	if err != nil {
		return fmt.Errorf("build depth histogram: %w", err)
	}
	hist.Normalize(1)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Depth distribution (run=%s, mean=%.3f, stddev=%.3f)", s.RunID, mean, stddev)
	p.X.Label.Text = "normalised depth"
	p.Y.Label.Text = "density"
	p.Add(hist)

	path := filepath.Join(outputDir, "report_depth_histogram.png")
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save depth histogram: %w", err)
	}
	return nil
}
