package report

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteSummaryWritesHTMLAlways(t *testing.T) {
	dir := t.TempDir()
	s := Summary{
		RunID:          "run-1",
		NRecords:       3,
		CountByTrainID: map[uint8]int64{0: 100, 4: 40, 255: 10},
	}
	label := func(id uint8) string {
		switch id {
		case 0:
			return "road"
		case 4:
			return "grass"
		default:
			return "void"
		}
	}

	if err := WriteSummary(dir, s, label); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	htmlPath := filepath.Join(dir, "report.html")
	if _, err := os.Stat(htmlPath); err != nil {
		t.Fatalf("expected report.html to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "report_depth_histogram.png")); !os.IsNotExist(err) {
		t.Fatalf("expected no depth histogram when DepthSamples is empty, stat err = %v", err)
	}
}

func TestWriteSummaryWritesDepthHistogramWhenSamplesPresent(t *testing.T) {
	dir := t.TempDir()
	samples := make([]float64, 200)
	for i := range samples {
		samples[i] = float64(i) / float64(len(samples))
	}
	s := Summary{
		RunID:          "run-2",
		NRecords:       1,
		CountByTrainID: map[uint8]int64{0: 5},
		DepthSamples:   samples,
	}

	if err := WriteSummary(dir, s, func(uint8) string { return "road" }); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "report_depth_histogram.png")); err != nil {
		t.Fatalf("expected depth histogram to exist: %v", err)
	}
}
