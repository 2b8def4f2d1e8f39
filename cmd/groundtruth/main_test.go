package main

import (
	"encoding/json"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/simlabels/groundtruth/internal/record"
)

// writeFixtureTrack writes a minimal OBJ mesh: a single quad (two
// triangles) with the "asphalt" material, directly along +Z where the
// zero-heading/pitch/roll default camera orientation looks (see
// internal/geom/pose_test.go and internal/raycast/worker_test.go).
func writeFixtureTrack(t *testing.T, path string) {
	t.Helper()
	const obj = `v -5 -5 10
v 5 -5 10
v 5 5 10
v -5 5 10
g track
usemtl asphalt
f 1 2 3
f 1 3 4
`
	if err := os.WriteFile(path, []byte(obj), 0o644); err != nil {
		t.Fatalf("write fixture track: %v", err)
	}
}

func writeFixtureFrame(t *testing.T, dir, recordID string) {
	t.Helper()
	state := &record.State{}
	if err := os.WriteFile(filepath.Join(dir, recordID+".bin"), record.EncodeState(state), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	f, err := os.Create(filepath.Join(dir, recordID+".jpeg"))
	if err != nil {
		t.Fatalf("create jpeg: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
}

func TestRunEndToEndProducesSegmentationOutputs(t *testing.T) {
	root := t.TempDir()
	trackPath := filepath.Join(root, "track.obj")
	writeFixtureTrack(t, trackPath)

	recordedDir := filepath.Join(root, "records")
	if err := os.MkdirAll(recordedDir, 0o755); err != nil {
		t.Fatalf("mkdir records: %v", err)
	}
	writeFixtureFrame(t, recordedDir, "1")
	writeFixtureFrame(t, recordedDir, "2")

	outputDir := filepath.Join(root, "out")

	cfg := map[string]any{
		"track_mesh_path":       trackPath,
		"recorded_data_path":    recordedDir,
		"output_path":           outputDir,
		"track_name":            "default",
		"car_name":              "default",
		"image_size":            []int{8, 8},
		"vertical_fov":          60.0,
		"n_ray_casting_workers": 1,
		"n_generation_workers":  1,
		"start_at_sample":       0,
		"finish_at_sample":      0,
		"sample_every":          1,
		"generate": map[string][]string{
			"segmentation": {"visuals", "data", "overlays"},
		},
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	configPath := filepath.Join(root, "run.json")
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := run(configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, suffix := range []string{".jpeg", "-seg_colour.png", "-trainids.png", "-seg_overlay.png"} {
		for _, id := range []string{"1", "2"} {
			p := filepath.Join(outputDir, id+suffix)
			if _, err := os.Stat(p); err != nil {
				t.Fatalf("expected output %s to exist: %v", p, err)
			}
		}
	}
	if _, err := os.Stat(filepath.Join(outputDir, "manifest.db")); err != nil {
		t.Fatalf("expected manifest.db to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "report.html")); err != nil {
		t.Fatalf("expected report.html to exist: %v", err)
	}
}
