package record

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirFrameSourceNumericSort(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"10", "2", "1"} {
		if err := os.WriteFile(filepath.Join(dir, id+".bin"), []byte("x"), 0o644); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	frames, err := DirFrameSource{Dir: dir}.Frames()
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	want := []string{"1", "2", "10"}
	if len(frames) != len(want) {
		t.Fatalf("len(frames) = %d, want %d", len(frames), len(want))
	}
	for i, id := range want {
		if frames[i].RecordID != id {
			t.Fatalf("frames[%d].RecordID = %q, want %q", i, frames[i].RecordID, id)
		}
	}
}

func TestSliceAppliesStartFinishStride(t *testing.T) {
	frames := make([]Frame, 10)
	for i := range frames {
		frames[i] = Frame{RecordID: string(rune('a' + i))}
	}
	got := Slice(frames, 2, 8, 2)
	want := []string{"c", "e", "g"}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].RecordID != w {
			t.Fatalf("got[%d] = %q, want %q", i, got[i].RecordID, w)
		}
	}
}

func TestSliceDefaultsCoverAllFrames(t *testing.T) {
	frames := make([]Frame, 3)
	got := Slice(frames, 0, 0, 0)
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
}
