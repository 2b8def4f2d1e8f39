package mesh

import (
	"strings"
	"testing"

	"github.com/simlabels/groundtruth/internal/classes"
	"github.com/simlabels/groundtruth/internal/fsutil"
	"github.com/simlabels/groundtruth/internal/track"
)

func testProfile(t *testing.T) *track.Profile {
	t.Helper()
	p, err := track.New("t", nil, []string{"AC_PIT"}, map[string]string{"asphalt": "road"}, classes.Default())
	if err != nil {
		t.Fatalf("track.New: %v", err)
	}
	return p
}

func TestPrepareRewritesOnlyTargetGroup(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	src := "g AC_PIT\nusemtl asphalt\ng other\nusemtl asphalt\n"
	if err := fs.WriteFile("/src.obj", []byte(src), 0o644); err != nil {
		t.Fatalf("seed source: %v", err)
	}

	if err := Prepare(fs, "/src.obj", "/dest.obj", testProfile(t)); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	got, err := fs.ReadFile("/dest.obj")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(got), "\n"), "\n")
	want := []string{"g AC_PIT", "usemtl physics", "g other", "usemtl asphalt"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestPrepareGOffIsNoOp(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	src := "g AC_PIT\nusemtl asphalt\ng off\nusemtl asphalt\n"
	if err := fs.WriteFile("/src.obj", []byte(src), 0o644); err != nil {
		t.Fatalf("seed source: %v", err)
	}

	if err := Prepare(fs, "/src.obj", "/dest.obj", testProfile(t)); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	got, err := fs.ReadFile("/dest.obj")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(got), "\n"), "\n")
	want := []string{"g AC_PIT", "usemtl physics", "g off", "usemtl physics"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestPrepareIsIdempotent(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	src := "g AC_PIT\nusemtl asphalt\ng other\nusemtl asphalt\n"
	fs.WriteFile("/src.obj", []byte(src), 0o644)

	profile := testProfile(t)
	if err := Prepare(fs, "/src.obj", "/once.obj", profile); err != nil {
		t.Fatalf("first Prepare: %v", err)
	}
	once, _ := fs.ReadFile("/once.obj")
	if err := Prepare(fs, "/once.obj", "/twice.obj", profile); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	twice, _ := fs.ReadFile("/twice.obj")
	if string(once) != string(twice) {
		t.Fatalf("Prepare is not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}
