package track

import (
	"testing"

	"github.com/simlabels/groundtruth/internal/classes"
)

func TestNewResolvesMaterialIDs(t *testing.T) {
	tbl := classes.Default()
	p, err := New("testtrack",
		[]string{"pit_wall"},
		[]string{"AC_PIT"},
		map[string]string{"asphalt": "road", "weeds": "grass"},
		tbl,
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	roadID, _ := tbl.TrainID("road")
	if got := p.MaterialToID["asphalt"]; got != int8(roadID) {
		t.Fatalf("MaterialToID[asphalt] = %d, want %d", got, roadID)
	}
	if !p.VertexGroupsToModify["AC_PIT"] {
		t.Fatal("expected AC_PIT in VertexGroupsToModify")
	}
	if !p.GeometriesToRemove["pit_wall"] {
		t.Fatal("expected pit_wall in GeometriesToRemove")
	}
}

func TestNewRejectsUnknownClass(t *testing.T) {
	tbl := classes.Default()
	_, err := New("testtrack", nil, nil, map[string]string{"asphalt": "no_such_class"}, tbl)
	if err == nil {
		t.Fatal("expected error for unknown class name")
	}
}
