package car

import "testing"

func TestProfileFields(t *testing.T) {
	p := Profile{Name: "gt3", OffsetX: 0, OffsetY: 1.2, OffsetZ: -0.3, PitchDeg: 2.5}
	if p.Name != "gt3" {
		t.Fatalf("Name = %q, want gt3", p.Name)
	}
	if p.OffsetY != 1.2 || p.OffsetZ != -0.3 {
		t.Fatalf("unexpected offset: %+v", p)
	}
}
