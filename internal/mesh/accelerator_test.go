package mesh

import (
	"testing"

	"github.com/simlabels/groundtruth/internal/geom"
)

func quadScene(material string) *Scene {
	a := geom.Vec{X: -1, Y: -1, Z: -5}
	b := geom.Vec{X: 1, Y: -1, Z: -5}
	c := geom.Vec{X: 1, Y: 1, Z: -5}
	d := geom.Vec{X: -1, Y: 1, Z: -5}
	return &Scene{
		Triangles: []Triangle{
			{A: a, B: b, C: c, Normal: computeNormal(a, b, c)},
			{A: a, B: c, C: d, Normal: computeNormal(a, c, d)},
		},
		Material: []string{material, material},
		Geometry: map[string][]int{"quad": {0, 1}},
	}
}

func TestFirstHitFindsNearestTriangle(t *testing.T) {
	acc := NewAccelerator(quadScene("road"))
	hit, ok := acc.FirstHit(geom.Vec{}, geom.Vec{X: 0, Y: 0, Z: -1})
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Distance <= 0 {
		t.Fatalf("hit distance = %v, want > 0", hit.Distance)
	}
	if got := hit.Location.Z; got > -4.999 || got < -5.001 {
		t.Fatalf("hit location z = %v, want ~-5", got)
	}
}

func TestFirstHitMissesWhenRayPointsAway(t *testing.T) {
	acc := NewAccelerator(quadScene("road"))
	_, ok := acc.FirstHit(geom.Vec{}, geom.Vec{X: 0, Y: 0, Z: 1})
	if ok {
		t.Fatal("expected no hit when ray points away from geometry")
	}
}

func TestAcceleratorExcludesPhysicsTriangles(t *testing.T) {
	acc := NewAccelerator(quadScene(PhysicsMaterial))
	_, ok := acc.FirstHit(geom.Vec{}, geom.Vec{X: 0, Y: 0, Z: -1})
	if ok {
		t.Fatal("physics-tagged triangles must be excluded from the accelerator")
	}
}

func TestAllHitsReturnsHitsNearestFirst(t *testing.T) {
	a := geom.Vec{X: -1, Y: -1, Z: -3}
	b := geom.Vec{X: 1, Y: -1, Z: -3}
	c := geom.Vec{X: 1, Y: 1, Z: -3}
	far := geom.Vec{X: -1, Y: -1, Z: -8}
	farB := geom.Vec{X: 1, Y: -1, Z: -8}
	farC := geom.Vec{X: 1, Y: 1, Z: -8}
	scene := &Scene{
		Triangles: []Triangle{
			{A: far, B: farB, C: farC, Normal: computeNormal(far, farB, farC)},
			{A: a, B: b, C: c, Normal: computeNormal(a, b, c)},
		},
		Material: []string{"road", "road"},
	}
	acc := NewAccelerator(scene)
	hits := acc.AllHits(geom.Vec{}, geom.Vec{X: 0, Y: 0, Z: -1})
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].Distance >= hits[1].Distance {
		t.Fatalf("hits not sorted nearest-first: %+v", hits)
	}
}
