package mesh

import (
	"math"

	"github.com/simlabels/groundtruth/internal/geom"
)

// Hit is one ray-triangle intersection.
type Hit struct {
	TriangleIndex int
	Distance      float64
	Location      geom.Vec
}

// Accelerator answers ray-triangle intersection queries against a
// prepared Scene. The default implementation is a brute-force test over
// every non-physics triangle; it satisfies the same narrow interface a
// spatially-bucketed accelerator would, so a faster one can be swapped
// in without touching the ray-cast worker.
type Accelerator interface {
	// FirstHit returns the nearest intersection along the ray, if any.
	FirstHit(origin, direction geom.Vec) (Hit, bool)
	// AllHits returns every intersection along the ray, nearest first.
	AllHits(origin, direction geom.Vec) []Hit
}

type bruteForceAccelerator struct {
	triangles []Triangle
	// index maps accelerator-local triangle index back to the index in
	// the source Scene, since physics-tagged triangles are excluded.
	index []int
}

// NewAccelerator builds an Accelerator from scene, excluding every
// triangle tagged with PhysicsMaterial regardless of whether the loader
// itself already filtered them, per spec.md's note that a
// reimplementation cannot assume the loader honours the sentinel.
func NewAccelerator(scene *Scene) Accelerator {
	acc := &bruteForceAccelerator{}
	for i, tri := range scene.Triangles {
		if scene.Material[i] == PhysicsMaterial {
			continue
		}
		acc.triangles = append(acc.triangles, tri)
		acc.index = append(acc.index, i)
	}
	return acc
}

const epsilon = 1e-9

// intersectTriangle implements the Möller-Trumbore ray-triangle test.
func intersectTriangle(origin, dir geom.Vec, tri Triangle) (float64, bool) {
	edge1 := sub(tri.B, tri.A)
	edge2 := sub(tri.C, tri.A)
	h := cross(dir, edge2)
	a := dot(edge1, h)
	if a > -epsilon && a < epsilon {
		return 0, false
	}
	f := 1 / a
	s := sub(origin, tri.A)
	u := f * dot(s, h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := cross(s, edge1)
	v := f * dot(dir, q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := f * dot(edge2, q)
	if t <= epsilon {
		return 0, false
	}
	return t, true
}

func (a *bruteForceAccelerator) FirstHit(origin, direction geom.Vec) (Hit, bool) {
	best := math.Inf(1)
	var bestHit Hit
	found := false
	for i, tri := range a.triangles {
		t, ok := intersectTriangle(origin, direction, tri)
		if !ok || t >= best {
			continue
		}
		best = t
		bestHit = Hit{
			TriangleIndex: a.index[i],
			Distance:      t,
			Location:      add(origin, scale(t, direction)),
		}
		found = true
	}
	return bestHit, found
}

func (a *bruteForceAccelerator) AllHits(origin, direction geom.Vec) []Hit {
	var hits []Hit
	for i, tri := range a.triangles {
		t, ok := intersectTriangle(origin, direction, tri)
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			TriangleIndex: a.index[i],
			Distance:      t,
			Location:      add(origin, scale(t, direction)),
		})
	}
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j-1].Distance > hits[j].Distance; j-- {
			hits[j-1], hits[j] = hits[j], hits[j-1]
		}
	}
	return hits
}

func sub(a, b geom.Vec) geom.Vec { return geom.Vec{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z} }
func add(a, b geom.Vec) geom.Vec { return geom.Vec{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z} }
func scale(t float64, v geom.Vec) geom.Vec {
	return geom.Vec{X: t * v.X, Y: t * v.Y, Z: t * v.Z}
}
func dot(a, b geom.Vec) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func cross(a, b geom.Vec) geom.Vec {
	return geom.Vec{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}
