// Package raycast positions the camera for one record and intersects
// its primary rays against the prepared mesh.
package raycast

import (
	"math"

	"github.com/simlabels/groundtruth/internal/car"
	"github.com/simlabels/groundtruth/internal/geom"
	"github.com/simlabels/groundtruth/internal/intersect"
	"github.com/simlabels/groundtruth/internal/mesh"
	"github.com/simlabels/groundtruth/internal/record"
)

// Mode selects first-hit or all-hits intersection, per spec.md §4.2.
type Mode int

const (
	// FirstHit returns only the nearest triangle per pixel.
	FirstHit Mode = iota
	// AllHits returns every intersection along each ray, needed by the
	// depth generator.
	AllHits
)

// CastRecord positions the camera using state and carProfile, casts one
// primary ray per pixel through accel, and packages the result as an
// intersection record.
func CastRecord(recordID string, state *record.State, carProfile *car.Profile, width, height int, verticalFOVDeg float64, accel mesh.Accelerator, mode Mode) *intersect.Record {
	pose := geom.ComputePose(
		geom.Vec{X: state.EgoLocationX, Y: state.EgoLocationY, Z: state.EgoLocationZ},
		radToDeg(state.Heading), radToDeg(state.Pitch), radToDeg(state.Roll),
		geom.Vec{X: carProfile.OffsetX, Y: carProfile.OffsetY, Z: carProfile.OffsetZ},
		carProfile.PitchDeg,
	)
	rays := geom.PrimaryRays(pose, width, height, verticalFOVDeg)

	rec := &intersect.Record{
		RecordID:    recordID,
		PixelWidth:  width,
		PixelHeight: height,
	}

	switch mode {
	case AllHits:
		rec.RayOrigin = pose.Position
		rec.TrianglePerPixel = make([]int, len(rays))
		for i := range rec.TrianglePerPixel {
			rec.TrianglePerPixel[i] = intersect.MissTriangle
		}
		rec.RayDirections = make([]geom.Vec, len(rays))
		for i, r := range rays {
			rec.RayDirections[i] = r.Direction
		}
		for rayIdx, r := range rays {
			hits := accel.AllHits(r.Origin, r.Direction)
			if len(hits) == 0 {
				continue
			}
			nearest := hits[0]
			rec.TrianglePerPixel[rayIdx] = nearest.TriangleIndex
			rec.HitLocations = append(rec.HitLocations, nearest.Location)
			rec.RayIndices = append(rec.RayIndices, rayIdx)
			rec.PixelToRay = append(rec.PixelToRay, intersect.PixelCoord{X: r.PixelX, Y: r.PixelY})
		}
	default:
		rec.TrianglePerPixel = make([]int, len(rays))
		for i, r := range rays {
			hit, ok := accel.FirstHit(r.Origin, r.Direction)
			if !ok {
				rec.TrianglePerPixel[i] = intersect.MissTriangle
				continue
			}
			rec.TrianglePerPixel[i] = hit.TriangleIndex
		}
	}

	return rec
}

func radToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}
