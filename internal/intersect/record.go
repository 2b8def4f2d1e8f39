// Package intersect defines the intersection record: the message
// passed from the ray-cast stage to the generator stage.
package intersect

import "github.com/simlabels/groundtruth/internal/geom"

// MissTriangle is the sentinel triangle index for a pixel whose primary
// ray hit nothing.
const MissTriangle = -1

// Record is the message between the ray-cast and generation stages. Its
// PixelWidth/PixelHeight and TrianglePerPixel fields are always
// populated. The remaining fields are only populated when depth
// generation is enabled (all-hits mode), since they are ragged relative
// to pixels and expensive to build otherwise.
type Record struct {
	RecordID string

	PixelWidth, PixelHeight int

	// TrianglePerPixel has one entry per camera ray, in row-major pixel
	// order; MissTriangle where no hit was found.
	TrianglePerPixel []int

	// The following are populated only in all-hits (depth-enabled) mode.
	RayOrigin      geom.Vec
	HitLocations   []geom.Vec
	RayDirections  []geom.Vec
	RayIndices     []int
	PixelToRay     []PixelCoord
}

// PixelCoord is a (column, row) pixel coordinate.
type PixelCoord struct {
	X, Y int
}

// HasDepthData reports whether the record carries the ragged all-hits
// arrays needed by the depth generator. An all-hits record always has
// RayDirections, even when no ray hit anything.
func (r *Record) HasDepthData() bool {
	return r.RayDirections != nil
}
