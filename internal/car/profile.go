// Package car holds per-car camera mounting metadata.
package car

// Profile is the camera offset and pitch for one registered car, per
// spec.md §3.
type Profile struct {
	Name string

	// OffsetX, OffsetY, OffsetZ are the camera position in the car's
	// own reference frame.
	OffsetX, OffsetY, OffsetZ float64

	// PitchDeg is the camera's additional pitch offset in degrees,
	// applied on top of the car's own pitch.
	PitchDeg float64
}
