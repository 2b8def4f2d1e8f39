package geom

import "math"

// HorizontalFOV converts a vertical field of view (degrees) to the
// horizontal field of view (degrees) for an image of the given width
// and height, per spec.md §4.3. For a square image the two are equal.
func HorizontalFOV(verticalDeg float64, width, height int) float64 {
	verticalRad := verticalDeg * math.Pi / 180
	aspect := float64(width) / float64(height)
	horizontalRad := 2 * math.Atan(math.Tan(verticalRad/2)*aspect)
	return horizontalRad * 180 / math.Pi
}

// Ray is a primary ray cast from the camera through one pixel.
type Ray struct {
	Origin    Vec
	Direction Vec
	PixelX    int
	PixelY    int
}

// PrimaryRays generates one ray per pixel of a width x height image,
// using a pinhole camera model: the camera looks down its local -Z
// axis, with +X right and +Y up, per spec.md §4.3. verticalFOVDeg is
// the vertical field of view in degrees.
func PrimaryRays(pose Pose, width, height int, verticalFOVDeg float64) []Ray {
	rot := pose.RotationMatrix()

	verticalRad := verticalFOVDeg * math.Pi / 180
	halfHeight := math.Tan(verticalRad / 2)
	aspect := float64(width) / float64(height)
	halfWidth := halfHeight * aspect

	rays := make([]Ray, 0, width*height)
	for py := 0; py < height; py++ {
		// Map pixel row to normalized device y in [halfHeight, -halfHeight],
		// so row 0 is the top of the image.
		ndcY := halfHeight * (1 - 2*(float64(py)+0.5)/float64(height))
		for px := 0; px < width; px++ {
			ndcX := halfWidth * (2*(float64(px)+0.5)/float64(width) - 1)
			localDir := Vec{X: ndcX, Y: ndcY, Z: -1}
			worldDir := Apply(rot, localDir)
			n := math.Sqrt(worldDir.X*worldDir.X + worldDir.Y*worldDir.Y + worldDir.Z*worldDir.Z)
			rays = append(rays, Ray{
				Origin:    pose.Position,
				Direction: Vec{X: worldDir.X / n, Y: worldDir.Y / n, Z: worldDir.Z / n},
				PixelX:    px,
				PixelY:    py,
			})
		}
	}
	return rays
}
