package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pose is the resolved position and orientation of the camera for one
// state record, in world space.
type Pose struct {
	Position    Vec
	Orientation *[3][3]float64 // row-major rotation matrix, camera -> world
}

// ComputePose assembles the camera pose from the ego state and the
// car's fixed camera mount, per spec.md §4.2.
//
// headingDeg, pitchDeg, rollDeg describe the ego's orientation in the
// recorded frame; offset is the camera mount in the car's own frame;
// cameraPitchDeg is the car profile's fixed additional camera pitch.
//
// The world uses a -Z-forward convention while the recorded offsets are
// expressed assuming +Z-forward, so an extra pi rotation about Y is
// applied to the offset before placing it in world space.
func ComputePose(ego Vec, headingDeg, pitchDeg, rollDeg float64, offset Vec, cameraPitchDeg float64) Pose {
	heading := headingDeg * math.Pi / 180
	pitch := pitchDeg * math.Pi / 180
	roll := rollDeg * math.Pi / 180
	cameraPitch := cameraPitchDeg * math.Pi / 180

	flip := RotY(math.Pi)

	carRotation := MulRot(RotY(-heading+math.Pi), RotX(pitch), RotZ(roll))
	camRotation := MulRot(carRotation, RotX(cameraPitch))

	worldOffset := Apply(carRotation, Apply(flip, offset))

	var rot [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot[i][j] = camRotation.At(i, j)
		}
	}

	return Pose{
		Position:    Vec{X: ego.X + worldOffset.X, Y: ego.Y + worldOffset.Y, Z: ego.Z + worldOffset.Z},
		Orientation: &rot,
	}
}

// RotationMatrix rebuilds the *mat.Dense form of the pose's orientation.
func (p Pose) RotationMatrix() *mat.Dense {
	data := make([]float64, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			data[i*3+j] = p.Orientation[i][j]
		}
	}
	return mat.NewDense(3, 3, data)
}
