// Package geom provides the vector/matrix plumbing the ray-cast stage
// needs: rotation composition, camera pose assembly, primary-ray
// generation and the vertical-to-horizontal FOV conversion.
package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is the vector type used throughout this package, re-exported from
// gonum's spatial/r3 so callers do not need to import it separately.
type Vec = r3.Vec

// RotX returns the 3x3 rotation matrix for a right-handed rotation of
// angle radians about the X axis.
func RotX(angle float64) *mat.Dense {
	s, c := math.Sincos(angle)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// RotY returns the 3x3 rotation matrix for a right-handed rotation of
// angle radians about the Y axis.
func RotY(angle float64) *mat.Dense {
	s, c := math.Sincos(angle)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

// RotZ returns the 3x3 rotation matrix for a right-handed rotation of
// angle radians about the Z axis.
func RotZ(angle float64) *mat.Dense {
	s, c := math.Sincos(angle)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// MulRot composes rotation matrices left to right: MulRot(a, b, c) is
// a*b*c.
func MulRot(rots ...*mat.Dense) *mat.Dense {
	if len(rots) == 0 {
		return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	}
	out := rots[0]
	for _, r := range rots[1:] {
		next := mat.NewDense(3, 3, nil)
		next.Mul(out, r)
		out = next
	}
	return out
}

// Apply rotates v by the 3x3 matrix rot.
func Apply(rot *mat.Dense, v Vec) Vec {
	return Vec{
		X: rot.At(0, 0)*v.X + rot.At(0, 1)*v.Y + rot.At(0, 2)*v.Z,
		Y: rot.At(1, 0)*v.X + rot.At(1, 1)*v.Y + rot.At(1, 2)*v.Z,
		Z: rot.At(2, 0)*v.X + rot.At(2, 1)*v.Y + rot.At(2, 2)*v.Z,
	}
}

// EulerXYZ decomposes a rotation matrix into the extrinsic XYZ Euler
// triple (radians) such that R = Rz(z) * Ry(y) * Rx(x), following the
// principal-branch convention (y constrained to [-pi/2, pi/2]) used by
// most 3D libraries. Euler decomposition of a rotation is not unique at
// every angle (e.g. a pure pi rotation about Y equals the pi/0/pi
// triple on this axis convention as well as the 0/pi/0 triple); callers
// that need to compare orientations should compare the reconstructed
// rotation matrix, not the literal triple.
func EulerXYZ(rot *mat.Dense) (x, y, z float64) {
	r20 := rot.At(2, 0)
	// Clamp for numerical safety before asin.
	sy := -r20
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	y = math.Asin(sy)
	x = math.Atan2(rot.At(2, 1), rot.At(2, 2))
	z = math.Atan2(rot.At(1, 0), rot.At(0, 0))
	return x, y, z
}
