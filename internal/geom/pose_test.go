package geom

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestComputePoseZeroEgoOrientation(t *testing.T) {
	pose := ComputePose(Vec{}, 0, 0, 0, Vec{X: 0, Y: 1, Z: -2}, 0)

	// At zero heading, R_car equals Ry(pi), and the position formula
	// rotates the offset by Ry(pi) twice (once for the forward-axis
	// flip, once via R_car itself): the two pi rotations cancel, so the
	// camera ends up at ego+offset unchanged. Traced against
	// get_car_rotation/get_camera_location in the original source.
	want := Vec{X: 0, Y: 1, Z: -2}
	const tol = 1e-9
	if !almostEqual(pose.Position.X, want.X, tol) ||
		!almostEqual(pose.Position.Y, want.Y, tol) ||
		!almostEqual(pose.Position.Z, want.Z, tol) {
		t.Fatalf("position = %+v, want %+v", pose.Position, want)
	}

	// Orientation should reconstruct the same rotation as Ry(pi),
	// regardless of which equivalent Euler triple EulerXYZ reports for
	// it (see the decomposition note on EulerXYZ).
	got := pose.RotationMatrix()
	wantRot := RotY(math.Pi)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !almostEqual(got.At(i, j), wantRot.At(i, j), tol) {
				t.Fatalf("orientation[%d][%d] = %v, want %v", i, j, got.At(i, j), wantRot.At(i, j))
			}
		}
	}
}

func TestHorizontalFOVSquareImageIsIdentity(t *testing.T) {
	got := HorizontalFOV(90, 512, 512)
	if !almostEqual(got, 90, 1e-9) {
		t.Fatalf("HorizontalFOV(90, 512, 512) = %v, want 90", got)
	}
}

func TestHorizontalFOVWidensWithAspectRatio(t *testing.T) {
	narrow := HorizontalFOV(60, 512, 512)
	wide := HorizontalFOV(60, 1024, 512)
	if wide <= narrow {
		t.Fatalf("wider image should have larger horizontal FOV: wide=%v narrow=%v", wide, narrow)
	}
}

func TestPrimaryRaysCountAndUnitDirections(t *testing.T) {
	pose := ComputePose(Vec{}, 0, 0, 0, Vec{}, 0)
	rays := PrimaryRays(pose, 4, 4, 90)
	if len(rays) != 16 {
		t.Fatalf("len(rays) = %d, want 16", len(rays))
	}
	for _, r := range rays {
		n := math.Sqrt(r.Direction.X*r.Direction.X + r.Direction.Y*r.Direction.Y + r.Direction.Z*r.Direction.Z)
		if !almostEqual(n, 1, 1e-9) {
			t.Fatalf("ray direction not normalized: %+v (norm %v)", r.Direction, n)
		}
	}
}
