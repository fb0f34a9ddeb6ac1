package rig

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// minBoneLength is the direction-vector norm below which a bone is treated
// as degenerate and its rotation reported as zero, keeping the
// normalization well-defined.
const minBoneLength = 0.001

// FromTwoPoints derives a joint rotation from a bone's direction vector,
// returned as (Z, X, Y) Euler angles in degrees matching the hierarchy's
// channel order. Twist about the bone axis is fixed at zero: a deliberate
// single-axis simplification, not a full 3-DOF decomposition.
func FromTwoPoints(from, to r3.Vec) (z, x, y float64) {
	dir := r3.Sub(to, from)
	if r3.Norm(dir) < minBoneLength {
		return 0, 0, 0
	}
	dir = r3.Unit(dir)

	// Yaw about the vertical axis, then tilt from the horizontal plane.
	y = degrees(math.Atan2(dir.X, dir.Z))
	x = degrees(math.Atan2(dir.Y, math.Hypot(dir.X, dir.Z)))

	return 0, clampAngle(x), clampAngle(y)
}

// FromThreePoints estimates a torso/root orientation from the two hip (or
// shoulder) landmarks and a front reference point. Only the yaw of the
// forward vector's horizontal projection is used; pitch and roll are
// forced to zero for this root-orientation estimate.
func FromThreePoints(left, right, front r3.Vec) (z, x, y float64) {
	center := r3.Scale(0.5, r3.Add(left, right))
	forward := r3.Sub(front, center)
	forward = r3.Scale(1/(r3.Norm(forward)+1e-6), forward)

	y = degrees(math.Atan2(forward.X, forward.Z))
	return 0, 0, clampAngle(y)
}

func degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

func clampAngle(deg float64) float64 {
	if deg > 180 {
		return 180
	}
	if deg < -180 {
		return -180
	}
	return deg
}
