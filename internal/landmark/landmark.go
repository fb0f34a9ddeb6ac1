// Package landmark defines the fixed 33-point body landmark frame produced
// by an external pose-estimation backend, plus the derived midpoint
// landmarks consumed by downstream rigs.
package landmark

import (
	"errors"
	"fmt"
)

// FrameSize is the number of body landmarks in a valid pose frame.
const FrameSize = 33

// ErrFrameSize is returned when a landmark sequence does not contain
// exactly FrameSize entries. Frames failing this check never reach the
// encoding pipeline.
var ErrFrameSize = errors.New("landmark frame must contain exactly 33 points")

// Landmark indices within a Frame. These are fixed by the pose model's
// output layout and used as compile-time constants by the rotation math.
const (
	Nose           = 0
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftFootIndex  = 31
	RightFootIndex = 32
)

// Point is a single landmark: x,y normalized to [0,1] in capture space,
// z a camera-relative depth value, visibility an optional confidence score.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Frame is an ordered, fixed-length body pose estimate. Frames are
// transient: consumed and discarded per detection cycle.
type Frame [FrameSize]Point

// FromSlice validates and converts a landmark slice into a Frame.
func FromSlice(points []Point) (Frame, error) {
	var f Frame
	if len(points) != FrameSize {
		return f, fmt.Errorf("%w: got %d", ErrFrameSize, len(points))
	}
	copy(f[:], points)
	return f, nil
}

// Midpoint averages two landmarks, including their visibility scores.
func Midpoint(a, b Point) Point {
	return Point{
		X:          (a.X + b.X) / 2.0,
		Y:          (a.Y + b.Y) / 2.0,
		Z:          (a.Z + b.Z) / 2.0,
		Visibility: (a.Visibility + b.Visibility) / 2.0,
	}
}

// Derived holds the midpoint landmarks computed from a body frame for
// consumers that rig against center points rather than raw joints.
type Derived struct {
	HipCenter      Point `json:"hip_center"`
	ShoulderCenter Point `json:"shoulder_center"`
	PoseLocation   Point `json:"pose_location"`
}

// Derive computes the midpoint landmarks for a frame. The pose location is
// the hip center: the skeleton's root position.
func Derive(f Frame) Derived {
	hip := Midpoint(f[LeftHip], f[RightHip])
	return Derived{
		HipCenter:      hip,
		ShoulderCenter: Midpoint(f[LeftShoulder], f[RightShoulder]),
		PoseLocation:   hip,
	}
}
