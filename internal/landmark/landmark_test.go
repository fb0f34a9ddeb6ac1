package landmark

import (
	"errors"
	"testing"
)

func TestFromSliceRejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 1, 32, 34, 100} {
		points := make([]Point, n)
		if _, err := FromSlice(points); !errors.Is(err, ErrFrameSize) {
			t.Errorf("FromSlice with %d points: got err %v, want ErrFrameSize", n, err)
		}
	}
}

func TestFromSliceAcceptsExactLength(t *testing.T) {
	points := make([]Point, FrameSize)
	points[Nose] = Point{X: 0.5, Y: 0.25, Z: -0.1, Visibility: 0.99}

	f, err := FromSlice(points)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if f[Nose] != points[Nose] {
		t.Errorf("nose landmark not preserved: got %+v", f[Nose])
	}
}

func TestMidpoint(t *testing.T) {
	a := Point{X: 0.2, Y: 0.4, Z: -0.2, Visibility: 1.0}
	b := Point{X: 0.6, Y: 0.8, Z: 0.0, Visibility: 0.5}

	m := Midpoint(a, b)
	want := Point{X: 0.4, Y: 0.6, Z: -0.1, Visibility: 0.75}
	if m != want {
		t.Errorf("Midpoint = %+v, want %+v", m, want)
	}
}

func TestDerive(t *testing.T) {
	var f Frame
	f[LeftHip] = Point{X: 0.4, Y: 0.5, Visibility: 1}
	f[RightHip] = Point{X: 0.6, Y: 0.5, Visibility: 1}
	f[LeftShoulder] = Point{X: 0.4, Y: 0.3, Visibility: 1}
	f[RightShoulder] = Point{X: 0.6, Y: 0.3, Visibility: 1}

	d := Derive(f)
	if d.HipCenter.X != 0.5 || d.HipCenter.Y != 0.5 {
		t.Errorf("hip center = %+v, want (0.5, 0.5)", d.HipCenter)
	}
	if d.ShoulderCenter.X != 0.5 || d.ShoulderCenter.Y != 0.3 {
		t.Errorf("shoulder center = %+v, want (0.5, 0.3)", d.ShoulderCenter)
	}
	// The pose location is defined as the hip center.
	if d.PoseLocation != d.HipCenter {
		t.Errorf("pose location = %+v, want hip center %+v", d.PoseLocation, d.HipCenter)
	}
}
