// Package rig turns raw landmark frames into skeleton-space joint
// positions and per-frame channel vectors for the motion hierarchy.
package rig

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bodytrace/mocap/internal/landmark"
)

// Default mapping parameters: an approximate human height in cm, and a
// depth multiplier compensating for the camera-relative z units.
const (
	DefaultScale      = 170.0
	DefaultDepthScale = 2.0
)

// Mapper converts a normalized capture-space landmark into a
// skeleton-space position. It is a pure value: identical input always
// yields identical output.
//
// Capture space is x right, y down, z toward the camera; skeleton space is
// Y-up with Z forward. A negative DepthScale flips the forward axis for
// consumers with the opposite orientation convention.
type Mapper struct {
	Scale      float64
	DepthScale float64
	Mirror     bool
}

// NewMapper returns a Mapper with the default scale factors.
func NewMapper() Mapper {
	return Mapper{Scale: DefaultScale, DepthScale: DefaultDepthScale}
}

// Map converts one landmark to skeleton space.
func (m Mapper) Map(p landmark.Point) r3.Vec {
	x := (p.X - 0.5) * m.Scale
	if m.Mirror {
		x = -x
	}
	return r3.Vec{
		X: x,
		Y: (0.5 - p.Y) * m.Scale,
		Z: -p.Z * m.Scale * m.DepthScale,
	}
}
