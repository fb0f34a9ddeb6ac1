package rig

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bodytrace/mocap/internal/landmark"
	"github.com/bodytrace/mocap/internal/skeleton"
)

// Encoder walks the skeleton hierarchy and produces one flattened channel
// vector per landmark frame. The vector's ordering matches the
// hierarchy's depth-first traversal, the same order the HIERARCHY block
// declares its channels in.
type Encoder struct {
	mapper Mapper
	hier   *skeleton.Hierarchy
}

// NewEncoder builds an encoder over the given hierarchy.
func NewEncoder(m Mapper, h *skeleton.Hierarchy) *Encoder {
	return &Encoder{mapper: m, hier: h}
}

// Hierarchy returns the hierarchy the encoder targets.
func (e *Encoder) Hierarchy() *skeleton.Hierarchy { return e.hier }

type triple [3]float64

// Encode converts a validated 33-point frame into a channel vector of
// length Hierarchy().TotalChannels().
//
// Bones without a dedicated rotation estimate (Neck, the shoulder and hip
// attachment joints) stay at zero: their motion is absorbed by the
// adjacent bones, matching the original capture behavior.
func (e *Encoder) Encode(f landmark.Frame) []float64 {
	at := func(i int) r3.Vec { return e.mapper.Map(f[i]) }

	leftHip := at(landmark.LeftHip)
	rightHip := at(landmark.RightHip)
	leftShoulder := at(landmark.LeftShoulder)
	rightShoulder := at(landmark.RightShoulder)

	hipCenter := r3.Scale(0.5, r3.Add(leftHip, rightHip))
	shoulderCenter := r3.Scale(0.5, r3.Add(leftShoulder, rightShoulder))

	rotations := map[string]triple{
		"Hips":  tripleOf(FromThreePoints(leftHip, rightHip, leftShoulder)),
		"Chest": tripleOf(FromTwoPoints(hipCenter, shoulderCenter)),
		"Head":  tripleOf(FromTwoPoints(shoulderCenter, at(landmark.Nose))),

		"LeftElbow":  tripleOf(FromTwoPoints(leftShoulder, at(landmark.LeftElbow))),
		"LeftWrist":  tripleOf(FromTwoPoints(at(landmark.LeftElbow), at(landmark.LeftWrist))),
		"RightElbow": tripleOf(FromTwoPoints(rightShoulder, at(landmark.RightElbow))),
		"RightWrist": tripleOf(FromTwoPoints(at(landmark.RightElbow), at(landmark.RightWrist))),

		"LeftKnee":   tripleOf(FromTwoPoints(leftHip, at(landmark.LeftKnee))),
		"LeftAnkle":  tripleOf(FromTwoPoints(at(landmark.LeftKnee), at(landmark.LeftAnkle))),
		"LeftFoot":   tripleOf(FromTwoPoints(at(landmark.LeftAnkle), at(landmark.LeftFootIndex))),
		"RightKnee":  tripleOf(FromTwoPoints(rightHip, at(landmark.RightKnee))),
		"RightAnkle": tripleOf(FromTwoPoints(at(landmark.RightKnee), at(landmark.RightAnkle))),
		"RightFoot":  tripleOf(FromTwoPoints(at(landmark.RightAnkle), at(landmark.RightFootIndex))),
	}

	out := make([]float64, 0, e.hier.TotalChannels())
	for _, b := range e.hier.Bones() {
		rot := rotations[b.Name]
		for _, c := range b.Channels {
			switch c {
			case skeleton.Xposition:
				out = append(out, hipCenter.X)
			case skeleton.Yposition:
				out = append(out, hipCenter.Y)
			case skeleton.Zposition:
				out = append(out, hipCenter.Z)
			case skeleton.Zrotation:
				out = append(out, rot[0])
			case skeleton.Xrotation:
				out = append(out, rot[1])
			case skeleton.Yrotation:
				out = append(out, rot[2])
			}
		}
	}
	return out
}

func tripleOf(z, x, y float64) triple {
	return triple{z, x, y}
}
