// Package skeleton defines the fixed, approximate human skeleton used for
// motion export. The hierarchy is independent of actual subject
// proportions: subject scale is baked into the per-frame position data,
// never into the rest offsets. It is constructed once at process start and
// treated as read-only afterwards.
package skeleton

// Channel is one animated scalar attached to a joint, named with the
// exact keyword the BVH grammar uses.
type Channel string

const (
	Xposition Channel = "Xposition"
	Yposition Channel = "Yposition"
	Zposition Channel = "Zposition"
	Zrotation Channel = "Zrotation"
	Xrotation Channel = "Xrotation"
	Yrotation Channel = "Yrotation"
)

// Bone is one joint in the hierarchy. A bone with an EndSite offset is a
// terminal tip marker carrying no channels of its own beyond the joint's.
type Bone struct {
	Name     string
	Offset   [3]float64
	Channels []Channel
	Children []*Bone

	// EndSite, if non-nil, is the rest offset of the bone's channel-less
	// terminal tip.
	EndSite *[3]float64
}

// Hierarchy is the immutable joint tree.
type Hierarchy struct {
	root  *Bone
	bones []*Bone // depth-first pre-order
	total int
}

func rotChannels() []Channel {
	return []Channel{Zrotation, Xrotation, Yrotation}
}

func end(x, y, z float64) *[3]float64 {
	return &[3]float64{x, y, z}
}

// New builds the canonical hierarchy: Hips root with six channels, a
// Chest/Neck/Head chain, shoulder/elbow/wrist arms and hip/knee/ankle/foot
// legs, each mirrored left/right. Every non-root joint carries three
// rotation channels in ZXY order.
func New() *Hierarchy {
	root := &Bone{
		Name:   "Hips",
		Offset: [3]float64{0, 0, 0},
		Channels: []Channel{
			Xposition, Yposition, Zposition,
			Zrotation, Xrotation, Yrotation,
		},
		Children: []*Bone{
			{
				Name:     "Chest",
				Offset:   [3]float64{0, 10, 0},
				Channels: rotChannels(),
				Children: []*Bone{
					{
						Name:     "Neck",
						Offset:   [3]float64{0, 10, 0},
						Channels: rotChannels(),
						Children: []*Bone{
							{
								Name:     "Head",
								Offset:   [3]float64{0, 5, 0},
								Channels: rotChannels(),
								EndSite:  end(0, 5, 0),
							},
						},
					},
					arm("Left", -1),
					arm("Right", 1),
				},
			},
			leg("Left", -1),
			leg("Right", 1),
		},
	}

	h := &Hierarchy{root: root}
	h.walk(root)
	return h
}

// arm builds a shoulder/elbow/wrist chain. side is -1 for left, 1 for
// right: the capture convention puts the subject's left on negative X.
func arm(prefix string, side float64) *Bone {
	return &Bone{
		Name:     prefix + "Shoulder",
		Offset:   [3]float64{5 * side, 8, 0},
		Channels: rotChannels(),
		Children: []*Bone{
			{
				Name:     prefix + "Elbow",
				Offset:   [3]float64{10 * side, 0, 0},
				Channels: rotChannels(),
				Children: []*Bone{
					{
						Name:     prefix + "Wrist",
						Offset:   [3]float64{10 * side, 0, 0},
						Channels: rotChannels(),
						EndSite:  end(3*side, 0, 0),
					},
				},
			},
		},
	}
}

func leg(prefix string, side float64) *Bone {
	return &Bone{
		Name:     prefix + "Hip",
		Offset:   [3]float64{5 * side, 0, 0},
		Channels: rotChannels(),
		Children: []*Bone{
			{
				Name:     prefix + "Knee",
				Offset:   [3]float64{0, -15, 0},
				Channels: rotChannels(),
				Children: []*Bone{
					{
						Name:     prefix + "Ankle",
						Offset:   [3]float64{0, -15, 0},
						Channels: rotChannels(),
						Children: []*Bone{
							{
								Name:     prefix + "Foot",
								Offset:   [3]float64{0, -3, 5},
								Channels: rotChannels(),
								EndSite:  end(0, 0, 3),
							},
						},
					},
				},
			},
		},
	}
}

func (h *Hierarchy) walk(b *Bone) {
	h.bones = append(h.bones, b)
	h.total += len(b.Channels)
	for _, c := range b.Children {
		h.walk(c)
	}
}

// Root returns the root bone.
func (h *Hierarchy) Root() *Bone { return h.root }

// Bones returns every bone in depth-first pre-order, the order channel
// values appear within a motion frame.
func (h *Hierarchy) Bones() []*Bone { return h.bones }

// TotalChannels is the per-frame scalar count: the sum of every bone's
// channel count. 57 for the canonical hierarchy.
func (h *Hierarchy) TotalChannels() int { return h.total }
