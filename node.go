package vasculens

import "github.com/go-gl/mathgl/mgl64"

// NodeKind distinguishes the three roles a tree entry can play (spec §3).
type NodeKind int

const (
	// Root is the virtual perfusion source. There is exactly one, at index 0.
	Root NodeKind = iota
	// Bifurcation is an interior branching node with two children.
	Bifurcation
	// Terminal is a leaf vessel endpoint delivering Qterm flow.
	Terminal
)

func (k NodeKind) String() string {
	switch k {
	case Root:
		return "ROOT"
	case Bifurcation:
		return "BIF"
	case Terminal:
		return "TERM"
	default:
		return "UNKNOWN"
	}
}

// noChild marks an absent parent/child link.
const noChild = -1

// Node is a single entry in the NodeTable (spec §3). Parent/Left/Right are
// indices into the owning NodeTable rather than pointers, so the tree can
// never form a reference cycle (spec §9 "Cyclic references").
type Node struct {
	Pos    mgl64.Vec3
	Kind   NodeKind
	Parent int
	Left   int
	Right  int

	Flow             float64
	ReducedRes       float64
	LeftRatio        float64
	RightRatio       float64
	Radius           float64
}
