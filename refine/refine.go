// Package refine decomposes a grown vascular tree into Catmull-Rom splined
// paths (C6): longest-branch-first path decomposition, 4-point spline
// control polygons with root/terminal extensions, and per-sub-segment
// radius interpolation.
package refine

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vasculens/vasculens"
)

// RadiusRule selects how a sub-segment's radius varies between its two
// endpoint nodes (spec §4.6). It is a configuration knob on the engine API,
// not one of the 18 mandatory CLI flags, so the CLI always wires Linear.
type RadiusRule int

const (
	RadiusLinear RadiusRule = iota
	RadiusExponential
	// RadiusLesionReserved corresponds to the original's rule 4, whose
	// implementation is an empty stub; selecting it is a configuration
	// error rather than a silent fallback to linear.
	RadiusLesionReserved
)

// ErrRadiusRuleReserved is returned by BuildPaths when RadiusLesionReserved
// is selected.
var ErrRadiusRuleReserved = fmt.Errorf("radius rule 4 (lesion) is reserved and not implemented")

// Typecodes for the SWC output (spec §6).
const (
	TypeInterior    = 0
	TypeBifurcation = 5
	TypeTerminal    = 6
	TypeRoot        = 7
)

// Sample is one emitted centerline point. Indices are assigned only once
// the full walk is complete, in emission order (1-based, matching SWC).
type Sample struct {
	Pos         mgl64.Vec3
	Radius      float64
	TypeCode    int
	NodeIndex   int
	ParentIndex int
}

// branch is one root-to-terminal path, as source node table indices.
type branch []int

// findAllBranches enumerates every root-to-terminal path beneath n
// (spec §4.6 findAllBranchesFromNode). ROOT has a single conceptual child
// (RootChild), so it is special-cased to avoid walking it twice.
func findAllBranches(t *vasculens.NodeTable, n int) []branch {
	if t.Kind(n) == vasculens.Terminal {
		return []branch{{n}}
	}

	var children []branch
	if t.Kind(n) == vasculens.Root {
		children = findAllBranches(t, t.RootChild())
	} else {
		children = append(findAllBranches(t, t.LeftChild(n)), findAllBranches(t, t.RightChild(n))...)
	}

	out := make([]branch, 0, len(children))
	for _, c := range children {
		path := make(branch, 0, len(c)+1)
		path = append(path, n)
		path = append(path, c...)
		out = append(out, path)
	}
	return out
}

// finalSegmentLength is the length of a branch's last edge, used to break
// ties between equally long branches (spec §4.6).
func finalSegmentLength(t *vasculens.NodeTable, b branch) float64 {
	if len(b) < 2 {
		return 0
	}
	return vasculens.Distance(t, b[len(b)-1], b[len(b)-2])
}

// selectLongest picks the branch with the most nodes, breaking ties by a
// longer final segment (spec §4.6).
func selectLongest(t *vasculens.NodeTable, branches []branch) branch {
	best := branches[0]
	bestLen := len(best)
	bestSeg := finalSegmentLength(t, best)

	for _, b := range branches[1:] {
		l := len(b)
		s := finalSegmentLength(t, b)
		if l > bestLen || (l == bestLen && s > bestSeg) {
			best, bestLen, bestSeg = b, l, s
		}
	}
	return best
}

// BuildPaths walks the tree from ROOT, decomposing it into longest-branch-
// first paths and splining every sub-segment, returning the full flattened
// sample list in emission order with node/parent indices already assigned.
func BuildPaths(t *vasculens.NodeTable, axialRefinement int, rule RadiusRule) ([]Sample, error) {
	if rule == RadiusLesionReserved {
		return nil, ErrRadiusRuleReserved
	}

	w := &walker{
		table:   t,
		rule:    rule,
		refine:  axialRefinement,
		emitted: make(map[int]int),
		samples: nil,
	}

	queue := []int{0}
	for len(queue) > 0 {
		start := queue[0]
		queue = queue[1:]

		branches := findAllBranches(t, start)
		own := selectLongest(t, branches)

		// Every recursively-started path shares its first node (the branch
		// point) with the path that discovered it, so it must be prepended
		// here (spec §4.6 parentIds) rather than re-walked from start. The
		// true ROOT's own path already begins at node 0 via findAllBranches'
		// ROOT special case, so it needs no prefix.
		path := own
		prefixLen := 0
		if start != 0 {
			path = append(branch{t.Parent(start)}, own...)
			prefixLen = 1
		}

		for i := 0; i+1 < len(path); i++ {
			w.emitSubSegment(path, i)
		}

		for i := prefixLen; i+1 < len(path); i++ {
			n := path[i]
			if t.Kind(n) != vasculens.Bifurcation {
				continue
			}
			chosen := path[i+1]
			other := t.LeftChild(n)
			if other == chosen {
				other = t.RightChild(n)
			}
			queue = append(queue, other)
		}
	}

	return w.samples, nil
}

// walker accumulates emitted samples and the node->sample-index map across
// the whole path decomposition.
type walker struct {
	table   *vasculens.NodeTable
	rule    RadiusRule
	refine  int
	emitted map[int]int
	samples []Sample
}

// emitSubSegment splines the sub-segment between path[i] (P1) and
// path[i+1] (P2), resolving P0/P3 per spec §4.6's root/terminal extension
// rules, and appends new samples in t-ascending order. The first emitted
// sample of a path chains its ParentIndex to the already-assigned index of
// its real tree parent (or -1 for true ROOT); every later sample in the
// sub-segment chains to the one emitted just before it.
func (w *walker) emitSubSegment(path branch, i int) {
	t := w.table
	p1Node, p2Node := path[i], path[i+1]
	isRootSubSegment := i == 0

	p0 := w.controlP0(path, i)
	p3 := w.controlP3(path, i)
	p1, p2 := t.Pos(p1Node), t.Pos(p2Node)

	r1, r2 := t.Radius(p1Node), t.Radius(p2Node)

	// p1Node has already been emitted in every case except the very first
	// sub-segment of the very first path (true ROOT, not yet seen): every
	// later sub-segment in a path picks up at its predecessor's p2Node, and
	// every recursive path's root sub-segment starts at an already-emitted
	// branch point (spec §4.6 parentIds).
	emittedIdx, p1AlreadyEmitted := w.emitted[p1Node]
	skipZero := !isRootSubSegment || p1AlreadyEmitted

	prevIdx := -1
	if p1AlreadyEmitted {
		prevIdx = emittedIdx
	}

	for _, tt := range sampleTimes(w.refine) {
		if tt == 0 && skipZero {
			continue
		}

		pos := catmullRom(p0, p1, p2, p3, tt)
		radius := radiusAt(w.rule, r1, r2, tt, isRootSubSegment)

		typeCode := TypeInterior
		switch tt {
		case 0:
			typeCode = typeCodeOf(t, p1Node)
		case 1:
			typeCode = typeCodeOf(t, p2Node)
		}

		w.samples = append(w.samples, Sample{
			Pos:         pos,
			Radius:      radius,
			TypeCode:    typeCode,
			ParentIndex: prevIdx,
		})
		idx := len(w.samples)
		w.samples[idx-1].NodeIndex = idx

		if tt == 0 {
			w.emitted[p1Node] = idx
		}
		if tt == 1 {
			w.emitted[p2Node] = idx
		}
		prevIdx = idx
	}
}

// controlP0 resolves P0 for the sub-segment starting at path[i]: the prior
// node on the path, or the root extension if path[i] is ROOT, or the real
// tree parent of path[i] when this is a recursive branch-point start
// (spec §4.6).
func (w *walker) controlP0(path branch, i int) mgl64.Vec3 {
	t := w.table
	if i > 0 {
		return t.Pos(path[i-1])
	}

	n := path[i]
	if t.Kind(n) == vasculens.Root {
		p1 := t.Pos(n)
		dir := vasculens.BranchDirection(t, path[i+1])
		return p1.Sub(dir.Mul(0.1))
	}

	return t.Pos(t.Parent(n))
}

// controlP3 resolves P3 for the sub-segment ending at path[i+1]: the node
// after next on the path, or the terminal extension if path[i+1] is a
// terminal (spec §4.6).
func (w *walker) controlP3(path branch, i int) mgl64.Vec3 {
	t := w.table
	if i+2 < len(path) {
		return t.Pos(path[i+2])
	}

	n := path[i+1]
	p2 := t.Pos(n)
	dir := vasculens.BranchDirection(t, n)
	return p2.Add(dir)
}

func catmullRom(p0, p1, p2, p3 mgl64.Vec3, tt float64) mgl64.Vec3 {
	a := p0.Mul(-0.5).Add(p1.Mul(1.5)).Sub(p2.Mul(1.5)).Add(p3.Mul(0.5))
	b := p0.Sub(p1.Mul(2.5)).Add(p2.Mul(2)).Sub(p3.Mul(0.5))
	c := p0.Mul(-0.5).Add(p2.Mul(0.5))
	d := p1

	t2 := tt * tt
	t3 := t2 * tt
	return a.Mul(t3).Add(b.Mul(t2)).Add(c.Mul(tt)).Add(d)
}

func sampleTimes(r int) []float64 {
	if r <= 1 {
		return []float64{1}
	}
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = float64(i) / float64(r-1)
	}
	return out
}

func radiusAt(rule RadiusRule, r1, r2, tt float64, isRootSubSegment bool) float64 {
	if isRootSubSegment {
		return r2
	}
	switch rule {
	case RadiusExponential:
		if r1 <= 0 {
			return 0
		}
		return r1 * math.Pow(r2/r1, tt)
	default:
		return (1-tt)*r1 + tt*r2
	}
}

func typeCodeOf(t *vasculens.NodeTable, node int) int {
	switch t.Kind(node) {
	case vasculens.Root:
		return TypeRoot
	case vasculens.Bifurcation:
		return TypeBifurcation
	default:
		return TypeTerminal
	}
}
