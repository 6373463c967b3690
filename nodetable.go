package vasculens

import "github.com/go-gl/mathgl/mgl64"

// undoEntry is one step of the tagged variant log described in spec §9
// ("Undo transactions"): either the table grew by one node (undo truncates
// it back off), or a single node's full value changed (undo restores the
// snapshot). Recording whole-node snapshots rather than individual field
// writes is a simplification of the original handwritten journal; it is
// functionally equivalent since every setter here touches exactly one node.
type undoEntry struct {
	isAppend bool
	index    int
	prev     Node
}

// NodeTable is the dense, append-only store of tree nodes (C3). It supports
// a single nested "try it and roll back" transaction used by local
// optimization (spec §4.3).
type NodeTable struct {
	nodes     []Node
	journal   []undoEntry
	recording bool
}

// NewNodeTable creates the table with node 0 as ROOT at perfusionPos,
// carrying the full perfusion flow. ROOT's children are unset until the
// first candidate is connected.
func NewNodeTable(perfusionPos mgl64.Vec3, qPerf float64) *NodeTable {
	t := &NodeTable{}
	t.nodes = append(t.nodes, Node{
		Pos:    perfusionPos,
		Kind:   Root,
		Parent: noChild,
		Left:   noChild,
		Right:  noChild,
		Flow:   qPerf,
	})
	return t
}

// Size returns the number of nodes currently in the table.
func (t *NodeTable) Size() int { return len(t.nodes) }

// Node returns a copy of the node at index. Index 0 is always ROOT.
func (t *NodeTable) Node(index int) Node { return t.nodes[index] }

func (t *NodeTable) Pos(index int) mgl64.Vec3   { return t.nodes[index].Pos }
func (t *NodeTable) Kind(index int) NodeKind     { return t.nodes[index].Kind }
func (t *NodeTable) Parent(index int) int        { return t.nodes[index].Parent }
func (t *NodeTable) LeftChild(index int) int      { return t.nodes[index].Left }
func (t *NodeTable) RightChild(index int) int     { return t.nodes[index].Right }
func (t *NodeTable) Flow(index int) float64       { return t.nodes[index].Flow }
func (t *NodeTable) ReducedResistance(index int) float64 { return t.nodes[index].ReducedRes }
func (t *NodeTable) LeftRatio(index int) float64  { return t.nodes[index].LeftRatio }
func (t *NodeTable) RightRatio(index int) float64 { return t.nodes[index].RightRatio }
func (t *NodeTable) Radius(index int) float64     { return t.nodes[index].Radius }

// RootChild returns the single conceptual child of ROOT. ROOT stores this
// redundantly in both Left and Right (spec §9, first Open Question) rather
// than as a distinct field, so that the rest of the tree's "two children"
// shape is uniform; RootChild is the one accessor anything outside this
// file should use to read it.
func (t *NodeTable) RootChild() int { return t.nodes[0].Left }

func (t *NodeTable) record(index int) {
	if t.recording {
		t.journal = append(t.journal, undoEntry{index: index, prev: t.nodes[index]})
	}
}

// AddNode appends a new node and returns its index. If a transaction is
// active, the append is itself undoable.
func (t *NodeTable) AddNode(kind NodeKind, pos mgl64.Vec3, parent int, flow float64, left, right int) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, Node{
		Pos:    pos,
		Kind:   kind,
		Parent: parent,
		Left:   left,
		Right:  right,
		Flow:   flow,
	})
	if t.recording {
		t.journal = append(t.journal, undoEntry{isAppend: true, index: idx})
	}
	return idx
}

func (t *NodeTable) SetParent(index, parent int) {
	t.record(index)
	n := t.nodes[index]
	n.Parent = parent
	t.nodes[index] = n
}

func (t *NodeTable) SetLeftChild(index, child int) {
	t.record(index)
	n := t.nodes[index]
	n.Left = child
	t.nodes[index] = n
}

func (t *NodeTable) SetRightChild(index, child int) {
	t.record(index)
	n := t.nodes[index]
	n.Right = child
	t.nodes[index] = n
}

func (t *NodeTable) SetFlow(index int, flow float64) {
	t.record(index)
	n := t.nodes[index]
	n.Flow = flow
	t.nodes[index] = n
}

func (t *NodeTable) SetReducedResistance(index int, r float64) {
	t.record(index)
	n := t.nodes[index]
	n.ReducedRes = r
	t.nodes[index] = n
}

func (t *NodeTable) SetRatios(index int, left, right float64) {
	t.record(index)
	n := t.nodes[index]
	n.LeftRatio = left
	n.RightRatio = right
	t.nodes[index] = n
}

func (t *NodeTable) SetRadius(index int, radius float64) {
	t.record(index)
	n := t.nodes[index]
	n.Radius = radius
	t.nodes[index] = n
}

// StartUndo begins recording mutations for a trial transaction.
func (t *NodeTable) StartUndo() {
	t.recording = true
	t.journal = t.journal[:0]
}

// ApplyUndo reverses every recorded mutation in LIFO order, restoring the
// table to its state at the last StartUndo/ApplyUndo call. It may be
// called repeatedly within one transaction; recording stays active.
func (t *NodeTable) ApplyUndo() {
	for i := len(t.journal) - 1; i >= 0; i-- {
		e := t.journal[i]
		if e.isAppend {
			t.nodes = t.nodes[:e.index]
		} else {
			t.nodes[e.index] = e.prev
		}
	}
	t.journal = t.journal[:0]
}

// ClearUndo drops the log without undoing, committing intervening changes.
func (t *NodeTable) ClearUndo() {
	t.journal = t.journal[:0]
}

// StopUndo leaves transaction mode.
func (t *NodeTable) StopUndo() {
	t.recording = false
	t.journal = nil
}
