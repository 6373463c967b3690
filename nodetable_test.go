package vasculens

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewNodeTableSeedsRoot(t *testing.T) {
	nt := NewNodeTable(mgl64.Vec3{1, 2, 3}, 10)

	if nt.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", nt.Size())
	}
	if nt.Kind(0) != Root {
		t.Fatalf("Kind(0) = %v, want Root", nt.Kind(0))
	}
	if nt.Flow(0) != 10 {
		t.Fatalf("Flow(0) = %v, want 10", nt.Flow(0))
	}
	if nt.Parent(0) != noChild {
		t.Fatalf("Parent(0) = %d, want noChild", nt.Parent(0))
	}
}

func TestAddNodeAppendsAndReturnsIndex(t *testing.T) {
	nt := NewNodeTable(mgl64.Vec3{0, 0, 0}, 1)

	idx := nt.AddNode(Terminal, mgl64.Vec3{1, 1, 1}, 0, 1, noChild, noChild)
	if idx != 1 {
		t.Fatalf("AddNode returned %d, want 1", idx)
	}
	if nt.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", nt.Size())
	}
	if nt.Kind(1) != Terminal || nt.Parent(1) != 0 {
		t.Fatalf("unexpected node at 1: kind=%v parent=%d", nt.Kind(1), nt.Parent(1))
	}
}

func TestUndoRestoresStateAcrossAppendsAndWrites(t *testing.T) {
	nt := NewNodeTable(mgl64.Vec3{0, 0, 0}, 1)
	root := nt.AddNode(Terminal, mgl64.Vec3{5, 0, 0}, 0, 1, noChild, noChild)
	nt.SetLeftChild(0, root)
	nt.SetRightChild(0, root)

	snapshotSize := nt.Size()
	snapshotFlow := nt.Flow(root)

	nt.StartUndo()

	nt.SetFlow(root, 999)
	newID := nt.AddNode(Bifurcation, mgl64.Vec3{1, 1, 1}, root, 5, noChild, noChild)
	nt.SetReducedResistance(newID, 42)
	nt.SetParent(root, newID)

	nt.ApplyUndo()

	if nt.Size() != snapshotSize {
		t.Fatalf("Size() after ApplyUndo = %d, want %d", nt.Size(), snapshotSize)
	}
	if nt.Flow(root) != snapshotFlow {
		t.Fatalf("Flow(root) after ApplyUndo = %v, want %v", nt.Flow(root), snapshotFlow)
	}
	if nt.Parent(root) != 0 {
		t.Fatalf("Parent(root) after ApplyUndo = %d, want 0", nt.Parent(root))
	}

	nt.StopUndo()
}

func TestUndoCanBeAppliedRepeatedlyWithinOneTransaction(t *testing.T) {
	nt := NewNodeTable(mgl64.Vec3{0, 0, 0}, 1)
	root := nt.AddNode(Terminal, mgl64.Vec3{5, 0, 0}, 0, 1, noChild, noChild)

	nt.StartUndo()

	nt.SetFlow(root, 5)
	nt.ApplyUndo()
	if nt.Flow(root) != 1 {
		t.Fatalf("Flow(root) after first ApplyUndo = %v, want 1", nt.Flow(root))
	}

	nt.SetFlow(root, 77)
	nt.ApplyUndo()
	if nt.Flow(root) != 1 {
		t.Fatalf("Flow(root) after second ApplyUndo = %v, want 1", nt.Flow(root))
	}

	nt.StopUndo()
}

func TestClearUndoCommitsChanges(t *testing.T) {
	nt := NewNodeTable(mgl64.Vec3{0, 0, 0}, 1)
	root := nt.AddNode(Terminal, mgl64.Vec3{5, 0, 0}, 0, 1, noChild, noChild)

	nt.StartUndo()
	nt.SetFlow(root, 50)
	nt.ClearUndo()
	nt.StopUndo()

	if nt.Flow(root) != 50 {
		t.Fatalf("Flow(root) after ClearUndo = %v, want 50 (committed)", nt.Flow(root))
	}
}

func TestRootChildTracksFirstInsertion(t *testing.T) {
	nt := NewNodeTable(mgl64.Vec3{0, 0, 0}, 1)
	first := nt.AddNode(Terminal, mgl64.Vec3{1, 0, 0}, 0, 1, noChild, noChild)
	nt.SetLeftChild(0, first)
	nt.SetRightChild(0, first)

	if nt.RootChild() != first {
		t.Fatalf("RootChild() = %d, want %d", nt.RootChild(), first)
	}
}
