package refine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vasculens/vasculens"
)

func TestCatmullRomEndpointsMatchP1AndP2(t *testing.T) {
	p0 := mgl64.Vec3{0, 0, 0}
	p1 := mgl64.Vec3{1, 0, 0}
	p2 := mgl64.Vec3{2, 1, 0}
	p3 := mgl64.Vec3{3, 1, 1}

	if got := catmullRom(p0, p1, p2, p3, 0); got != p1 {
		t.Fatalf("catmullRom(t=0) = %v, want P1 %v", got, p1)
	}
	if got := catmullRom(p0, p1, p2, p3, 1); got != p2 {
		t.Fatalf("catmullRom(t=1) = %v, want P2 %v", got, p2)
	}
}

func TestSampleTimesEndpointsInclusive(t *testing.T) {
	ts := sampleTimes(4)
	if ts[0] != 0 || ts[len(ts)-1] != 1 {
		t.Fatalf("sampleTimes(4) = %v, want first=0 last=1", ts)
	}
	if got := sampleTimes(1); len(got) != 1 || got[0] != 1 {
		t.Fatalf("sampleTimes(1) = %v, want [1]", got)
	}
}

// buildBifurcation constructs ROOT(0) -> BIF(1) -> {TERM_L(2), TERM_R(3)},
// with TERM_R the longer final segment so the first pass selects it as the
// longest branch and TERM_L is only reached by the recursive "unselected
// child" pass.
func buildBifurcation() *vasculens.NodeTable {
	nt := vasculens.NewNodeTable(mgl64.Vec3{0, 0, 0}, 1)
	bif := nt.AddNode(vasculens.Bifurcation, mgl64.Vec3{0, 0, 10}, 0, 1, -1, -1)
	nt.SetLeftChild(0, bif)
	nt.SetRightChild(0, bif)

	left := nt.AddNode(vasculens.Terminal, mgl64.Vec3{5, 5, 15}, bif, 1, -1, -1)
	right := nt.AddNode(vasculens.Terminal, mgl64.Vec3{0, 0, 30}, bif, 1, -1, -1)
	nt.SetLeftChild(bif, left)
	nt.SetRightChild(bif, right)

	nt.SetRadius(bif, 2.0)
	nt.SetRadius(left, 0.8)
	nt.SetRadius(right, 1.0)

	return nt
}

func TestBuildPathsChainsParentIndicesAndRootRadiusRule(t *testing.T) {
	nt := buildBifurcation()

	samples, err := BuildPaths(nt, 2, RadiusLinear)
	if err != nil {
		t.Fatalf("BuildPaths: %v", err)
	}
	// ROOT, BIF, TERM_R (the chosen longest branch), then TERM_L (reached
	// only via the recursive "unselected child" pass): path-partition
	// completeness requires every node to appear exactly once (spec §8).
	if len(samples) != 4 {
		t.Fatalf("len(samples) = %d, want 4 (ROOT, BIF, TERM_R, TERM_L)", len(samples))
	}

	if samples[0].ParentIndex != -1 {
		t.Fatalf("samples[0].ParentIndex = %d, want -1 (true ROOT)", samples[0].ParentIndex)
	}
	if samples[0].TypeCode != TypeRoot {
		t.Fatalf("samples[0].TypeCode = %d, want TypeRoot", samples[0].TypeCode)
	}
	if samples[0].Radius != 2.0 {
		t.Fatalf("samples[0].Radius = %v, want 2.0 (root sub-segment rule: constant r2)", samples[0].Radius)
	}

	if samples[1].ParentIndex != samples[0].NodeIndex {
		t.Fatalf("samples[1].ParentIndex = %d, want %d", samples[1].ParentIndex, samples[0].NodeIndex)
	}
	if samples[1].TypeCode != TypeBifurcation {
		t.Fatalf("samples[1].TypeCode = %d, want TypeBifurcation", samples[1].TypeCode)
	}
	if samples[1].Radius != 2.0 {
		t.Fatalf("samples[1].Radius = %v, want 2.0", samples[1].Radius)
	}

	if samples[2].ParentIndex != samples[1].NodeIndex {
		t.Fatalf("samples[2].ParentIndex = %d, want %d", samples[2].ParentIndex, samples[1].NodeIndex)
	}
	if samples[2].TypeCode != TypeTerminal {
		t.Fatalf("samples[2].TypeCode = %d, want TypeTerminal", samples[2].TypeCode)
	}
	if samples[2].Radius != 1.0 {
		t.Fatalf("samples[2].Radius = %v, want 1.0", samples[2].Radius)
	}

	// TERM_L: reached via the recursive "unselected child" pass. Its path
	// is [BIF, TERM_L] with BIF prepended as the already-emitted branch
	// point, so its sole sample must chain to BIF's index (2), not -1, and
	// (root-sub-segment radius rule: constant = r2) use TERM_L's own radius.
	last := samples[3]
	if last.ParentIndex != samples[1].NodeIndex {
		t.Fatalf("samples[3].ParentIndex = %d, want %d (BIF's index, not -1)", last.ParentIndex, samples[1].NodeIndex)
	}
	if last.TypeCode != TypeTerminal {
		t.Fatalf("samples[3].TypeCode = %d, want TypeTerminal", last.TypeCode)
	}
	if last.Radius != 0.8 {
		t.Fatalf("samples[3].Radius = %v, want 0.8 (root sub-segment rule: constant r2 == TERM_L's own radius)", last.Radius)
	}

	for i, s := range samples {
		if s.NodeIndex != i+1 {
			t.Fatalf("samples[%d].NodeIndex = %d, want %d (1-based, emission order)", i, s.NodeIndex, i+1)
		}
	}
}

func TestBuildPathsRejectsReservedRadiusRule(t *testing.T) {
	nt := buildBifurcation()

	_, err := BuildPaths(nt, 2, RadiusLesionReserved)
	if err != ErrRadiusRuleReserved {
		t.Fatalf("BuildPaths with reserved rule: got %v, want ErrRadiusRuleReserved", err)
	}
}
