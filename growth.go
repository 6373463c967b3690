package vasculens

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// GrowthParams bundles the parameters the growth loop itself needs, beyond
// the hydraulic constants (spec §4.4).
type GrowthParams struct {
	MinDistance       float64
	ClosestNeighbours int
	NumTarget         int
	Mu                float64
	Lambda            float64
	LocalOptSteps     int
}

// Engine is the growth engine (C4): it owns the node table and demand map
// for one build and drives the constrained stochastic growth process to
// completion.
type Engine struct {
	RunID string

	table      *NodeTable
	demand     *DemandMap
	hydraulics HydraulicParams
	growth     GrowthParams
	qTerm      float64
	log        Logger
}

// NewEngine wires a node table seeded at perfusionPos to a demand map and
// the hemodynamic/geometric parameters that govern acceptance.
func NewEngine(perfusionPos mgl64.Vec3, qPerf float64, demand *DemandMap, hydraulics HydraulicParams, growth GrowthParams, log Logger) *Engine {
	if log == nil {
		log = NewNopLogger()
	}
	return &Engine{
		RunID:      uuid.NewString(),
		table:      NewNodeTable(perfusionPos, qPerf),
		demand:     demand,
		hydraulics: hydraulics,
		growth:     growth,
		qTerm:      qPerf / float64(growth.NumTarget),
		log:        log,
	}
}

// Table exposes the underlying node table once growth has finished (or at
// any point, for inspection/tests).
func (e *Engine) Table() *NodeTable { return e.table }

const (
	maxConsecutiveFailures = 50
	minNodesBeforeStarved  = 3
)

// Build runs the main growth loop (spec §4.4 buildTree): repeatedly draw a
// demand-weighted candidate, try to connect it, and suppress demand near
// every acceptance, until the target node count is reached or the engine
// starves.
func (e *Engine) Build() (float64, error) {
	accepted := 0
	failures := 0

	for accepted < e.growth.NumTarget && (failures < maxConsecutiveFailures || accepted < minNodesBeforeStarved) {
		sum := e.demand.Sum()
		voxel := e.demand.Candidate(sum)
		cand := mgl64.Vec3{float64(voxel[0]), float64(voxel[1]), float64(voxel[2])}

		if e.connectCandidate(cand, e.localOptSteps()) {
			accepted++
			e.demand.ApplyCandidate(voxel)
			failures = 0
			e.log.Infof("progress: %d/%d", accepted, e.growth.NumTarget)
		} else {
			failures++
		}

		if failures > maxConsecutiveFailures && accepted < minNodesBeforeStarved {
			return 0, &GrowthStarvedError{Accepted: accepted, Failures: failures}
		}
	}

	return CalculateRadius(e.table, e.hydraulics), nil
}

func (e *Engine) localOptSteps() int {
	if e.growth.LocalOptSteps > 0 {
		return e.growth.LocalOptSteps
	}
	return 20
}

// connectCandidate tries to attach p to the tree, either directly to ROOT
// (first node) or via local optimization against the closest existing
// segments (spec §4.4).
func (e *Engine) connectCandidate(p mgl64.Vec3, steps int) bool {
	t := e.table

	if !e.validateCandidate(p, -1) {
		return false
	}

	if t.Size() == 1 {
		if !e.visible(t.Pos(0), p) {
			return false
		}
		e.connectPoint(p, 0, mgl64.Vec3{})
		return true
	}

	type scored struct {
		seg  int
		dist float64
	}
	segments := make([]scored, 0, t.Size()-1)
	for i := 1; i < t.Size(); i++ {
		segments = append(segments, scored{i, e.pointSegmentDistance(p, i)})
	}
	sort.Slice(segments, func(a, b int) bool { return segments[a].dist < segments[b].dist })

	limit := e.growth.ClosestNeighbours
	if limit > len(segments) {
		limit = len(segments)
	}

	bestFitness := math.Inf(1)
	bestSeg := -1
	var best mgl64.Vec3
	found := false

	for i := 0; i < limit; i++ {
		seg := segments[i].seg
		bif, fitness, ok := e.localOptimization(p, seg, steps)
		if ok && fitness < bestFitness {
			bestFitness = fitness
			best = bif
			bestSeg = seg
			found = true
		}
	}

	if !found {
		return false
	}

	e.connectPoint(p, bestSeg, best)
	return true
}

// pointSegmentDistance is the classic point-to-segment distance from the
// parent of seg to seg itself (spec §4.4).
func (e *Engine) pointSegmentDistance(p mgl64.Vec3, seg int) float64 {
	t := e.table
	a := t.Pos(t.Parent(seg))
	b := t.Pos(seg)
	ab := b.Sub(a)

	denom := ab.Dot(ab)
	if denom == 0 {
		return a.Sub(p).Len()
	}

	tt := -ab.Dot(a.Sub(p)) / denom
	if tt >= 0 && tt <= 1 {
		proj := a.Add(ab.Mul(tt))
		return proj.Sub(p).Len()
	}

	da := a.Sub(p).Len()
	db := b.Sub(p).Len()
	if da < db {
		return da
	}
	return db
}

// validateCandidate enforces the minimum-distance rule against every
// segment except the one named by ignored (spec §3 invariant 7).
func (e *Engine) validateCandidate(p mgl64.Vec3, ignored int) bool {
	t := e.table
	for i := 1; i < t.Size(); i++ {
		if i == ignored {
			continue
		}
		if e.pointSegmentDistance(p, i) < e.growth.MinDistance {
			return false
		}
	}
	return true
}

// connectPoint performs the topology surgery that inserts a new
// bifurcation+terminal pair into the tree (spec §4.4). When segment is
// ROOT, the tree is still empty, and the special first-insertion case
// applies: attach directly, no bifurcation node is created.
func (e *Engine) connectPoint(p mgl64.Vec3, segment int, bif mgl64.Vec3) {
	t := e.table

	if t.Kind(segment) == Root {
		termID := t.AddNode(Terminal, p, segment, e.qTerm, noChild, noChild)
		t.SetLeftChild(segment, termID)
		t.SetRightChild(segment, termID)
		CalculateReducedResistance(t, termID, e.hydraulics.Rho)
		return
	}

	bifID := t.Size()
	newID := bifID + 1

	oldParent := t.Parent(segment)
	t.SetParent(segment, bifID)
	if t.LeftChild(oldParent) == segment {
		t.SetLeftChild(oldParent, bifID)
	}
	if t.RightChild(oldParent) == segment {
		t.SetRightChild(oldParent, bifID)
	}
	if oldParent > 0 {
		IncrementFlow(t, oldParent, e.qTerm)
	}

	t.AddNode(Bifurcation, bif, oldParent, t.Flow(segment)+e.qTerm, segment, newID)
	t.AddNode(Terminal, p, bifID, e.qTerm, noChild, noChild)

	CalculateReducedResistance(t, segment, e.hydraulics.Rho)
	UpdateAtBifurcation(t, bifID, newID, e.hydraulics)
}

var axisSteps = [6][3]float64{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// localOptimization performs the 6-neighbour coordinate-descent search for
// the bifurcation point described in spec §4.4. It seeds the node table's
// undo transaction, repeatedly trial-inserts at each axis-aligned neighbor
// of the current candidate bifurcation point, and keeps the one that
// minimizes the whole tree's fitness, until no neighbor improves further.
func (e *Engine) localOptimization(p mgl64.Vec3, seg, steps int) (mgl64.Vec3, float64, bool) {
	t := e.table

	parentPos := t.Pos(t.Parent(seg))
	conPos := t.Pos(seg)

	bif := parentPos.Add(conPos.Sub(parentPos).Mul(0.5))

	sumDelta := ((parentPos.X()+conPos.X()+p.X())/3.0 - bif.X()) +
		((parentPos.Y()+conPos.Y()+p.Y())/3.0 - bif.Y()) +
		((parentPos.Z()+conPos.Z()+p.Z())/3.0 - bif.Z())
	h := sumDelta * 2.0 / float64(steps)

	if !e.visible(bif, p) || !e.inVolume(bif) {
		return mgl64.Vec3{}, 0, false
	}

	t.StartUndo()
	e.connectPoint(p, seg, bif)
	t.ApplyUndo()

	bestFitness := math.Inf(1)

	for iter := 0; iter < steps; iter++ {
		localBest := bif
		improved := false

		for _, axis := range axisSteps {
			test := bif.Add(mgl64.Vec3{axis[0] * h, axis[1] * h, axis[2] * h})

			if e.inVolume(test) &&
				e.visible(parentPos, test) &&
				e.visible(conPos, test) &&
				e.visible(p, test) &&
				e.validateCandidate(test, seg) {

				e.connectPoint(p, seg, test)
				CalculateRadius(t, e.hydraulics)
				fitness := Fitness(t, e.growth.Mu, e.growth.Lambda)

				if fitness < bestFitness {
					localBest = test
					bestFitness = fitness
					improved = true
				}
			}
			t.ApplyUndo()
		}

		if improved {
			bif = localBest
		} else {
			break
		}
	}

	t.ClearUndo()
	t.StopUndo()

	return bif, bestFitness, true
}

func (e *Engine) visible(a, b mgl64.Vec3) bool {
	return e.demand.Visible([3]float64{a.X(), a.Y(), a.Z()}, [3]float64{b.X(), b.Y(), b.Z()})
}

func (e *Engine) inVolume(p mgl64.Vec3) bool {
	return e.demand.InVolume([3]float64{p.X(), p.Y(), p.Z()})
}
