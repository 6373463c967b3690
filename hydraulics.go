package vasculens

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// piConstant is specified to 13 digits (spec §4.5).
const piConstant = 3.1415926535897

// HydraulicParams bundles the parameters the reduced-resistance/ratio/
// radius bookkeeping needs (C5); rho is blood viscosity/density lumped
// into one constant per spec §4.5.
type HydraulicParams struct {
	Rho   float64
	Gamma float64
	Pperf float64
	Pterm float64
}

// Distance returns the Euclidean distance between two nodes' positions.
func Distance(t *NodeTable, from, to int) float64 {
	a, b := t.Pos(from), t.Pos(to)
	return a.Sub(b).Len()
}

// BranchLength is the length of the segment from a node to its parent.
func BranchLength(t *NodeTable, node int) float64 {
	return Distance(t, node, t.Parent(node))
}

// BranchDirection is the unit vector from a node's parent toward it.
func BranchDirection(t *NodeTable, node int) mgl64.Vec3 {
	from := t.Pos(t.Parent(node))
	to := t.Pos(node)
	v := to.Sub(from)
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{0, 0, 0}
	}
	return v.Mul(1 / l)
}

// CalculateReducedResistance computes R-tilde for the segment at id
// (spec §4.5). TERM segments are a pure viscous-loss term; bifurcations
// combine their children's resistances in parallel, weighted by the radius
// ratio to the fourth power, then add their own viscous loss.
func CalculateReducedResistance(t *NodeTable, id int, rho float64) {
	if t.Kind(id) == Terminal {
		r := 8 * rho * Distance(t, id, t.Parent(id)) / piConstant
		t.SetReducedResistance(id, r)
		return
	}

	left, right := t.LeftChild(id), t.RightChild(id)
	acc := math.Pow(t.LeftRatio(id), 4)/t.ReducedResistance(left) +
		math.Pow(t.RightRatio(id), 4)/t.ReducedResistance(right)
	r := 1/acc + 8*rho*Distance(t, id, t.Parent(id))/piConstant
	t.SetReducedResistance(id, r)
}

// CalculateRatios computes rho_L/rho_R for the bifurcation at id so that
// rho_L^gamma + rho_R^gamma = 1 (spec §3 invariant 5, §4.5).
func CalculateRatios(t *NodeTable, id int, gamma float64) {
	left, right := t.LeftChild(id), t.RightChild(id)

	num := t.Flow(left) * t.ReducedResistance(left)
	den := t.Flow(right) * t.ReducedResistance(right)
	x := math.Pow(num/den, 0.25)

	leftRatio := math.Pow(1+math.Pow(x, -gamma), -1/gamma)
	rightRatio := math.Pow(1+math.Pow(x, gamma), -1/gamma)
	t.SetRatios(id, leftRatio, rightRatio)
}

// UpdateAtBifurcation recurses toward the root after a new child is
// attached at id, refreshing the newly attached child's resistance and
// id's own ratios at each step (spec §4.4).
func UpdateAtBifurcation(t *NodeTable, id, newChild int, params HydraulicParams) {
	if t.Kind(id) != Root {
		CalculateReducedResistance(t, newChild, params.Rho)
		CalculateRatios(t, id, params.Gamma)
		UpdateAtBifurcation(t, t.Parent(id), id, params)
		return
	}
	CalculateReducedResistance(t, newChild, params.Rho)
}

// IncrementFlow adds qterm to parent's flow and propagates up the ancestor
// chain, stopping once it would reach ROOT (spec §4.4 connectPoint).
func IncrementFlow(t *NodeTable, parent int, qterm float64) {
	t.SetFlow(parent, t.Flow(parent)+qterm)
	if t.Parent(parent) > 0 {
		IncrementFlow(t, t.Parent(parent), qterm)
	}
}

// CalculateRadius runs the full radius propagation pass (spec §4.5): the
// root vessel's radius is derived from the pressure-drop law, then every
// descendant's radius is parent radius times the appropriate ratio. It
// returns the root radius (stored separately by callers as
// originalRootRadius for later rescaling).
func CalculateRadius(t *NodeTable, params HydraulicParams) float64 {
	rootChild := t.RootChild()

	rootRadius := math.Pow(t.Flow(rootChild)*t.ReducedResistance(rootChild)/(params.Pperf-params.Pterm), 0.25)
	t.SetRadius(rootChild, rootRadius)

	propagateRadius(t, rootChild)
	return rootRadius
}

func propagateRadius(t *NodeTable, id int) {
	if t.Kind(id) == Terminal {
		return
	}
	left, right := t.LeftChild(id), t.RightChild(id)
	t.SetRadius(left, t.Radius(id)*t.LeftRatio(id))
	t.SetRadius(right, t.Radius(id)*t.RightRatio(id))
	propagateRadius(t, left)
	propagateRadius(t, right)
}

// Fitness is the tree cost functional F = sum(L(i)^mu * r(i)^lambda) over
// every non-root node (spec §4.4), lower is better.
func Fitness(t *NodeTable, mu, lambda float64) float64 {
	acc := 0.0
	for i := 1; i < t.Size(); i++ {
		acc += math.Pow(Distance(t, i, t.Parent(i)), mu) * math.Pow(t.Radius(i), lambda)
	}
	return acc
}
