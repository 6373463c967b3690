package vasculens

import "math"

// SupplyKernel is the per-voxel demand-reduction function (C2): it is
// treated as an opaque black box by the growth engine, only ever called
// through ApplyCandidate (spec §4.2).
type SupplyKernel interface {
	// Reduce returns a multiplier in [0,1] applied to a voxel's demand
	// once cand has been accepted as a terminal. It must be 1 far from
	// cand and approach 0 as voxel nears cand.
	Reduce(cand, voxel [3]int) float64
}

// GaussianSupplyKernel suppresses demand within a characteristic radius of
// an accepted terminal: K(d) = 1 - exp(-d^2/(2*sigma^2)). It is 0 at the
// candidate itself and rises monotonically to 1 as distance grows, which
// satisfies spec §4.2's contract; the exact functional form is left
// unspecified there, so this is one valid choice, not "the" kernel.
type GaussianSupplyKernel struct {
	// SuppressionRadius (sigma) controls how far suppression reaches;
	// larger values spread acceptance-driven demand reduction further.
	SuppressionRadius float64
}

func (k GaussianSupplyKernel) Reduce(cand, voxel [3]int) float64 {
	dx := float64(voxel[0] - cand[0])
	dy := float64(voxel[1] - cand[1])
	dz := float64(voxel[2] - cand[2])
	d2 := dx*dx + dy*dy + dz*dz

	sigma := k.SuppressionRadius
	if sigma <= 0 {
		sigma = 1
	}

	return 1 - math.Exp(-d2/(2*sigma*sigma))
}
