package vasculens

import (
	"math"
	"math/rand"
)

// DemandMap is the voxelized oxygen-demand field (C1). It keeps two dense
// arrays over the same bounding box: an immutable original, used only for
// the visibility test, and an effective map that acceptance mutates
// (spec §3).
type DemandMap struct {
	dim       [3]int
	original  []float64
	effective []float64
	kernel    SupplyKernel
	rng       *rand.Rand
}

func (m *DemandMap) index(i, j, k int) int {
	return k + m.dim[2]*(j+m.dim[1]*i)
}

func (m *DemandMap) inBounds(i, j, k int) bool {
	return i >= 0 && i < m.dim[0] && j >= 0 && j < m.dim[1] && k >= 0 && k < m.dim[2]
}

// NewDemandMap constructs the ellipsoidal-shell demand map described in
// spec §4.1: voxel (i,j,k) is active iff its normalized squared distance
// from centroid falls in (max(0,1-thickness)^2, 1), with the z axis
// flipped for orientation. perfusion is the voxel the whole tree must grow
// from; construction fails if that voxel is not active.
//
// The original C++ implementation reflects k as dim[2]-k, which indexes
// one past the array for k==0; this reconstruction uses the memory-safe
// dim[2]-1-k (a full index reversal) instead, which is the same "flip the
// z axis" correction without the off-by-one.
func NewDemandMap(dim [3]int, centroid [3]float64, thickness float64, perfusion [3]int, kernel SupplyKernel, randomSeed int, log Logger) (*DemandMap, error) {
	if log == nil {
		log = NewNopLogger()
	}

	m := &DemandMap{
		dim:       dim,
		original:  make([]float64, dim[0]*dim[1]*dim[2]),
		effective: make([]float64, dim[0]*dim[1]*dim[2]),
		kernel:    kernel,
	}

	innerBound := math.Max(0, 1-thickness)
	innerBound *= innerBound

	validPerfusion := false
	count := 0

	for i := 0; i < dim[0]; i++ {
		fi := (float64(i) - centroid[0]) / (float64(dim[0]) - centroid[0])
		for j := 0; j < dim[1]; j++ {
			fj := (float64(j) - centroid[1]) / (float64(dim[1]) - centroid[1])
			for k := 0; k < dim[2]; k++ {
				fk := (float64(k) - centroid[2]) / (float64(dim[2]) - centroid[2])
				val := fi*fi + fj*fj + fk*fk

				if val <= innerBound || val >= 1 {
					continue
				}

				rk := dim[2] - 1 - k
				idx := m.index(i, j, rk)
				m.original[idx] = 1
				m.effective[idx] = 1
				count++

				if i == perfusion[0] && j == perfusion[1] && rk == perfusion[2] {
					validPerfusion = true
				}
			}
		}
	}

	log.Infof("myocardium volume: %d voxels", count)

	if !validPerfusion {
		return nil, &PerfusionOutsideVolumeError{Perfusion: perfusion}
	}

	if randomSeed > 0 {
		m.rng = newSeededRand(int64(randomSeed))
	} else {
		m.rng = newSeededRand(nondeterministicSeed())
	}
	return m, nil
}

// Sum returns the sum of the effective map (spec §4.1 sum()).
func (m *DemandMap) Sum() float64 {
	acc := 0.0
	for _, v := range m.effective {
		acc += v
	}
	return acc
}

// Candidate draws a voxel with probability proportional to its effective
// demand. The scan order (lexicographic i,j,k, first voxel whose prefix
// sum reaches the draw) is part of the contract: it is what makes output
// reproducible under a fixed seed, not an implementation detail.
func (m *DemandMap) Candidate(sum float64) [3]int {
	u := m.rng.Float64() * sum

	acc := 0.0
	for i := 0; i < m.dim[0]; i++ {
		for j := 0; j < m.dim[1]; j++ {
			for k := 0; k < m.dim[2]; k++ {
				acc += m.effective[m.index(i, j, k)]
				if acc >= u {
					return [3]int{i, j, k}
				}
			}
		}
	}
	return [3]int{m.dim[0] - 1, m.dim[1] - 1, m.dim[2] - 1}
}

// ApplyCandidate suppresses demand near an accepted terminal by multiplying
// every still-active effective voxel by the supply kernel's reduction.
func (m *DemandMap) ApplyCandidate(cand [3]int) {
	for i := 0; i < m.dim[0]; i++ {
		for j := 0; j < m.dim[1]; j++ {
			for k := 0; k < m.dim[2]; k++ {
				idx := m.index(i, j, k)
				if m.effective[idx] <= 0 {
					continue
				}
				m.effective[idx] *= m.kernel.Reduce(cand, [3]int{i, j, k})
			}
		}
	}
}

// Visible returns whether the straight line from a to b passes only
// through voxels where the original map is active (spec §4.1). It walks a
// standard 3D DDA: at each step it advances to the next axis-crossing
// plane rather than marching at a fixed pace, so it visits exactly the
// voxels the segment passes through.
func (m *DemandMap) Visible(a, b [3]float64) bool {
	vec := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	pos := a

	voxel := [3]int{roundToVoxel(a[0]), roundToVoxel(a[1]), roundToVoxel(a[2])}
	target := [3]int{roundToVoxel(b[0]), roundToVoxel(b[1]), roundToVoxel(b[2])}

	const eps = 1e-10

	for {
		if voxel == target {
			return true
		}
		if math.Abs(pos[0]-b[0]) < eps && math.Abs(pos[1]-b[1]) < eps && math.Abs(pos[2]-b[2]) < eps {
			return true
		}

		mult := math.Inf(1)
		for axis := 0; axis < 3; axis++ {
			dir := 0.5
			if vec[axis] < 0 {
				dir = -0.5
			}

			single := math.Abs((float64(voxel[axis]) - pos[axis] + dir) / vec[axis])
			for single == 0 {
				dir *= 1.000000001
				single = math.Abs((float64(voxel[axis]) - pos[axis] + dir) / vec[axis])
			}

			if single < mult {
				mult = single
			}
		}

		for axis := 0; axis < 3; axis++ {
			pos[axis] += mult * vec[axis]
			voxel[axis] = roundToVoxel(pos[axis])
		}

		if !m.inBounds(voxel[0], voxel[1], voxel[2]) {
			return false
		}
		if m.original[m.index(voxel[0], voxel[1], voxel[2])] == 0 {
			return false
		}
	}
}

// InVolume reports whether point lies within the map's bounding box
// (spec §4.4 inVolume).
func (m *DemandMap) InVolume(point [3]float64) bool {
	for axis := 0; axis < 3; axis++ {
		if point[axis] < 0 || point[axis] >= float64(m.dim[axis]) {
			return false
		}
	}
	return true
}

func roundToVoxel(v float64) int {
	return int(math.Floor(v + 0.5))
}
