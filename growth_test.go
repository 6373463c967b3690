package vasculens

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func newTestDemand(t *testing.T) *DemandMap {
	t.Helper()
	dim := [3]int{30, 30, 30}
	centroid := [3]float64{15, 15, 15}
	perfusion := [3]int{29, 15, 16}
	m, err := NewDemandMap(dim, centroid, 0.6, perfusion, GaussianSupplyKernel{SuppressionRadius: 2}, 11, nil)
	require.NoError(t, err)
	return m
}

func newTestEngine(t *testing.T, numTarget, closestNeighbours int) *Engine {
	t.Helper()
	demand := newTestDemand(t)
	perfusionPos := mgl64.Vec3{29, 15, 16}

	hydraulics := HydraulicParams{Rho: 1, Gamma: 3, Pperf: 100, Pterm: 10}
	growth := GrowthParams{
		MinDistance:       0,
		ClosestNeighbours: closestNeighbours,
		NumTarget:         numTarget,
		Mu:                1,
		Lambda:            2.5,
	}
	return NewEngine(perfusionPos, 2.0, demand, hydraulics, growth, nil)
}

func TestConnectCandidateFirstInsertionIsDirect(t *testing.T) {
	e := newTestEngine(t, 5, 2)
	require.Equal(t, 1, e.table.Size())

	ok := e.connectCandidate(mgl64.Vec3{29, 15, 16}, 20)
	require.True(t, ok, "first candidate at the perfusion voxel itself must always be visible")
	require.Equal(t, 2, e.table.Size())
	require.Equal(t, Terminal, e.table.Kind(1))
	require.Equal(t, e.table.RootChild(), 1)
	require.Equal(t, e.qTerm, e.table.Flow(1))
}

func TestValidateCandidateEnforcesMinDistance(t *testing.T) {
	e := newTestEngine(t, 5, 2)
	e.growth.MinDistance = 100

	require.True(t, e.connectCandidate(mgl64.Vec3{29, 15, 16}, 20))

	// any second candidate is within 100 units of the first segment in a
	// 30^3 volume, so it must be rejected by the minDistance rule.
	ok := e.connectCandidate(mgl64.Vec3{29, 16, 16}, 20)
	require.False(t, ok)
	require.Equal(t, 2, e.table.Size())
}

func TestPointSegmentDistanceDegenerateSegmentFallsBackToPoint(t *testing.T) {
	e := newTestEngine(t, 5, 2)
	require.True(t, e.connectCandidate(mgl64.Vec3{29, 15, 16}, 20))

	// the first segment degenerates to a point (both endpoints are the
	// perfusion voxel), so distance falls back to point-to-point.
	dist := e.pointSegmentDistance(mgl64.Vec3{29, 15, 16.5}, 1)
	require.InDelta(t, 0.5, dist, 1e-9)
}

func TestBuildCompletesWithPositiveRootRadius(t *testing.T) {
	e := newTestEngine(t, 3, 3)
	rootRadius, err := e.Build()
	require.NoError(t, err)
	require.Greater(t, rootRadius, 0.0)
	require.GreaterOrEqual(t, e.table.Size(), 2)
}

func TestBuildStarvesWithImpossibleMinDistance(t *testing.T) {
	e := newTestEngine(t, 5, 2)
	e.growth.MinDistance = 1e9

	_, err := e.Build()
	require.Error(t, err)

	var starved *GrowthStarvedError
	require.ErrorAs(t, err, &starved)
	require.Less(t, starved.Accepted, 3)
}
