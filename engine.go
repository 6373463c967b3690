package vasculens

import "github.com/go-gl/mathgl/mgl64"

// Result is everything downstream refinement/emission needs once a build
// has finished: the grown node table and the root radius as it stood right
// after growth, before any post-transform rescaling (spec §4.5
// originalRootRadius).
type Result struct {
	Table             *NodeTable
	OriginalRootRadius float64
	RunID             string
}

// Run wires C1 (demand map) through C5 (hydraulic solver) end to end: it
// builds the demand map from cfg's fixed internal constants, constructs the
// growth engine seeded at the perfusion voxel, and drives it to completion
// (spec §2 "Flow").
func Run(cfg EngineConfig, kernel SupplyKernel, log Logger) (*Result, error) {
	if log == nil {
		log = NewNopLogger()
	}

	centroid := cfg.MyoCentroid
	demand, err := NewDemandMap(cfg.MapBoundingBox, centroid, cfg.MyoThickness, cfg.PerfusionVoxel, kernel, cfg.RandomSeed, log)
	if err != nil {
		return nil, err
	}

	perfusionPos := mgl64.Vec3{
		float64(cfg.PerfusionVoxel[0]),
		float64(cfg.PerfusionVoxel[1]),
		float64(cfg.PerfusionVoxel[2]),
	}

	hydraulics := HydraulicParams{
		Rho:   cfg.Rho,
		Gamma: cfg.Gamma,
		Pperf: cfg.Pperf,
		Pterm: cfg.Pterm,
	}
	growth := GrowthParams{
		MinDistance:       cfg.MinDistance,
		ClosestNeighbours: cfg.ClosestNeighbours,
		NumTarget:         cfg.NumTarget,
		Mu:                cfg.Mu,
		Lambda:            cfg.Lambda,
	}

	engine := NewEngine(perfusionPos, cfg.Qperf, demand, hydraulics, growth, log)

	rootRadius, err := engine.Build()
	if err != nil {
		return nil, err
	}

	return &Result{
		Table:              engine.Table(),
		OriginalRootRadius: rootRadius,
		RunID:              engine.RunID,
	}, nil
}
