// Command vasculens grows a synthetic vascular tree over a fixed
// myocardial demand volume and emits its splined centerline in SWC format
// (spec §6).
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/vasculens/vasculens"
	"github.com/vasculens/vasculens/refine"
	"github.com/vasculens/vasculens/swc"

	"github.com/go-gl/mathgl/mgl64"
)

// mandatoryFlags are the 18 required "--key=value" parameters (spec §6).
// Order matches the spec's own listing, which is also the order missing
// flags are reported in.
var mandatoryFlags = []string{
	"rr", "am", "bb", "mr", "mt", "pp", "tp", "pf",
	"r", "g", "l", "m", "md", "nn", "cn", "rs", "ar", "op",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	log := vasculens.NewDefaultLogger("", false)

	fs := pflag.NewFlagSet("vasculens", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	rr := fs.Float64("rr", 0, "root radius")
	am := fs.String("am", "", "angle mode: d|degree|r|radian")
	bb := fs.String("bb", "", "output bounding box \"X Y Z\"")
	mr := fs.String("mr", "", "Euler rotation \"Rx Ry Rz\"")
	mt := fs.Float64("mt", 0, "myocardium thickness [0,1]")
	pp := fs.Float64("pp", 0, "Pperf")
	tp := fs.Float64("tp", 0, "Pterm")
	pf := fs.Float64("pf", 0, "Qperf")
	rho := fs.Float64("r", 0, "rho")
	gamma := fs.Float64("g", 0, "gamma")
	lambda := fs.Float64("l", 0, "lambda")
	mu := fs.Float64("m", 0, "mu")
	md := fs.Float64("md", 0, "minimum distance")
	nn := fs.Int("nn", 0, "N target")
	cn := fs.Int("cn", 0, "closest neighbours")
	rs := fs.Int("rs", 0, "random seed (<=0 nondeterministic)")
	ar := fs.Int("ar", 0, "axial refinement")
	op := fs.String("op", "", "output path")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "parse error: %v\n", err)
		return 1
	}

	var missing []string
	for _, name := range mandatoryFlags {
		if f := fs.Lookup(name); f == nil || !f.Changed {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(stderr, "missing mandatory arguments: %s\n", strings.Join(missing, ", "))
		return 2
	}

	cfg, err := buildConfig(*rr, *am, *bb, *mr, *mt, *pp, *tp, *pf, *rho, *gamma, *lambda, *mu, *md, *nn, *cn, *rs, *ar, *op)
	if err != nil {
		fmt.Fprintf(stderr, "parse error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	start := time.Now()

	kernel := vasculens.GaussianSupplyKernel{SuppressionRadius: cfg.MinDistance + 1}
	result, err := vasculens.Run(cfg, kernel, log)
	if err != nil {
		var perfErr *vasculens.PerfusionOutsideVolumeError
		if errors.As(err, &perfErr) {
			fmt.Fprintln(stdout, "[paramfail]")
		}
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	log.Infof("the vascular tree was built in %s", time.Since(start))

	if err := emit(cfg, result); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "[compsuccess]")
	return 0
}

func buildConfig(rr float64, am, bb, mr string, mt, pp, tp, pf, rho, gamma, lambda, mu, md float64, nn, cn, rs, ar int, op string) (vasculens.EngineConfig, error) {
	cfg := vasculens.NewEngineConfig()

	switch strings.ToLower(am) {
	case "d", "degree":
		cfg.AngleMode = vasculens.AngleDegrees
	case "r", "radian":
		cfg.AngleMode = vasculens.AngleRadians
	default:
		return cfg, fmt.Errorf("invalid --am %q: expected d|degree|r|radian", am)
	}

	bbox, err := parseTriple(bb)
	if err != nil {
		return cfg, fmt.Errorf("invalid --bb: %w", err)
	}
	euler, err := parseTriple(mr)
	if err != nil {
		return cfg, fmt.Errorf("invalid --mr: %w", err)
	}

	cfg.RootRadius = rr
	cfg.BoundingBox = bbox
	cfg.EulerAngles = euler
	cfg.MyoThickness = mt
	cfg.Pperf = pp
	cfg.Pterm = tp
	cfg.Qperf = pf
	cfg.Rho = rho
	cfg.Gamma = gamma
	cfg.Lambda = lambda
	cfg.Mu = mu
	cfg.MinDistance = md
	cfg.NumTarget = nn
	cfg.ClosestNeighbours = cn
	cfg.RandomSeed = rs
	cfg.AxialRefinement = ar
	cfg.OutputPath = op

	return cfg, nil
}

func parseTriple(s string) ([3]float64, error) {
	var out [3]float64
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return out, fmt.Errorf("expected 3 space-separated values, got %q", s)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return out, fmt.Errorf("%q is not a number: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}

// emit runs the spline refinement pass and the post-transform/output
// pipeline (spec §4.6, §6): SetOrigin, Scale, Rotate, then write.
func emit(cfg vasculens.EngineConfig, result *vasculens.Result) error {
	samples, err := refine.BuildPaths(result.Table, cfg.AxialRefinement, refine.RadiusLinear)
	if err != nil {
		return err
	}

	tree := &swc.Tree{Samples: samples}

	origin := mgl64.Vec3{
		float64(cfg.PerfusionVoxel[0]),
		float64(cfg.PerfusionVoxel[1]),
		float64(cfg.PerfusionVoxel[2]),
	}
	tree.SetOrigin(origin)

	// rootRadiusScaleFactor rescales every radius so the grown root vessel
	// (computed in voxel units by the hydraulic solver) matches the
	// caller-specified --rr (spec §4.6, §6).
	rootScale := cfg.RootRadius / result.OriginalRootRadius
	tree.Scale(cfg.VolumeScaleFactor(), rootScale)

	tree.Rotate(cfg.EulerRadians())

	return tree.WriteFile(cfg.OutputPath)
}
