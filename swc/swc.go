// Package swc converts a refined centerline into the SWC neuromorphology
// record format (C7): one ASCII line per sampled point, plus the
// post-transform pipeline (origin, scale, rotate) spec §4.6 requires before
// emission.
package swc

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vasculens/vasculens"
	"github.com/vasculens/vasculens/refine"
)

// Tree is a post-processed, emission-ready copy of a refine.BuildPaths
// result: SetOrigin/Scale/Rotate mutate it in place, in the order the spec
// requires (translate, then scale, then rotate).
type Tree struct {
	Samples []refine.Sample
}

// SetOrigin translates every sample so that origin becomes (0,0,0)
// (spec §4.6 "translate so the perfusion point becomes the origin").
func (t *Tree) SetOrigin(origin mgl64.Vec3) {
	for i := range t.Samples {
		t.Samples[i].Pos = t.Samples[i].Pos.Sub(origin)
	}
}

// Scale multiplies every position by volumeScaleFactor (componentwise) and
// every radius by rootRadiusScaleFactor (spec §4.6).
func (t *Tree) Scale(volumeScaleFactor [3]float64, rootRadiusScaleFactor float64) {
	for i := range t.Samples {
		p := t.Samples[i].Pos
		t.Samples[i].Pos = mgl64.Vec3{
			p.X() * volumeScaleFactor[0],
			p.Y() * volumeScaleFactor[1],
			p.Z() * volumeScaleFactor[2],
		}
		t.Samples[i].Radius *= rootRadiusScaleFactor
	}
}

// Rotate applies an intrinsic X-then-Y-then-Z Euler rotation, angles in
// radians, to every sample's position (spec §4.6).
func (t *Tree) Rotate(anglesRadians [3]float64) {
	rot := eulerXYZ(anglesRadians[0], anglesRadians[1], anglesRadians[2])
	for i := range t.Samples {
		t.Samples[i].Pos = rot.Mul3x1(t.Samples[i].Pos)
	}
}

// eulerXYZ builds the intrinsic X*Y*Z rotation matrix: rotate about X, then
// about the rotated Y, then about the twice-rotated Z — equivalently,
// Rx * Ry * Rz applied to a column vector.
func eulerXYZ(rx, ry, rz float64) mgl64.Mat3 {
	x := mgl64.Rotate3DX(rx)
	y := mgl64.Rotate3DY(ry)
	z := mgl64.Rotate3DZ(rz)
	return x.Mul3(y).Mul3(z)
}

// Write serializes the tree's samples to w, one line per sample:
// "<nodeIndex> <typeCode> <x> <y> <z> <radius> <parentIndex>", with a
// trailing newline after the last row (spec §6).
func (t *Tree) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, s := range t.Samples {
		_, err := fmt.Fprintf(bw, "%d %d %g %g %g %g %d\n",
			s.NodeIndex, s.TypeCode, s.Pos.X(), s.Pos.Y(), s.Pos.Z(), s.Radius, s.ParentIndex)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile creates (or truncates) path and writes the tree to it,
// wrapping any failure as vasculens.EmissionFailureError (spec §7).
func (t *Tree) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &vasculens.EmissionFailureError{Path: path, Err: err}
	}
	defer f.Close()

	if err := t.Write(f); err != nil {
		return &vasculens.EmissionFailureError{Path: path, Err: err}
	}
	return nil
}
