// Package vasculens synthesizes a 3D vascular tree over a voxelized oxygen
// demand volume: a constrained stochastic growth engine samples candidate
// terminal locations weighted by residual demand, tests visibility through
// a voxel occupancy map, locally optimizes each new bifurcation against a
// global fitness functional, and maintains Murray-law hydraulic invariants
// (flow, reduced resistance, bifurcation ratios, radius) across the whole
// tree as it grows.
//
// The subpackages refine and swc take the grown tree from here downstream:
// refine decomposes it into Catmull-Rom splined paths, and swc serializes
// the result in SWC neuromorphology format.
package vasculens
