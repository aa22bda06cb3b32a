// Package viscosity builds per-cell viscosity multiplier maps for the fluid
// solver. Maps are plain []float32 of size² cells, row-major, ready for
// fluid.Solver.SetViscosityField.
package viscosity

import (
	"errors"
	"fmt"

	"github.com/ojrac/opensimplex-go"

	"github.com/rwill128/browser-neurogenesis-sub001/config"
)

// Map modes accepted by Build.
const (
	ModeNone    = "none"
	ModeUniform = "uniform"
	ModeNoise   = "noise"
)

// ErrUnknownMode is returned by Build for an unrecognised mode.
var ErrUnknownMode = errors.New("viscosity: unknown map mode")

// Uniform returns a size×size map with every cell set to mult.
func Uniform(size int, mult float32) []float32 {
	m := make([]float32, size*size)
	for i := range m {
		m[i] = mult
	}
	return m
}

// Noise returns a size×size map of fractal simplex noise remapped to [lo, hi].
// The same seed and parameters always produce the same map.
func Noise(size int, mc config.ViscosityMapConfig, lo, hi float32) []float32 {
	gen := opensimplex.New(mc.Seed)
	octaves := max(mc.Octaves, 1)
	scale := mc.Scale
	if scale <= 0 {
		scale = 1
	}

	// Total amplitude, so the FBM sum can be normalised back into [-1, 1].
	var norm float64
	for o, a := 0, 0.5; o < octaves; o++ {
		norm += a
		a *= mc.Gain
	}
	if norm == 0 {
		norm = 1
	}

	m := make([]float32, size*size)
	for y := 0; y < size; y++ {
		v := (float64(y) + 0.5) / float64(size)
		for x := 0; x < size; x++ {
			u := (float64(x) + 0.5) / float64(size)

			sum := 0.0
			amp := 0.5
			freq := scale
			for o := 0; o < octaves; o++ {
				sum += amp * gen.Eval2(u*freq, v*freq)
				freq *= 2
				amp *= mc.Gain
			}

			t := float32((sum/norm + 1) / 2)
			t = min(max(t, 0), 1)
			m[y*size+x] = lo + (hi-lo)*t
		}
	}
	return m
}

// Build produces the map described by c.ViscosityMap for c.Grid.Size,
// bounded by the fluid multiplier limits. Mode "none" (or empty) returns nil,
// which detaches any field from the solver.
func Build(c *config.Config) ([]float32, error) {
	mc := c.ViscosityMap
	lo := float32(c.Fluid.MinViscosityMultiplier)
	hi := float32(c.Fluid.MaxViscosityMultiplier)

	switch mc.Mode {
	case "", ModeNone:
		return nil, nil
	case ModeUniform:
		return Uniform(c.Grid.Size, min(max(float32(mc.Uniform), lo), hi)), nil
	case ModeNoise:
		return Noise(c.Grid.Size, mc, lo, hi), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mc.Mode)
	}
}
