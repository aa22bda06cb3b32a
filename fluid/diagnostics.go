package fluid

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// Diagnostics is a whole-grid health summary of the velocity and dye fields.
type Diagnostics struct {
	AvgSpeed      float32
	MaxSpeed      float32
	AvgDivergence float32 // Mean |div| over interior cells
	MaxDivergence float32
	DyeFootprint  float32 // Fraction of cells whose strongest channel exceeds the footprint threshold
	DyeTotal      float32 // Sum of all three channels
	NonFinite     int     // Cells holding NaN or ±Inf in any field
}

// LogValue implements slog.LogValuer.
func (d Diagnostics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("avg_speed", float64(d.AvgSpeed)),
		slog.Float64("max_speed", float64(d.MaxSpeed)),
		slog.Float64("avg_divergence", float64(d.AvgDivergence)),
		slog.Float64("max_divergence", float64(d.MaxDivergence)),
		slog.Float64("dye_footprint", float64(d.DyeFootprint)),
		slog.Float64("dye_total", float64(d.DyeTotal)),
		slog.Int("non_finite", d.NonFinite),
	)
}

// Diagnostics scans the full grid. It is O(N²) and meant for periodic
// reporting, not for every step. The solver never sanitises non-finite
// values; NonFinite only reports them.
func (s *Solver) Diagnostics() Diagnostics {
	n := s.n
	cells := n * n
	var d Diagnostics

	var sumSpeed float64
	visible := 0
	for i := 0; i < cells; i++ {
		vx, vy := s.Vx[i], s.Vy[i]
		r, g, b := s.DensityR[i], s.DensityG[i], s.DensityB[i]
		if !isFinite(vx) || !isFinite(vy) || !isFinite(r) || !isFinite(g) || !isFinite(b) {
			d.NonFinite++
			continue
		}
		sp := float32(math.Sqrt(float64(vx*vx + vy*vy)))
		sumSpeed += float64(sp)
		d.MaxSpeed = max(d.MaxSpeed, sp)
		if max(r, g, b) > s.footprint {
			visible++
		}
	}
	d.AvgSpeed = float32(sumSpeed / float64(cells))
	d.DyeFootprint = float32(visible) / float32(cells)

	var sumDiv float64
	for y := 1; y < n-1; y++ {
		base := s.IX(0, y)
		for x := 1; x < n-1; x++ {
			i := base + x
			div := 0.5 * ((s.Vx[i+1] - s.Vx[i-1]) + (s.Vy[i+n] - s.Vy[i-n]))
			if !isFinite(div) {
				continue
			}
			ad := float32(math.Abs(float64(div)))
			sumDiv += float64(ad)
			d.MaxDivergence = max(d.MaxDivergence, ad)
		}
	}
	d.AvgDivergence = float32(sumDiv / float64((n-2)*(n-2)))

	// Dye channels are clamped non-negative, so the absolute sum is the sum.
	for _, ch := range [3][]float32{s.DensityR, s.DensityG, s.DensityB} {
		d.DyeTotal += blas32.Asum(blas32.Vector{N: cells, Inc: 1, Data: ch})
	}
	return d
}
