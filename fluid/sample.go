package fluid

// WorldToGrid converts world coordinates to fractional grid coordinates.
func (s *Solver) WorldToGrid(wx, wy float32) (gx, gy float32) {
	return wx * s.ScaleX, wy * s.ScaleY
}

// SampleVelocity returns the bilinearly interpolated velocity at world
// coordinates. Off-grid points clamp to the edge, or wrap on periodic grids.
func (s *Solver) SampleVelocity(wx, wy float32) (vx, vy float32) {
	gx, gy := s.WorldToGrid(wx, wy)
	return s.sampleBilinear(s.Vx, gx, gy), s.sampleBilinear(s.Vy, gx, gy)
}

// SampleDensity returns the bilinearly interpolated dye colour at world
// coordinates.
func (s *Solver) SampleDensity(wx, wy float32) (r, g, b float32) {
	gx, gy := s.WorldToGrid(wx, wy)
	return s.sampleBilinear(s.DensityR, gx, gy),
		s.sampleBilinear(s.DensityG, gx, gy),
		s.sampleBilinear(s.DensityB, gx, gy)
}

// sampleBilinear reads field at cell-space (gx, gy), where cell centres sit
// on integer coordinates. Off-grid points clamp to the edge, or wrap over
// the interior period N-2 on periodic grids. Non-finite coordinates read
// cell (0, 0).
func (s *Solver) sampleBilinear(field []float32, gx, gy float32) float32 {
	if !isFinite(gx) || !isFinite(gy) {
		return field[s.IX(0, 0)]
	}
	if s.wrap {
		period := float32(s.n - 2)
		gx = 1 + wrapf(gx-1, period)
		gy = 1 + wrapf(gy-1, period)
	}
	x0, y0 := floorInt(gx), floorInt(gy)
	tx := gx - float32(x0)
	ty := gy - float32(y0)

	x1, y1 := x0+1, y0+1
	if s.wrap {
		x0, x1 = s.wrapInterior(x0), s.wrapInterior(x1)
		y0, y1 = s.wrapInterior(y0), s.wrapInterior(y1)
	}

	a := field[s.IX(x0, y0)] + (field[s.IX(x1, y0)]-field[s.IX(x0, y0)])*tx
	b := field[s.IX(x0, y1)] + (field[s.IX(x1, y1)]-field[s.IX(x0, y1)])*tx
	return a + (b-a)*ty
}
