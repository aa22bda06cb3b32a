package fluid

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// diffuse solves implicit diffusion of x0 into x over dom with
// a = dt*rate*(N-2)², c = 1+4a. A zero coefficient copies x0 into x.
func (s *Solver) diffuse(b int, x, x0 []float32, rate float32, iters int, dom *Domain) {
	if dom.Empty() {
		return
	}
	edge := float32(s.n - 2)
	a := s.dt * rate * edge * edge
	if a == 0 {
		for _, y := range dom.order {
			base := s.IX(0, y)
			for _, sp := range dom.Rows[y] {
				copy(x[base+sp.X0:base+sp.X1], x0[base+sp.X0:base+sp.X1])
			}
		}
		s.setBnd(b, x)
		return
	}
	s.linSolve(b, x, x0, a, 1+4*a, iters, dom)
}

// project removes the divergent part of (vx, vy) over dom. p and div are
// scratch; p is reset to zero before the pressure solve.
func (s *Solver) project(vx, vy, p, div []float32, dom *Domain) {
	if dom.Empty() {
		return
	}
	n := s.n
	nf := float32(n)

	for _, y := range dom.order {
		base := s.IX(0, y)
		for _, sp := range dom.Rows[y] {
			for i := base + sp.X0; i < base+sp.X1; i++ {
				div[i] = -0.5 * (vx[i+1] - vx[i-1] + vy[i+n] - vy[i-n]) / nf
			}
		}
	}
	clear(p)
	s.setBnd(kindScalar, div)
	s.setBnd(kindScalar, p)

	s.linSolve(kindScalar, p, div, 1, 4, s.cfg.PressureIterations, dom)

	for _, y := range dom.order {
		base := s.IX(0, y)
		for _, sp := range dom.Rows[y] {
			for i := base + sp.X0; i < base+sp.X1; i++ {
				vx[i] -= 0.5 * (p[i+1] - p[i-1]) * nf
				vy[i] -= 0.5 * (p[i+n] - p[i-n]) * nf
			}
		}
	}
	s.setBnd(kindVelX, vx)
	s.setBnd(kindVelY, vy)
}

// advect moves d0 along (vx, vy) into d over dom by tracing each cell
// backwards dt*N cells and sampling bilinearly at the source. On periodic
// grids the source wraps over the interior period N-2, matching setBnd.
func (s *Solver) advect(b int, d, d0, vx, vy []float32, dom *Domain) {
	if dom.Empty() {
		return
	}
	n := s.n
	nf := float32(n)
	dt0 := s.dt * nf
	lo, hi := float32(0.5), nf-1.5
	period := nf - 2

	for _, y := range dom.order {
		base := s.IX(0, y)
		fy := float32(y)
		for _, sp := range dom.Rows[y] {
			for x := sp.X0; x < sp.X1; x++ {
				i := base + x
				px := float32(x) - dt0*vx[i]
				py := fy - dt0*vy[i]

				var i0, j0, i1, j1 int
				if s.wrap {
					px = 1 + wrapf(px-1, period)
					py = 1 + wrapf(py-1, period)
					i0, j0 = floorInt(px), floorInt(py)
				} else {
					px = clamp32(px, lo, hi)
					py = clamp32(py, lo, hi)
					i0, j0 = int(px), int(py)
				}

				s1 := px - float32(i0)
				s0 := 1 - s1
				t1 := py - float32(j0)
				t0 := 1 - t1

				if s.wrap {
					i1, j1 = s.wrapInterior(i0+1), s.wrapInterior(j0+1)
					i0, j0 = s.wrapInterior(i0), s.wrapInterior(j0)
				} else {
					i1, j1 = i0+1, j0+1
				}

				d[i] = s0*(t0*d0[s.IX(i0, j0)]+t1*d0[s.IX(i0, j1)]) +
					s1*(t0*d0[s.IX(i1, j0)]+t1*d0[s.IX(i1, j1)])
			}
		}
	}
	s.setBnd(b, d)
}

// clampVelocity limits each velocity component to ±MaxVelComponent over dom.
func (s *Solver) clampVelocity(vx, vy []float32, dom *Domain) {
	lim := s.maxVel
	for _, y := range dom.RowOrder() {
		base := s.IX(0, y)
		for _, sp := range dom.Rows[y] {
			for i := base + sp.X0; i < base+sp.X1; i++ {
				vx[i] = clamp32(vx[i], -lim, lim)
				vy[i] = clamp32(vy[i], -lim, lim)
			}
		}
	}
}

// fadeDensity scales the dye channels toward zero by FadeRate over dom.
// Spans are contiguous in memory, so each one is a single BLAS scal.
func (s *Solver) fadeDensity(dom *Domain) {
	if s.fadeKeep == 1 {
		return
	}
	for _, y := range dom.RowOrder() {
		base := s.IX(0, y)
		for _, sp := range dom.Rows[y] {
			lo, hi := base+sp.X0, base+sp.X1
			for _, ch := range [3][]float32{s.DensityR, s.DensityG, s.DensityB} {
				blas32.Scal(s.fadeKeep, blas32.Vector{N: hi - lo, Inc: 1, Data: ch[lo:hi]})
			}
		}
	}
}

// wrapInterior maps a cell coordinate onto the periodic interior 1..N-2.
// Cells 0 and N-1 are ghosts of N-2 and 1, so the period is N-2.
func (s *Solver) wrapInterior(i int) int {
	return 1 + modInt(i-1, s.n-2)
}

func wrapf(v, m float32) float32 {
	r := float32(math.Mod(float64(v), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}
