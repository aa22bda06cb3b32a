package fluid

// linSolve runs iters Gauss-Seidel sweeps of
//
//	x[i] = (x0[i] + a*(x[i+1] + x[i-1] + x[i+N] + x[i-N])) / c
//
// over the cells of dom, applying boundary conditions after every sweep.
//
// For velocity components with a viscosity field attached, a is scaled per
// cell by the local multiplier and c becomes 1+4*a_i. The per-cell
// coefficients are computed once per call and reused by every sweep.
func (s *Solver) linSolve(b int, x, x0 []float32, a, c float32, iters int, dom *Domain) {
	if dom.Empty() || iters <= 0 {
		return
	}
	n := s.n

	if s.viscField != nil && (b == kindVelX || b == kindVelY) {
		s.prepareViscousCoefficients(a, dom)
		for k := 0; k < iters; k++ {
			for _, y := range dom.order {
				base := s.IX(0, y)
				for _, sp := range dom.Rows[y] {
					for i := base + sp.X0; i < base+sp.X1; i++ {
						x[i] = (x0[i] + s.coefA[i]*(x[i+1]+x[i-1]+x[i+n]+x[i-n])) * s.coefInvC[i]
					}
				}
			}
			s.setBnd(b, x)
		}
		return
	}

	invC := 1 / c
	for k := 0; k < iters; k++ {
		for _, y := range dom.order {
			base := s.IX(0, y)
			for _, sp := range dom.Rows[y] {
				for i := base + sp.X0; i < base+sp.X1; i++ {
					x[i] = (x0[i] + a*(x[i+1]+x[i-1]+x[i+n]+x[i-n])) * invC
				}
			}
		}
		s.setBnd(b, x)
	}
}

// prepareViscousCoefficients fills coefA/coefInvC for the cells of dom.
func (s *Solver) prepareViscousCoefficients(a float32, dom *Domain) {
	for _, y := range dom.order {
		base := s.IX(0, y)
		for _, sp := range dom.Rows[y] {
			for i := base + sp.X0; i < base+sp.X1; i++ {
				ai := a * s.viscField[i]
				s.coefA[i] = ai
				s.coefInvC[i] = 1 / (1 + 4*ai)
			}
		}
	}
}
