package fluid

// setBnd enforces edge conditions on x.
//
// Walls (default): each border cell copies its interior neighbour, negated
// when b names the velocity component normal to that edge, so flow cannot
// leave the box. Corners average their two edge neighbours.
//
// Wrap: each border cell copies the interior cell on the opposite side and
// no component is negated.
func (s *Solver) setBnd(b int, x []float32) {
	n := s.n
	last := n - 1

	if s.wrap {
		for i := 1; i < last; i++ {
			x[s.IX(i, 0)] = x[s.IX(i, last-1)]
			x[s.IX(i, last)] = x[s.IX(i, 1)]
			x[s.IX(0, i)] = x[s.IX(last-1, i)]
			x[s.IX(last, i)] = x[s.IX(1, i)]
		}
		x[s.IX(0, 0)] = x[s.IX(last-1, last-1)]
		x[s.IX(last, 0)] = x[s.IX(1, last-1)]
		x[s.IX(0, last)] = x[s.IX(last-1, 1)]
		x[s.IX(last, last)] = x[s.IX(1, 1)]
		return
	}

	sx, sy := float32(1), float32(1)
	if b == kindVelX {
		sx = -1
	}
	if b == kindVelY {
		sy = -1
	}
	for i := 1; i < last; i++ {
		x[s.IX(i, 0)] = sy * x[s.IX(i, 1)]
		x[s.IX(i, last)] = sy * x[s.IX(i, last-1)]
		x[s.IX(0, i)] = sx * x[s.IX(1, i)]
		x[s.IX(last, i)] = sx * x[s.IX(last-1, i)]
	}

	x[s.IX(0, 0)] = 0.5 * (x[s.IX(1, 0)] + x[s.IX(0, 1)])
	x[s.IX(0, last)] = 0.5 * (x[s.IX(1, last)] + x[s.IX(0, last-1)])
	x[s.IX(last, 0)] = 0.5 * (x[s.IX(last-1, 0)] + x[s.IX(last, 1)])
	x[s.IX(last, last)] = 0.5 * (x[s.IX(last-1, last)] + x[s.IX(last, last-1)])
}
