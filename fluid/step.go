package fluid

import "time"

// Step advances the fluid by one timestep.
//
// worldTick must be a caller-owned, monotonically increasing counter: the
// momentum and empty-sweep cadences key off worldTick modulo MomentumEvery
// and EmptyEvery, so replaying the same ticks reproduces the same domains.
//
// When no tile is active in either tracker, or the compiled domain is empty,
// Step does no solver work, leaves every field untouched and records a
// skipped StepPerf. Trackers are decayed exactly once per call either way.
func (s *Solver) Step(worldTick int64) {
	start := time.Now()
	perf := StepPerf{Tick: worldTick}

	s.SeedMomentumTilesFromVelocityField()
	perf.Seed = time.Since(start)

	if s.carrier.Len() == 0 && s.momentum.Len() == 0 {
		s.skipStep(worldTick)
		return
	}

	t0 := time.Now()
	groups, momentumSolved, emptySweep := s.scheduleTiles(worldTick)
	tiles := s.unionTileMaps(groups...)
	dom := s.compileDomain(groups, len(tiles))
	perf.Domain = time.Since(t0)

	if dom.Empty() {
		s.skipStep(worldTick)
		return
	}
	perf.DomainCells = dom.Cells()
	perf.DomainRows = len(dom.order)

	visc := s.viscosity
	velIters := s.cfg.VelocityIterations

	t0 = time.Now()
	copy(s.vx0, s.Vx)
	copy(s.vy0, s.Vy)
	s.diffuse(kindVelX, s.vx0, s.Vx, visc, velIters, dom)
	s.diffuse(kindVelY, s.vy0, s.Vy, visc, velIters, dom)
	s.clampVelocity(s.vx0, s.vy0, dom)
	perf.DiffuseVelocity = time.Since(t0)

	t0 = time.Now()
	s.project(s.vx0, s.vy0, s.pressure, s.divergence, dom)
	perf.ProjectVelocity = time.Since(t0)

	t0 = time.Now()
	s.advect(kindVelX, s.Vx, s.vx0, s.vx0, s.vy0, dom)
	s.advect(kindVelY, s.Vy, s.vy0, s.vx0, s.vy0, dom)
	perf.AdvectVelocity = time.Since(t0)

	// Second projection on the advected pair, then clamp.
	t0 = time.Now()
	s.project(s.Vx, s.Vy, s.pressure, s.divergence, dom)
	s.clampVelocity(s.Vx, s.Vy, dom)
	perf.ProjectVelocity += time.Since(t0)

	densIters := s.cfg.DensityIterations
	channels := [3][2][]float32{
		{s.DensityR, s.densityR0},
		{s.DensityG, s.densityG0},
		{s.DensityB, s.densityB0},
	}

	t0 = time.Now()
	for _, ch := range channels {
		copy(ch[1], ch[0])
		// Density diffusion never consults the viscosity field.
		s.diffuse(kindScalar, ch[1], ch[0], s.diffusion, densIters, dom)
	}
	perf.DiffuseDensity = time.Since(t0)

	t0 = time.Now()
	for _, ch := range channels {
		s.advect(kindScalar, ch[0], ch[1], s.Vx, s.Vy, dom)
	}
	perf.AdvectDensity = time.Since(t0)

	t0 = time.Now()
	s.fadeDensity(dom)
	perf.Fade = time.Since(t0)

	t0 = time.Now()
	s.finalizeTelemetry(worldTick, len(tiles), momentumSolved, emptySweep, dom)
	perf.Telemetry = time.Since(t0)

	perf.Total = time.Since(start)
	s.lastPerf = perf
}

// scheduleTiles picks this tick's tile groups: carrier tiles always,
// momentum-only tiles (plus one ring) on the momentum cadence, and the
// deep-empty sweep on the empty cadence.
func (s *Solver) scheduleTiles(tick int64) (groups [][]int, momentumSolved, emptySweep bool) {
	carrier := s.carrier.AppendActive(nil)
	groups = append(groups, carrier)

	if tick%int64(s.cfg.MomentumEvery) == 0 && s.momentum.Len() > 0 {
		momentumOnly := subtractTileMaps(s.momentum.AppendActive(nil), carrier)
		if len(momentumOnly) > 0 {
			groups = append(groups, s.expandTileMap(momentumOnly, 1))
			momentumSolved = true
		}
	}

	if tick%int64(s.cfg.EmptyEvery) == 0 {
		if deep := s.buildDeepEmptyTileMap(); len(deep) > 0 {
			groups = append(groups, deep)
			emptySweep = true
		}
	}
	return groups, momentumSolved, emptySweep
}

// compileDomain builds one domain per tile group and merges them. When the
// groups cover every tile the result is the whole interior, built directly.
func (s *Solver) compileDomain(groups [][]int, covered int) *Domain {
	if covered == s.tileCols*s.tileRows {
		return s.normalizeDomain(Rect{XMin: 1, XMax: s.n - 1, YMin: 1, YMax: s.n - 2})
	}
	var dom *Domain
	for _, g := range groups {
		dom = mergeDomains(dom, s.buildSparseDomainFromTiles(g))
	}
	return dom
}

// skipStep records the no-op path: zeroed timings, trackers still decayed.
func (s *Solver) skipStep(tick int64) {
	s.lastPerf = StepPerf{Tick: tick, Skipped: true}
	s.finalizeTelemetry(tick, 0, false, false, nil)
}
