package fluid

import (
	"math"
	"slices"
	"testing"

	"github.com/rwill128/browser-neurogenesis-sub001/config"
)

func TestStep_DyeStaysInRange(t *testing.T) {
	s := newTestSolver(t, 16, nil)
	s.AddDensity(8, 8, 255, 0, 0, 100)

	s.Step(1)

	r := s.DensityR[s.IX(8, 8)]
	if !(r > 0 && r < 255) {
		t.Errorf("R at source = %v, want in (0,255)", r)
	}
	for i := range s.DensityR {
		for _, ch := range [][]float32{s.DensityR, s.DensityG, s.DensityB} {
			if v := ch[i]; !isFinite(v) || v < 0 || v > 255 {
				t.Fatalf("cell %d channel value %v out of range", i, v)
			}
		}
	}
	if perf := s.LastStepPerf(); perf.Skipped || perf.DomainCells == 0 {
		t.Errorf("expected a solved step, got %+v", perf)
	}
}

func TestStep_VelocityBounded(t *testing.T) {
	s := newTestSolver(t, 16, nil)
	lim := float32(s.Config().MaxVelComponent)

	s.AddVelocity(4, 4, 5, 0)
	if got, want := s.Vx[s.IX(4, 4)], min(5, lim); got != want {
		t.Fatalf("Vx after AddVelocity = %v, want %v", got, want)
	}

	for tick := int64(0); tick < 8; tick++ {
		s.Step(tick)
		for i := range s.Vx {
			vx, vy := s.Vx[i], s.Vy[i]
			if !isFinite(vx) || !isFinite(vy) {
				t.Fatalf("tick %d cell %d: non-finite velocity (%v,%v)", tick, i, vx, vy)
			}
			if vx < -lim || vx > lim || vy < -lim || vy > lim {
				t.Fatalf("tick %d cell %d: velocity (%v,%v) exceeds ±%v", tick, i, vx, vy, lim)
			}
		}
	}
}

func TestStep_IdleIsNoop(t *testing.T) {
	s := newTestSolver(t, 16, nil)
	// Values present but below the seeding threshold and never marked.
	s.Vx[s.IX(5, 5)] = 0.01
	s.DensityG[s.IX(9, 3)] = 40

	snap := func() [][]float32 {
		return [][]float32{
			slices.Clone(s.DensityR), slices.Clone(s.DensityG), slices.Clone(s.DensityB),
			slices.Clone(s.Vx), slices.Clone(s.Vy),
		}
	}
	before := snap()

	s.Step(0)

	after := snap()
	for f := range before {
		for i := range before[f] {
			if math.Float32bits(before[f][i]) != math.Float32bits(after[f][i]) {
				t.Fatalf("field %d cell %d changed: %v -> %v", f, i, before[f][i], after[f][i])
			}
		}
	}
	if !s.LastStepPerf().Skipped {
		t.Error("expected skipped step")
	}
	if s.LastStepPerf().Total != 0 {
		t.Errorf("skipped step total = %v, want 0", s.LastStepPerf().Total)
	}
}

func TestStep_Deterministic(t *testing.T) {
	run := func() *Solver {
		s := newTestSolver(t, 32, nil)
		for tick := int64(0); tick < 40; tick++ {
			if tick%5 == 0 {
				s.AddDensity(10, 12, 200, 50, 10, 80)
				s.AddVelocity(10, 12, 2, -1)
			}
			s.Step(tick)
		}
		return s
	}
	a, b := run(), run()
	for _, pair := range [][2][]float32{
		{a.DensityR, b.DensityR}, {a.DensityG, b.DensityG}, {a.Vx, b.Vx}, {a.Vy, b.Vy},
	} {
		for i := range pair[0] {
			if math.Float32bits(pair[0][i]) != math.Float32bits(pair[1][i]) {
				t.Fatalf("cell %d differs between identical runs", i)
			}
		}
	}
}

func TestStep_MomentumCadence(t *testing.T) {
	s := newTestSolver(t, 64, func(c *config.FluidConfig) {
		c.MomentumEvery = 3
		c.EmptyEvery = 1000
	})
	s.AddVelocity(40, 40, 1, 0)

	s.Step(1)
	if !s.LastStepPerf().Skipped || s.ActiveTileTelemetry().MomentumSolved {
		t.Error("off-cadence tick with only momentum tiles should skip")
	}

	s.Step(3)
	tel := s.ActiveTileTelemetry()
	if s.LastStepPerf().Skipped || !tel.MomentumSolved {
		t.Errorf("on-cadence tick should solve momentum tiles: %+v", tel)
	}
}

func TestStep_EmptySweepCadence(t *testing.T) {
	s := newTestSolver(t, 64, func(c *config.FluidConfig) {
		c.EmptyEvery = 4
		c.ActiveTileHalo = 0
	})
	s.AddDensity(4, 4, 100, 100, 100, 50)

	s.Step(1)
	if s.ActiveTileTelemetry().EmptySweep {
		t.Error("tick 1 should not sweep empty tiles")
	}

	s.MarkCarrierCell(4, 4)
	s.Step(4)
	tel := s.ActiveTileTelemetry()
	if !tel.EmptySweep {
		t.Error("tick 4 should sweep empty tiles")
	}
	if tel.SolvedTiles != tel.TotalTiles {
		t.Errorf("solved %d tiles, want all %d", tel.SolvedTiles, tel.TotalTiles)
	}
	if tel.DomainCoveragePct < 99.99 {
		t.Errorf("domain coverage = %.2f%%, want 100%%", tel.DomainCoveragePct)
	}
}

func TestStep_ViscosityFieldLeavesDyeAlone(t *testing.T) {
	plain := newTestSolver(t, 16, nil)
	thick := newTestSolver(t, 16, nil)

	field := make([]float32, 16*16)
	for i := range field {
		field[i] = 8
	}
	if err := thick.SetViscosityField(field); err != nil {
		t.Fatalf("SetViscosityField: %v", err)
	}

	for _, s := range []*Solver{plain, thick} {
		s.AddDensity(7, 7, 10, 200, 30, 120)
		s.Step(1)
	}

	for i := range plain.DensityG {
		if math.Float32bits(plain.DensityG[i]) != math.Float32bits(thick.DensityG[i]) {
			t.Fatalf("cell %d: dye differs with viscosity field attached", i)
		}
	}
}

func TestDiffuse_ViscosityFieldScalesVelocity(t *testing.T) {
	const n = 32
	impulse := make([]float32, n*n)

	run := func(mult float32) []float32 {
		s := newTestSolver(t, n, func(c *config.FluidConfig) { c.MaxViscosityMultiplier = 100 })
		if mult > 0 {
			field := make([]float32, n*n)
			for i := range field {
				field[i] = mult
			}
			if err := s.SetViscosityField(field); err != nil {
				t.Fatalf("SetViscosityField: %v", err)
			}
		}
		impulse[s.IX(16, 16)] = 4
		out := make([]float32, n*n)
		s.diffuse(kindVelX, out, impulse, 0.01, 20, interior(s))
		return out
	}

	plain, unit, thick := run(0), run(1), run(100)

	for i := range plain {
		if math.Abs(float64(plain[i]-unit[i])) > 1e-6 {
			t.Fatalf("cell %d: unit multiplier %v differs from no field %v", i, unit[i], plain[i])
		}
	}
	centre := 16*n + 16
	if thick[centre] >= plain[centre] {
		t.Errorf("thick peak %v should be below plain peak %v", thick[centre], plain[centre])
	}
}

func TestAdvect_WrapUsesInteriorPeriod(t *testing.T) {
	s := newTestSolver(t, 16, func(c *config.FluidConfig) { c.Wrap = true })
	n := s.Size()
	d := make([]float32, n*n)
	d0 := make([]float32, n*n)
	vx := make([]float32, n*n)
	vy := make([]float32, n*n)

	// d0 holds the interior column index; ghost columns hold their images.
	// vx backtraces every cell 1.5 columns to the left.
	shift := 1.5 / (s.DT() * float32(n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			d0[s.IX(x, y)] = float32(s.wrapInterior(x))
			vx[s.IX(x, y)] = shift
		}
	}

	s.advect(kindScalar, d, d0, vx, vy, interior(s))

	tests := []struct {
		x    int
		want float32
	}{
		{1, 13.5},  // source -0.5: between columns 13 and 14
		{2, 7.5},   // source 0.5: between column 14 and its neighbour 1
		{5, 3.5},   // no seam
		{14, 12.5}, // no seam
	}
	for _, tt := range tests {
		got := d[s.IX(tt.x, 8)]
		if math.Abs(float64(got-tt.want)) > 1e-3 {
			t.Errorf("column %d = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestDiagnostics(t *testing.T) {
	s := newTestSolver(t, 16, nil)
	if d := s.Diagnostics(); d != (Diagnostics{}) {
		t.Errorf("fresh solver diagnostics = %+v, want zero", d)
	}

	s.DensityR[s.IX(4, 4)] = 100
	s.DensityB[s.IX(5, 5)] = 1 // below footprint threshold
	s.Vx[s.IX(8, 8)] = 3
	s.Vy[s.IX(8, 8)] = 4

	d := s.Diagnostics()
	if d.DyeTotal != 101 {
		t.Errorf("DyeTotal = %v, want 101", d.DyeTotal)
	}
	if want := float32(1) / 256; d.DyeFootprint != want {
		t.Errorf("DyeFootprint = %v, want %v", d.DyeFootprint, want)
	}
	if d.MaxSpeed != 5 {
		t.Errorf("MaxSpeed = %v, want 5", d.MaxSpeed)
	}
	if d.MaxDivergence == 0 {
		t.Error("expected nonzero divergence around the impulse")
	}

	s.Vy[s.IX(2, 2)] = float32(math.Inf(1))
	if got := s.Diagnostics().NonFinite; got != 1 {
		t.Errorf("NonFinite = %d, want 1", got)
	}
}
