package fluid

import (
	"log/slog"
	"time"
)

// Stage names recorded in StepPerf.
const (
	PhaseSeed            = "seed_momentum"
	PhaseDomain          = "domain"
	PhaseDiffuseVelocity = "diffuse_velocity"
	PhaseProjectVelocity = "project_velocity"
	PhaseAdvectVelocity  = "advect_velocity"
	PhaseDiffuseDensity  = "diffuse_density"
	PhaseAdvectDensity   = "advect_density"
	PhaseFade            = "fade"
	PhaseTelemetry       = "telemetry"
)

// Phases lists the stage names in execution order.
var Phases = []string{
	PhaseSeed, PhaseDomain,
	PhaseDiffuseVelocity, PhaseProjectVelocity, PhaseAdvectVelocity,
	PhaseDiffuseDensity, PhaseAdvectDensity, PhaseFade,
	PhaseTelemetry,
}

// StepPerf holds per-stage timings of the most recent Step.
// On the no-op path Skipped is set and every solver stage is zero.
type StepPerf struct {
	Tick        int64
	Skipped     bool
	DomainCells int
	DomainRows  int

	Seed            time.Duration
	Domain          time.Duration
	DiffuseVelocity time.Duration
	ProjectVelocity time.Duration
	AdvectVelocity  time.Duration
	DiffuseDensity  time.Duration
	AdvectDensity   time.Duration
	Fade            time.Duration
	Telemetry       time.Duration
	Total           time.Duration
}

// Phases returns the stage timings keyed by phase name.
func (p StepPerf) Phases() map[string]time.Duration {
	return map[string]time.Duration{
		PhaseSeed:            p.Seed,
		PhaseDomain:          p.Domain,
		PhaseDiffuseVelocity: p.DiffuseVelocity,
		PhaseProjectVelocity: p.ProjectVelocity,
		PhaseAdvectVelocity:  p.AdvectVelocity,
		PhaseDiffuseDensity:  p.DiffuseDensity,
		PhaseAdvectDensity:   p.AdvectDensity,
		PhaseFade:            p.Fade,
		PhaseTelemetry:       p.Telemetry,
	}
}

// LogValue implements slog.LogValuer.
func (p StepPerf) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", p.Tick),
		slog.Bool("skipped", p.Skipped),
		slog.Int("domain_cells", p.DomainCells),
		slog.Int64("total_us", p.Total.Microseconds()),
		slog.Int64("diffuse_vel_us", p.DiffuseVelocity.Microseconds()),
		slog.Int64("project_us", p.ProjectVelocity.Microseconds()),
		slog.Int64("advect_vel_us", p.AdvectVelocity.Microseconds()),
		slog.Int64("diffuse_dye_us", p.DiffuseDensity.Microseconds()),
		slog.Int64("advect_dye_us", p.AdvectDensity.Microseconds()),
	)
}

// TileTelemetry summarises tracker state after the most recent Step.
type TileTelemetry struct {
	Tick       int64
	TileSize   int
	TileCols   int
	TileRows   int
	TotalTiles int

	CarrierActive    int
	MomentumActive   int
	CarrierTouched   int
	MomentumTouched  int
	CarrierSleeping  int // Cumulative expiries since construction or Clear
	MomentumSleeping int

	SolvedTiles    int  // Tiles compiled into this step's domain
	MomentumSolved bool // Momentum-only tiles were included this tick
	EmptySweep     bool // Deep-empty sweep ran this tick

	CarrierCoveragePct       float64
	MomentumCoveragePct      float64
	MomentumBlockCoveragePct float64 // Coverage of 2×2 tile macro-blocks
	DomainCoveragePct        float64 // Domain cells / interior cells
}

// LogValue implements slog.LogValuer.
func (t TileTelemetry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", t.Tick),
		slog.Int("carrier_active", t.CarrierActive),
		slog.Int("momentum_active", t.MomentumActive),
		slog.Int("solved_tiles", t.SolvedTiles),
		slog.Float64("carrier_pct", t.CarrierCoveragePct),
		slog.Float64("momentum_pct", t.MomentumCoveragePct),
		slog.Float64("momentum_block_pct", t.MomentumBlockCoveragePct),
		slog.Float64("domain_pct", t.DomainCoveragePct),
	)
}

// LastStepPerf returns the timings recorded by the most recent Step.
func (s *Solver) LastStepPerf() StepPerf { return s.lastPerf }

// ActiveTileTelemetry returns the tile summary recorded by the most recent Step.
func (s *Solver) ActiveTileTelemetry() TileTelemetry { return s.telemetry }

func (s *Solver) emptyTelemetry() TileTelemetry {
	return TileTelemetry{
		TileSize:   s.tileSize,
		TileCols:   s.tileCols,
		TileRows:   s.tileRows,
		TotalTiles: s.tileCols * s.tileRows,
	}
}

// finalizeTelemetry decays both trackers, records coverage, and clears the
// per-tick touched flags. It runs exactly once per Step.
func (s *Solver) finalizeTelemetry(tick int64, solved int, momentumSolved, emptySweep bool, dom *Domain) {
	t := s.emptyTelemetry()
	t.Tick = tick
	t.SolvedTiles = solved
	t.MomentumSolved = momentumSolved
	t.EmptySweep = emptySweep
	t.CarrierTouched = s.carrier.TouchedCount()
	t.MomentumTouched = s.momentum.TouchedCount()

	s.carrier.Decay()
	s.momentum.Decay()

	t.CarrierActive = s.carrier.Len()
	t.MomentumActive = s.momentum.Len()
	t.CarrierSleeping = s.carrier.Sleeping()
	t.MomentumSleeping = s.momentum.Sleeping()

	total := float64(t.TotalTiles)
	t.CarrierCoveragePct = float64(t.CarrierActive) / total * 100
	t.MomentumCoveragePct = float64(t.MomentumActive) / total * 100
	t.MomentumBlockCoveragePct = s.momentumBlockCoverage()

	interior := float64((s.n - 2) * (s.n - 2))
	t.DomainCoveragePct = float64(dom.Cells()) / interior * 100

	s.carrier.ResetTouched()
	s.momentum.ResetTouched()
	s.telemetry = t
}

// momentumBlockCoverage returns the percentage of 2×2 tile macro-blocks
// holding at least one active momentum tile.
func (s *Solver) momentumBlockCoverage() float64 {
	bx := (s.tileCols + 1) / 2
	by := (s.tileRows + 1) / 2
	blocks := make([]bool, bx*by)
	hit := 0
	for _, id := range s.momentum.active {
		tx, ty := int(id)%s.tileCols, int(id)/s.tileCols
		b := (ty/2)*bx + tx/2
		if !blocks[b] {
			blocks[b] = true
			hit++
		}
	}
	return float64(hit) / float64(bx*by) * 100
}
