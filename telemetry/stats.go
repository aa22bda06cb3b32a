package telemetry

import (
	"log/slog"
	"slices"

	"github.com/rwill128/browser-neurogenesis-sub001/fluid"
)

// StepRecord is one row of steps.csv: the solver's state after a step.
type StepRecord struct {
	Tick        int64 `csv:"tick"`
	Skipped     bool  `csv:"skipped"`
	DomainCells int   `csv:"domain_cells"`
	Emitters    int   `csv:"emitters"`

	// Tile activity
	CarrierActive    int     `csv:"carrier_active"`
	MomentumActive   int     `csv:"momentum_active"`
	SolvedTiles      int     `csv:"solved_tiles"`
	CarrierSleeping  int     `csv:"carrier_sleeping"`
	MomentumSleeping int     `csv:"momentum_sleeping"`
	CarrierPct       float64 `csv:"carrier_pct"`
	MomentumPct      float64 `csv:"momentum_pct"`
	MomentumBlockPct float64 `csv:"momentum_block_pct"`
	DomainPct        float64 `csv:"domain_pct"`

	// Field health
	AvgSpeed      float64 `csv:"avg_speed"`
	MaxSpeed      float64 `csv:"max_speed"`
	AvgDivergence float64 `csv:"avg_divergence"`
	MaxDivergence float64 `csv:"max_divergence"`
	DyeFootprint  float64 `csv:"dye_footprint"`
	DyeTotal      float64 `csv:"dye_total"`
	NonFinite     int     `csv:"non_finite"`
}

// NewStepRecord flattens the solver's per-step reports into one record.
func NewStepRecord(perf fluid.StepPerf, tiles fluid.TileTelemetry, diag fluid.Diagnostics) StepRecord {
	return StepRecord{
		Tick:             perf.Tick,
		Skipped:          perf.Skipped,
		DomainCells:      perf.DomainCells,
		CarrierActive:    tiles.CarrierActive,
		MomentumActive:   tiles.MomentumActive,
		SolvedTiles:      tiles.SolvedTiles,
		CarrierSleeping:  tiles.CarrierSleeping,
		MomentumSleeping: tiles.MomentumSleeping,
		CarrierPct:       tiles.CarrierCoveragePct,
		MomentumPct:      tiles.MomentumCoveragePct,
		MomentumBlockPct: tiles.MomentumBlockCoveragePct,
		DomainPct:        tiles.DomainCoveragePct,
		AvgSpeed:         float64(diag.AvgSpeed),
		MaxSpeed:         float64(diag.MaxSpeed),
		AvgDivergence:    float64(diag.AvgDivergence),
		MaxDivergence:    float64(diag.MaxDivergence),
		DyeFootprint:     float64(diag.DyeFootprint),
		DyeTotal:         float64(diag.DyeTotal),
		NonFinite:        diag.NonFinite,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (r StepRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", r.Tick),
		slog.Bool("skipped", r.Skipped),
		slog.Int("domain_cells", r.DomainCells),
		slog.Int("emitters", r.Emitters),
		slog.Int("carrier_active", r.CarrierActive),
		slog.Int("momentum_active", r.MomentumActive),
		slog.Int("solved_tiles", r.SolvedTiles),
		slog.Float64("domain_pct", r.DomainPct),
		slog.Float64("avg_speed", r.AvgSpeed),
		slog.Float64("max_speed", r.MaxSpeed),
		slog.Float64("max_divergence", r.MaxDivergence),
		slog.Float64("dye_footprint", r.DyeFootprint),
		slog.Float64("dye_total", r.DyeTotal),
		slog.Int("non_finite", r.NonFinite),
	)
}

// LogStats logs the step record using slog.
func (r StepRecord) LogStats() {
	slog.Info("step", "stats", r)
}

// SweepRecord is one row of sweep.csv: throughput at one grid size.
type SweepRecord struct {
	Size           int     `csv:"size"`
	Steps          int     `csv:"steps"`
	ElapsedMS      float64 `csv:"elapsed_ms"`
	StepsPerSec    float64 `csv:"steps_per_sec"`
	SkippedPct     float64 `csv:"skipped_pct"`
	AvgDomainCells float64 `csv:"avg_domain_cells"`
	DyeTotal       float64 `csv:"dye_total"`
	MaxSpeed       float64 `csv:"max_speed"`
	NonFinite      int     `csv:"non_finite"`
}

// LogValue implements slog.LogValuer for structured logging.
func (r SweepRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("size", r.Size),
		slog.Int("steps", r.Steps),
		slog.Float64("elapsed_ms", r.ElapsedMS),
		slog.Float64("steps_per_sec", r.StepsPerSec),
		slog.Float64("skipped_pct", r.SkippedPct),
		slog.Float64("avg_domain_cells", r.AvgDomainCells),
		slog.Int("non_finite", r.NonFinite),
	)
}

// SortedCopy returns an ascending copy of values.
func SortedCopy(values []float64) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
