package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/rwill128/browser-neurogenesis-sub001/fluid"
)

// Phase names for the outer simulation tick. The solver's own stages
// (fluid.Phases) are a breakdown of PhaseFluidStep.
const (
	PhaseSwarmEmit  = "swarm_emit"
	PhaseFluidStep  = "fluid_step"
	PhaseSwarmSense = "swarm_sense"
)

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
	Skipped      bool // Solver took the no-op path
	DomainCells  int
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int
	current     PerfSample
	tickStart   time.Time
	phaseStart  time.Time
	lastPhase   string
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of ticks to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
		current:    PerfSample{Phases: make(map[string]time.Duration)},
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = PerfSample{Phases: make(map[string]time.Duration)}
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.current.Phases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// RecordStep attaches the solver's stage timings to the current tick.
func (p *PerfCollector) RecordStep(sp fluid.StepPerf) {
	for phase, d := range sp.Phases() {
		p.current.Phases[phase] += d
	}
	p.current.Skipped = sp.Skipped
	p.current.DomainCells = sp.DomainCells
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	// End final phase
	if p.lastPhase != "" {
		p.current.Phases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.current.TickDuration = now.Sub(p.tickStart)

	p.samples[p.writeIndex] = p.current
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Tick timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P90TickDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total tick time
	PhasePct map[string]float64

	// Throughput
	TicksPerSecond float64

	// Sparsity
	SkippedPct     float64 // Share of ticks where the solver did no work
	AvgDomainCells float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	ticks := make([]float64, p.sampleCount)
	cells := make([]float64, p.sampleCount)
	skipped := 0
	phaseSum := make(map[string]time.Duration)

	// Iterate over valid samples
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		ticks[i] = float64(s.TickDuration)
		cells[i] = float64(s.DomainCells)
		if s.Skipped {
			skipped++
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	n := float64(p.sampleCount)
	avgTick := time.Duration(floats.Sum(ticks) / n)

	// Calculate phase averages and percentages
	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgTick > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgTick) * 100
		}
	}

	// Calculate throughput
	var ticksPerSec float64
	if avgTick > 0 {
		ticksPerSec = float64(time.Second) / float64(avgTick)
	}

	sorted := SortedCopy(ticks)

	return PerfStats{
		AvgTickDuration: avgTick,
		MinTickDuration: time.Duration(floats.Min(ticks)),
		MaxTickDuration: time.Duration(floats.Max(ticks)),
		P90TickDuration: time.Duration(Percentile(sorted, 0.9)),
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		TicksPerSecond:  ticksPerSec,
		SkippedPct:      float64(skipped) / n * 100,
		AvgDomainCells:  floats.Sum(cells) / n,
	}
}

// statPhases lists every phase reported by LogStats and the CSV export.
var statPhases = append([]string{PhaseSwarmEmit, PhaseFluidStep, PhaseSwarmSense}, fluid.Phases...)

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"p90_tick_us", s.P90TickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"skipped_pct", int(s.SkippedPct*10) / 10.0,
		"avg_domain_cells", int(s.AvgDomainCells),
	}

	// Add phase breakdowns
	for _, phase := range statPhases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int64("p90_tick_us", s.P90TickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Float64("skipped_pct", s.SkippedPct),
		slog.Float64("avg_domain_cells", s.AvgDomainCells),
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd          int64   `csv:"window_end"`
	AvgTickUS          int64   `csv:"avg_tick_us"`
	MinTickUS          int64   `csv:"min_tick_us"`
	MaxTickUS          int64   `csv:"max_tick_us"`
	P90TickUS          int64   `csv:"p90_tick_us"`
	TicksPerSec        float64 `csv:"ticks_per_sec"`
	SkippedPct         float64 `csv:"skipped_pct"`
	AvgDomainCells     float64 `csv:"avg_domain_cells"`
	SwarmEmitPct       float64 `csv:"swarm_emit_pct"`
	FluidStepPct       float64 `csv:"fluid_step_pct"`
	SwarmSensePct      float64 `csv:"swarm_sense_pct"`
	SeedPct            float64 `csv:"seed_momentum_pct"`
	DomainPct          float64 `csv:"domain_pct"`
	DiffuseVelocityPct float64 `csv:"diffuse_velocity_pct"`
	ProjectVelocityPct float64 `csv:"project_velocity_pct"`
	AdvectVelocityPct  float64 `csv:"advect_velocity_pct"`
	DiffuseDensityPct  float64 `csv:"diffuse_density_pct"`
	AdvectDensityPct   float64 `csv:"advect_density_pct"`
	FadePct            float64 `csv:"fade_pct"`
	TelemetryPct       float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:          windowEnd,
		AvgTickUS:          s.AvgTickDuration.Microseconds(),
		MinTickUS:          s.MinTickDuration.Microseconds(),
		MaxTickUS:          s.MaxTickDuration.Microseconds(),
		P90TickUS:          s.P90TickDuration.Microseconds(),
		TicksPerSec:        s.TicksPerSecond,
		SkippedPct:         s.SkippedPct,
		AvgDomainCells:     s.AvgDomainCells,
		SwarmEmitPct:       s.PhasePct[PhaseSwarmEmit],
		FluidStepPct:       s.PhasePct[PhaseFluidStep],
		SwarmSensePct:      s.PhasePct[PhaseSwarmSense],
		SeedPct:            s.PhasePct[fluid.PhaseSeed],
		DomainPct:          s.PhasePct[fluid.PhaseDomain],
		DiffuseVelocityPct: s.PhasePct[fluid.PhaseDiffuseVelocity],
		ProjectVelocityPct: s.PhasePct[fluid.PhaseProjectVelocity],
		AdvectVelocityPct:  s.PhasePct[fluid.PhaseAdvectVelocity],
		DiffuseDensityPct:  s.PhasePct[fluid.PhaseDiffuseDensity],
		AdvectDensityPct:   s.PhasePct[fluid.PhaseAdvectDensity],
		FadePct:            s.PhasePct[fluid.PhaseFade],
		TelemetryPct:       s.PhasePct[fluid.PhaseTelemetry],
	}
}
