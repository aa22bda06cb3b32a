// Package game wires the fluid solver, the emitter swarm and telemetry into
// one headless simulation loop.
package game

import (
	"fmt"
	"log/slog"

	"github.com/rwill128/browser-neurogenesis-sub001/config"
	"github.com/rwill128/browser-neurogenesis-sub001/fluid"
	"github.com/rwill128/browser-neurogenesis-sub001/swarm"
	"github.com/rwill128/browser-neurogenesis-sub001/telemetry"
	"github.com/rwill128/browser-neurogenesis-sub001/viscosity"
)

// Options configures a Game.
type Options struct {
	Seed      int64
	LogStats  bool   // Emit periodic slog records
	OutputDir string // CSV output directory; empty disables file output
	Emitters  int    // Emitter count; negative uses config swarm.count

	// StatsCallback, if set, receives every flushed step record.
	StatsCallback func(telemetry.StepRecord)
}

// Game holds the complete simulation state.
type Game struct {
	cfg    *config.Config
	solver *fluid.Solver
	swarm  *swarm.System

	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.StepRecord)

	tick     int64
	logStats bool
	logEvery int
}

// NewGameWithOptions builds the solver, attaches the configured viscosity
// map and spawns the swarm.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	solver, err := fluid.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating solver: %w", err)
	}

	visc, err := viscosity.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("building viscosity map: %w", err)
	}
	if err := solver.SetViscosityField(visc); err != nil {
		return nil, fmt.Errorf("attaching viscosity map: %w", err)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	g := &Game{
		cfg:           cfg,
		solver:        solver,
		swarm:         swarm.New(cfg, solver, opts.Seed),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		outputManager: om,
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
		logEvery:      cfg.Telemetry.LogEvery,
	}

	n := opts.Emitters
	if n < 0 {
		n = cfg.Swarm.Count
	}
	g.swarm.Spawn(n)

	return g, nil
}

// UpdateHeadless advances the simulation by one tick.
func (g *Game) UpdateHeadless() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseSwarmEmit)
	g.swarm.Emit()

	g.perfCollector.StartPhase(telemetry.PhaseFluidStep)
	g.solver.Step(g.tick)

	g.perfCollector.StartPhase(telemetry.PhaseSwarmSense)
	g.swarm.Sense()

	g.perfCollector.RecordStep(g.solver.LastStepPerf())
	g.perfCollector.EndTick()

	g.tick++
	if g.logEvery > 0 && g.tick%int64(g.logEvery) == 0 {
		g.flushTelemetry()
	}
}

// Record returns the step record for the current solver state.
func (g *Game) Record() telemetry.StepRecord {
	r := telemetry.NewStepRecord(
		g.solver.LastStepPerf(),
		g.solver.ActiveTileTelemetry(),
		g.solver.Diagnostics(),
	)
	r.Emitters = g.swarm.Count()
	return r
}

// PerfStats returns the rolling performance window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// Solver returns the fluid solver.
func (g *Game) Solver() *fluid.Solver { return g.solver }

// Swarm returns the emitter system.
func (g *Game) Swarm() *swarm.System { return g.swarm }

// Tick returns the number of ticks run so far.
func (g *Game) Tick() int64 { return g.tick }

// Unload flushes any pending telemetry and closes output files.
func (g *Game) Unload() error {
	if g.logEvery > 0 && g.tick%int64(g.logEvery) != 0 {
		g.flushTelemetry()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
		return err
	}
	return nil
}
