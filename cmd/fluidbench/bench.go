package main

import (
	"time"

	"github.com/rwill128/browser-neurogenesis-sub001/config"
	"github.com/rwill128/browser-neurogenesis-sub001/fluid"
	"github.com/rwill128/browser-neurogenesis-sub001/game"
	"github.com/rwill128/browser-neurogenesis-sub001/telemetry"
)

// Request limits applied to command-line overrides.
const (
	minDT         = 1e-4
	minIterations = 5
	maxIterations = 120
)

// request holds the command-line overrides for one benchmark.
type request struct {
	Steps      int
	DT         float64 // 0 keeps the config value
	Iterations int     // Pressure iterations; 0 keeps the config value
}

// clamped returns r with every field forced into its accepted range.
func (r request) clamped() request {
	r.Steps = max(r.Steps, 1)
	if r.DT != 0 {
		r.DT = max(r.DT, minDT)
	}
	if r.Iterations != 0 {
		r.Iterations = min(max(r.Iterations, minIterations), maxIterations)
	}
	return r
}

// apply writes the overrides into cfg and refreshes derived values.
func (r request) apply(cfg *config.Config) error {
	if r.DT != 0 {
		cfg.Grid.DT = r.DT
	}
	if r.Iterations != 0 {
		cfg.Fluid.PressureIterations = r.Iterations
	}
	return cfg.Refresh()
}

// result summarises one benchmark run.
type result struct {
	Steps       int
	Elapsed     time.Duration
	Diagnostics fluid.Diagnostics
	Perf        telemetry.PerfStats
}

// StepsPerSec returns the measured throughput.
func (r result) StepsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Steps) / r.Elapsed.Seconds()
}

// runBench steps a fresh game for steps ticks.
func runBench(cfg *config.Config, opts game.Options, steps int) (result, error) {
	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		return result{}, err
	}

	start := time.Now()
	for i := 0; i < steps; i++ {
		g.UpdateHeadless()
	}
	elapsed := time.Since(start)

	res := result{
		Steps:       steps,
		Elapsed:     elapsed,
		Diagnostics: g.Solver().Diagnostics(),
		Perf:        g.PerfStats(),
	}
	if err := g.Unload(); err != nil {
		return res, err
	}
	return res, nil
}
