package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rwill128/browser-neurogenesis-sub001/config"
	"github.com/rwill128/browser-neurogenesis-sub001/telemetry"
)

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default().WithGridSize(32)
	if err != nil {
		t.Fatalf("WithGridSize: %v", err)
	}
	cfg.Telemetry.LogEvery = 5
	return cfg
}

func TestUpdateHeadless_AdvancesTick(t *testing.T) {
	g, err := NewGameWithOptions(smallConfig(t), Options{Seed: 1, Emitters: 3})
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	defer g.Unload()

	for i := 0; i < 12; i++ {
		g.UpdateHeadless()
	}

	if g.Tick() != 12 {
		t.Errorf("Tick = %d, want 12", g.Tick())
	}
	if g.Swarm().Count() != 3 {
		t.Errorf("emitters = %d, want 3", g.Swarm().Count())
	}
	if d := g.Solver().Diagnostics(); d.DyeTotal <= 0 {
		t.Errorf("expected dye after 12 ticks, got %+v", d)
	}
	if ps := g.PerfStats(); ps.AvgDomainCells <= 0 {
		t.Errorf("expected solved domains in the perf window, got %+v", ps)
	}
}

func TestStatsCallback(t *testing.T) {
	var got []telemetry.StepRecord
	opts := Options{
		Seed:          2,
		Emitters:      2,
		StatsCallback: func(r telemetry.StepRecord) { got = append(got, r) },
	}
	g, err := NewGameWithOptions(smallConfig(t), opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}

	for i := 0; i < 10; i++ {
		g.UpdateHeadless()
	}
	if len(got) != 2 {
		t.Fatalf("callback fired %d times, want 2", len(got))
	}
	if got[1].Emitters != 2 {
		t.Errorf("Emitters = %d, want 2", got[1].Emitters)
	}

	// Unload flushes the partial window.
	g.UpdateHeadless()
	if err := g.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("callback fired %d times after Unload, want 3", len(got))
	}
}

func TestNoEmitters_SkipsSteps(t *testing.T) {
	g, err := NewGameWithOptions(smallConfig(t), Options{Seed: 3, Emitters: 0})
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	defer g.Unload()

	// Tick 0 lands on the empty-sweep cadence; tick 1 has nothing to solve.
	g.UpdateHeadless()
	g.UpdateHeadless()
	if !g.Solver().LastStepPerf().Skipped {
		t.Error("step with no emitters and a still fluid should be skipped")
	}
}

func TestViscosityMapAttached(t *testing.T) {
	cfg := smallConfig(t)
	cfg.ViscosityMap.Mode = "noise"
	g, err := NewGameWithOptions(cfg, Options{Seed: 4})
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	defer g.Unload()

	field := g.Solver().ViscosityField()
	if len(field) != 32*32 {
		t.Fatalf("viscosity field len = %d, want %d", len(field), 32*32)
	}
}

func TestOutputFiles(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGameWithOptions(smallConfig(t), Options{Seed: 5, Emitters: 2, OutputDir: dir})
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	for i := 0; i < 10; i++ {
		g.UpdateHeadless()
	}
	if err := g.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}

	for _, name := range []string{"config.yaml", "steps.csv", "perf.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "steps.csv"))
	if err != nil {
		t.Fatalf("reading steps.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("steps.csv has %d lines, want header + 2", len(lines))
	}
}
