package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rwill128/browser-neurogenesis-sub001/config"
)

func TestRequestClamped(t *testing.T) {
	tests := []struct {
		name string
		in   request
		want request
	}{
		{"zero steps", request{Steps: 0}, request{Steps: 1}},
		{"tiny dt", request{Steps: 10, DT: 1e-7}, request{Steps: 10, DT: minDT}},
		{"dt kept", request{Steps: 10, DT: 0.05}, request{Steps: 10, DT: 0.05}},
		{"low iterations", request{Steps: 1, Iterations: 2}, request{Steps: 1, Iterations: minIterations}},
		{"high iterations", request{Steps: 1, Iterations: 500}, request{Steps: 1, Iterations: maxIterations}},
		{"unset overrides", request{Steps: 5}, request{Steps: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.clamped(); got != tt.want {
				t.Errorf("clamped() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequestApply(t *testing.T) {
	cfg := config.Default()
	req := request{Steps: 1, DT: 0.02, Iterations: 30}
	if err := req.apply(cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Grid.DT != 0.02 || cfg.Derived.DT32 != float32(0.02) {
		t.Errorf("dt not applied: grid %v derived %v", cfg.Grid.DT, cfg.Derived.DT32)
	}
	if cfg.Fluid.PressureIterations != 30 {
		t.Errorf("PressureIterations = %d, want 30", cfg.Fluid.PressureIterations)
	}
}

func TestStepsPerSec(t *testing.T) {
	r := result{Steps: 50, Elapsed: 2 * time.Second}
	if got := r.StepsPerSec(); got != 25 {
		t.Errorf("StepsPerSec = %v, want 25", got)
	}
	if got := (result{Steps: 5}).StepsPerSec(); got != 0 {
		t.Errorf("zero elapsed StepsPerSec = %v, want 0", got)
	}
}

func TestNewRunCmd(t *testing.T) {
	cmd := newRunCmd()

	if cmd.Use != "run" {
		t.Errorf("expected Use='run', got '%s'", cmd.Use)
	}
	for _, flag := range []string{"steps", "dt", "iterations", "emitters", "log-stats"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected flag '%s' to exist", flag)
		}
	}
}

func TestRunCmd_Executes(t *testing.T) {
	cmd := newRunCmd()
	cmd.SetArgs([]string{"--steps", "3", "--emitters", "2", "--iterations", "5"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestSweepRecord(t *testing.T) {
	res := result{Steps: 10, Elapsed: 500 * time.Millisecond}
	res.Diagnostics.DyeTotal = 42
	res.Perf.SkippedPct = 20

	rec := sweepRecord(64, res)
	if rec.Size != 64 || rec.Steps != 10 {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.ElapsedMS != 500 || rec.StepsPerSec != 20 {
		t.Errorf("timing = %v ms / %v sps, want 500 / 20", rec.ElapsedMS, rec.StepsPerSec)
	}
	if rec.DyeTotal != 42 || rec.SkippedPct != 20 {
		t.Errorf("diagnostics not carried: %+v", rec)
	}
}

func TestConfigCmd_Stdout(t *testing.T) {
	cmd := newConfigCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config: %v", err)
	}

	var parsed config.Config
	if err := yaml.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if parsed.Grid.Size != config.Default().Grid.Size {
		t.Errorf("grid.size = %d, want default", parsed.Grid.Size)
	}
	if !strings.Contains(buf.String(), "active_tile_size") {
		t.Error("expected fluid tunables in output")
	}
}

func TestConfigCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cmd := newConfigCmd()
	cmd.SetArgs([]string{"--out", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}
