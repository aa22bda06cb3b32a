package viscosity

import (
	"errors"
	"testing"

	"github.com/rwill128/browser-neurogenesis-sub001/config"
)

func TestUniform(t *testing.T) {
	m := Uniform(8, 2.5)
	if len(m) != 64 {
		t.Fatalf("len = %d, want 64", len(m))
	}
	for i, v := range m {
		if v != 2.5 {
			t.Fatalf("cell %d = %v, want 2.5", i, v)
		}
	}
}

func TestNoise_RangeAndDeterminism(t *testing.T) {
	mc := config.ViscosityMapConfig{Mode: ModeNoise, Seed: 11, Scale: 3, Octaves: 3, Gain: 0.5}
	a := Noise(32, mc, 0.5, 4)
	b := Noise(32, mc, 0.5, 4)

	lo, hi := a[0], a[0]
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cell %d differs between runs: %v vs %v", i, a[i], b[i])
		}
		if a[i] < 0.5 || a[i] > 4 {
			t.Fatalf("cell %d = %v outside [0.5, 4]", i, a[i])
		}
		lo, hi = min(lo, a[i]), max(hi, a[i])
	}
	if hi-lo < 0.1 {
		t.Errorf("noise map is nearly flat: [%v, %v]", lo, hi)
	}

	mc.Seed = 12
	c := Noise(32, mc, 0.5, 4)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical maps")
	}
}

func TestBuild(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.Size = 16

	cfg.ViscosityMap.Mode = ModeNone
	if m, err := Build(cfg); err != nil || m != nil {
		t.Errorf("none: got len %d err %v, want nil,nil", len(m), err)
	}

	cfg.ViscosityMap.Mode = ModeUniform
	cfg.ViscosityMap.Uniform = 1000
	m, err := Build(cfg)
	if err != nil {
		t.Fatalf("uniform: %v", err)
	}
	if want := float32(cfg.Fluid.MaxViscosityMultiplier); m[0] != want {
		t.Errorf("uniform above max: got %v, want clamp to %v", m[0], want)
	}

	cfg.ViscosityMap.Mode = ModeNoise
	if m, err := Build(cfg); err != nil || len(m) != 256 {
		t.Errorf("noise: len %d err %v", len(m), err)
	}

	cfg.ViscosityMap.Mode = "lava"
	if _, err := Build(cfg); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("unknown mode: got %v, want ErrUnknownMode", err)
	}
}
