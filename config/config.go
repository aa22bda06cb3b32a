// Package config provides configuration loading and access for the fluid solver.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// scaleEpsilon floors the world-to-grid scale so callers converting back to
// world space never divide by zero.
const scaleEpsilon = 1e-6

// ErrInvalid is returned (wrapped) when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration parameters.
type Config struct {
	Grid         GridConfig         `yaml:"grid"`
	Fluid        FluidConfig        `yaml:"fluid"`
	ViscosityMap ViscosityMapConfig `yaml:"viscosity_map"`
	Swarm        SwarmConfig        `yaml:"swarm"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Bench        BenchConfig        `yaml:"bench"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds the solver construction parameters.
type GridConfig struct {
	Size        int     `yaml:"size"`         // Cells per side, including the boundary ring
	Diffusion   float64 `yaml:"diffusion"`    // Dye diffusion rate
	Viscosity   float64 `yaml:"viscosity"`    // Velocity diffusion rate
	DT          float64 `yaml:"dt"`           // Timestep per solver step
	WorldWidth  float64 `yaml:"world_width"`  // World units mapped onto the grid (0 = size)
	WorldHeight float64 `yaml:"world_height"` // World units mapped onto the grid (0 = size)
}

// FluidConfig holds the solver tunables injected into fluid.New.
type FluidConfig struct {
	// Active-tile scheduling
	ActiveTileSize int `yaml:"active_tile_size"` // Cells per tile side
	ActiveTileHalo int `yaml:"active_tile_halo"` // Rings of tiles activated around a marked tile
	ActiveTileTTL  int `yaml:"active_tile_ttl"`  // Steps a tile stays active after its last mark
	MomentumEvery  int `yaml:"momentum_every"`   // Solve momentum-only tiles every N ticks
	EmptyEvery     int `yaml:"empty_every"`      // Sweep untouched tiles every M ticks

	// Gauss-Seidel sweeps per field kind
	VelocityIterations int `yaml:"velocity_iterations"`
	PressureIterations int `yaml:"pressure_iterations"`
	DensityIterations  int `yaml:"density_iterations"`

	FadeRate               float64 `yaml:"fade_rate"`                // Fraction of dye removed per step
	DyePullRate            float64 `yaml:"dye_pull_rate"`            // Pull fraction per unit of AddDensity strength
	MinViscosityMultiplier float64 `yaml:"min_viscosity_multiplier"` // Lower clamp for viscosity field values
	MaxViscosityMultiplier float64 `yaml:"max_viscosity_multiplier"` // Upper clamp for viscosity field values
	MaxVelComponent        float64 `yaml:"max_vel_component"`        // Per-component velocity clamp
	MomentumSpeedThreshold float64 `yaml:"momentum_speed_threshold"` // Speed that keeps a momentum tile awake
	DyeFootprintThreshold  float64 `yaml:"dye_footprint_threshold"`  // Channel value counted as visible dye
	Wrap                   bool    `yaml:"wrap"`                     // Periodic boundaries instead of walls
}

// ViscosityMapConfig controls the generated viscosity multiplier map.
type ViscosityMapConfig struct {
	Mode    string  `yaml:"mode"` // "none", "uniform" or "noise"
	Uniform float64 `yaml:"uniform"`
	Seed    int64   `yaml:"seed"`
	Scale   float64 `yaml:"scale"`   // Noise frequency in cycles across the grid
	Octaves int     `yaml:"octaves"` // FBM octaves
	Gain    float64 `yaml:"gain"`    // Amplitude multiplier per octave
}

// SwarmConfig holds parameters for the emitter population.
type SwarmConfig struct {
	Count       int     `yaml:"count"`
	Thrust      float64 `yaml:"thrust"`       // Velocity injected per tick
	DyeStrength float64 `yaml:"dye_strength"` // AddDensity strength per tick
	Drag        float64 `yaml:"drag"`         // Fraction of own velocity kept per tick
	CurrentGain float64 `yaml:"current_gain"` // How strongly sensed currents push an emitter
	TurnRate    float64 `yaml:"turn_rate"`    // Max heading change per tick (radians)
	MaxSpeed    float64 `yaml:"max_speed"`    // World units per tick
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int `yaml:"perf_collector_window"`
	LogEvery            int `yaml:"log_every"` // Ticks between perf log records (0 disables)
}

// BenchConfig holds defaults for the headless benchmark.
type BenchConfig struct {
	Steps      int   `yaml:"steps"`
	SweepSizes []int `yaml:"sweep_sizes"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32        float32 // Grid.DT as float32
	ScaleX      float32 // Grid cells per world unit along X
	ScaleY      float32 // Grid cells per world unit along Y
	WorldW32    float32 // Effective world width
	WorldH32    float32 // Effective world height
	TilesPerRow int     // ceil(Grid.Size / Fluid.ActiveTileSize)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	if c.Grid.Size < 3 {
		return fmt.Errorf("%w: grid.size must be >= 3, got %d", ErrInvalid, c.Grid.Size)
	}
	if c.Grid.DT <= 0 {
		return fmt.Errorf("%w: grid.dt must be > 0, got %g", ErrInvalid, c.Grid.DT)
	}
	if err := c.Fluid.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.ViscosityMap.Mode {
	case "", "none", "uniform", "noise":
	default:
		return fmt.Errorf("%w: viscosity_map.mode %q", ErrInvalid, c.ViscosityMap.Mode)
	}
	return nil
}

// Validate checks the solver tunables. The returned error names the field.
func (f FluidConfig) Validate() error {
	switch {
	case f.ActiveTileSize < 1:
		return fmt.Errorf("fluid.active_tile_size must be >= 1, got %d", f.ActiveTileSize)
	case f.ActiveTileHalo < 0:
		return fmt.Errorf("fluid.active_tile_halo must be >= 0, got %d", f.ActiveTileHalo)
	case f.ActiveTileTTL < 1 || f.ActiveTileTTL > 65535:
		return fmt.Errorf("fluid.active_tile_ttl must be in [1,65535], got %d", f.ActiveTileTTL)
	case f.MomentumEvery < 1:
		return fmt.Errorf("fluid.momentum_every must be >= 1, got %d", f.MomentumEvery)
	case f.EmptyEvery < 1:
		return fmt.Errorf("fluid.empty_every must be >= 1, got %d", f.EmptyEvery)
	case f.VelocityIterations < 1, f.PressureIterations < 1, f.DensityIterations < 1:
		return fmt.Errorf("fluid iteration counts must be >= 1")
	case f.MinViscosityMultiplier > f.MaxViscosityMultiplier:
		return fmt.Errorf("fluid.min_viscosity_multiplier %g exceeds max %g",
			f.MinViscosityMultiplier, f.MaxViscosityMultiplier)
	case f.MaxVelComponent <= 0:
		return fmt.Errorf("fluid.max_vel_component must be > 0, got %g", f.MaxVelComponent)
	case f.FadeRate < 0 || f.FadeRate > 1:
		return fmt.Errorf("fluid.fade_rate must be in [0,1], got %g", f.FadeRate)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Grid.DT)

	// World dimensions default to grid size if not specified
	worldW := c.Grid.WorldWidth
	if worldW <= 0 {
		worldW = float64(c.Grid.Size)
	}
	worldH := c.Grid.WorldHeight
	if worldH <= 0 {
		worldH = float64(c.Grid.Size)
	}
	c.Derived.WorldW32 = float32(worldW)
	c.Derived.WorldH32 = float32(worldH)
	c.Derived.ScaleX = float32(max(float64(c.Grid.Size)/worldW, scaleEpsilon))
	c.Derived.ScaleY = float32(max(float64(c.Grid.Size)/worldH, scaleEpsilon))

	ts := c.Fluid.ActiveTileSize
	c.Derived.TilesPerRow = (c.Grid.Size + ts - 1) / ts
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// WithGridSize returns a copy of c resized to size×size cells. World size
// is kept, so the derived scale changes with the grid.
func (c *Config) WithGridSize(size int) (*Config, error) {
	out := *c
	out.Bench.SweepSizes = append([]int(nil), c.Bench.SweepSizes...)
	out.Grid.Size = size
	if err := out.Refresh(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh re-validates c and recomputes derived values after fields were
// changed in code (for example by command-line overrides).
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}
