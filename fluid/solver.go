// Package fluid implements a sparse stable-fluids solver on a fixed N×N grid.
//
// The solver integrates velocity (Vx, Vy) and three dye channels (R, G, B)
// with the classic diffuse / project / advect sequence. Work is restricted to
// a per-step Domain compiled from two active-tile trackers: "carrier" tiles
// (visible dye) and "momentum" tiles (currents). Tiles expire after a TTL
// unless re-marked, so quiet regions of the grid cost nothing.
//
// A Solver is single-writer and not reentrant. Callers perform all mutation
// (AddDensity, AddVelocity, MarkCarrierCell, MarkMomentumCell) and then call
// Step once per tick.
package fluid

import (
	"errors"
	"fmt"
	"math"

	"github.com/rwill128/browser-neurogenesis-sub001/config"
)

// Field-kind tags understood by the boundary handler and linear solver.
const (
	kindScalar = 0 // density, pressure, divergence
	kindVelX   = 1 // horizontal velocity component
	kindVelY   = 2 // vertical velocity component
)

var (
	// ErrGridTooSmall is returned by New when size < 3.
	ErrGridTooSmall = errors.New("fluid: grid size must be at least 3")
	// ErrInvalidConfig wraps a FluidConfig validation failure.
	ErrInvalidConfig = errors.New("fluid: invalid config")
	// ErrFieldSize is returned when an external field does not have size² cells.
	ErrFieldSize = errors.New("fluid: field length does not match grid")
)

// Solver owns the grid buffers, scratch buffers and tile trackers.
type Solver struct {
	n    int
	cfg  config.FluidConfig
	wrap bool

	dt        float32
	diffusion float32
	viscosity float32

	// World-to-grid scale factors used by callers and the Sample helpers.
	ScaleX, ScaleY float32

	// Primary fields, row-major, len n*n.
	DensityR, DensityG, DensityB []float32
	Vx, Vy                       []float32

	// Ping-pong scratch for the primary fields.
	densityR0, densityG0, densityB0 []float32
	vx0, vy0                        []float32

	// Projection scratch.
	pressure, divergence []float32

	// Per-solve coefficients for viscosity-weighted relaxation.
	coefA, coefInvC []float32

	// Optional per-cell viscosity multipliers (velocity diffusion only).
	viscField []float32

	// Cached float tunables.
	maxVel       float32
	fadeKeep     float32
	pullRate     float32
	momentumSpd2 float32
	footprint    float32
	minVisc      float32
	maxVisc      float32

	// Tile scheduling.
	tileSize int
	tileCols int
	tileRows int
	carrier  *TileTracker
	momentum *TileTracker

	lastPerf  StepPerf
	telemetry TileTelemetry
}

// New creates a solver for a size×size grid. size includes the one-cell
// boundary ring, so the solvable interior is (size-2)².
func New(cfg config.FluidConfig, size int, diffusion, viscosity, dt, scaleX, scaleY float32) (*Solver, error) {
	if size < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrGridTooSmall, size)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cells := size * size
	s := &Solver{
		n:         size,
		cfg:       cfg,
		wrap:      cfg.Wrap,
		dt:        dt,
		diffusion: diffusion,
		viscosity: viscosity,
		ScaleX:    scaleX,
		ScaleY:    scaleY,

		DensityR: make([]float32, cells),
		DensityG: make([]float32, cells),
		DensityB: make([]float32, cells),
		Vx:       make([]float32, cells),
		Vy:       make([]float32, cells),

		densityR0: make([]float32, cells),
		densityG0: make([]float32, cells),
		densityB0: make([]float32, cells),
		vx0:       make([]float32, cells),
		vy0:       make([]float32, cells),

		pressure:   make([]float32, cells),
		divergence: make([]float32, cells),
		coefA:      make([]float32, cells),
		coefInvC:   make([]float32, cells),

		maxVel:       float32(cfg.MaxVelComponent),
		fadeKeep:     float32(1 - cfg.FadeRate),
		pullRate:     float32(cfg.DyePullRate),
		momentumSpd2: float32(cfg.MomentumSpeedThreshold * cfg.MomentumSpeedThreshold),
		footprint:    float32(cfg.DyeFootprintThreshold),
		minVisc:      float32(cfg.MinViscosityMultiplier),
		maxVisc:      float32(cfg.MaxViscosityMultiplier),

		tileSize: cfg.ActiveTileSize,
	}

	s.tileCols = (size + s.tileSize - 1) / s.tileSize
	s.tileRows = s.tileCols
	s.carrier = NewTileTracker(s.tileCols, s.tileRows, cfg.ActiveTileHalo, cfg.ActiveTileTTL, cfg.Wrap)
	s.momentum = NewTileTracker(s.tileCols, s.tileRows, cfg.ActiveTileHalo, cfg.ActiveTileTTL, cfg.Wrap)
	s.telemetry = s.emptyTelemetry()

	return s, nil
}

// NewFromConfig builds a solver from a loaded configuration tree.
func NewFromConfig(c *config.Config) (*Solver, error) {
	return New(c.Fluid, c.Grid.Size,
		float32(c.Grid.Diffusion), float32(c.Grid.Viscosity), c.Derived.DT32,
		c.Derived.ScaleX, c.Derived.ScaleY)
}

// Size returns the number of cells per side.
func (s *Solver) Size() int { return s.n }

// Wrap reports whether the grid uses periodic boundaries.
func (s *Solver) Wrap() bool { return s.wrap }

// DT returns the timestep.
func (s *Solver) DT() float32 { return s.dt }

// Config returns the tunables the solver was built with.
func (s *Solver) Config() config.FluidConfig { return s.cfg }

// IX maps a cell coordinate to its flat index. Out-of-range coordinates are
// clamped, or wrapped when the solver uses periodic boundaries. Every grid
// lookup goes through here.
func (s *Solver) IX(x, y int) int {
	n := s.n
	if s.wrap {
		x = modInt(x, n)
		y = modInt(y, n)
	} else {
		x = clampInt(x, 0, n-1)
		y = clampInt(y, 0, n-1)
	}
	return x + y*n
}

// IXf is IX for float coordinates (floored). Non-finite coordinates map to 0.
func (s *Solver) IXf(x, y float32) int {
	if !isFinite(x) || !isFinite(y) {
		return s.IX(0, 0)
	}
	return s.IX(floorInt(x), floorInt(y))
}

// AddDensity marks the cell's carrier tile and pulls its RGB toward
// (r, g, b) by strength*DyePullRate, capped at a full pull.
func (s *Solver) AddDensity(x, y int, r, g, b, strength float32) {
	i := s.IX(x, y)
	s.MarkCarrierCell(float32(i%s.n), float32(i/s.n))

	pull := clamp32(strength*s.pullRate, 0, 1)
	if pull == 0 {
		return
	}
	s.DensityR[i] = clamp32(s.DensityR[i]+(r-s.DensityR[i])*pull, 0, 255)
	s.DensityG[i] = clamp32(s.DensityG[i]+(g-s.DensityG[i])*pull, 0, 255)
	s.DensityB[i] = clamp32(s.DensityB[i]+(b-s.DensityB[i])*pull, 0, 255)
}

// AddVelocity adds (dx, dy) to the cell's velocity, clamped per component to
// ±MaxVelComponent, and marks the cell's momentum tile.
func (s *Solver) AddVelocity(x, y int, dx, dy float32) {
	i := s.IX(x, y)
	s.Vx[i] = clamp32(s.Vx[i]+dx, -s.maxVel, s.maxVel)
	s.Vy[i] = clamp32(s.Vy[i]+dy, -s.maxVel, s.maxVel)
	s.MarkMomentumCell(float32(i%s.n), float32(i/s.n))
}

// Clear zeroes every field and scratch buffer and forgets all tile activity.
func (s *Solver) Clear() {
	for _, buf := range [][]float32{
		s.DensityR, s.DensityG, s.DensityB, s.Vx, s.Vy,
		s.densityR0, s.densityG0, s.densityB0, s.vx0, s.vy0,
		s.pressure, s.divergence, s.coefA, s.coefInvC,
	} {
		clear(buf)
	}
	s.carrier.Reset()
	s.momentum.Reset()
	s.lastPerf = StepPerf{}
	s.telemetry = s.emptyTelemetry()
}

// SetViscosityField attaches per-cell viscosity multipliers. Values are
// copied and clamped to [MinViscosityMultiplier, MaxViscosityMultiplier].
// A nil field detaches. The field only affects velocity diffusion.
func (s *Solver) SetViscosityField(field []float32) error {
	if field == nil {
		s.viscField = nil
		return nil
	}
	if len(field) != s.n*s.n {
		return fmt.Errorf("%w: got %d, want %d", ErrFieldSize, len(field), s.n*s.n)
	}
	if s.viscField == nil {
		s.viscField = make([]float32, len(field))
	}
	for i, v := range field {
		s.viscField[i] = clamp32(v, s.minVisc, s.maxVisc)
	}
	return nil
}

// ViscosityField returns the attached (clamped) multipliers, or nil.
func (s *Solver) ViscosityField() []float32 { return s.viscField }

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func floorInt(v float32) int {
	return int(math.Floor(float64(v)))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func modInt(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
