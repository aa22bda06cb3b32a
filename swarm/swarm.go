// Package swarm drives a population of dye emitters over the fluid solver.
//
// Emitters live in an ECS world. Each tick runs in three phases that respect
// the solver's single-writer contract: Emit writes dye and thrust into the
// grid, the solver steps once, then Sense reads the settled fields back and
// moves each emitter. No solver field is read or written while Step runs.
package swarm

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/rwill128/browser-neurogenesis-sub001/components"
	"github.com/rwill128/browser-neurogenesis-sub001/config"
	"github.com/rwill128/browser-neurogenesis-sub001/fluid"
)

// palette holds the dye colours assigned to new emitters in turn.
var palette = [][3]float32{
	{255, 64, 32},
	{32, 200, 255},
	{120, 255, 80},
	{255, 220, 40},
	{200, 80, 255},
}

// System owns the emitter world and the solver it writes into.
type System struct {
	world  *ecs.World
	mapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Heading,
		components.Emitter,
		components.Sensor,
	]
	filter *ecs.Filter5[
		components.Position,
		components.Velocity,
		components.Heading,
		components.Emitter,
		components.Sensor,
	]

	solver *fluid.Solver
	cfg    config.SwarmConfig
	rng    *rand.Rand

	worldW, worldH float32
	count          int
}

// New creates an empty swarm over solver. World bounds come from c.Derived.
func New(c *config.Config, solver *fluid.Solver, seed int64) *System {
	world := ecs.NewWorld()
	return &System{
		world: world,
		mapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Heading,
			components.Emitter,
			components.Sensor,
		](world),
		filter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Heading,
			components.Emitter,
			components.Sensor,
		](world),
		solver: solver,
		cfg:    c.Swarm,
		rng:    rand.New(rand.NewSource(seed)),
		worldW: c.Derived.WorldW32,
		worldH: c.Derived.WorldH32,
	}
}

// Spawn adds n emitters at random positions and headings.
func (s *System) Spawn(n int) {
	for i := 0; i < n; i++ {
		col := palette[s.count%len(palette)]
		pos := components.Position{X: s.rng.Float32() * s.worldW, Y: s.rng.Float32() * s.worldH}
		vel := components.Velocity{}
		head := components.Heading{Angle: s.rng.Float32() * 2 * math.Pi}
		em := components.Emitter{
			R: col[0], G: col[1], B: col[2],
			Strength: float32(s.cfg.DyeStrength),
			Thrust:   float32(s.cfg.Thrust),
		}
		sense := components.Sensor{}
		s.mapper.NewEntity(&pos, &vel, &head, &em, &sense)
		s.count++
	}
}

// Count returns the number of emitters.
func (s *System) Count() int { return s.count }

// Tick runs one emit / step / sense cycle.
func (s *System) Tick(worldTick int64) {
	s.Emit()
	s.solver.Step(worldTick)
	s.Sense()
}

// Emit writes every emitter's dye and thrust into the grid.
func (s *System) Emit() {
	query := s.filter.Query()
	for query.Next() {
		pos, _, head, em, _ := query.Get()

		gx, gy := s.solver.WorldToGrid(pos.X, pos.Y)
		ix, iy := int(gx), int(gy)

		s.solver.AddDensity(ix, iy, em.R, em.G, em.B, em.Strength)
		if em.Thrust != 0 {
			sin, cos := math.Sincos(float64(head.Angle))
			s.solver.AddVelocity(ix, iy, em.Thrust*float32(cos), em.Thrust*float32(sin))
		}
	}
}

// Sense samples the fluid at each emitter, steers toward the local current
// and integrates position.
func (s *System) Sense() {
	drag := float32(s.cfg.Drag)
	gain := float32(s.cfg.CurrentGain)
	turn := float32(s.cfg.TurnRate)
	maxSpeed := float32(s.cfg.MaxSpeed)
	wrap := s.solver.Wrap()

	query := s.filter.Query()
	for query.Next() {
		pos, vel, head, em, sense := query.Get()

		cx, cy := s.solver.SampleVelocity(pos.X, pos.Y)
		r, g, b := s.solver.SampleDensity(pos.X, pos.Y)
		sense.CurrentX, sense.CurrentY = cx, cy
		sense.Dye = max(r, g, b)

		// Steer toward the current, with a little wander.
		if cx*cx+cy*cy > 1e-6 {
			target := float32(math.Atan2(float64(cy), float64(cx)))
			head.Angle += clampf(wrapAngle(target-head.Angle), -turn, turn)
		}
		head.Angle = wrapAngle(head.Angle + (s.rng.Float32()-0.5)*turn)

		sin, cos := math.Sincos(float64(head.Angle))
		vel.X = vel.X*drag + em.Thrust*float32(cos) + gain*cx
		vel.Y = vel.Y*drag + em.Thrust*float32(sin) + gain*cy

		if sp2 := vel.X*vel.X + vel.Y*vel.Y; sp2 > maxSpeed*maxSpeed {
			k := maxSpeed / float32(math.Sqrt(float64(sp2)))
			vel.X *= k
			vel.Y *= k
		}

		pos.X += vel.X
		pos.Y += vel.Y
		if wrap {
			pos.X = wrapCoord(pos.X, s.worldW)
			pos.Y = wrapCoord(pos.Y, s.worldH)
		} else {
			pos.X, vel.X = reflect(pos.X, vel.X, s.worldW)
			pos.Y, vel.Y = reflect(pos.Y, vel.Y, s.worldH)
		}
	}
}

// Positions returns a snapshot of every emitter's position.
func (s *System) Positions() []components.Position {
	out := make([]components.Position, 0, s.count)
	query := s.filter.Query()
	for query.Next() {
		pos, _, _, _, _ := query.Get()
		out = append(out, *pos)
	}
	return out
}

// Sensors returns a snapshot of every emitter's last reading.
func (s *System) Sensors() []components.Sensor {
	out := make([]components.Sensor, 0, s.count)
	query := s.filter.Query()
	for query.Next() {
		_, _, _, _, sense := query.Get()
		out = append(out, *sense)
	}
	return out
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// wrapAngle maps a to [-π, π].
func wrapAngle(a float32) float32 {
	return float32(math.Remainder(float64(a), 2*math.Pi))
}

func wrapCoord(v, size float32) float32 {
	v = float32(math.Mod(float64(v), float64(size)))
	if v < 0 {
		v += size
	}
	return v
}

// reflect keeps v inside [0, size), bouncing the velocity off the wall.
func reflect(v, vel, size float32) (float32, float32) {
	edge := size - 1e-3
	if v < 0 {
		return min(-v, edge), -vel
	}
	if v >= size {
		return clampf(2*size-v, 0, edge), -vel
	}
	return v, vel
}
