// Package components defines ECS components for the emitter swarm.
package components

// Position represents an entity's world position.
type Position struct {
	X, Y float32
}

// Velocity represents an entity's own velocity in world units per tick.
type Velocity struct {
	X, Y float32
}

// Heading is the direction an emitter thrusts in, in radians.
type Heading struct {
	Angle float32
}

// Emitter describes what an entity writes into the fluid each tick.
type Emitter struct {
	R, G, B  float32 // Dye colour, 0..255
	Strength float32 // AddDensity strength
	Thrust   float32 // Velocity injected along the heading
}

// Sensor holds what an entity read from the fluid after the last step.
type Sensor struct {
	CurrentX, CurrentY float32 // Fluid velocity at the entity
	Dye                float32 // Strongest dye channel at the entity
}
