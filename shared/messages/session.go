package messages

import (
	"github.com/leap-fish/necs/esync"

	"github.com/automoto/battleboxes/shared/netconfig"
	"github.com/automoto/battleboxes/shared/physics"
)

// Vertex is a collision vertex in world units.
type Vertex struct {
	X, Y float64
}

// SessionInit starts the physics session for a joined client.
type SessionInit struct {
	StartStep       uint64
	Resolution      float64 // sweep sub-steps per world unit
	Clearance       float64 // collision clearance buffer
	Properties      physics.MovementProperties
	ProjectileHulls map[string][]Vertex // projectile type -> clockwise hull
}

// EntitySnapshot is the authoritative state of one entity at one step.
type EntitySnapshot struct {
	ID              esync.NetworkId
	Kind            netconfig.EntityKind
	Step            uint64
	X, Y            float64
	Angle           float64
	VX, VY          float64
	AngularVelocity float64
	Width, Height   float64
	ProjectileType  string

	Username string
	Color    uint32
	HP       int
	MaxHP    int

	Properties physics.MovementProperties
	Modifiers  []physics.Modifier

	// OverridePosition forces the client to adopt the position, velocity
	// and angle above instead of its own prediction.
	OverridePosition bool
}

// GlobalTick is broadcast periodically with the server clock and every
// entity's state.
type GlobalTick struct {
	Tick     uint64
	TPS      float64 // currently reported tick rate
	AvgTPS   float64
	MapID    string
	Entities []EntitySnapshot
}

// DespawnEvent is broadcast when an entity is removed
type DespawnEvent struct {
	NetworkID esync.NetworkId
}
