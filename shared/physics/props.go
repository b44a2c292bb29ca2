// Package physics is the predictive movement core shared with the
// authoritative server: rigid body state, the input-driven motion model and
// the swept collision resolver. Nothing in here allocates per step or logs.
package physics

// MovementProperties are the server-tunable movement constants. A snapshot is
// always replaced as a whole, never patched field by field.
type MovementProperties struct {
	Gravity       float64 `yaml:"gravity"`
	MovePower     float64 `yaml:"move_power"`
	JumpPower     float64 `yaml:"jump_power"`
	WallJumpPower float64 `yaml:"wall_jump_power"`
	AirMovePower  float64 `yaml:"air_move_power"`
	SneakDrag     float64 `yaml:"sneak_drag"`
	Drag          float64 `yaml:"drag"`
	AirDrag       float64 `yaml:"air_drag"`
	WallDrag      float64 `yaml:"wall_drag"`
	Grip          float64 `yaml:"grip"`
	Fly           bool    `yaml:"fly"`
}

// Modifier is a temporary buff or debuff. Remaining counts down in steps.
type Modifier struct {
	ID        uint32
	Kind      string
	Remaining float64
}

// TickModifiers counts every modifier down by one step and drops the expired
// ones. It filters in place and returns the shortened slice.
func TickModifiers(mods []Modifier) []Modifier {
	out := mods[:0]
	for _, m := range mods {
		m.Remaining--
		if m.Remaining > 0 {
			out = append(out, m)
		}
	}
	clear(mods[len(out):])
	return out
}

// ModifierIDs appends the ids of mods to dst.
func ModifierIDs(dst []uint32, mods []Modifier) []uint32 {
	for _, m := range mods {
		dst = append(dst, m.ID)
	}
	return dst
}

// Input is the set of inputs held during one step.
type Input struct {
	Left, Right, Up, Down bool
	Primary, Secondary    bool
	MouseAngle            float64
}

// Contact holds the friction of the obstacle touching each edge of a body's
// bounding box, 0 when that edge is free.
type Contact struct {
	Left, Right, Top, Bottom float64
}

// Touching reports whether any edge is in contact.
func (c Contact) Touching() bool {
	return c.Left != 0 || c.Right != 0 || c.Top != 0 || c.Bottom != 0
}

func axis(neg, pos bool) float64 {
	switch {
	case pos && !neg:
		return 1
	case neg && !pos:
		return -1
	}
	return 0
}
