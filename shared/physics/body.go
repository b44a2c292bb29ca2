package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/automoto/battleboxes/shared/collisionmap"
	"github.com/automoto/battleboxes/shared/gamemath"
)

// Geometry is the footprint derived from a body's angle and size. Bounds and
// Hull are offsets from the body position.
type Geometry struct {
	Cos, Sin float64
	Bounds   gamemath.Rect
	Hull     [4]mgl64.Vec2 // clockwise, starting top-left
}

// State is a copy of the kinematic part of a body.
type State struct {
	Position        mgl64.Vec2
	Velocity        mgl64.Vec2
	Angle           float64
	AngularVelocity float64
}

// Body is a rotated rectangle moving through a collision map.
//
// Geometry is cached. Every mutator marks it dirty and Geometry recomputes on
// the next read, so derived fields are never observed stale.
type Body struct {
	pos    mgl64.Vec2
	vel    mgl64.Vec2
	angle  float64
	angVel float64
	width  float64
	height float64

	// Contact is rewritten in full by every NextPosition call.
	Contact Contact

	geom  Geometry
	dirty bool

	hull []mgl64.Vec2
	near []*collisionmap.Obstacle
}

// NewBody returns a body of the given size at pos with zero velocity.
func NewBody(pos mgl64.Vec2, width, height float64) *Body {
	b := &Body{
		pos:    pos,
		width:  width,
		height: height,
		dirty:  true,
		hull:   make([]mgl64.Vec2, 0, 4),
		near:   make([]*collisionmap.Obstacle, 0, 16),
	}
	b.Recompute()
	return b
}

func (b *Body) Position() mgl64.Vec2     { return b.pos }
func (b *Body) Velocity() mgl64.Vec2     { return b.vel }
func (b *Body) Angle() float64           { return b.angle }
func (b *Body) AngularVelocity() float64 { return b.angVel }

// Size returns the unrotated width and height.
func (b *Body) Size() (float64, float64) { return b.width, b.height }

func (b *Body) SetPosition(p mgl64.Vec2) {
	b.pos = p
	b.dirty = true
}

func (b *Body) SetAngle(a float64) {
	b.angle = a
	b.dirty = true
}

func (b *Body) SetSize(width, height float64) {
	b.width, b.height = width, height
	b.dirty = true
}

func (b *Body) SetVelocity(v mgl64.Vec2)    { b.vel = v }
func (b *Body) SetAngularVelocity(w float64) { b.angVel = w }

// State copies the body's kinematics.
func (b *Body) State() State {
	return State{Position: b.pos, Velocity: b.vel, Angle: b.angle, AngularVelocity: b.angVel}
}

// Restore overwrites the body's kinematics with s.
func (b *Body) Restore(s State) {
	b.pos = s.Position
	b.vel = s.Velocity
	b.angle = s.Angle
	b.angVel = s.AngularVelocity
	b.dirty = true
}

// Geometry returns the derived footprint, recomputing it first if any
// mutator ran since the last read.
func (b *Body) Geometry() Geometry {
	if b.dirty {
		b.Recompute()
	}
	return b.geom
}

// Recompute rebuilds the derived footprint from angle and size.
func (b *Body) Recompute() {
	cos, sin := math.Cos(b.angle), math.Sin(b.angle)
	hw := (math.Abs(b.width*cos) + math.Abs(b.height*sin)) / 2
	hh := (math.Abs(b.height*cos) + math.Abs(b.width*sin)) / 2

	w2, h2 := b.width/2, b.height/2
	b.geom = Geometry{
		Cos:    cos,
		Sin:    sin,
		Bounds: gamemath.Rect{Left: -hw, Right: hw, Top: hh, Bottom: -hh},
		Hull: [4]mgl64.Vec2{
			gamemath.Rotate(mgl64.Vec2{-w2, h2}, cos, sin),
			gamemath.Rotate(mgl64.Vec2{w2, h2}, cos, sin),
			gamemath.Rotate(mgl64.Vec2{w2, -h2}, cos, sin),
			gamemath.Rotate(mgl64.Vec2{-w2, -h2}, cos, sin),
		},
	}
	b.dirty = false
}

// WorldBounds is the body's AABB at its current position.
func (b *Body) WorldBounds() gamemath.Rect {
	return b.Geometry().Bounds.Translate(b.pos.X(), b.pos.Y())
}

// WorldHull writes the body's corner vertices at its current position into dst.
func (b *Body) WorldHull(dst []mgl64.Vec2) []mgl64.Vec2 {
	g := b.Geometry()
	return gamemath.Translate(dst, g.Hull[:], b.pos.X(), b.pos.Y())
}

// collideAt returns the first obstacle the body would overlap if centred on
// p, or nil.
func (b *Body) collideAt(m *collisionmap.Map, g *Geometry, p mgl64.Vec2) *collisionmap.Obstacle {
	r := g.Bounds.Translate(p.X(), p.Y())
	b.hull = gamemath.Translate(b.hull, g.Hull[:], p.X(), p.Y())
	b.near = m.Query(r, b.near[:0])
	for _, o := range b.near {
		if !o.Bounds.Overlaps(r) {
			continue
		}
		if gamemath.Overlaps(b.hull, o.Points) {
			return o
		}
	}
	return nil
}
