// Package arena holds every entity the client knows about. Remote entities
// follow authoritative snapshots; the one controlled player is predicted
// locally and reconciled against them.
package arena

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/leap-fish/necs/esync"

	"github.com/automoto/battleboxes/shared/gamemath"
	"github.com/automoto/battleboxes/shared/messages"
	"github.com/automoto/battleboxes/shared/netcomponents"
	"github.com/automoto/battleboxes/shared/netconfig"
)

// Update is one authoritative snapshot stamped with its local receive time.
type Update struct {
	Snapshot     messages.EntitySnapshot
	At           time.Time
	StepInterval time.Duration // server step length, for extrapolation
}

// Pose is an actor's render state at one instant.
type Pose struct {
	X, Y, Angle   float64
	Width, Height float64
	Hull          []mgl64.Vec2 // world space, clockwise
	Cosmetic      netcomponents.NetCosmeticData
}

func (p Pose) Bounds() gamemath.Rect {
	return gamemath.BoundsOf(p.Hull)
}

// Actor is implemented only by the variants in this package: Entity,
// Player, ControlledPlayer, Projectile and LootBox.
type Actor interface {
	ID() esync.NetworkId
	Kind() netconfig.EntityKind
	// Advance folds an authoritative snapshot into the actor.
	Advance(u Update)
	// Interpolate returns the pose to draw at the given wall time.
	Interpolate(at time.Time) Pose

	clone() Actor
	sealed()
}

// Entity is a remote actor drawn between its last two snapshots.
type Entity struct {
	id    esync.NetworkId
	kind  netconfig.EntityKind
	delay time.Duration

	prev, next netcomponents.NetKinematicsData
	seen       bool
}

func (e *Entity) ID() esync.NetworkId        { return e.id }
func (e *Entity) Kind() netconfig.EntityKind { return e.kind }
func (e *Entity) sealed()                    {}

func (e *Entity) clone() Actor {
	c := *e
	return &c
}

// Latest returns the newest authoritative kinematics.
func (e *Entity) Latest() netcomponents.NetKinematicsData {
	return e.next
}

func (e *Entity) Advance(u Update) {
	k := kinematicsOf(u)
	if !e.seen {
		e.prev = k
		e.seen = true
	} else {
		e.prev = e.next
	}
	e.next = k
}

func (e *Entity) Interpolate(at time.Time) Pose {
	return boxPose(e.sample(at.Add(-e.delay)))
}

// sample interpolates between the last two snapshots, holding the newest
// once the render time passes it.
func (e *Entity) sample(at time.Time) netcomponents.NetKinematicsData {
	span := e.next.At - e.prev.At
	if span <= 0 {
		return e.next
	}
	t := float64(at.UnixNano()-e.prev.At) / float64(span)
	return *netcomponents.LerpNetKinematics(e.prev, e.next, gamemath.ClampFloat(t, 0, 1))
}

// Player is a remote player.
type Player struct {
	Entity
	cosmetic netcomponents.NetCosmeticData
}

func (p *Player) clone() Actor {
	c := *p
	return &c
}

func (p *Player) Advance(u Update) {
	p.Entity.Advance(u)
	p.cosmetic = cosmeticOf(u.Snapshot)
}

func (p *Player) Interpolate(at time.Time) Pose {
	pose := p.Entity.Interpolate(at)
	pose.Cosmetic = p.cosmetic
	return pose
}

// Projectile keeps flying along its last velocity past the newest snapshot.
type Projectile struct {
	Entity
	hull     []mgl64.Vec2 // local space, clockwise; nil draws a box
	interval time.Duration
}

func (p *Projectile) clone() Actor {
	c := *p
	return &c
}

func (p *Projectile) Advance(u Update) {
	p.Entity.Advance(u)
	if u.StepInterval > 0 {
		p.interval = u.StepInterval
	}
}

func (p *Projectile) Interpolate(at time.Time) Pose {
	at = at.Add(-p.delay)
	k := p.sample(at)
	if ahead := at.UnixNano() - p.next.At; ahead > 0 && p.interval > 0 {
		steps := float64(ahead) / float64(p.interval)
		k.X += k.VX * steps
		k.Y += k.VY * steps
	}
	if p.hull == nil {
		return boxPose(k)
	}
	return Pose{
		X:      k.X,
		Y:      k.Y,
		Angle:  k.Angle,
		Width:  k.Width,
		Height: k.Height,
		Hull:   transform(p.hull, k.X, k.Y, k.Angle),
	}
}

// LootBox never moves between snapshots.
type LootBox struct {
	Entity
}

func (l *LootBox) clone() Actor {
	c := *l
	return &c
}

func (l *LootBox) Interpolate(time.Time) Pose {
	return boxPose(l.next)
}

func kinematicsOf(u Update) netcomponents.NetKinematicsData {
	s := u.Snapshot
	return netcomponents.NetKinematicsData{
		X:      s.X,
		Y:      s.Y,
		Angle:  s.Angle,
		VX:     s.VX,
		VY:     s.VY,
		Width:  s.Width,
		Height: s.Height,
		At:     u.At.UnixNano(),
	}
}

func cosmeticOf(s messages.EntitySnapshot) netcomponents.NetCosmeticData {
	return netcomponents.NetCosmeticData{
		Username: s.Username,
		Color:    s.Color,
		HP:       s.HP,
		MaxHP:    s.MaxHP,
	}
}

func boxPose(k netcomponents.NetKinematicsData) Pose {
	return Pose{
		X:      k.X,
		Y:      k.Y,
		Angle:  k.Angle,
		Width:  k.Width,
		Height: k.Height,
		Hull:   boxHull(k.X, k.Y, k.Width, k.Height, k.Angle),
	}
}

// boxHull returns the clockwise corners of a rotated w x h box centred on (x, y).
func boxHull(x, y, w, h, angle float64) []mgl64.Vec2 {
	hw, hh := w/2, h/2
	return transform([]mgl64.Vec2{{-hw, hh}, {hw, hh}, {hw, -hh}, {-hw, -hh}}, x, y, angle)
}

func transform(local []mgl64.Vec2, x, y, angle float64) []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(local))
	if angle == 0 {
		return gamemath.Translate(out, local, x, y)
	}
	sin, cos := math.Sincos(angle)
	for i, v := range local {
		out[i] = gamemath.Rotate(v, cos, sin).Add(mgl64.Vec2{x, y})
	}
	return out
}
