package arena

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"

	"github.com/automoto/battleboxes/shared/collisionmap"
	"github.com/automoto/battleboxes/shared/gamemath"
	"github.com/automoto/battleboxes/shared/messages"
	"github.com/automoto/battleboxes/shared/netcomponents"
	"github.com/automoto/battleboxes/shared/netconfig"
	"github.com/automoto/battleboxes/shared/physics"
)

// ErrControlledExists is returned when a second controlled player is spawned.
var ErrControlledExists = errors.New("a controlled player already exists")

type actorRef struct {
	Actor Actor
}

var actorSlot = donburi.NewComponentType[actorRef]()

// Options tune how remote and corrected state is drawn.
type Options struct {
	InterpolationDelay time.Duration
	CorrectionDuration time.Duration
}

// View is an immutable copy of the world for the render goroutine.
type View struct {
	Step       uint64
	At         time.Time
	Controlled esync.NetworkId
	HasPlayer  bool
	Actors     []Actor
	Touching   []esync.NetworkId
	Map        *collisionmap.Map
}

// Find returns the actor with the given id, or nil.
func (v *View) Find(id esync.NetworkId) Actor {
	for _, a := range v.Actors {
		if a.ID() == id {
			return a
		}
	}
	return nil
}

// World tracks every known entity in a donburi world keyed by network id.
// It is owned by the simulation task; other goroutines read View.
type World struct {
	ecs  donburi.World
	opts Options

	hulls      map[string][]mgl64.Vec2
	controlled *ControlledPlayer
	stepEvery  time.Duration

	m        *collisionmap.Map
	overlap  *overlapSpace
	touching []esync.NetworkId
	present  map[esync.NetworkId]bool

	view atomic.Pointer[View]
}

// NewWorld creates an empty world. hulls maps projectile type names to
// their collision vertices.
func NewWorld(hulls map[string][]messages.Vertex, opts Options) *World {
	w := &World{
		ecs:     donburi.NewWorld(),
		opts:    opts,
		hulls:   make(map[string][]mgl64.Vec2, len(hulls)),
		present: make(map[esync.NetworkId]bool),
	}
	for name, verts := range hulls {
		hull := make([]mgl64.Vec2, len(verts))
		for i, v := range verts {
			hull[i] = mgl64.Vec2{v.X, v.Y}
		}
		gamemath.EnsureClockwise(hull)
		w.hulls[name] = hull
	}
	w.view.Store(&View{})
	return w
}

// SetStepInterval records the current server step length.
func (w *World) SetStepInterval(d time.Duration) {
	w.stepEvery = d
}

// SetMap switches the collision map and rebuilds the hitbox space.
func (w *World) SetMap(m *collisionmap.Map) {
	w.m = m
	w.overlap = nil
	if m != nil {
		w.overlap = newOverlapSpace(m.Bounds())
	}
}

func (w *World) Map() *collisionmap.Map {
	return w.m
}

func (w *World) Controlled() *ControlledPlayer {
	return w.controlled
}

// SpawnControlled creates the locally predicted player.
func (w *World) SpawnControlled(id esync.NetworkId, pos mgl64.Vec2, width, height float64, props physics.MovementProperties) (*ControlledPlayer, error) {
	if w.controlled != nil {
		return nil, ErrControlledExists
	}
	if entity := esync.FindByNetworkId(w.ecs, id); w.ecs.Valid(entity) {
		w.remove(w.ecs.Entry(entity), id)
	}

	p := NewControlledPlayer(id, pos, width, height, props, w.opts.CorrectionDuration)
	entry := w.create(id, p)
	netcomponents.NetKinematics.SetValue(entry, netcomponents.NetKinematicsData{
		X:      pos.X(),
		Y:      pos.Y(),
		Width:  width,
		Height: height,
	})
	w.controlled = p
	return p, nil
}

// Apply folds one authoritative snapshot into the world, creating the
// entity on first sight.
func (w *World) Apply(u Update) {
	s := u.Snapshot
	if u.StepInterval == 0 {
		u.StepInterval = w.stepEvery
	}

	var entry *donburi.Entry
	if entity := esync.FindByNetworkId(w.ecs, s.ID); w.ecs.Valid(entity) {
		entry = w.ecs.Entry(entity)
	} else {
		entry = w.create(s.ID, w.newActor(s))
	}

	actor := actorSlot.Get(entry).Actor
	actor.Advance(u)

	netcomponents.NetCosmetic.SetValue(entry, cosmeticOf(s))
	if p, ok := actor.(*ControlledPlayer); ok {
		st := p.body.State()
		netcomponents.NetKinematics.SetValue(entry, netcomponents.NetKinematicsData{
			X:      st.Position.X(),
			Y:      st.Position.Y(),
			Angle:  st.Angle,
			VX:     st.Velocity.X(),
			VY:     st.Velocity.Y(),
			Width:  p.width,
			Height: p.height,
			At:     u.At.UnixNano(),
		})
		return
	}
	netcomponents.NetKinematics.SetValue(entry, kinematicsOf(u))
}

// ApplyTick folds a global tick's entity list and removes remote entities
// it no longer mentions. The controlled player is never pruned here.
func (w *World) ApplyTick(tick messages.GlobalTick, at time.Time) {
	clear(w.present)
	for _, s := range tick.Entities {
		w.present[s.ID] = true
		w.Apply(Update{Snapshot: s, At: at})
	}

	var stale []esync.NetworkId
	esync.NetworkEntityQuery.Each(w.ecs, func(entry *donburi.Entry) {
		id := esync.GetNetworkId(entry)
		if id == nil || w.present[*id] {
			return
		}
		if w.controlled != nil && *id == w.controlled.id {
			return
		}
		stale = append(stale, *id)
	})
	for _, id := range stale {
		w.Despawn(id)
	}
}

// Despawn removes an entity. Removing the controlled player ends its
// prediction.
func (w *World) Despawn(id esync.NetworkId) bool {
	entity := esync.FindByNetworkId(w.ecs, id)
	if !w.ecs.Valid(entity) {
		return false
	}
	w.remove(w.ecs.Entry(entity), id)
	return true
}

// Len returns the number of tracked entities, the controlled player included.
func (w *World) Len() int {
	n := 0
	esync.NetworkEntityQuery.Each(w.ecs, func(*donburi.Entry) { n++ })
	return n
}

// UpdateOverlaps recomputes which remote hitboxes touch the controlled
// player at the given time.
func (w *World) UpdateOverlaps(at time.Time) []esync.NetworkId {
	w.touching = w.touching[:0]
	if w.overlap == nil || w.controlled == nil {
		return w.touching
	}

	esync.NetworkEntityQuery.Each(w.ecs, func(entry *donburi.Entry) {
		actor := actorSlot.Get(entry).Actor
		if actor == Actor(w.controlled) {
			return
		}
		w.overlap.set(actor.ID(), actor.Interpolate(at).Hull)
	})
	w.touching = w.overlap.touching(w.touching, w.controlled.body.WorldHull(nil))
	return w.touching
}

// Publish stores a fresh View for readers.
func (w *World) Publish(step uint64, at time.Time) *View {
	v := &View{
		Step:     step,
		At:       at,
		Map:      w.m,
		Touching: append([]esync.NetworkId(nil), w.touching...),
	}
	if w.controlled != nil {
		v.Controlled = w.controlled.id
		v.HasPlayer = true
	}
	esync.NetworkEntityQuery.Each(w.ecs, func(entry *donburi.Entry) {
		v.Actors = append(v.Actors, actorSlot.Get(entry).Actor.clone())
	})
	w.view.Store(v)
	return v
}

// View returns the latest published View. Safe from any goroutine.
func (w *World) View() *View {
	return w.view.Load()
}

func (w *World) create(id esync.NetworkId, a Actor) *donburi.Entry {
	entity := w.ecs.Create(netcomponents.NetKinematics, netcomponents.NetCosmetic, actorSlot)
	entry := w.ecs.Entry(entity)
	entry.AddComponent(esync.NetworkIdComponent)
	esync.NetworkIdComponent.SetValue(entry, id)
	actorSlot.SetValue(entry, actorRef{Actor: a})
	return entry
}

func (w *World) remove(entry *donburi.Entry, id esync.NetworkId) {
	if w.controlled != nil && w.controlled.id == id {
		w.controlled = nil
	}
	if w.overlap != nil {
		w.overlap.remove(id)
	}
	w.ecs.Remove(entry.Entity())
}

func (w *World) newActor(s messages.EntitySnapshot) Actor {
	base := Entity{id: s.ID, kind: s.Kind, delay: w.opts.InterpolationDelay}
	switch s.Kind {
	case netconfig.KindPlayer:
		return &Player{Entity: base}
	case netconfig.KindProjectile:
		return &Projectile{Entity: base, hull: w.hulls[s.ProjectileType], interval: w.stepEvery}
	case netconfig.KindLootBox:
		return &LootBox{Entity: base}
	}
	return &base
}
