package arena

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/leap-fish/necs/esync"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/automoto/battleboxes/shared/collisionmap"
	"github.com/automoto/battleboxes/shared/gamemath"
	"github.com/automoto/battleboxes/shared/netcomponents"
	"github.com/automoto/battleboxes/shared/netconfig"
	"github.com/automoto/battleboxes/shared/physics"
)

// ControlledPlayer is the locally predicted player. Only the simulation
// task may call Step or Advance on it.
type ControlledPlayer struct {
	id   esync.NetworkId
	body *physics.Body

	props     physics.MovementProperties
	modifiers []physics.Modifier
	cosmetic  netcomponents.NetCosmeticData

	// The last two stepped states, for drawing between steps.
	prev, cur     physics.State
	prevAt, curAt time.Time
	width, height float64

	// A hard override jumps the body; the jump is drawn as an offset that
	// eases out over correctionDuration.
	correctionDuration time.Duration
	correction         mgl64.Vec2
	factor             float64
	tween              *gween.Tween
	tweenAt            time.Time
}

func NewControlledPlayer(id esync.NetworkId, pos mgl64.Vec2, width, height float64, props physics.MovementProperties, correction time.Duration) *ControlledPlayer {
	body := physics.NewBody(pos, width, height)
	s := body.State()
	return &ControlledPlayer{
		id:                 id,
		body:               body,
		props:              props,
		prev:               s,
		cur:                s,
		width:              width,
		height:             height,
		correctionDuration: correction,
	}
}

func (p *ControlledPlayer) ID() esync.NetworkId        { return p.id }
func (p *ControlledPlayer) Kind() netconfig.EntityKind { return netconfig.KindPlayer }
func (p *ControlledPlayer) sealed()                    {}

// Body is nil on the copies published in a View.
func (p *ControlledPlayer) Body() *physics.Body                    { return p.body }
func (p *ControlledPlayer) Properties() physics.MovementProperties { return p.props }
func (p *ControlledPlayer) Modifiers() []physics.Modifier          { return p.modifiers }

func (p *ControlledPlayer) clone() Actor {
	c := *p
	c.body = nil
	c.tween = nil
	c.modifiers = append([]physics.Modifier(nil), p.modifiers...)
	return &c
}

// Step runs one prediction step: motion model, then sweep, then the
// modifier countdown.
func (p *ControlledPlayer) Step(in physics.Input, m *collisionmap.Map, t physics.Tuning, at time.Time) {
	p.prev, p.prevAt = p.cur, p.curAt

	physics.ApplyInput(p.body, in, p.props)
	physics.NextPosition(p.body, m, t)
	p.modifiers = physics.TickModifiers(p.modifiers)

	p.cur, p.curAt = p.body.State(), at
	p.easeCorrection(at)
}

// Advance reconciles with an authoritative snapshot. Movement properties
// and modifiers are always taken from the server. Position, velocity and
// angle are replaced only when the snapshot overrides them; otherwise the
// prediction stands.
func (p *ControlledPlayer) Advance(u Update) {
	s := u.Snapshot
	p.props = s.Properties
	p.modifiers = append(p.modifiers[:0], s.Modifiers...)
	p.cosmetic = cosmeticOf(s)

	if !s.OverridePosition {
		return
	}

	predicted := p.body.Position()
	if s.Width > 0 && s.Height > 0 {
		p.body.SetSize(s.Width, s.Height)
		p.width, p.height = s.Width, s.Height
	}
	p.body.Restore(physics.State{
		Position:        mgl64.Vec2{s.X, s.Y},
		Velocity:        mgl64.Vec2{s.VX, s.VY},
		Angle:           s.Angle,
		AngularVelocity: s.AngularVelocity,
	})

	p.cur = p.body.State()
	p.prev = p.cur
	p.startCorrection(predicted.Sub(p.cur.Position), u.At)
}

func (p *ControlledPlayer) startCorrection(jump mgl64.Vec2, at time.Time) {
	if p.correctionDuration <= 0 || jump.Len() == 0 {
		p.correction, p.factor, p.tween = mgl64.Vec2{}, 0, nil
		return
	}
	p.correction = jump
	p.factor = 1
	p.tween = gween.New(1, 0, float32(p.correctionDuration.Seconds()), ease.OutCubic)
	p.tweenAt = at
}

func (p *ControlledPlayer) easeCorrection(at time.Time) {
	if p.tween == nil {
		return
	}
	dt := at.Sub(p.tweenAt)
	if dt < 0 {
		dt = 0
	}
	p.tweenAt = at
	v, done := p.tween.Update(float32(dt.Seconds()))
	if done {
		p.correction, p.factor, p.tween = mgl64.Vec2{}, 0, nil
		return
	}
	p.factor = float64(v)
}

// Correction returns the render offset still pending from the last override.
func (p *ControlledPlayer) Correction() mgl64.Vec2 {
	return p.correction.Mul(p.factor)
}

// Interpolate draws one step behind the newest state, blending the last
// two stepped states.
func (p *ControlledPlayer) Interpolate(at time.Time) Pose {
	s := p.cur
	if span := p.curAt.Sub(p.prevAt); span > 0 && !p.prevAt.IsZero() {
		t := gamemath.ClampFloat(float64(at.Sub(p.curAt))/float64(span), 0, 1)
		s = physics.State{
			Position: mgl64.Vec2{
				gamemath.Lerp(p.prev.Position.X(), p.cur.Position.X(), t),
				gamemath.Lerp(p.prev.Position.Y(), p.cur.Position.Y(), t),
			},
			Angle: gamemath.Lerp(p.prev.Angle, p.cur.Angle, t),
		}
	}

	pos := s.Position.Add(p.Correction())
	pose := Pose{
		X:        pos.X(),
		Y:        pos.Y(),
		Angle:    s.Angle,
		Width:    p.width,
		Height:   p.height,
		Hull:     boxHull(pos.X(), pos.Y(), p.width, p.height, s.Angle),
		Cosmetic: p.cosmetic,
	}
	return pose
}
