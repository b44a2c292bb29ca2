package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/automoto/battleboxes/shared/collisionmap"
	"github.com/automoto/battleboxes/shared/gamemath"
)

// maxSubSteps bounds the sweep when a velocity is absurdly large.
const maxSubSteps = 1 << 14

// Tuning holds the resolver constants announced by the server.
type Tuning struct {
	Resolution    float64 // sub-steps per world unit travelled
	Clearance     float64 // gap left between a blocked body and the obstacle
	VerticalSlack float64 // extra room above and below the map
}

// NextPosition advances b by its velocity for one step through m.
//
// The displacement is walked in sub-steps. When a sub-step collides, the
// blocked axis is found by retesting each axis alone; that axis is snapped to
// the obstacle's bounds, its velocity zeroed and the matching contact edge
// takes the obstacle's friction. If both axes are blocked the body freezes at
// its last free position with every edge in contact. It never fails.
func NextPosition(b *Body, m *collisionmap.Map, t Tuning) {
	b.Contact = Contact{}

	vx, vy := b.vel.X(), b.vel.Y()
	steps := math.Max(math.Abs(vx), math.Abs(vy)) * t.Resolution
	if m != nil && steps > 0 && !math.IsInf(steps, 0) {
		b.sweep(m, t, steps)
	}

	b.angle += b.angVel
	b.Recompute()
}

func (b *Body) sweep(m *collisionmap.Map, t Tuning, steps float64) {
	g := b.Geometry()
	n := int(math.Min(math.Ceil(steps), maxSubSteps))
	dx, dy := b.vel.X()/float64(n), b.vel.Y()/float64(n)

	mb := m.Bounds()
	minX, maxX := mb.Left-g.Bounds.Left, mb.Right-g.Bounds.Right
	minY := mb.Bottom - g.Bounds.Bottom - t.VerticalSlack
	maxY := mb.Top - g.Bounds.Top + t.VerticalSlack

	pos := b.pos
	for i := 0; i < n && (dx != 0 || dy != 0); i++ {
		cand := mgl64.Vec2{
			gamemath.ClampFloat(pos.X()+dx, minX, maxX),
			gamemath.ClampFloat(pos.Y()+dy, minY, maxY),
		}
		hit := b.collideAt(m, &g, cand)
		if hit == nil {
			pos = cand
			continue
		}

		hitX := b.collideAt(m, &g, mgl64.Vec2{cand.X(), pos.Y()})
		hitY := b.collideAt(m, &g, mgl64.Vec2{pos.X(), cand.Y()})

		blockX := hitX != nil
		switch {
		case hitX != nil && hitY != nil:
			f := hit.Friction
			b.Contact = Contact{Left: f, Right: f, Top: f, Bottom: f}
			b.vel = mgl64.Vec2{}
			b.pos = pos
			b.dirty = true
			return
		case hitX == nil && hitY == nil:
			// Only the diagonal clips a corner. Block the shallower axis.
			hitX, hitY = hit, hit
			px, py := penetration(g.Bounds.Translate(cand.X(), cand.Y()), hit.Bounds)
			blockX = px <= py
		}

		if blockX {
			x := snapX(pos.X(), cand.X(), dx, &g, hitX, t.Clearance)
			if x != pos.X() && b.collideAt(m, &g, mgl64.Vec2{x, cand.Y()}) != nil {
				x = pos.X()
			}
			if dx > 0 {
				b.Contact.Right = hitX.Friction
			} else {
				b.Contact.Left = hitX.Friction
			}
			pos = mgl64.Vec2{x, cand.Y()}
			b.vel[0], dx = 0, 0
		} else {
			y := snapY(pos.Y(), cand.Y(), dy, &g, hitY, t.Clearance)
			if y != pos.Y() && b.collideAt(m, &g, mgl64.Vec2{cand.X(), y}) != nil {
				y = pos.Y()
			}
			if dy > 0 {
				b.Contact.Top = hitY.Friction
			} else {
				b.Contact.Bottom = hitY.Friction
			}
			pos = mgl64.Vec2{cand.X(), y}
			b.vel[1], dy = 0, 0
		}
	}

	b.pos = pos
	b.dirty = true
}

// snapX places the body against the near vertical edge of o's bounds, kept
// between the last free position and the candidate.
func snapX(from, to, dx float64, g *Geometry, o *collisionmap.Obstacle, clearance float64) float64 {
	x := o.Bounds.Right - g.Bounds.Left + clearance
	if dx > 0 {
		x = o.Bounds.Left - g.Bounds.Right - clearance
	}
	return mgl64.Clamp(x, math.Min(from, to), math.Max(from, to))
}

func snapY(from, to, dy float64, g *Geometry, o *collisionmap.Obstacle, clearance float64) float64 {
	y := o.Bounds.Top - g.Bounds.Bottom + clearance
	if dy > 0 {
		y = o.Bounds.Bottom - g.Bounds.Top - clearance
	}
	return mgl64.Clamp(y, math.Min(from, to), math.Max(from, to))
}

func penetration(a, b gamemath.Rect) (float64, float64) {
	px := math.Min(a.Right, b.Right) - math.Max(a.Left, b.Left)
	py := math.Min(a.Top, b.Top) - math.Max(a.Bottom, b.Bottom)
	return px, py
}
