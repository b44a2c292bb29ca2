package gamemath

import "github.com/go-gl/mathgl/mgl64"

// Rect is an axis-aligned box in y-up world space. Top is the larger Y.
type Rect struct {
	Left, Right, Top, Bottom float64
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{
		Left:   r.Left + dx,
		Right:  r.Right + dx,
		Top:    r.Top + dy,
		Bottom: r.Bottom + dy,
	}
}

// Overlaps reports whether r and o share any point, edges included.
func (r Rect) Overlaps(o Rect) bool {
	return r.Left <= o.Right && o.Left <= r.Right &&
		r.Bottom <= o.Top && o.Bottom <= r.Top
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Top - r.Bottom }

// Center returns the midpoint of the box.
func (r Rect) Center() mgl64.Vec2 {
	return mgl64.Vec2{(r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2}
}

// BoundsOf returns the tight AABB of points. An empty slice yields the zero Rect.
func BoundsOf(points []mgl64.Vec2) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	r := Rect{Left: points[0].X(), Right: points[0].X(), Top: points[0].Y(), Bottom: points[0].Y()}
	for _, p := range points[1:] {
		r.Left = min(r.Left, p.X())
		r.Right = max(r.Right, p.X())
		r.Bottom = min(r.Bottom, p.Y())
		r.Top = max(r.Top, p.Y())
	}
	return r
}

// ClampFloat clamps v into [lo, hi]. An inverted range yields its midpoint.
func ClampFloat(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	return mgl64.Clamp(v, lo, hi)
}
