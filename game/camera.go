package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera maps y-up world units onto y-down screen pixels, centred on
// Center.
type Camera struct {
	Center mgl64.Vec2
	Scale  float64 // pixels per world unit
	Width  int
	Height int
}

func (c Camera) ToScreen(p mgl64.Vec2) (float64, float64) {
	x := (p.X()-c.Center.X())*c.Scale + float64(c.Width)/2
	y := float64(c.Height)/2 - (p.Y()-c.Center.Y())*c.Scale
	return x, y
}

func (c Camera) ToWorld(x, y float64) mgl64.Vec2 {
	return mgl64.Vec2{
		(x-float64(c.Width)/2)/c.Scale + c.Center.X(),
		(float64(c.Height)/2-y)/c.Scale + c.Center.Y(),
	}
}

// AngleTo returns the world-space angle from p to the screen point (x, y),
// counter-clockwise from +x.
func (c Camera) AngleTo(p mgl64.Vec2, x, y float64) float64 {
	d := c.ToWorld(x, y).Sub(p)
	if d.X() == 0 && d.Y() == 0 {
		return 0
	}
	return math.Atan2(d.Y(), d.X())
}
