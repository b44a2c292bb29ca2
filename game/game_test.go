package game

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/automoto/battleboxes/arena"
	"github.com/automoto/battleboxes/config"
	"github.com/automoto/battleboxes/shared/netconfig"
	"github.com/automoto/battleboxes/shared/physics"
	"github.com/automoto/battleboxes/sim"
)

func TestCameraYUp(t *testing.T) {
	cam := Camera{Center: mgl64.Vec2{10, 5}, Scale: 32, Width: 640, Height: 480}

	x, y := cam.ToScreen(mgl64.Vec2{10, 5})
	assert.Equal(t, 320.0, x)
	assert.Equal(t, 240.0, y)

	_, above := cam.ToScreen(mgl64.Vec2{10, 6})
	assert.Equal(t, 208.0, above, "larger world y is higher on screen")

	assert.InDelta(t, math.Pi/2, cam.AngleTo(cam.Center, 320, 100), 1e-9)
	assert.InDelta(t, 0, cam.AngleTo(cam.Center, 400, 240), 1e-9)
	assert.Equal(t, 0.0, cam.AngleTo(cam.Center, 320, 240))
}

func TestCameraRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cam := Camera{
			Center: mgl64.Vec2{rapid.Float64Range(-100, 100).Draw(t, "cx"), rapid.Float64Range(-100, 100).Draw(t, "cy")},
			Scale:  rapid.Float64Range(1, 64).Draw(t, "scale"),
			Width:  640,
			Height: 480,
		}
		p := mgl64.Vec2{rapid.Float64Range(-100, 100).Draw(t, "x"), rapid.Float64Range(-100, 100).Draw(t, "y")}
		sx, sy := cam.ToScreen(p)
		back := cam.ToWorld(sx, sy)
		if math.Abs(back.X()-p.X()) > 1e-6 || math.Abs(back.Y()-p.Y()) > 1e-6 {
			t.Fatalf("round trip %v -> %v", p, back)
		}
	})
}

func TestResolveInput(t *testing.T) {
	held := map[netconfig.ActionID]bool{}
	pressed := func(a netconfig.ActionID) bool { return held[a] }

	held[netconfig.ActionMoveLeft] = true
	held[netconfig.ActionPrimary] = true
	in := resolveInput(pressed, Stick{}, 0.25, 1.5)
	assert.True(t, in.Left)
	assert.False(t, in.Right)
	assert.True(t, in.Primary)
	assert.Equal(t, 1.5, in.MouseAngle)

	held[netconfig.ActionMoveRight] = true
	in = resolveInput(pressed, Stick{}, 0.25, 0)
	assert.False(t, in.Left, "opposite directions cancel")
	assert.False(t, in.Right)

	clear(held)
	in = resolveInput(pressed, Stick{X: 0.2, Y: -0.9}, 0.25, 0)
	assert.False(t, in.Right, "inside the deadzone")
	assert.True(t, in.Up, "stick up is negative y")
}

type idleSim struct{}

func (idleSim) SetInput(physics.Input)   {}
func (idleSim) SetHidden(bool)           {}
func (idleSim) View() *arena.View        { return nil }
func (idleSim) Telemetry() sim.Telemetry { return sim.Telemetry{} }

func TestOverlayStartsFromConfig(t *testing.T) {
	t.Cleanup(config.Reset)

	config.Debug.Overlay = true
	assert.True(t, New(idleSim{}).Overlay())

	config.Debug.Overlay = false
	assert.False(t, New(idleSim{}).Overlay())
}

func TestTelemetryLines(t *testing.T) {
	lines := telemetryLines(&arena.View{}, sim.Telemetry{Step: 42, Rate: 30})
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "map -")
	assert.Contains(t, lines[0], "step 42")
	assert.Contains(t, lines[1], "rate 30.0/s")
}
