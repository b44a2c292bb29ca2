// Package game is the ebiten front end: it feeds input and window focus
// to the simulation and draws the latest published view.
package game

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/automoto/battleboxes/arena"
	"github.com/automoto/battleboxes/config"
	"github.com/automoto/battleboxes/logging"
	"github.com/automoto/battleboxes/shared/netconfig"
	"github.com/automoto/battleboxes/shared/physics"
	"github.com/automoto/battleboxes/sim"
)

// Simulation is the part of a session the front end talks to.
type Simulation interface {
	SetInput(physics.Input)
	SetHidden(bool)
	View() *arena.View
	Telemetry() sim.Telemetry
}

type Game struct {
	sim      Simulation
	camera   Camera
	overlay  bool
	hidden   bool
	gamepads []ebiten.GamepadID
	now      func() time.Time
	log      *zap.SugaredLogger
}

func New(s Simulation) *Game {
	return &Game{
		sim:     s,
		overlay: config.Debug.Overlay,
		camera: Camera{
			Scale:  config.C.Scale,
			Width:  config.C.Width,
			Height: config.C.Height,
		},
		now: time.Now,
		log: logging.Named("game"),
	}
}

// Overlay reports whether the debug overlay is shown.
func (g *Game) Overlay() bool {
	return g.overlay
}

func (g *Game) Update() error {
	hidden := !ebiten.IsFocused()
	if hidden != g.hidden {
		g.hidden = hidden
		g.sim.SetHidden(hidden)
		g.log.Debugw("focus changed", "hidden", hidden)
	}

	if g.toggleRequested() {
		g.overlay = !g.overlay
	}

	v := g.sim.View()
	if v == nil {
		return nil
	}
	at := g.now()
	if p := v.Find(v.Controlled); p != nil && v.HasPlayer {
		g.camera.Center = p.Interpolate(at).Bounds().Center()
	}

	g.gamepads = ebiten.AppendGamepadIDs(g.gamepads[:0])
	mx, my := ebiten.CursorPosition()
	angle := g.camera.AngleTo(g.camera.Center, float64(mx), float64(my))
	pressed := func(a netconfig.ActionID) bool { return bindingPressed(a, g.gamepads) }
	g.sim.SetInput(resolveInput(pressed, readStick(g.gamepads), config.Input.AnalogDeadzone, angle))
	return nil
}

func (g *Game) toggleRequested() bool {
	for _, key := range config.Input.Bindings[netconfig.ActionToggleDebug].Keys {
		if inpututil.IsKeyJustPressed(key) {
			return true
		}
	}
	return false
}

func (g *Game) Draw(screen *ebiten.Image) {
	v := g.sim.View()
	if v == nil {
		return
	}
	at := g.now()
	drawActors(screen, g.camera, v, at)
	if g.overlay {
		drawObstacles(screen, g.camera, v.Map)
		drawTelemetry(screen, v, g.sim.Telemetry())
	}
}

func (g *Game) Layout(width, height int) (int, int) {
	return config.C.Width, config.C.Height
}
