package game

import (
	"fmt"
	"image/color"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text" //nolint:staticcheck // font.Face faces from fonts
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/automoto/battleboxes/arena"
	"github.com/automoto/battleboxes/config"
	"github.com/automoto/battleboxes/fonts"
	"github.com/automoto/battleboxes/shared/collisionmap"
	"github.com/automoto/battleboxes/sim"
)

func drawPolygon(screen *ebiten.Image, cam Camera, poly []mgl64.Vec2, c color.Color) {
	for i := range poly {
		x0, y0 := cam.ToScreen(poly[i])
		x1, y1 := cam.ToScreen(poly[(i+1)%len(poly)])
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 1, c, false)
	}
}

func drawObstacles(screen *ebiten.Image, cam Camera, m *collisionmap.Map) {
	if m == nil {
		return
	}
	obs := m.Obstacles()
	for i := range obs {
		drawPolygon(screen, cam, obs[i].Points, config.Debug.ObstacleColor)
	}
}

func drawActors(screen *ebiten.Image, cam Camera, v *arena.View, at time.Time) {
	for _, a := range v.Actors {
		pose := a.Interpolate(at)
		c := config.Debug.RemoteColor
		if v.HasPlayer && a.ID() == v.Controlled {
			c = config.Debug.HullColor
		}
		if slices.Contains(v.Touching, a.ID()) {
			c = color.RGBA{R: 230, G: 60, B: 60, A: 255}
		}
		drawPolygon(screen, cam, pose.Hull, c)
	}
}

// telemetryLines formats the pacing figures shown by the overlay.
func telemetryLines(v *arena.View, t sim.Telemetry) []string {
	mapName := "-"
	if v.Map != nil {
		mapName = v.Map.Name()
	}
	return []string{
		fmt.Sprintf("map %s  step %d  actors %d", mapName, t.Step, len(v.Actors)),
		fmt.Sprintf("error %+.2f  rate %.1f/s  avg %.1f", t.Error, t.Rate, t.AvgRate),
		fmt.Sprintf("min %.1f  max %.1f  jitter %.1f", t.MinRate, t.MaxRate, t.Jitter),
		fmt.Sprintf("step time avg %s  max %s", t.AvgDuration, t.MaxDuration),
	}
}

func drawTelemetry(screen *ebiten.Image, v *arena.View, t sim.Telemetry) {
	face := fonts.MonoSmall.Get()
	for i, line := range telemetryLines(v, t) {
		text.Draw(screen, line, face, 8, 16+i*14, config.Debug.TextColor)
	}
}
