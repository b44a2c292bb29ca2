// Package collisionmap holds the static obstacle grid built from a level's
// collision data. A Map is read-only after New returns and may be shared by
// any number of bodies without locking.
package collisionmap

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/automoto/battleboxes/shared/gamemath"
	"github.com/automoto/battleboxes/shared/leveldata"
)

var (
	ErrNotConvex = errors.New("obstacle polygon is not convex")
	ErrWinding   = errors.New("obstacle polygon is not wound clockwise")
	ErrOutOfGrid = errors.New("obstacle tile lies outside the map grid")
)

// Obstacle is one convex, clockwise polygon with its tight AABB.
// Friction 0 means the surface imparts no contact friction.
type Obstacle struct {
	Points   []mgl64.Vec2
	Bounds   gamemath.Rect
	Friction float64
	TileX    int
	TileY    int
}

// Map is a width x height grid of cells, each holding the obstacles placed on
// that tile.
type Map struct {
	name      string
	width     int
	height    int
	obstacles []Obstacle
	cells     [][]*Obstacle
	spawns    []mgl64.Vec2
}

// New validates data and builds the grid.
func New(data *leveldata.CollisionData) (*Map, error) {
	if data == nil {
		return nil, errors.New("collisionmap: nil collision data")
	}
	if data.Width <= 0 || data.Height <= 0 {
		return nil, fmt.Errorf("collisionmap %q: invalid size %dx%d", data.Name, data.Width, data.Height)
	}

	m := &Map{
		name:      data.Name,
		width:     data.Width,
		height:    data.Height,
		obstacles: make([]Obstacle, len(data.Obstacles)),
		cells:     make([][]*Obstacle, data.Width*data.Height),
	}

	for i, od := range data.Obstacles {
		if od.TileX < 0 || od.TileX >= data.Width || od.TileY < 0 || od.TileY >= data.Height {
			return nil, fmt.Errorf("obstacle %d at (%d,%d): %w", i, od.TileX, od.TileY, ErrOutOfGrid)
		}
		pts := make([]mgl64.Vec2, len(od.Points))
		for j, p := range od.Points {
			pts[j] = mgl64.Vec2{p.X, p.Y}
		}
		if !gamemath.IsConvexClockwise(pts) {
			if len(pts) >= 3 && gamemath.SignedArea(pts) > 0 {
				return nil, fmt.Errorf("obstacle %d at (%d,%d): %w", i, od.TileX, od.TileY, ErrWinding)
			}
			return nil, fmt.Errorf("obstacle %d at (%d,%d): %w", i, od.TileX, od.TileY, ErrNotConvex)
		}

		m.obstacles[i] = Obstacle{
			Points:   pts,
			Bounds:   gamemath.BoundsOf(pts),
			Friction: od.Friction,
			TileX:    od.TileX,
			TileY:    od.TileY,
		}
		cell := od.TileY*data.Width + od.TileX
		m.cells[cell] = append(m.cells[cell], &m.obstacles[i])
	}

	for _, sp := range data.SpawnPoints {
		m.spawns = append(m.spawns, mgl64.Vec2{sp.X, sp.Y})
	}
	return m, nil
}

func (m *Map) Name() string { return m.name }
func (m *Map) Width() int   { return m.width }
func (m *Map) Height() int  { return m.height }

// Obstacles returns every obstacle in load order. Callers must not modify it.
func (m *Map) Obstacles() []Obstacle { return m.obstacles }

// Spawns returns the level's player spawn points, left to right.
func (m *Map) Spawns() []mgl64.Vec2 { return m.spawns }

// Bounds is the world-space extent of the grid.
func (m *Map) Bounds() gamemath.Rect {
	return gamemath.Rect{
		Left:   -0.5,
		Right:  float64(m.width) - 0.5,
		Bottom: -0.5,
		Top:    float64(m.height) - 0.5,
	}
}

// Query appends to dst every obstacle whose cell overlaps r, scanning rows
// bottom to top and columns left to right. Cells outside the grid are skipped.
func (m *Map) Query(r gamemath.Rect, dst []*Obstacle) []*Obstacle {
	x0, x1 := m.clampCol(cellIndex(r.Left)), m.clampCol(cellIndex(r.Right))
	y0, y1 := m.clampRow(cellIndex(r.Bottom)), m.clampRow(cellIndex(r.Top))
	if cellIndex(r.Right) < 0 || cellIndex(r.Left) >= m.width ||
		cellIndex(r.Top) < 0 || cellIndex(r.Bottom) >= m.height {
		return dst
	}
	for y := y0; y <= y1; y++ {
		row := m.cells[y*m.width : (y+1)*m.width]
		for x := x0; x <= x1; x++ {
			dst = append(dst, row[x]...)
		}
	}
	return dst
}

// cellIndex maps a world coordinate to the tile whose centre is nearest.
func cellIndex(c float64) int {
	return int(math.Floor(c + 0.5))
}

func (m *Map) clampCol(x int) int { return min(max(x, 0), m.width-1) }
func (m *Map) clampRow(y int) int { return min(max(y, 0), m.height-1) }
