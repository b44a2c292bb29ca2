package leveldata

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lafriks/go-tiled"

	"github.com/automoto/battleboxes/shared/gamemath"
)

// Options names the TMX layers and properties the loader reads.
type Options struct {
	CollisionLayer   string
	SpawnGroup       string
	FrictionProperty string
}

// DefaultOptions matches the layer names used by the shipped levels.
func DefaultOptions() Options {
	return Options{
		CollisionLayer:   "collision",
		SpawnGroup:       "PlayerSpawn",
		FrictionProperty: "friction",
	}
}

type templateKey struct {
	tileset *tiled.Tileset
	id      uint32
}

// template is a tileset tile's collision shape set in tile-local units:
// u grows right, v grows down, both in [0, 1].
type template struct {
	shapes   [][]Point
	friction []float64
}

// LoadCollisionData parses a TMX file and returns collision data (convex
// obstacles and player spawn points). It takes an fs.FS so callers can pass
// embed.FS or os.DirFS.
func LoadCollisionData(fsys fs.FS, tmxPath string, opts Options) (*CollisionData, error) {
	levelMap, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}
	if levelMap.TileWidth != levelMap.TileHeight || levelMap.TileWidth <= 0 {
		return nil, fmt.Errorf("%s: %dx%d: %w", tmxPath, levelMap.TileWidth, levelMap.TileHeight, ErrNonSquareTiles)
	}

	data := &CollisionData{
		Name:   strings.TrimSuffix(filepath.Base(tmxPath), ".tmx"),
		Width:  levelMap.Width,
		Height: levelMap.Height,
	}

	var layer *tiled.Layer
	for _, l := range levelMap.Layers {
		if l.Name == opts.CollisionLayer {
			layer = l
			break
		}
	}
	if layer == nil {
		return nil, fmt.Errorf("%s: %q: %w", tmxPath, opts.CollisionLayer, ErrNoCollisionLayer)
	}
	if len(layer.Tiles) != levelMap.Width*levelMap.Height {
		return nil, fmt.Errorf("%s: layer %q has %d tiles, map is %dx%d: %w",
			tmxPath, layer.Name, len(layer.Tiles), levelMap.Width, levelMap.Height, ErrLayerMismatch)
	}

	tileSize := float64(levelMap.TileWidth)
	templates := make(map[templateKey]*template)
	for row := 0; row < levelMap.Height; row++ {
		for col := 0; col < levelMap.Width; col++ {
			tile := layer.Tiles[row*levelMap.Width+col]
			if tile.IsNil() {
				continue
			}

			key := templateKey{tileset: tile.Tileset, id: tile.ID}
			tmpl, ok := templates[key]
			if !ok {
				tmpl, err = buildTemplate(tile, tileSize, opts.FrictionProperty)
				if err != nil {
					return nil, fmt.Errorf("%s: tile %d at (%d,%d): %w", tmxPath, tile.ID, col, row, err)
				}
				templates[key] = tmpl
			}

			tileX := col
			tileY := levelMap.Height - 1 - row
			for i, shape := range tmpl.shapes {
				data.Obstacles = append(data.Obstacles, ObstacleData{
					TileX:    tileX,
					TileY:    tileY,
					Points:   place(shape, tile, tileX, tileY),
					Friction: tmpl.friction[i],
				})
			}
		}
	}

	for _, og := range levelMap.ObjectGroups {
		if og.Name != opts.SpawnGroup {
			continue
		}
		for _, o := range og.Objects {
			data.SpawnPoints = append(data.SpawnPoints, SpawnPoint{
				X:     o.X/tileSize - 0.5,
				Y:     float64(levelMap.Height) - o.Y/tileSize - 0.5,
				Index: o.Properties.GetInt("spawnIndex"),
			})
		}
	}

	// Sort spawns left-to-right for consistent assignment
	sort.Slice(data.SpawnPoints, func(i, j int) bool {
		return data.SpawnPoints[i].X < data.SpawnPoints[j].X
	})

	return data, nil
}

func buildTemplate(tile *tiled.LayerTile, tileSize float64, frictionProp string) (*template, error) {
	tilesetTile, err := tile.Tileset.GetTilesetTile(tile.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingFriction, err)
	}
	friction, err := readFriction(tilesetTile.Properties, frictionProp)
	if err != nil {
		return nil, err
	}

	tmpl := &template{}
	for _, og := range tilesetTile.ObjectGroups {
		for _, o := range og.Objects {
			if o.Rotation != 0 || len(o.Ellipses) > 0 || len(o.PolyLines) > 0 {
				return nil, fmt.Errorf("object %d: %w", o.ID, ErrUnsupportedShape)
			}
			objFriction := friction
			switch f, ferr := readFriction(o.Properties, frictionProp); {
			case ferr == nil:
				objFriction = f
			case !errors.Is(ferr, ErrMissingFriction):
				return nil, fmt.Errorf("object %d: %w", o.ID, ferr)
			}

			var shape []Point
			if len(o.Polygons) > 0 && o.Polygons[0].Points != nil {
				for _, p := range *o.Polygons[0].Points {
					shape = append(shape, Point{X: (o.X + p.X) / tileSize, Y: (o.Y + p.Y) / tileSize})
				}
			} else {
				x0, y0 := o.X/tileSize, o.Y/tileSize
				x1, y1 := (o.X+o.Width)/tileSize, (o.Y+o.Height)/tileSize
				shape = []Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
			}
			if len(shape) < 3 {
				return nil, fmt.Errorf("object %d has %d points: %w", o.ID, len(shape), ErrUnsupportedShape)
			}
			tmpl.shapes = append(tmpl.shapes, shape)
			tmpl.friction = append(tmpl.friction, objFriction)
		}
	}

	// A tile without collision objects is solid across its whole cell.
	if len(tmpl.shapes) == 0 {
		tmpl.shapes = [][]Point{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}
		tmpl.friction = []float64{friction}
	}
	return tmpl, nil
}

func readFriction(props tiled.Properties, name string) (float64, error) {
	for _, p := range props {
		if p.Name != name {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%q=%q: %w", name, p.Value, ErrBadFriction)
		}
		return f, nil
	}
	return 0, ErrMissingFriction
}

// place applies the tile's flip flags to a tile-local shape and converts it to
// clockwise world coordinates.
func place(shape []Point, tile *tiled.LayerTile, tileX, tileY int) []Point {
	verts := make([]mgl64.Vec2, len(shape))
	for i, p := range shape {
		u, v := p.X, p.Y
		if tile.DiagonalFlip {
			u, v = v, u
		}
		if tile.HorizontalFlip {
			u = 1 - u
		}
		if tile.VerticalFlip {
			v = 1 - v
		}
		verts[i] = mgl64.Vec2{float64(tileX) - 0.5 + u, float64(tileY) + 0.5 - v}
	}
	gamemath.EnsureClockwise(verts)

	out := make([]Point, len(verts))
	for i, v := range verts {
		out[i] = Point{X: v.X(), Y: v.Y()}
	}
	return out
}

// LoadAllLevels discovers all .tmx files in levelsDir within fsys, loads collision
// data for each, and returns a map keyed by stem name plus a sorted list of names.
func LoadAllLevels(fsys fs.FS, levelsDir string, opts Options) (map[string]*CollisionData, []string, error) {
	pattern := levelsDir + "/*.tmx"
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no .tmx files found in %s", levelsDir)
	}

	levels := make(map[string]*CollisionData, len(matches))
	names := make([]string, 0, len(matches))

	for _, path := range matches {
		data, err := LoadCollisionData(fsys, path, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", path, err)
		}
		levels[data.Name] = data
		names = append(names, data.Name)
	}

	sort.Strings(names)
	return levels, names, nil
}
