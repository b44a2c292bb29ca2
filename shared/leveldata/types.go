// Package leveldata provides TMX level parsing shared between client and server.
// It has no dependencies on ebitengine, donburi, or resolv. Pure data only.
//
// Coordinates are world units (one unit per tile, y up). Tile (x, y) is centred
// on the integer point (x, y); row 0 of the TMX grid is the top row of the map.
package leveldata

import "errors"

var (
	ErrNonSquareTiles   = errors.New("tiles must be square")
	ErrNoCollisionLayer = errors.New("collision layer not found")
	ErrLayerMismatch    = errors.New("layer dimensions do not match map")
	ErrMissingFriction  = errors.New("collision template has no friction property")
	ErrBadFriction      = errors.New("friction must be a non-negative number")
	ErrUnsupportedShape = errors.New("unsupported collision shape")
)

// CollisionData holds all collision-relevant data parsed from a TMX level file.
type CollisionData struct {
	Name        string
	Obstacles   []ObstacleData
	SpawnPoints []SpawnPoint
	Width       int // tiles
	Height      int // tiles
}

// Point is a world-space vertex.
type Point struct {
	X, Y float64
}

// ObstacleData is one convex collision polygon placed at a tile.
// Points are clockwise in y-up world space.
type ObstacleData struct {
	TileX, TileY int
	Points       []Point
	Friction     float64
}

// SpawnPoint represents a player spawn location.
type SpawnPoint struct {
	X, Y  float64
	Index int
}
