// Package leveldata provides TMX level parsing shared between client and server.
// It has no dependencies on ebitengine, donburi, or resolv; pure data only.
//
// Levels are drawn top-down in Tiled. The map's x axis is world X, its y axis
// is world Z, and the map centre is the world origin. Heights come from
// object properties.
package leveldata

// PixelsPerUnit is the number of map pixels per world unit.
const PixelsPerUnit = 16.0

// Level holds everything the simulation needs from a TMX level file.
type Level struct {
	Name string
	// MinX, MinZ, MaxX, MaxZ bound the map in world units.
	MinX, MinZ, MaxX, MaxZ float64
	SpawnPoints            []SpawnPoint
	Colliders              []ColliderDef
}

// SpawnPoint represents a player spawn location.
type SpawnPoint struct {
	X, Y, Z float64
	Index   int
}

// Shape names accepted in the "shape" property of a collider object.
const (
	ShapeTriMesh = "trimesh"
	ShapeCuboid  = "cuboid"
	ShapeBall    = "ball"
)

// ColliderDef is one collider object. Center is the centre of the shape in
// world space; for trimesh ramps Vertices and Indices are relative to it.
type ColliderDef struct {
	Name    string
	Shape   string
	X, Y, Z float64

	HX, HY, HZ float64
	Radius     float64

	// Mass is only meaningful when HasMass is set.
	Mass        float64
	HasMass     bool
	Fixed       bool
	Friction    float64
	Restitution float64

	Vertices [][3]float64
	Indices  []uint32
}
