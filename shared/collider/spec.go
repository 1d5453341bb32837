// Package collider turns declarative collider descriptors into concrete
// collision bodies. The same pipeline runs on the client and on the server so
// both build identical static geometry from the same level.
package collider

import (
	"fmt"

	"github.com/yohamta/donburi"
)

// Shape is the collider shape variant. The set is closed: TriMesh, Cuboid and
// Ball are the only implementations.
type Shape interface {
	shape()
	String() string
}

// TriMesh builds a triangle-mesh collider from the entity's Geometry.
type TriMesh struct{}

// Cuboid is a box given by its half-extents.
type Cuboid struct {
	HX, HY, HZ float64
}

// Ball is a sphere of the given radius.
type Ball struct {
	Radius float64
}

func (TriMesh) shape() {}
func (Cuboid) shape()  {}
func (Ball) shape()    {}

func (TriMesh) String() string  { return "trimesh" }
func (c Cuboid) String() string { return fmt.Sprintf("cuboid(%g,%g,%g)", c.HX, c.HY, c.HZ) }
func (b Ball) String() string   { return fmt.Sprintf("ball(%g)", b.Radius) }

// DefaultCuboid is the cuboid used when a level names the shape without sizes.
var DefaultCuboid = Cuboid{HX: 1, HY: 1, HZ: 1}

// SpecData describes the collider to materialize for an entity. It is
// consumed exactly once: Initialize removes it after processing.
type SpecData struct {
	Shape Shape
	// Mass overrides the computed mass when set.
	Mass        *float64
	Fixed       bool
	Friction    float64
	Restitution float64
}

// Spec is the one-shot trigger component.
var Spec = donburi.NewComponentType[SpecData]()

// DefaultSpec returns a fixed trimesh with the default material.
func DefaultSpec() SpecData {
	return SpecData{
		Shape:       TriMesh{},
		Fixed:       true,
		Friction:    0.7,
		Restitution: 0.3,
	}
}

// Mass returns a pointer to m, for filling SpecData.Mass.
func Mass(m float64) *float64 {
	return &m
}
