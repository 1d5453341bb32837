package collider

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/automoto/netfps/shared/netcomponents"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
)

var (
	ErrMissingMesh    = errors.New("collider: trimesh has no geometry")
	ErrDegenerateMesh = errors.New("collider: trimesh geometry is degenerate")
	ErrInvalidShape   = errors.New("collider: invalid shape")
)

const (
	// DefaultDensity converts computed volume into mass.
	DefaultDensity = 1.0
	// MinMass is the floor applied when no volume can be derived.
	MinMass = 1e-3
)

// MassSource records where a collider's mass came from.
type MassSource int

const (
	MassExplicit MassSource = iota
	MassComputed
	MassFallback
)

func (m MassSource) String() string {
	switch m {
	case MassExplicit:
		return "explicit"
	case MassComputed:
		return "computed"
	}
	return "fallback"
}

// ColliderData is a materialized collider.
type ColliderData struct {
	Entity      donburi.Entity
	Shape       Shape
	Kind        netconfig.BodyKind
	Mass        float64
	MassSource  MassSource
	Friction    float64
	Restitution float64
	Bounds      AABB
	// Triangles holds world-space faces for trimesh and cuboid shapes.
	Triangles []Triangle

	center mgl64.Vec3
	object *resolv.Object
}

// Collider points at the materialized collider of an entity. The pointer is
// shared with the broadphase so it stays stable across archetype moves.
var Collider = donburi.NewComponentType[*ColliderData]()

// Of returns the collider of entry, if it has one.
func Of(entry *donburi.Entry) (*ColliderData, bool) {
	if !entry.HasComponent(Collider) {
		return nil, false
	}
	c := *Collider.Get(entry)
	return c, c != nil
}

// Center is the reference point the collider was built around.
func (c *ColliderData) Center() mgl64.Vec3 {
	return c.center
}

func (c *ColliderData) translate(d mgl64.Vec3) {
	c.center = c.center.Add(d)
	c.Bounds.Min = c.Bounds.Min.Add(d)
	c.Bounds.Max = c.Bounds.Max.Add(d)
	for i := range c.Triangles {
		for k := range c.Triangles[i] {
			c.Triangles[i][k] = c.Triangles[i][k].Add(d)
		}
	}
}

// HeightAt returns the highest point of the collider's surface above (x, z)
// that is not above y.
func (c *ColliderData) HeightAt(x, y, z float64) (float64, bool) {
	if b, ok := c.Shape.(Ball); ok {
		dx, dz := x-c.center.X(), z-c.center.Z()
		d2 := dx*dx + dz*dz
		if d2 > b.Radius*b.Radius {
			return 0, false
		}
		top := c.center.Y() + math.Sqrt(b.Radius*b.Radius-d2)
		return top, top <= y
	}
	best, found := math.Inf(-1), false
	for _, t := range c.Triangles {
		if h, ok := t.heightAt(x, z); ok && h <= y && h > best {
			best, found = h, true
		}
	}
	return best, found
}

// Initialize materializes every entity that carries a Spec. The Spec is
// removed whether or not materialization succeeds, so running Initialize
// again is a no-op. Failures are logged per entity and joined into the
// returned error; they never stop other entities from being processed.
func Initialize(w donburi.World, space *Space) error {
	var pending []donburi.Entity
	Spec.Each(w, func(entry *donburi.Entry) {
		pending = append(pending, entry.Entity())
	})

	var errs []error
	for _, e := range pending {
		entry := w.Entry(e)
		spec := *Spec.Get(entry)
		entry.RemoveComponent(Spec)

		c, err := build(entry, spec)
		if err != nil {
			log.Printf("[collider] entity %v: %v", entry.Entity(), err)
			errs = append(errs, fmt.Errorf("entity %v: %w", entry.Entity(), err))
			continue
		}

		if old, ok := Of(entry); ok {
			space.Remove(old)
		} else {
			entry.AddComponent(Collider)
		}
		space.add(c)
		Collider.SetValue(entry, c)

		if !entry.HasComponent(netcomponents.Body) {
			entry.AddComponent(netcomponents.Body)
		}
		netcomponents.Body.SetValue(entry, netcomponents.BodyData{Kind: c.Kind})
	}
	return errors.Join(errs...)
}

func build(entry *donburi.Entry, spec SpecData) (*ColliderData, error) {
	at, rot := mgl64.Vec3{}, mgl64.QuatIdent()
	if entry.HasComponent(netcomponents.Transform) {
		tr := netcomponents.Transform.Get(entry)
		at = tr.Translation
		if tr.Rotation.Len() > 0 {
			rot = tr.Rotation.Normalize()
		}
	}

	c := &ColliderData{
		Entity:      entry.Entity(),
		Shape:       spec.Shape,
		Kind:        netconfig.BodyDynamic,
		Friction:    spec.Friction,
		Restitution: spec.Restitution,
		center:      at,
	}
	if spec.Fixed {
		c.Kind = netconfig.BodyStatic
	}

	var volume float64
	switch s := spec.Shape.(type) {
	case Ball:
		if !(s.Radius > 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidShape, s)
		}
		r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
		c.Bounds = AABB{Min: at.Sub(r), Max: at.Add(r)}
		volume = 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius
	case Cuboid:
		if !(s.HX > 0 && s.HY > 0 && s.HZ > 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidShape, s)
		}
		c.Triangles = cuboidTriangles(s, at, rot)
		c.Bounds = trianglesBounds(c.Triangles)
		volume = 8 * s.HX * s.HY * s.HZ
	case TriMesh:
		if !entry.HasComponent(Geometry) {
			return nil, ErrMissingMesh
		}
		tris, err := triangles(*Geometry.Get(entry), at, rot)
		if err != nil {
			return nil, err
		}
		c.Triangles = tris
		c.Bounds = trianglesBounds(tris)
		volume = meshVolume(tris)
		if volume <= 0 {
			volume = c.Bounds.Volume()
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidShape, spec.Shape)
	}

	c.Mass, c.MassSource = resolveMass(spec.Mass, volume)
	return c, nil
}

func resolveMass(explicit *float64, volume float64) (float64, MassSource) {
	if explicit != nil && *explicit > 0 {
		return *explicit, MassExplicit
	}
	if m := volume * DefaultDensity; m > 0 && !math.IsInf(m, 0) {
		return math.Max(m, MinMass), MassComputed
	}
	return MinMass, MassFallback
}
