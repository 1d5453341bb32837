package collider

import (
	"math"

	"github.com/automoto/netfps/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
)

const (
	tagFixed   = "fixed"
	tagDynamic = "dynamic"
	tagQuery   = "query"

	// pixelsPerUnit converts world units into the integer resolution of the
	// broadphase grid.
	pixelsPerUnit = 16
	cellSize      = 64
)

// Space is the horizontal broadphase for all colliders of one world. World X
// maps to the grid's X axis and world Z to its Y axis; heights are resolved
// exactly against the collider geometry after the grid narrows the search.
type Space struct {
	grid    *resolv.Space
	originX float64
	originZ float64
	query   *resolv.Object
	count   int
}

// NewSpace covers the horizontal rectangle [minX,maxX] x [minZ,maxZ].
// Colliders outside it are kept but never returned by queries.
func NewSpace(minX, minZ, maxX, maxZ float64) *Space {
	w := int(math.Ceil((maxX-minX)*pixelsPerUnit)) + cellSize
	d := int(math.Ceil((maxZ-minZ)*pixelsPerUnit)) + cellSize
	s := &Space{
		grid:    resolv.NewSpace(w, d, cellSize, cellSize),
		originX: minX,
		originZ: minZ,
	}
	s.query = resolv.NewObject(0, 0, 1, 1, tagQuery)
	s.grid.Add(s.query)
	return s
}

func (s *Space) toGrid(x, z float64) (float64, float64) {
	return (x - s.originX) * pixelsPerUnit, (z - s.originZ) * pixelsPerUnit
}

func (s *Space) objectFor(b AABB, fixed bool) *resolv.Object {
	gx, gz := s.toGrid(b.Min.X(), b.Min.Z())
	size := b.Size()
	w := math.Max(size.X()*pixelsPerUnit, 1)
	h := math.Max(size.Z()*pixelsPerUnit, 1)
	tag := tagDynamic
	if fixed {
		tag = tagFixed
	}
	obj := resolv.NewObject(gx, gz, w, h, tag)
	obj.SetShape(resolv.NewRectangle(0, 0, w, h))
	return obj
}

// add registers a materialized collider with the grid.
func (s *Space) add(c *ColliderData) {
	c.object = s.objectFor(c.Bounds, c.Kind == netconfig.BodyStatic)
	c.object.Data = c
	s.grid.Add(c.object)
	s.count++
}

// Remove unregisters a collider. Removing an unregistered collider is a no-op.
func (s *Space) Remove(c *ColliderData) {
	if c == nil || c.object == nil {
		return
	}
	s.grid.Remove(c.object)
	c.object = nil
	s.count--
}

// Place moves a collider so its bounds are centred on center. Dynamic bodies
// are re-placed every tick after the simulation step.
func (s *Space) Place(c *ColliderData, center mgl64.Vec3) {
	offset := center.Sub(c.Center())
	c.translate(offset)
	if c.object == nil {
		return
	}
	c.object.X, c.object.Y = s.toGrid(c.Bounds.Min.X(), c.Bounds.Min.Z())
	c.object.Update()
}

// candidates returns the colliders with the given tag whose grid cells touch
// the footprint [x-r, x+r] x [z-r, z+r].
func (s *Space) candidates(x, z, r float64, tag string) []*ColliderData {
	gx, gz := s.toGrid(x-r, z-r)
	side := math.Max(2*r*pixelsPerUnit, 1)
	s.query.X, s.query.Y = gx, gz
	s.query.W, s.query.H = side, side
	s.query.Update()

	check := s.query.Check(0, 0, tag)
	if check == nil {
		return nil
	}
	objs := check.ObjectsByTags(tag)
	out := make([]*ColliderData, 0, len(objs))
	for _, o := range objs {
		if c, ok := o.Data.(*ColliderData); ok {
			out = append(out, c)
		}
	}
	return out
}

// SurfaceBelow returns the highest fixed surface at (x, z) that is not above
// y. It satisfies gamemath.Ground.
func (s *Space) SurfaceBelow(x, y, z float64) (float64, bool) {
	best, found := math.Inf(-1), false
	for _, c := range s.candidates(x, z, 0, tagFixed) {
		if !c.Bounds.ContainsXZ(x, z) || c.Bounds.Min.Y() > y {
			continue
		}
		h, ok := c.HeightAt(x, y, z)
		if ok && h <= y && h > best {
			best, found = h, true
		}
	}
	return best, found
}

// Overlapping returns the colliders whose bounds intersect b, excluding the
// query object.
func (s *Space) Overlapping(b AABB) []*ColliderData {
	size := b.Size()
	center := b.Min.Add(size.Mul(0.5))
	r := math.Max(size.X(), size.Z()) / 2
	var out []*ColliderData
	for _, tag := range []string{tagFixed, tagDynamic} {
		for _, c := range s.candidates(center.X(), center.Z(), r, tag) {
			if c.Bounds.Overlaps(b) {
				out = append(out, c)
			}
		}
	}
	return out
}

// Len returns the number of registered colliders.
func (s *Space) Len() int {
	return s.count
}
