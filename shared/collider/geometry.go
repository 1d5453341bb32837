package collider

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// MeshData is raw triangle geometry in entity-local space. Indices are
// consumed three at a time.
type MeshData struct {
	Vertices []mgl64.Vec3
	Indices  []uint32
}

// Geometry holds the mesh a TriMesh spec is built from.
var Geometry = donburi.NewComponentType[MeshData]()

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min, Max mgl64.Vec3
}

func (b AABB) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b AABB) Volume() float64 {
	s := b.Size()
	return s.X() * s.Y() * s.Z()
}

// ContainsXZ reports whether (x, z) lies inside the box's horizontal footprint.
func (b AABB) ContainsXZ(x, z float64) bool {
	return x >= b.Min.X() && x <= b.Max.X() && z >= b.Min.Z() && z <= b.Max.Z()
}

func (b AABB) extend(p mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// Overlaps reports whether the two boxes intersect, touching included.
func (b AABB) Overlaps(o AABB) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// Triangle is one world-space face of a mesh collider.
type Triangle [3]mgl64.Vec3

// heightAt returns the height of the triangle's plane above (x, z) when the
// point falls inside the triangle's horizontal projection.
func (t Triangle) heightAt(x, z float64) (float64, bool) {
	a, b, c := t[0], t[1], t[2]
	det := (b.Z()-c.Z())*(a.X()-c.X()) + (c.X()-b.X())*(a.Z()-c.Z())
	if math.Abs(det) < 1e-12 {
		return 0, false
	}
	l1 := ((b.Z()-c.Z())*(x-c.X()) + (c.X()-b.X())*(z-c.Z())) / det
	l2 := ((c.Z()-a.Z())*(x-c.X()) + (a.X()-c.X())*(z-c.Z())) / det
	l3 := 1 - l1 - l2
	const eps = -1e-9
	if l1 < eps || l2 < eps || l3 < eps {
		return 0, false
	}
	return l1*a.Y() + l2*b.Y() + l3*c.Y(), true
}

func (t Triangle) area() float64 {
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Len() / 2
}

// triangles expands indexed geometry into world-space faces. It returns
// ErrMissingMesh for empty geometry and ErrDegenerateMesh for out-of-range
// indices or meshes with no area.
func triangles(m MeshData, at mgl64.Vec3, rot mgl64.Quat) ([]Triangle, error) {
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return nil, ErrMissingMesh
	}
	if len(m.Indices)%3 != 0 {
		return nil, ErrDegenerateMesh
	}
	tris := make([]Triangle, 0, len(m.Indices)/3)
	var area float64
	for i := 0; i < len(m.Indices); i += 3 {
		var t Triangle
		for k := 0; k < 3; k++ {
			idx := int(m.Indices[i+k])
			if idx >= len(m.Vertices) {
				return nil, ErrDegenerateMesh
			}
			t[k] = rot.Rotate(m.Vertices[idx]).Add(at)
		}
		area += t.area()
		tris = append(tris, t)
	}
	if area < 1e-12 {
		return nil, ErrDegenerateMesh
	}
	return tris, nil
}

// meshVolume is the absolute signed volume enclosed by the faces. Open or
// flat meshes yield zero.
func meshVolume(tris []Triangle) float64 {
	var v float64
	for _, t := range tris {
		v += t[0].Dot(t[1].Cross(t[2])) / 6
	}
	return math.Abs(v)
}

// cuboidTriangles returns the twelve faces of a rotated box.
func cuboidTriangles(c Cuboid, at mgl64.Vec3, rot mgl64.Quat) []Triangle {
	var corners [8]mgl64.Vec3
	for i := range corners {
		local := mgl64.Vec3{c.HX, c.HY, c.HZ}
		if i&1 == 0 {
			local[0] = -local[0]
		}
		if i&2 == 0 {
			local[1] = -local[1]
		}
		if i&4 == 0 {
			local[2] = -local[2]
		}
		corners[i] = rot.Rotate(local).Add(at)
	}
	faces := [6][4]int{
		{0, 2, 6, 4}, {1, 5, 7, 3}, // -x, +x
		{0, 4, 5, 1}, {2, 3, 7, 6}, // -y, +y
		{0, 1, 3, 2}, {4, 6, 7, 5}, // -z, +z
	}
	tris := make([]Triangle, 0, 12)
	for _, f := range faces {
		tris = append(tris,
			Triangle{corners[f[0]], corners[f[1]], corners[f[2]]},
			Triangle{corners[f[0]], corners[f[2]], corners[f[3]]},
		)
	}
	return tris
}

func trianglesBounds(tris []Triangle) AABB {
	b := AABB{Min: tris[0][0], Max: tris[0][0]}
	for _, t := range tris {
		for _, p := range t {
			b = b.extend(p)
		}
	}
	return b
}
