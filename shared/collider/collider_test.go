package collider

import (
	"errors"
	"math"
	"testing"

	"github.com/automoto/netfps/shared/netcomponents"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

func newTestSpace() *Space {
	return NewSpace(-20, -20, 20, 20)
}

func spawn(w donburi.World, at mgl64.Vec3, spec SpecData) *donburi.Entry {
	e := w.Create(Spec, netcomponents.Transform)
	entry := w.Entry(e)
	Spec.SetValue(entry, spec)
	netcomponents.Transform.SetValue(entry, netcomponents.NewTransform(at))
	return entry
}

// quad is a flat 2x2 square at height 0 centred on the origin.
func quad() MeshData {
	return MeshData{
		Vertices: []mgl64.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestBallWithoutMassGetsComputedDynamicBody(t *testing.T) {
	w := donburi.NewWorld()
	space := newTestSpace()
	entry := spawn(w, mgl64.Vec3{0, 12, 0}, SpecData{
		Shape:       Ball{Radius: 0.5},
		Fixed:       false,
		Friction:    0,
		Restitution: 0,
	})

	if err := Initialize(w, space); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	c, ok := Of(entry)
	if !ok {
		t.Fatal("expected a collider")
	}
	if _, ok := c.Shape.(Ball); !ok {
		t.Fatalf("shape = %v, want ball", c.Shape)
	}
	if c.Kind != netconfig.BodyDynamic {
		t.Errorf("kind = %v, want dynamic", c.Kind)
	}
	want := 4.0 / 3.0 * math.Pi * 0.125
	if c.Mass <= 0 || math.Abs(c.Mass-want) > 1e-12 {
		t.Errorf("mass = %v, want %v", c.Mass, want)
	}
	if c.MassSource != MassComputed {
		t.Errorf("mass source = %v, want computed", c.MassSource)
	}
	if netcomponents.Body.Get(entry).Kind != netconfig.BodyDynamic {
		t.Error("Body component not written")
	}
	if entry.HasComponent(Spec) {
		t.Error("spec should be removed after materialization")
	}
}

func TestExplicitMassWins(t *testing.T) {
	w := donburi.NewWorld()
	entry := spawn(w, mgl64.Vec3{}, SpecData{Shape: Ball{Radius: 0.5}, Mass: Mass(1)})

	if err := Initialize(w, newTestSpace()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	c, _ := Of(entry)
	if c.Mass != 1 || c.MassSource != MassExplicit {
		t.Fatalf("mass = %v (%v), want 1 (explicit)", c.Mass, c.MassSource)
	}
}

func TestMassIsNeverZero(t *testing.T) {
	tests := []struct {
		name   string
		mass   *float64
		volume float64
		source MassSource
	}{
		{"explicit", Mass(2), 0, MassExplicit},
		{"zero explicit falls back to volume", Mass(0), 3, MassComputed},
		{"computed", nil, 3, MassComputed},
		{"flat geometry", nil, 0, MassFallback},
		{"nan volume", nil, math.NaN(), MassFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, src := resolveMass(tt.mass, tt.volume)
			if !(m > 0) {
				t.Fatalf("mass = %v", m)
			}
			if src != tt.source {
				t.Fatalf("source = %v, want %v", src, tt.source)
			}
		})
	}
}

func TestTriMeshFailureLeavesEntityWithoutCollider(t *testing.T) {
	w := donburi.NewWorld()
	space := newTestSpace()

	missing := spawn(w, mgl64.Vec3{}, DefaultSpec())

	degenerate := spawn(w, mgl64.Vec3{}, DefaultSpec())
	degenerate.AddComponent(Geometry)
	Geometry.SetValue(degenerate, MeshData{
		Vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		Indices:  []uint32{0, 1, 2},
	})

	good := spawn(w, mgl64.Vec3{5, 0, 5}, DefaultSpec())
	good.AddComponent(Geometry)
	Geometry.SetValue(good, quad())

	err := Initialize(w, space)
	if !errors.Is(err, ErrMissingMesh) || !errors.Is(err, ErrDegenerateMesh) {
		t.Fatalf("err = %v, want both mesh errors", err)
	}

	for _, e := range []*donburi.Entry{missing, degenerate} {
		if _, ok := Of(e); ok {
			t.Errorf("entity %v should have no collider", e.Entity())
		}
		if e.HasComponent(Spec) {
			t.Errorf("entity %v still has its spec", e.Entity())
		}
	}
	c, ok := Of(good)
	if !ok {
		t.Fatal("valid trimesh was not materialized")
	}
	if c.Kind != netconfig.BodyStatic || c.Friction != 0.7 || c.Restitution != 0.3 {
		t.Errorf("unexpected material: %+v", c)
	}
	if c.Mass <= 0 {
		t.Errorf("mass = %v", c.Mass)
	}
	if space.Len() != 1 {
		t.Errorf("space holds %d colliders, want 1", space.Len())
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	w := donburi.NewWorld()
	space := newTestSpace()
	entry := spawn(w, mgl64.Vec3{}, SpecData{Shape: DefaultCuboid, Fixed: true})

	if err := Initialize(w, space); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	first, _ := Of(entry)
	if err := Initialize(w, space); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	second, _ := Of(entry)

	if first != second {
		t.Fatal("second run replaced the collider")
	}
	if space.Len() != 1 {
		t.Fatalf("space holds %d colliders, want 1", space.Len())
	}
}

func TestInvalidShapes(t *testing.T) {
	for _, shape := range []Shape{Ball{}, Cuboid{HX: 1, HY: 0, HZ: 1}, nil} {
		w := donburi.NewWorld()
		spawn(w, mgl64.Vec3{}, SpecData{Shape: shape})
		if err := Initialize(w, newTestSpace()); !errors.Is(err, ErrInvalidShape) {
			t.Errorf("shape %v: err = %v, want ErrInvalidShape", shape, err)
		}
	}
}

func TestSurfaceBelow(t *testing.T) {
	w := donburi.NewWorld()
	space := newTestSpace()

	floor := spawn(w, mgl64.Vec3{0, -1, 0}, SpecData{Shape: Cuboid{HX: 10, HY: 1, HZ: 10}, Fixed: true})
	_ = floor
	platform := spawn(w, mgl64.Vec3{3, 2, 3}, DefaultSpec())
	platform.AddComponent(Geometry)
	Geometry.SetValue(platform, quad())
	spawn(w, mgl64.Vec3{-5, 0, -5}, SpecData{Shape: Ball{Radius: 1}})

	if err := Initialize(w, space); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	tests := []struct {
		name    string
		x, y, z float64
		want    float64
		ok      bool
	}{
		{"floor", 0, 5, 0, 0, true},
		{"platform from above", 3, 5, 3, 2, true},
		{"under platform", 3, 1, 3, 0, true},
		{"dynamic ball ignored", -5, 5, -5, 0, true},
		{"off the floor", 15, 5, 15, 0, false},
		{"below everything", 0, -5, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := space.SurfaceBelow(tt.x, tt.y, tt.z)
			if ok != tt.ok || (ok && math.Abs(got-tt.want) > 1e-9) {
				t.Fatalf("SurfaceBelow = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPlaceMovesDynamicBody(t *testing.T) {
	w := donburi.NewWorld()
	space := newTestSpace()
	entry := spawn(w, mgl64.Vec3{}, SpecData{Shape: Ball{Radius: 0.5}})
	if err := Initialize(w, space); err != nil {
		t.Fatal(err)
	}
	c, _ := Of(entry)

	space.Place(c, mgl64.Vec3{4, 1, 4})

	if c.Center() != (mgl64.Vec3{4, 1, 4}) {
		t.Fatalf("center = %v", c.Center())
	}
	hits := space.Overlapping(AABB{Min: mgl64.Vec3{3.9, 0.9, 3.9}, Max: mgl64.Vec3{4.1, 1.1, 4.1}})
	if len(hits) != 1 || hits[0] != c {
		t.Fatalf("Overlapping = %v, want the moved ball", hits)
	}
	if hits := space.Overlapping(AABB{Max: mgl64.Vec3{0.1, 0.1, 0.1}}); len(hits) != 0 {
		t.Fatalf("ball still found at its old position: %v", hits)
	}
}
