// Package arena turns parsed level data into a live collision world. Client
// and server both build their arena through here, so prediction and the
// authoritative simulation see the same ground.
package arena

import (
	"fmt"
	"io/fs"
	"log"

	"github.com/automoto/netfps/shared/collider"
	"github.com/automoto/netfps/shared/gamemath"
	"github.com/automoto/netfps/shared/leveldata"
	"github.com/automoto/netfps/shared/netcomponents"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// margin extends the broadphase past the map edge so bodies that walk off
// the level are still tracked until they respawn.
const margin = 16

// Arena holds the collision space and spawn data for a level.
type Arena struct {
	Name        string
	Space       *collider.Space
	SpawnPoints []mgl64.Vec3
}

// Build creates one entity per level collider in w and materializes them.
// Colliders that fail to build are logged and skipped.
func Build(w donburi.World, lvl *leveldata.Level) *Arena {
	a := &Arena{
		Name:  lvl.Name,
		Space: collider.NewSpace(lvl.MinX-margin, lvl.MinZ-margin, lvl.MaxX+margin, lvl.MaxZ+margin),
	}
	for _, sp := range lvl.SpawnPoints {
		a.SpawnPoints = append(a.SpawnPoints, mgl64.Vec3{sp.X, sp.Y, sp.Z})
	}

	for _, def := range lvl.Colliders {
		spawnCollider(w, def)
	}
	if err := collider.Initialize(w, a.Space); err != nil {
		log.Printf("[arena] %s: some colliders were skipped: %v", lvl.Name, err)
	}

	log.Printf("[arena] loaded %s: %d colliders, %d spawn points",
		lvl.Name, a.Space.Len(), len(a.SpawnPoints))
	return a
}

// Empty returns an arena with no geometry, centred on the origin.
func Empty() *Arena {
	return &Arena{
		Name:  "empty",
		Space: collider.NewSpace(-margin, -margin, margin, margin),
	}
}

// Load reads a TMX level from fsys and builds it into w.
func Load(w donburi.World, fsys fs.FS, path string) (*Arena, error) {
	lvl, err := leveldata.LoadLevel(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("load arena: %w", err)
	}
	return Build(w, lvl), nil
}

// Spawn returns the player spawn point, or the origin when the level has none.
func (a *Arena) Spawn() mgl64.Vec3 {
	if len(a.SpawnPoints) == 0 {
		return mgl64.Vec3{}
	}
	return a.SpawnPoints[0]
}

// World returns the movement world shared by the simulator and prediction.
func (a *Arena) World() gamemath.World {
	return gamemath.NewWorld(a.Space, a.Spawn())
}

func spawnCollider(w donburi.World, def leveldata.ColliderDef) donburi.Entity {
	spec := collider.SpecData{
		Fixed:       def.Fixed,
		Friction:    def.Friction,
		Restitution: def.Restitution,
	}
	if def.HasMass {
		spec.Mass = collider.Mass(def.Mass)
	}

	e := w.Create(netcomponents.Transform, collider.Spec)
	entry := w.Entry(e)
	netcomponents.Transform.SetValue(entry, netcomponents.NewTransform(mgl64.Vec3{def.X, def.Y, def.Z}))

	switch def.Shape {
	case leveldata.ShapeBall:
		spec.Shape = collider.Ball{Radius: def.Radius}
	case leveldata.ShapeCuboid:
		spec.Shape = collider.Cuboid{HX: def.HX, HY: def.HY, HZ: def.HZ}
	default:
		spec.Shape = collider.TriMesh{}
		mesh := collider.MeshData{Indices: def.Indices}
		for _, v := range def.Vertices {
			mesh.Vertices = append(mesh.Vertices, mgl64.Vec3(v))
		}
		entry.AddComponent(collider.Geometry)
		collider.Geometry.SetValue(entry, mesh)
	}
	collider.Spec.SetValue(entry, spec)
	return e
}
