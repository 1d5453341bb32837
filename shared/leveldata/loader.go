package leveldata

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lafriks/go-tiled"
)

// Object group names.
const (
	groupSpawn     = "Spawnpoint"
	groupColliders = "Colliders"
)

// Defaults for collider properties that are absent from the map.
const (
	defaultFriction    = 0.7
	defaultRestitution = 0.3
	defaultHeight      = 1.0
)

// LoadLevel parses a TMX file. It takes an fs.FS so callers can pass embed.FS
// (client) or os.DirFS (server).
func LoadLevel(fsys fs.FS, tmxPath string) (*Level, error) {
	levelMap, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}

	halfW := float64(levelMap.Width*levelMap.TileWidth) / PixelsPerUnit / 2
	halfD := float64(levelMap.Height*levelMap.TileHeight) / PixelsPerUnit / 2
	lvl := &Level{
		Name: strings.TrimSuffix(filepath.Base(tmxPath), ".tmx"),
		MinX: -halfW, MaxX: halfW,
		MinZ: -halfD, MaxZ: halfD,
	}
	toWorld := func(px, py float64) (float64, float64) {
		return px/PixelsPerUnit - halfW, py/PixelsPerUnit - halfD
	}

	for _, og := range levelMap.ObjectGroups {
		switch og.Name {
		case groupSpawn:
			for _, o := range og.Objects {
				x, z := toWorld(o.X+o.Width/2, o.Y+o.Height/2)
				y, err := floatProp(o.Properties, "elevation", 0)
				if err != nil {
					return nil, fmt.Errorf("%s: spawn %d: %w", tmxPath, o.ID, err)
				}
				lvl.SpawnPoints = append(lvl.SpawnPoints, SpawnPoint{
					X: x, Y: y, Z: z,
					Index: o.Properties.GetInt("spawnIndex"),
				})
			}
		case groupColliders:
			for _, o := range og.Objects {
				def, err := parseCollider(o, toWorld)
				if err != nil {
					return nil, fmt.Errorf("%s: collider %d: %w", tmxPath, o.ID, err)
				}
				lvl.Colliders = append(lvl.Colliders, def)
			}
		}
	}

	// Stable order for consistent assignment
	sort.SliceStable(lvl.SpawnPoints, func(i, j int) bool {
		return lvl.SpawnPoints[i].Index < lvl.SpawnPoints[j].Index
	})

	return lvl, nil
}

func parseCollider(o *tiled.Object, toWorld func(px, py float64) (float64, float64)) (ColliderDef, error) {
	def := ColliderDef{
		Name:  o.Name,
		Shape: o.Properties.GetString("shape"),
		Fixed: true,
	}
	if def.Shape == "" {
		def.Shape = ShapeTriMesh
	}
	def.X, def.Z = toWorld(o.X+o.Width/2, o.Y+o.Height/2)
	hx := o.Width / PixelsPerUnit / 2
	hz := o.Height / PixelsPerUnit / 2

	props := o.Properties
	var err error
	read := func(name string, def float64) float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = floatProp(props, name, def)
		return v
	}

	elevation := read("elevation", 0)
	height := read("height", defaultHeight)
	def.Friction = read("friction", defaultFriction)
	def.Restitution = read("restitution", defaultRestitution)
	if s := props.GetString("mass"); s != "" {
		def.Mass = read("mass", 0)
		def.HasMass = true
	}
	if s := props.GetString("fixed"); s != "" {
		def.Fixed, err = strconv.ParseBool(s)
	}

	switch def.Shape {
	case ShapeCuboid:
		def.HX, def.HY, def.HZ = hx, height/2, hz
		def.Y = elevation - height/2
	case ShapeBall:
		def.Radius = read("radius", hx)
		def.Y = elevation - def.Radius
	case ShapeTriMesh:
		// A sloped quad rising from elevation at the west edge to
		// elevation_end at the east edge.
		end := read("elevation_end", elevation)
		def.Y = (elevation + end) / 2
		lo, hi := elevation-def.Y, end-def.Y
		def.Vertices = [][3]float64{{-hx, lo, -hz}, {hx, hi, -hz}, {hx, hi, hz}, {-hx, lo, hz}}
		def.Indices = []uint32{0, 2, 1, 0, 3, 2}
	default:
		return def, fmt.Errorf("unknown shape %q", def.Shape)
	}
	return def, err
}

func floatProp(props tiled.Properties, name string, def float64) (float64, error) {
	s := props.GetString(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("property %s: %w", name, err)
	}
	return v, nil
}

// LoadAllLevels discovers all .tmx files in levelsDir within fsys, loads each
// and returns a map keyed by stem name plus a sorted list of names.
func LoadAllLevels(fsys fs.FS, levelsDir string) (map[string]*Level, []string, error) {
	pattern := levelsDir + "/*.tmx"
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no .tmx files found in %s", levelsDir)
	}

	levels := make(map[string]*Level, len(matches))
	names := make([]string, 0, len(matches))

	for _, path := range matches {
		lvl, err := LoadLevel(fsys, path)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", path, err)
		}
		levels[lvl.Name] = lvl
		names = append(names, lvl.Name)
	}

	sort.Strings(names)
	return levels, names, nil
}
