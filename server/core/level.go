package core

import (
	"fmt"
	"log"
	"os"

	"github.com/automoto/netfps/assets"
	"github.com/automoto/netfps/shared/arena"
	"github.com/yohamta/donburi"
)

// LoadArena loads the named level and builds it into world. Levels come from
// assetsDir/levels, or from the embedded assets when assetsDir is empty. An
// empty name picks the first level alphabetically; if there are no levels at
// all the server runs an empty arena with the spawn at the origin.
func LoadArena(world donburi.World, assetsDir, name string) (*arena.Arena, error) {
	loader, source := assets.NewLevelLoader(), "embedded assets"
	if assetsDir != "" {
		loader, source = assets.NewLevelLoaderFS(os.DirFS(assetsDir)), assetsDir
	}

	lvl, err := loader.LoadLevel(name)
	if err != nil {
		if name != "" {
			return nil, fmt.Errorf("load level %q from %s: %w", name, source, err)
		}
		log.Printf("[server] no levels in %s (%v), using an empty arena", source, err)
		return arena.Empty(), nil
	}
	return arena.Build(world, lvl), nil
}
