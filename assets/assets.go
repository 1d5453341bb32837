// Package assets embeds the level files shipped with the game. It has no
// graphics dependencies so the dedicated server can use it too.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/automoto/netfps/shared/leveldata"
)

var (
	//go:embed all:levels
	assetFS embed.FS
)

const levelsDir = "levels"

// FS returns the embedded asset tree. Levels live under levels/.
func FS() fs.FS {
	return assetFS
}

type LevelLoader struct {
	fsys fs.FS
}

// NewLevelLoader reads levels from the embedded tree.
func NewLevelLoader() *LevelLoader {
	return &LevelLoader{fsys: assetFS}
}

// NewLevelLoaderFS reads levels from the levels/ directory of fsys, e.g. an
// assets directory on disk.
func NewLevelLoaderFS(fsys fs.FS) *LevelLoader {
	return &LevelLoader{fsys: fsys}
}

// ListLevelNames returns the names of every level, sorted.
func (l *LevelLoader) ListLevelNames() []string {
	_, names, err := leveldata.LoadAllLevels(l.fsys, levelsDir)
	if err != nil {
		return nil
	}
	return names
}

// LoadLevel loads a level by name. Matching ignores case; an empty name
// picks the first level.
func (l *LevelLoader) LoadLevel(name string) (*leveldata.Level, error) {
	levels, names, err := leveldata.LoadAllLevels(l.fsys, levelsDir)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return levels[names[0]], nil
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return levels[n], nil
		}
	}
	return nil, fmt.Errorf("level %q not found (have %v)", name, names)
}

// MustLoadLevel is LoadLevel for levels that ship with the binary.
func (l *LevelLoader) MustLoadLevel(name string) *leveldata.Level {
	lvl, err := l.LoadLevel(name)
	if err != nil {
		panic(err)
	}
	return lvl
}
