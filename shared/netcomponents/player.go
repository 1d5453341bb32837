package netcomponents

import (
	"github.com/yohamta/donburi"
)

// PlayerIDData ties a replicated entity to the client that controls it.
type PlayerIDData struct {
	ClientID uint64
}

var PlayerID = donburi.NewComponentType[PlayerIDData]()

// PlayerNameData is the display name of a player.
type PlayerNameData struct {
	Name string
}

var PlayerName = donburi.NewComponentType[PlayerNameData]()

// PlayerParentData points from a child entity to the player that owns it.
// Parent is a world-local entity: on the wire it travels as the parent's
// NetworkId and is resolved through the identity map on each side.
type PlayerParentData struct {
	Parent donburi.Entity
}

var PlayerParent = donburi.NewComponentType[PlayerParentData]()
