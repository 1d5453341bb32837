package netcomponents

import (
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/yohamta/donburi"
)

// BodyData tags an entity with its physics body type.
type BodyData struct {
	Kind netconfig.BodyKind
}

var Body = donburi.NewComponentType[BodyData]()
