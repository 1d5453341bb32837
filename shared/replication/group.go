package replication

import (
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/yohamta/donburi"
)

// Group is the replication unit of one player: its root entity and its
// children. Every entity of a group is updated in the same message, so a
// client never sees a group half-updated.
type Group struct {
	ID netconfig.ClientID
	// Owner is the prediction target; every other client interpolates.
	Owner    netconfig.ClientID
	entities []donburi.Entity
}

// Entities returns the group's entities, root first.
func (g *Group) Entities() []donburi.Entity {
	return g.entities
}

func (g *Group) add(e donburi.Entity) {
	for _, have := range g.entities {
		if have == e {
			return
		}
	}
	g.entities = append(g.entities, e)
}

// Predicted reports whether client predicts this group.
func (g *Group) Predicted(client netconfig.ClientID) bool {
	return client == g.Owner
}
