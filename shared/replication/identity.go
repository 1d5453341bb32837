package replication

import (
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"
)

// IdentityMap is the server's bijection between world entities and network
// identities. Identities are never reused within a server run.
type IdentityMap struct {
	next     esync.NetworkId
	toNet    map[donburi.Entity]esync.NetworkId
	toEntity map[esync.NetworkId]donburi.Entity
}

func NewIdentityMap() *IdentityMap {
	return &IdentityMap{
		toNet:    make(map[donburi.Entity]esync.NetworkId),
		toEntity: make(map[esync.NetworkId]donburi.Entity),
	}
}

// Assign gives entry a network identity and tags it with
// esync.NetworkIdComponent. Assigning twice returns the existing identity.
func (m *IdentityMap) Assign(entry *donburi.Entry) esync.NetworkId {
	if id, ok := m.toNet[entry.Entity()]; ok {
		return id
	}
	m.next++
	id := m.next
	m.toNet[entry.Entity()] = id
	m.toEntity[id] = entry.Entity()

	if !entry.HasComponent(esync.NetworkIdComponent) {
		entry.AddComponent(esync.NetworkIdComponent)
	}
	esync.NetworkIdComponent.SetValue(entry, id)
	return id
}

// Forget removes an entity from the map.
func (m *IdentityMap) Forget(e donburi.Entity) {
	if id, ok := m.toNet[e]; ok {
		delete(m.toNet, e)
		delete(m.toEntity, id)
	}
}

func (m *IdentityMap) NetworkID(e donburi.Entity) (esync.NetworkId, bool) {
	id, ok := m.toNet[e]
	return id, ok
}

func (m *IdentityMap) Entity(id esync.NetworkId) (donburi.Entity, bool) {
	e, ok := m.toEntity[id]
	return e, ok
}

func (m *IdentityMap) Len() int {
	return len(m.toNet)
}
