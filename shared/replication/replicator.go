package replication

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/tick"
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"
)

var (
	ErrGroupExists   = errors.New("replication: group already exists")
	ErrUnknownGroup  = errors.New("replication: unknown group")
	ErrUnknownClient = errors.New("replication: unknown client")
)

// Outgoing is everything one client must be sent after a tick.
type Outgoing struct {
	Client netconfig.ClientID
	// Reliable holds SpawnMessage and DespawnMessage values in send order.
	Reliable []any
	// Updates holds one message per group; only the newest per group matters.
	Updates []messages.UpdateMessage
}

// Empty reports whether there is nothing to send.
func (o Outgoing) Empty() bool {
	return len(o.Reliable) == 0 && len(o.Updates) == 0
}

type peerState struct {
	id      netconfig.ClientID
	seq     uint32
	input   messages.InputStatus
	spawned map[donburi.Entity]bool
	pending []any
}

func (p *peerState) nextSeq() uint32 {
	p.seq++
	return p.seq
}

// Replicator owns the server-side replication state. It is not safe for
// concurrent use; the game loop is its only caller.
type Replicator struct {
	world    donburi.World
	registry *Registry
	ids      *IdentityMap

	groups map[netconfig.ClientID]*Group
	peers  map[netconfig.ClientID]*peerState
}

func NewReplicator(world donburi.World, registry *Registry) *Replicator {
	return &Replicator{
		world:    world,
		registry: registry,
		ids:      NewIdentityMap(),
		groups:   make(map[netconfig.ClientID]*Group),
		peers:    make(map[netconfig.ClientID]*peerState),
	}
}

// Identities exposes the server identity map.
func (r *Replicator) Identities() *IdentityMap {
	return r.ids
}

// AddClient starts replicating to client. Existing groups are spawned on the
// next Collect.
func (r *Replicator) AddClient(client netconfig.ClientID) {
	if _, ok := r.peers[client]; ok {
		return
	}
	r.peers[client] = &peerState{id: client, spawned: make(map[donburi.Entity]bool)}
}

// RemoveClient stops replicating to client and forgets what it has seen.
func (r *Replicator) RemoveClient(client netconfig.ClientID) {
	delete(r.peers, client)
}

// SetInputStatus records how client's input is arriving. It is echoed in
// the client's own group updates.
func (r *Replicator) SetInputStatus(client netconfig.ClientID, st messages.InputStatus) {
	if p, ok := r.peers[client]; ok {
		p.input = st
	}
}

// CreateGroup creates the group owned by owner.
func (r *Replicator) CreateGroup(owner netconfig.ClientID) (*Group, error) {
	if _, ok := r.groups[owner]; ok {
		return nil, fmt.Errorf("%w: %d", ErrGroupExists, owner)
	}
	g := &Group{ID: owner, Owner: owner}
	r.groups[owner] = g
	return g, nil
}

// Group returns the group with the given id.
func (r *Replicator) Group(id netconfig.ClientID) (*Group, bool) {
	g, ok := r.groups[id]
	return g, ok
}

// AddEntity puts entry in a group and gives it a network identity.
func (r *Replicator) AddEntity(group netconfig.ClientID, entry *donburi.Entry) (esync.NetworkId, error) {
	g, ok := r.groups[group]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownGroup, group)
	}
	id := r.ids.Assign(entry)
	g.add(entry.Entity())
	return id, nil
}

// RemoveGroup deletes a group, forgets its identities and queues a despawn
// for every client that had been sent any of its entities. It returns the
// group's entities so the caller can remove them from the world.
func (r *Replicator) RemoveGroup(id netconfig.ClientID, t tick.Tick) ([]donburi.Entity, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGroup, id)
	}
	delete(r.groups, id)

	netIDs := make([]esync.NetworkId, 0, len(g.entities))
	for _, e := range g.entities {
		if nid, ok := r.ids.NetworkID(e); ok {
			netIDs = append(netIDs, nid)
		}
	}

	for _, p := range r.peers {
		var seen bool
		for _, e := range g.entities {
			if p.spawned[e] {
				seen = true
				delete(p.spawned, e)
			}
		}
		if !seen {
			continue
		}
		p.pending = append(p.pending, messages.DespawnMessage{
			Seq:      p.nextSeq(),
			Tick:     uint32(t),
			Group:    uint64(id),
			Entities: netIDs,
		})
	}

	for _, e := range g.entities {
		r.ids.Forget(e)
	}
	return g.entities, nil
}

// Collect builds the outgoing traffic for tick t. Entities a client has not
// seen yet are sent in a SpawnMessage carrying both Once and Full
// components; afterwards they only appear in UpdateMessages.
func (r *Replicator) Collect(t tick.Tick) []Outgoing {
	clients := make([]netconfig.ClientID, 0, len(r.peers))
	for id := range r.peers {
		clients = append(clients, id)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })

	groupIDs := make([]netconfig.ClientID, 0, len(r.groups))
	for id := range r.groups {
		groupIDs = append(groupIDs, id)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })

	out := make([]Outgoing, 0, len(clients))
	for _, cid := range clients {
		p := r.peers[cid]
		o := Outgoing{Client: cid, Reliable: p.pending}
		p.pending = nil

		for _, gid := range groupIDs {
			g := r.groups[gid]
			owner := g.Predicted(cid)

			var spawn, update []messages.EntityState
			for _, e := range g.entities {
				if !r.world.Valid(e) {
					continue
				}
				entry := r.world.Entry(e)
				if !p.spawned[e] {
					spawn = append(spawn, r.encode(entry, owner, true))
					p.spawned[e] = true
					continue
				}
				update = append(update, r.encode(entry, owner, false))
			}

			if len(spawn) > 0 {
				o.Reliable = append(o.Reliable, messages.SpawnMessage{
					Seq:       p.nextSeq(),
					Tick:      uint32(t),
					Group:     uint64(gid),
					Predicted: owner,
					Entities:  spawn,
				})
			}
			if len(update) > 0 {
				msg := messages.UpdateMessage{
					Tick:     uint32(t),
					Group:    uint64(gid),
					Entities: update,
				}
				if owner {
					msg.Input = p.input
				}
				o.Updates = append(o.Updates, msg)
			}
		}
		out = append(out, o)
	}
	return out
}

func (r *Replicator) encode(entry *donburi.Entry, owner, spawn bool) messages.EntityState {
	nid, _ := r.ids.NetworkID(entry.Entity())
	state := messages.EntityState{Entity: nid}
	for _, k := range r.registry.Kinds() {
		if !k.sendsToClients() || (k.OwnerOnly && !owner) {
			continue
		}
		if k.Mode == netconfig.SyncOnce && !spawn {
			continue
		}
		if !entry.HasComponent(k.Type) {
			continue
		}
		data, err := k.Encode(entry, r.ids)
		if err != nil {
			log.Printf("[replication] encode %s for entity %d: %v", k.Name, nid, err)
			continue
		}
		state.Components = append(state.Components, messages.ComponentData{Tag: uint8(k.Tag), Data: data})
	}
	return state
}
