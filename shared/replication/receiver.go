package replication

import (
	"errors"
	"fmt"
	"log"

	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"
)

var (
	// ErrOutOfOrder is returned for a reliable message that does not follow
	// the last one applied.
	ErrOutOfOrder = errors.New("replication: reliable message out of order")
	// ErrNotSpawned is returned for an update that names an entity the
	// client has not been sent a spawn for.
	ErrNotSpawned = errors.New("replication: update for entity that was never spawned")
	// ErrStale is returned for an update no newer than one already applied.
	ErrStale = errors.New("replication: stale update")
)

// Value is one decoded component of an update.
type Value struct {
	Kind  *Kind
	Value any
}

// EntityUpdate is the decoded content of one entity in an update.
type EntityUpdate struct {
	ID     esync.NetworkId
	Entity donburi.Entity
	Values []Value
}

// Spawned describes one mirror created by a spawn message.
type Spawned struct {
	ID        esync.NetworkId
	Entity    donburi.Entity
	Group     uint64
	Predicted bool
}

type mirrorGroup struct {
	predicted bool
	entities  []esync.NetworkId
	lastTick  uint32
	updated   bool
}

// Receiver mirrors replicated entities into a client world. It is not safe
// for concurrent use.
type Receiver struct {
	world    donburi.World
	registry *Registry

	lastSeq uint32
	mirrors map[esync.NetworkId]donburi.Entity
	reverse map[donburi.Entity]esync.NetworkId
	groups  map[uint64]*mirrorGroup
}

func NewReceiver(world donburi.World, registry *Registry) *Receiver {
	return &Receiver{
		world:    world,
		registry: registry,
		mirrors:  make(map[esync.NetworkId]donburi.Entity),
		reverse:  make(map[donburi.Entity]esync.NetworkId),
		groups:   make(map[uint64]*mirrorGroup),
	}
}

func (r *Receiver) NetworkID(e donburi.Entity) (esync.NetworkId, bool) {
	id, ok := r.reverse[e]
	return id, ok
}

func (r *Receiver) Entity(id esync.NetworkId) (donburi.Entity, bool) {
	e, ok := r.mirrors[id]
	return e, ok
}

// Len returns the number of live mirrors.
func (r *Receiver) Len() int {
	return len(r.mirrors)
}

func (r *Receiver) checkSeq(seq uint32) error {
	if seq != r.lastSeq+1 {
		return fmt.Errorf("%w: got %d after %d", ErrOutOfOrder, seq, r.lastSeq)
	}
	r.lastSeq = seq
	return nil
}

// HandleSpawn creates mirrors for a spawn message and applies every
// component it carries.
func (r *Receiver) HandleSpawn(msg messages.SpawnMessage) ([]Spawned, error) {
	if err := r.checkSeq(msg.Seq); err != nil {
		log.Printf("[replication] spawn rejected: %v", err)
		return nil, err
	}

	g, ok := r.groups[msg.Group]
	if !ok {
		g = &mirrorGroup{predicted: msg.Predicted}
		r.groups[msg.Group] = g
	}

	// Create every mirror before applying components so references between
	// entities of the same message resolve.
	spawned := make([]Spawned, 0, len(msg.Entities))
	for _, es := range msg.Entities {
		e, exists := r.mirrors[es.Entity]
		if !exists {
			e = r.world.Create(esync.NetworkIdComponent)
			esync.NetworkIdComponent.SetValue(r.world.Entry(e), es.Entity)
			r.mirrors[es.Entity] = e
			r.reverse[e] = es.Entity
			g.entities = append(g.entities, es.Entity)
		}
		spawned = append(spawned, Spawned{ID: es.Entity, Entity: e, Group: msg.Group, Predicted: g.predicted})
	}

	for _, es := range msg.Entities {
		entry := r.world.Entry(r.mirrors[es.Entity])
		values, err := r.decode(es)
		if err != nil {
			log.Printf("[replication] spawn of entity %d: %v", es.Entity, err)
			continue
		}
		for _, v := range values {
			if err := v.Kind.Apply(entry, v.Value, r); err != nil {
				log.Printf("[replication] apply %s to entity %d: %v", v.Kind.Name, es.Entity, err)
			}
		}
	}
	return spawned, nil
}

// HandleDespawn removes the mirrors named by msg and returns their entities
// before removal, so callers can drop any per-entity state.
func (r *Receiver) HandleDespawn(msg messages.DespawnMessage) ([]Spawned, error) {
	if err := r.checkSeq(msg.Seq); err != nil {
		log.Printf("[replication] despawn rejected: %v", err)
		return nil, err
	}

	removed := make([]Spawned, 0, len(msg.Entities))
	g := r.groups[msg.Group]
	for _, id := range msg.Entities {
		e, ok := r.mirrors[id]
		if !ok {
			continue
		}
		removed = append(removed, Spawned{ID: id, Entity: e, Group: msg.Group, Predicted: g != nil && g.predicted})
		r.remove(id, e)
	}
	if g != nil {
		live := g.entities[:0]
		for _, id := range g.entities {
			if _, ok := r.mirrors[id]; ok {
				live = append(live, id)
			}
		}
		g.entities = live
		if len(g.entities) == 0 {
			delete(r.groups, msg.Group)
		}
	}
	return removed, nil
}

func (r *Receiver) remove(id esync.NetworkId, e donburi.Entity) {
	delete(r.mirrors, id)
	delete(r.reverse, e)
	if r.world.Valid(e) {
		r.world.Remove(e)
	}
}

// HandleUpdate decodes a sequenced update. Stale updates return ErrStale and
// updates naming unspawned entities return ErrNotSpawned; in both cases
// nothing is decoded. Values are returned, not applied: the caller decides
// whether they feed prediction, interpolation or the mirror directly.
func (r *Receiver) HandleUpdate(msg messages.UpdateMessage) ([]EntityUpdate, error) {
	g, ok := r.groups[msg.Group]
	if !ok {
		return nil, fmt.Errorf("%w: group %d", ErrNotSpawned, msg.Group)
	}
	if g.updated && msg.Tick <= g.lastTick {
		return nil, fmt.Errorf("%w: group %d tick %d <= %d", ErrStale, msg.Group, msg.Tick, g.lastTick)
	}
	for _, es := range msg.Entities {
		if _, ok := r.mirrors[es.Entity]; !ok {
			return nil, fmt.Errorf("%w: entity %d", ErrNotSpawned, es.Entity)
		}
	}

	out := make([]EntityUpdate, 0, len(msg.Entities))
	for _, es := range msg.Entities {
		values, err := r.decode(es)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", es.Entity, err)
		}
		out = append(out, EntityUpdate{ID: es.Entity, Entity: r.mirrors[es.Entity], Values: values})
	}
	g.lastTick = msg.Tick
	g.updated = true
	return out, nil
}

// Apply writes a decoded value onto the mirror of e.
func (r *Receiver) Apply(e donburi.Entity, v Value) error {
	if !r.world.Valid(e) {
		return fmt.Errorf("%w: %v", ErrNotSpawned, e)
	}
	return v.Kind.Apply(r.world.Entry(e), v.Value, r)
}

func (r *Receiver) decode(es messages.EntityState) ([]Value, error) {
	values := make([]Value, 0, len(es.Components))
	for _, c := range es.Components {
		k, ok := r.registry.Kind(netconfig.ComponentTag(c.Tag))
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownTag, c.Tag)
		}
		v, err := k.Decode(c.Data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", k.Name, err)
		}
		values = append(values, Value{Kind: k, Value: v})
	}
	return values, nil
}

// Reset removes every mirror and forgets all ordering state, as after a
// disconnect.
func (r *Receiver) Reset() {
	for id, e := range r.mirrors {
		r.remove(id, e)
	}
	r.groups = make(map[uint64]*mirrorGroup)
	r.lastSeq = 0
}
