// Package replication moves server world state to clients. The server side
// groups entities per player, assigns network identities and builds spawn,
// update and despawn messages per client. The client side mirrors those
// entities into its own world and enforces channel ordering.
package replication

import (
	"errors"
	"fmt"
	"sort"

	"github.com/automoto/netfps/shared/netconfig"
	"github.com/leap-fish/necs/esync"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/component"
)

var (
	ErrDuplicateTag  = errors.New("replication: component tag already registered")
	ErrUnknownTag    = errors.New("replication: unknown component tag")
	ErrUnknownEntity = errors.New("replication: entity has no network identity")
	ErrTypeMismatch  = errors.New("replication: value does not match component kind")
)

// Resolver translates between world-local entities and network identities.
type Resolver interface {
	NetworkID(e donburi.Entity) (esync.NetworkId, bool)
	Entity(id esync.NetworkId) (donburi.Entity, bool)
}

// Kind describes one replicated component.
type Kind struct {
	Tag       netconfig.ComponentTag
	Name      string
	Mode      netconfig.SyncMode
	Direction netconfig.Direction
	// OwnerOnly kinds are sent to the owning client only.
	OwnerOnly bool
	// Interpolated kinds are buffered and blended for interpolation targets
	// instead of being applied on arrival.
	Interpolated bool
	Type         component.IComponentType

	encode func(*donburi.Entry, Resolver) ([]byte, error)
	decode func([]byte) (any, error)
	apply  func(*donburi.Entry, any, Resolver) error
}

// Option configures a Kind.
type Option func(*Kind)

// OwnerOnly restricts a kind to the group owner.
func OwnerOnly() Option {
	return func(k *Kind) { k.OwnerOnly = true }
}

// Interpolated marks a kind as interpolated on non-owning clients.
func Interpolated() Option {
	return func(k *Kind) { k.Interpolated = true }
}

// WithDirection overrides the default server-to-client direction.
func WithDirection(d netconfig.Direction) Option {
	return func(k *Kind) { k.Direction = d }
}

// Component describes a plain value component serialized with msgpack.
func Component[T any](tag netconfig.ComponentTag, name string, ctype *donburi.ComponentType[T], mode netconfig.SyncMode, opts ...Option) *Kind {
	k := &Kind{
		Tag:  tag,
		Name: name,
		Mode: mode,
		Type: ctype,
		encode: func(e *donburi.Entry, _ Resolver) ([]byte, error) {
			return msgpack.Marshal(ctype.Get(e))
		},
		decode: func(b []byte) (any, error) {
			var v T
			if err := msgpack.Unmarshal(b, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
		apply: func(e *donburi.Entry, v any, _ Resolver) error {
			t, ok := v.(T)
			if !ok {
				return fmt.Errorf("%w: %s got %T", ErrTypeMismatch, name, v)
			}
			set(e, ctype, t)
			return nil
		},
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Ref describes a component that points at another entity. The reference
// travels as the target's network identity and is resolved against the
// receiver's identity map.
func Ref[T any](tag netconfig.ComponentTag, name string, ctype *donburi.ComponentType[T], mode netconfig.SyncMode,
	target func(T) donburi.Entity, build func(donburi.Entity) T, opts ...Option) *Kind {
	k := &Kind{
		Tag:  tag,
		Name: name,
		Mode: mode,
		Type: ctype,
		encode: func(e *donburi.Entry, ids Resolver) ([]byte, error) {
			ref := target(*ctype.Get(e))
			id, ok := ids.NetworkID(ref)
			if !ok {
				return nil, fmt.Errorf("%w: %s -> %v", ErrUnknownEntity, name, ref)
			}
			return msgpack.Marshal(id)
		},
		decode: func(b []byte) (any, error) {
			var id esync.NetworkId
			if err := msgpack.Unmarshal(b, &id); err != nil {
				return nil, err
			}
			return id, nil
		},
		apply: func(e *donburi.Entry, v any, ids Resolver) error {
			id, ok := v.(esync.NetworkId)
			if !ok {
				return fmt.Errorf("%w: %s got %T", ErrTypeMismatch, name, v)
			}
			ref, ok := ids.Entity(id)
			if !ok {
				return fmt.Errorf("%w: %s -> %d", ErrUnknownEntity, name, id)
			}
			set(e, ctype, build(ref))
			return nil
		},
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func set[T any](e *donburi.Entry, ctype *donburi.ComponentType[T], v T) {
	if !e.HasComponent(ctype) {
		e.AddComponent(ctype)
	}
	ctype.SetValue(e, v)
}

// Encode serializes the kind's component on entry.
func (k *Kind) Encode(entry *donburi.Entry, ids Resolver) ([]byte, error) {
	return k.encode(entry, ids)
}

// Decode parses a payload produced by Encode.
func (k *Kind) Decode(data []byte) (any, error) {
	return k.decode(data)
}

// Apply writes a decoded value onto entry, adding the component if needed.
func (k *Kind) Apply(entry *donburi.Entry, v any, ids Resolver) error {
	return k.apply(entry, v, ids)
}

func (k *Kind) sendsToClients() bool {
	return k.Direction == netconfig.ServerToClient || k.Direction == netconfig.Bidirectional
}

// Registry is the set of replicated component kinds. It is built once at
// startup and read-only afterwards.
type Registry struct {
	byTag map[netconfig.ComponentTag]*Kind
	kinds []*Kind
}

func NewRegistry() *Registry {
	return &Registry{byTag: make(map[netconfig.ComponentTag]*Kind)}
}

// Register adds kinds to the registry.
func (r *Registry) Register(kinds ...*Kind) error {
	for _, k := range kinds {
		if _, exists := r.byTag[k.Tag]; exists {
			return fmt.Errorf("%w: %d (%s)", ErrDuplicateTag, k.Tag, k.Name)
		}
		r.byTag[k.Tag] = k
		r.kinds = append(r.kinds, k)
	}
	sort.Slice(r.kinds, func(i, j int) bool { return r.kinds[i].Tag < r.kinds[j].Tag })
	return nil
}

// Kind returns the kind registered under tag.
func (r *Registry) Kind(tag netconfig.ComponentTag) (*Kind, bool) {
	k, ok := r.byTag[tag]
	return k, ok
}

// Kinds returns every kind in tag order.
func (r *Registry) Kinds() []*Kind {
	return r.kinds
}
