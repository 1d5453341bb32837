package network

import (
	"errors"
	"log"

	"github.com/automoto/netfps/shared/arena"
	"github.com/automoto/netfps/shared/leveldata"
	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/replication"
	"github.com/yohamta/donburi"
)

var ErrDisconnected = errors.New("network: disconnected from server")

// Transport is the part of Client the driver uses.
type Transport interface {
	State() ClientState
	Drain() []any
	SendMessage(msg any) error
}

// LevelSource loads a level by name.
type LevelSource interface {
	LoadLevel(name string) (*leveldata.Level, error)
}

// Driver runs a Session over a Transport. The session is created when the
// server accepts the connection, in a fresh world holding the server's level.
type Driver struct {
	transport Transport
	registry  *replication.Registry
	levels    LevelSource
	source    DeviceSource
	cfg       SessionConfig

	world   donburi.World
	session *Session
}

func NewDriver(transport Transport, registry *replication.Registry, levels LevelSource, source DeviceSource, cfg SessionConfig) *Driver {
	return &Driver{
		transport: transport,
		registry:  registry,
		levels:    levels,
		source:    source,
		cfg:       cfg,
	}
}

// Step runs one client tick. It returns ErrDisconnected once the transport
// has dropped, after tearing the session down.
func (d *Driver) Step() error {
	state := d.transport.State()
	if state == StateDisconnected || state == StateError {
		if d.session != nil {
			d.session.Teardown()
			d.session = nil
		}
		return ErrDisconnected
	}

	msgs := d.transport.Drain()
	if d.session == nil {
		accepted, ok := firstAccepted(msgs)
		if !ok {
			return nil
		}
		d.start(accepted)
	}
	d.session.HandleAll(msgs)

	msg, ok := d.session.Tick()
	if !ok {
		return nil
	}
	if err := d.transport.SendMessage(msg); err != nil && !errors.Is(err, ErrNotConnected) {
		log.Printf("[client] send input: %v", err)
	}
	return nil
}

func (d *Driver) start(accepted messages.ConnectAccepted) {
	d.world = donburi.NewWorld()
	a := arena.Empty()
	if lvl, err := d.levels.LoadLevel(accepted.Level); err != nil {
		log.Printf("[client] level %q unavailable (%v), predicting against an empty arena", accepted.Level, err)
	} else {
		a = arena.Build(d.world, lvl)
	}
	d.session = NewSession(d.world, a, d.registry, d.source, d.cfg)
}

func firstAccepted(msgs []any) (messages.ConnectAccepted, bool) {
	for _, m := range msgs {
		if a, ok := m.(messages.ConnectAccepted); ok {
			return a, true
		}
	}
	return messages.ConnectAccepted{}, false
}

// Session returns the live session, or nil before the handshake.
func (d *Driver) Session() *Session {
	return d.session
}

// World returns the mirror world of the live session.
func (d *Driver) World() donburi.World {
	return d.world
}
