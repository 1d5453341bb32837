package core

import (
	"github.com/automoto/netfps/shared/collider"
	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/tick"
	"github.com/yohamta/donburi"
)

// inputBuffer holds one player's received input frames keyed by tick. It is
// filled from the command queue and drained by the simulator.
type inputBuffer struct {
	frames   map[tick.Tick]messages.InputFrame
	newest   tick.Tick
	received bool

	// epoch is the newest client clock epoch seen. lead is the signed
	// distance of the newest frame of the last message from the server tick.
	epoch    uint32
	lead     int32
	reported bool
	late     int
}

func newInputBuffer() *inputBuffer {
	return &inputBuffer{frames: make(map[tick.Tick]messages.InputFrame)}
}

// push stores a frame for a future tick. Frames for ticks already simulated
// and frames too far ahead are dropped.
func (b *inputBuffer) push(f messages.InputFrame, current tick.Tick) bool {
	t := tick.Tick(f.Tick)
	if tick.Before(t, current) || tick.Since(current, t) >= netconfig.ServerInputWindow {
		return false
	}
	if _, dup := b.frames[t]; dup {
		return false
	}
	b.frames[t] = f
	if !b.received || tick.Before(b.newest, t) {
		b.newest = t
		b.received = true
	}
	return true
}

// restart drops every frame and starts tracking a new epoch.
func (b *inputBuffer) restart(epoch uint32) {
	clear(b.frames)
	b.newest = 0
	b.received = false
	b.epoch = epoch
	b.lead = 0
	b.reported = false
}

// accept records one input message and returns how many frames were kept.
// Messages from an older epoch are ignored.
func (b *inputBuffer) accept(msg messages.InputMessage, current tick.Tick) int {
	if msg.Epoch < b.epoch {
		return 0
	}
	if msg.Epoch > b.epoch {
		b.restart(msg.Epoch)
	}
	n := 0
	for _, f := range msg.Frames {
		if b.push(f, current) {
			n++
		}
	}
	if len(msg.Frames) > 0 {
		b.lead = int32(msg.Frames[len(msg.Frames)-1].Tick - uint32(current))
		b.reported = true
		if b.lead < 0 {
			b.late++
		}
	}
	return n
}

// status is what the owning client is told about its input stream.
func (b *inputBuffer) status() messages.InputStatus {
	st := messages.InputStatus{Epoch: b.epoch, Lead: b.lead, Reported: b.reported}
	if b.received {
		st.Ack = uint32(b.newest)
	}
	return st
}

// take returns the frame for t, or the all-false frame and false when none
// arrived, and drops everything up to t.
func (b *inputBuffer) take(t tick.Tick) (messages.InputFrame, bool) {
	f, ok := b.frames[t]
	for k := range b.frames {
		if !tick.Before(t, k) {
			delete(b.frames, k)
		}
	}
	if !ok {
		return messages.EmptyFrame(uint32(t)), false
	}
	return f, true
}

func (b *inputBuffer) len() int {
	return len(b.frames)
}

// PlayerPhysics holds per-player server state that is never replicated.
type PlayerPhysics struct {
	Client netconfig.ClientID
	Entity donburi.Entity
	// Body is the child entity carrying the player's collider.
	Body   donburi.Entity
	inputs *inputBuffer
	// missed counts ticks simulated with no input.
	missed int
}

func newPlayerPhysics(client netconfig.ClientID, entity, body donburi.Entity) *PlayerPhysics {
	return &PlayerPhysics{
		Client: client,
		Entity: entity,
		Body:   body,
		inputs: newInputBuffer(),
	}
}

// bodyCollider returns the materialized collider of the player's body, once
// the collider pipeline has run.
func (pp *PlayerPhysics) bodyCollider(w donburi.World) (*collider.ColliderData, bool) {
	if !w.Valid(pp.Body) {
		return nil, false
	}
	return collider.Of(w.Entry(pp.Body))
}
