package network

import (
	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/tick"
)

// Intents is one raw sample of local player intent, before it is stamped
// with a tick.
type Intents struct {
	MoveX, MoveY float64
	LookX, LookY float64
	Jump         bool
	Crouch       bool
	Walk         bool
}

// DeviceSource produces the local player's intent once per tick. The ebiten
// viewer reads the keyboard; headless clients and tests use a ScriptedSource.
type DeviceSource interface {
	Sample() Intents
}

// ScriptedSource replays a fixed list of intents, then idles. With Loop set
// it starts over instead.
type ScriptedSource struct {
	Script []Intents
	Loop   bool
	next   int
}

func (s *ScriptedSource) Sample() Intents {
	if len(s.Script) == 0 {
		return Intents{}
	}
	if s.next >= len(s.Script) {
		if !s.Loop {
			return Intents{}
		}
		s.next = 0
	}
	in := s.Script[s.next]
	s.next++
	return in
}

// Hold returns a script that repeats in for n ticks.
func Hold(in Intents, n int) []Intents {
	out := make([]Intents, n)
	for i := range out {
		out[i] = in
	}
	return out
}

// InputRing stores captured frames keyed by tick. A slot is reused once the
// ring wraps, so frames older than its capacity are evicted even if the
// server never acknowledged them.
type InputRing struct {
	slots  []messages.InputFrame
	valid  []bool
	newest tick.Tick
	has    bool
	acked  tick.Tick
}

func NewInputRing(size int) *InputRing {
	if size < 1 {
		size = netconfig.InputBufferSize
	}
	return &InputRing{
		slots: make([]messages.InputFrame, size),
		valid: make([]bool, size),
	}
}

func (r *InputRing) slot(t tick.Tick) int {
	return int(uint32(t) % uint32(len(r.slots)))
}

// Put stores f under its own tick.
func (r *InputRing) Put(f messages.InputFrame) {
	t := tick.Tick(f.Tick)
	i := r.slot(t)
	r.slots[i] = f
	r.valid[i] = true
	if !r.has || t > r.newest {
		r.newest = t
		r.has = true
	}
}

// Frame returns the frame stored for t, or the empty frame when t was never
// captured or has been evicted.
func (r *InputRing) Frame(t tick.Tick) (messages.InputFrame, bool) {
	i := r.slot(t)
	if r.valid[i] && r.slots[i].Tick == uint32(t) {
		return r.slots[i], true
	}
	return messages.EmptyFrame(uint32(t)), false
}

// Ack drops every frame at or before t.
func (r *InputRing) Ack(t tick.Tick) {
	if t <= r.acked {
		return
	}
	r.acked = t
	for i := range r.slots {
		if r.valid[i] && tick.Tick(r.slots[i].Tick) <= t {
			r.valid[i] = false
		}
	}
}

// Pending returns up to max of the newest unacknowledged frames, oldest first.
func (r *InputRing) Pending(max int) []messages.InputFrame {
	if !r.has || max <= 0 {
		return nil
	}
	var from tick.Tick
	if uint32(r.newest) >= uint32(max-1) {
		from = r.newest - tick.Tick(max-1)
	}
	out := make([]messages.InputFrame, 0, max)
	for t := from; t <= r.newest; t++ {
		if f, ok := r.Frame(t); ok && t > r.acked {
			out = append(out, f)
		}
	}
	return out
}

// Reset forgets every frame. Used when the clock jumps, so frames of the
// old timeline are never resent.
func (r *InputRing) Reset() {
	clear(r.valid)
	r.newest = 0
	r.has = false
	r.acked = 0
}

// Len returns the number of frames held.
func (r *InputRing) Len() int {
	n := 0
	for _, v := range r.valid {
		if v {
			n++
		}
	}
	return n
}

// Capture stamps device samples with the client tick and keeps them until
// the server acknowledges them.
type Capture struct {
	source     DeviceSource
	ring       *InputRing
	redundancy int
}

func NewCapture(source DeviceSource, redundancy int) *Capture {
	if redundancy < 1 {
		redundancy = netconfig.InputRedundancy
	}
	return &Capture{
		source:     source,
		ring:       NewInputRing(netconfig.InputBufferSize),
		redundancy: redundancy,
	}
}

// Capture samples the device for tick t and stores the frame.
func (c *Capture) Capture(t tick.Tick) messages.InputFrame {
	in := c.source.Sample()
	f := messages.InputFrame{
		Tick:   uint32(t),
		MoveX:  in.MoveX,
		MoveY:  in.MoveY,
		LookX:  in.LookX,
		LookY:  in.LookY,
		Jump:   in.Jump,
		Crouch: in.Crouch,
		Walk:   in.Walk,
	}
	c.ring.Put(f)
	return f
}

// Frame returns the stored frame for t, or an empty one.
func (c *Capture) Frame(t tick.Tick) messages.InputFrame {
	f, _ := c.ring.Frame(t)
	return f
}

// Outgoing builds the input message for this tick from the newest
// unacknowledged frames.
func (c *Capture) Outgoing(epoch uint32) messages.InputMessage {
	return messages.InputMessage{Epoch: epoch, Frames: c.ring.Pending(c.redundancy)}
}

// Reset drops every captured frame.
func (c *Capture) Reset() {
	c.ring.Reset()
}

// Ack forgets frames the server has applied.
func (c *Capture) Ack(t tick.Tick) {
	c.ring.Ack(t)
}
