package network

import (
	"testing"

	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/tick"
)

func forward() Intents {
	return Intents{MoveY: 1}
}

func TestCaptureStoresFrameUnderTick(t *testing.T) {
	c := NewCapture(&ScriptedSource{Script: []Intents{forward(), {Jump: true}}}, 0)

	f := c.Capture(10)
	if f.Tick != 10 || f.MoveY != 1 {
		t.Fatalf("Capture(10) = %+v", f)
	}
	c.Capture(11)

	if got := c.Frame(10); got != f {
		t.Errorf("Frame(10) = %+v, want %+v", got, f)
	}
	if got := c.Frame(11); !got.Jump {
		t.Errorf("Frame(11) = %+v, want jump", got)
	}
}

func TestFrameDefaultsToEmpty(t *testing.T) {
	c := NewCapture(&ScriptedSource{}, 0)
	got := c.Frame(42)
	if got.Tick != 42 || !got.IsEmpty() {
		t.Fatalf("Frame(42) = %+v, want empty frame tagged 42", got)
	}
}

func TestAckEvictsFrames(t *testing.T) {
	c := NewCapture(&ScriptedSource{Script: Hold(forward(), 10)}, 0)
	for tk := tick.Tick(1); tk <= 10; tk++ {
		c.Capture(tk)
	}
	c.Ack(6)

	if !c.Frame(6).IsEmpty() {
		t.Error("frame 6 still stored after ack")
	}
	if c.Frame(7).IsEmpty() {
		t.Error("frame 7 evicted by ack of 6")
	}
	if got := c.ring.Len(); got != 4 {
		t.Errorf("ring holds %d frames, want 4", got)
	}
}

func TestRingOverflowEvictsOldest(t *testing.T) {
	c := NewCapture(&ScriptedSource{Script: []Intents{forward()}, Loop: true}, 0)
	n := tick.Tick(netconfig.InputBufferSize + 5)
	for tk := tick.Tick(1); tk <= n; tk++ {
		c.Capture(tk)
	}
	if !c.Frame(1).IsEmpty() {
		t.Error("frame 1 survived ring overflow")
	}
	if c.Frame(n).IsEmpty() {
		t.Error("newest frame missing")
	}
	if got := c.ring.Len(); got != netconfig.InputBufferSize {
		t.Errorf("ring holds %d frames, want %d", got, netconfig.InputBufferSize)
	}
}

func TestOutgoingCarriesNewestUnacked(t *testing.T) {
	c := NewCapture(&ScriptedSource{Script: []Intents{forward()}, Loop: true}, 3)
	for tk := tick.Tick(1); tk <= 5; tk++ {
		c.Capture(tk)
	}

	msg := c.Outgoing(0)
	if len(msg.Frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(msg.Frames))
	}
	for i, want := range []uint32{3, 4, 5} {
		if msg.Frames[i].Tick != want {
			t.Errorf("frame %d has tick %d, want %d", i, msg.Frames[i].Tick, want)
		}
	}

	c.Ack(4)
	msg = c.Outgoing(0)
	if len(msg.Frames) != 1 || msg.Frames[0].Tick != 5 {
		t.Errorf("after ack got %+v, want only tick 5", msg.Frames)
	}
}

func TestResetForgetsOldTimeline(t *testing.T) {
	c := NewCapture(&ScriptedSource{Script: []Intents{forward()}, Loop: true}, 8)
	for tk := tick.Tick(100); tk <= 107; tk++ {
		c.Capture(tk)
	}
	c.Ack(103)

	c.Reset()
	if c.ring.Len() != 0 {
		t.Fatalf("ring holds %d frames after reset", c.ring.Len())
	}
	c.Capture(16)
	msg := c.Outgoing(3)
	if msg.Epoch != 3 {
		t.Errorf("epoch = %d, want 3", msg.Epoch)
	}
	if len(msg.Frames) != 1 || msg.Frames[0].Tick != 16 {
		t.Errorf("after moving back got %+v, want only tick 16", msg.Frames)
	}
}

func TestScriptedSource(t *testing.T) {
	src := &ScriptedSource{Script: []Intents{forward(), {Crouch: true}}}
	if !(src.Sample().MoveY == 1 && src.Sample().Crouch) {
		t.Fatal("script not replayed in order")
	}
	if src.Sample() != (Intents{}) {
		t.Error("exhausted script should idle")
	}

	loop := &ScriptedSource{Script: []Intents{forward()}, Loop: true}
	for i := 0; i < 3; i++ {
		if loop.Sample().MoveY != 1 {
			t.Fatalf("looping script idled at sample %d", i)
		}
	}
}
