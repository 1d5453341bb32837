package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/protocol"
)

// fakeConn records everything the server writes to it.
type fakeConn struct {
	id string

	mu     sync.Mutex
	sent   []any
	fail   error
	closed bool
}

func (c *fakeConn) Id() string { return c.id }

func (c *fakeConn) CloseNow() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) SendMessage(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.sent = append(c.sent, msg)
	return nil
}

// take returns and clears what was sent so far.
func (c *fakeConn) take() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.sent
	c.sent = nil
	return out
}

func TestPeerReliableBeforePoses(t *testing.T) {
	conn := &fakeConn{id: "a"}
	p := newPeer(conn)

	p.send(messages.UpdateMessage{Tick: 1, Group: 1})
	p.sendReliable(messages.SpawnMessage{Seq: 1})
	p.sendReliable(messages.DespawnMessage{Seq: 2})
	if err := p.flush(); err != nil {
		t.Fatal(err)
	}

	sent := conn.take()
	if len(sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(sent))
	}
	if _, ok := sent[0].(messages.SpawnMessage); !ok {
		t.Errorf("first message %T, want spawn", sent[0])
	}
	if _, ok := sent[1].(messages.DespawnMessage); !ok {
		t.Errorf("second message %T, want despawn", sent[1])
	}
	if _, ok := sent[2].(messages.UpdateMessage); !ok {
		t.Errorf("third message %T, want update", sent[2])
	}
}

func TestPeerPosesLatestWins(t *testing.T) {
	conn := &fakeConn{id: "a"}
	p := newPeer(conn)

	p.send(messages.UpdateMessage{Tick: 5, Group: 1})
	p.send(messages.UpdateMessage{Tick: 6, Group: 2})
	p.send(messages.UpdateMessage{Tick: 7, Group: 1})
	p.send(messages.UpdateMessage{Tick: 4, Group: 1})
	if err := p.flush(); err != nil {
		t.Fatal(err)
	}

	sent := conn.take()
	if len(sent) != 2 {
		t.Fatalf("sent %d updates, want one per group", len(sent))
	}
	if u := sent[0].(messages.UpdateMessage); u.Group != 1 || u.Tick != 7 {
		t.Errorf("group 1 update = %+v, want tick 7", u)
	}
	if u := sent[1].(messages.UpdateMessage); u.Group != 2 || u.Tick != 6 {
		t.Errorf("group 2 update = %+v", u)
	}
}

func TestPeerReliableBacklogBounded(t *testing.T) {
	p := newPeer(&fakeConn{id: "a"})
	for i := 0; i < maxReliableBacklog; i++ {
		if !p.sendReliable(messages.SpawnMessage{}) {
			t.Fatalf("backlog refused message %d", i)
		}
	}
	if p.sendReliable(messages.SpawnMessage{}) {
		t.Error("backlog accepted a message past its bound")
	}
}

func TestPeerFlushReportsWriteError(t *testing.T) {
	boom := errors.New("boom")
	p := newPeer(&fakeConn{id: "a", fail: boom})
	p.sendReliable(messages.SpawnMessage{})
	if err := p.flush(); !errors.Is(err, boom) {
		t.Errorf("flush err = %v, want %v", err, boom)
	}
}

func TestPeerRunDrainsUntilClosed(t *testing.T) {
	conn := &fakeConn{id: "a"}
	p := newPeer(conn)
	done := make(chan struct{})
	go func() {
		p.run()
		close(done)
	}()

	p.sendReliable(messages.SpawnMessage{Seq: 1})
	p.close()
	p.close()
	<-done
}

func TestPeerRoutesByChannel(t *testing.T) {
	if err := protocol.SetMessageChannel(messages.UpdateMessage{}, netconfig.ChannelReliable); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = protocol.SetMessageChannel(messages.UpdateMessage{}, netconfig.ChannelPose) })

	conn := &fakeConn{id: "a"}
	p := newPeer(conn)
	p.send(messages.UpdateMessage{Tick: 5, Group: 1})
	p.send(messages.UpdateMessage{Tick: 6, Group: 1})
	if err := p.flush(); err != nil {
		t.Fatal(err)
	}
	sent := conn.take()
	if len(sent) != 2 {
		t.Fatalf("sent %d updates, want both on a reliable channel", len(sent))
	}
	if u := sent[0].(messages.UpdateMessage); u.Tick != 5 {
		t.Errorf("first update tick %d, want 5", u.Tick)
	}
}

func TestPeerKickClosesConnection(t *testing.T) {
	conn := &fakeConn{id: "a"}
	p := newPeer(conn)
	p.kick()
	if !conn.isClosed() {
		t.Error("kick left the transport connection open")
	}
	select {
	case <-p.done:
	default:
		t.Error("kick did not stop the writer")
	}
}
