package core

import (
	"log"
	"sync"

	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/protocol"
)

// maxReliableBacklog bounds the reliable queue of one peer. A peer that
// falls this far behind is disconnected rather than allowed to grow without
// bound.
const maxReliableBacklog = 1024

// Conn is the part of a transport connection the server writes to.
// *router.NetworkClient satisfies it.
type Conn interface {
	Id() string
	SendMessage(msg any) error
	CloseNow() error
}

// seqKey identifies one latest-wins slot.
type seqKey struct {
	channel netconfig.ChannelID
	key     uint64
}

// peer is the outbox of one connection. The game loop enqueues; a writer
// goroutine drains, so a slow connection never stalls the loop. Messages on
// reliable channels go out in order, before anything sequenced. Sequenced
// messages are latest-wins per key, which for updates is the replication
// group.
type peer struct {
	conn   Conn
	client netconfig.ClientID
	// accepted is set once the connect request passed; loop-owned.
	accepted bool

	mu       sync.Mutex
	reliable []any
	latest   map[seqKey]messages.Sequenced
	seqOrder []seqKey

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newPeer(conn Conn) *peer {
	return &peer{
		conn:   conn,
		latest: make(map[seqKey]messages.Sequenced),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// send queues msg by the consistency of its channel. It reports false when
// a reliable message does not fit the backlog.
func (p *peer) send(msg any) bool {
	if sm, ok := protocol.LatestWins(msg); ok {
		p.sendLatest(protocol.ChannelOf(msg).ID, sm)
		return true
	}
	return p.sendReliable(msg)
}

// sendReliable queues a structural message. It reports false when the
// backlog is full.
func (p *peer) sendReliable(msg any) bool {
	p.mu.Lock()
	if len(p.reliable) >= maxReliableBacklog {
		p.mu.Unlock()
		return false
	}
	p.reliable = append(p.reliable, msg)
	p.mu.Unlock()
	p.notify()
	return true
}

// sendLatest queues a sequenced message, replacing any unsent one with the
// same key that is older.
func (p *peer) sendLatest(channel netconfig.ChannelID, msg messages.Sequenced) {
	k := seqKey{channel: channel, key: msg.SequenceKey()}
	p.mu.Lock()
	prev, ok := p.latest[k]
	if !ok {
		p.seqOrder = append(p.seqOrder, k)
	}
	if !ok || msg.SequenceTick() > prev.SequenceTick() {
		p.latest[k] = msg
	}
	p.mu.Unlock()
	p.notify()
}

func (p *peer) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// take empties the queues, reliable messages first.
func (p *peer) take() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.reliable
	p.reliable = nil
	for _, k := range p.seqOrder {
		out = append(out, p.latest[k])
	}
	clear(p.latest)
	p.seqOrder = p.seqOrder[:0]
	return out
}

// flush writes everything queued. It returns the first write error.
func (p *peer) flush() error {
	for _, msg := range p.take() {
		if err := p.conn.SendMessage(msg); err != nil {
			return err
		}
	}
	return nil
}

// run is the writer goroutine.
func (p *peer) run() {
	for {
		select {
		case <-p.done:
			return
		case <-p.wake:
			if err := p.flush(); err != nil {
				log.Printf("[server] write to %s failed: %v", p.conn.Id(), err)
				return
			}
		}
	}
}

func (p *peer) close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// kick stops the writer and drops the transport connection.
func (p *peer) kick() {
	p.close()
	if err := p.conn.CloseNow(); err != nil {
		log.Printf("[server] close %s: %v", p.conn.Id(), err)
	}
}
