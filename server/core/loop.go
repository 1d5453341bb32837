package core

import (
	"log"

	"github.com/automoto/netfps/shared/collider"
	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/tick"
)

// tick runs one server step. Order matters: structural changes first, then
// colliders for anything just spawned, then movement, then replication of
// the result. The clock advances after this returns.
func (s *Server) tick(t tick.Tick) {
	s.ProcessCommands(t)

	if err := collider.Initialize(s.world, s.arena.Space); err != nil {
		log.Printf("[server] collider init at tick %d: %v", t, err)
	}

	s.sim.Step(t)

	for client := range s.clients {
		if st, ok := s.sim.InputStatus(client); ok {
			s.rep.SetInputStatus(client, st)
		}
	}

	for _, out := range s.rep.Collect(t) {
		p, ok := s.clients[out.Client]
		if !ok {
			continue
		}
		if !deliver(p, out.Reliable, out.Updates) {
			log.Printf("[server] client %d reliable backlog full, disconnecting", out.Client)
			s.dropPlayer(out.Client, t)
			delete(s.peers, p.conn.Id())
			p.kick()
		}
	}

	if s.inline {
		for _, p := range s.peers {
			if err := p.flush(); err != nil {
				log.Printf("[server] write to %s failed: %v", p.conn.Id(), err)
			}
		}
	}
}

// deliver queues one tick of replication traffic. It reports false when a
// reliable message no longer fits.
func deliver(p *peer, reliable []any, updates []messages.UpdateMessage) bool {
	for _, msg := range reliable {
		if !p.send(msg) {
			return false
		}
	}
	for _, u := range updates {
		if !p.send(u) {
			return false
		}
	}
	return true
}
