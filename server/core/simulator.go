package core

import (
	"log"
	"sort"

	"github.com/automoto/netfps/shared/arena"
	"github.com/automoto/netfps/shared/gamemath"
	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netcomponents"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/tick"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// bodyRadius is the radius of the ball collider carried by every player.
const bodyRadius = 0.5

// Simulator is the authoritative movement simulation. Each player advances
// every tick whether or not their input for that tick arrived; a missing
// frame counts as no input.
type Simulator struct {
	world   donburi.World
	arena   *arena.Arena
	movers  gamemath.World
	players map[netconfig.ClientID]*PlayerPhysics
	order   []netconfig.ClientID
}

func NewSimulator(world donburi.World, a *arena.Arena) *Simulator {
	return &Simulator{
		world:   world,
		arena:   a,
		movers:  a.World(),
		players: make(map[netconfig.ClientID]*PlayerPhysics),
	}
}

// AddPlayer starts simulating a connected player.
func (s *Simulator) AddPlayer(pp *PlayerPhysics) {
	if _, ok := s.players[pp.Client]; !ok {
		s.order = append(s.order, pp.Client)
		sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	}
	s.players[pp.Client] = pp
}

// RemovePlayer stops simulating a player and drops its buffered input.
func (s *Simulator) RemovePlayer(client netconfig.ClientID) (*PlayerPhysics, bool) {
	pp, ok := s.players[client]
	if !ok {
		return nil, false
	}
	delete(s.players, client)
	for i, id := range s.order {
		if id == client {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return pp, true
}

// Player returns the state of a connected player.
func (s *Simulator) Player(client netconfig.ClientID) (*PlayerPhysics, bool) {
	pp, ok := s.players[client]
	return pp, ok
}

// PushInput buffers the frames of one input message. It returns how many
// were accepted. A message of a newer epoch discards everything buffered
// from the previous one.
func (s *Simulator) PushInput(client netconfig.ClientID, msg messages.InputMessage, current tick.Tick) int {
	pp, ok := s.players[client]
	if !ok {
		return 0
	}
	if msg.Epoch > pp.inputs.epoch {
		log.Printf("[server] client %d moved to input epoch %d at tick %d", client, msg.Epoch, current)
	}
	return pp.inputs.accept(msg, current)
}

// InputStatus returns the input report echoed to client.
func (s *Simulator) InputStatus(client netconfig.ClientID) (messages.InputStatus, bool) {
	pp, ok := s.players[client]
	if !ok {
		return messages.InputStatus{}, false
	}
	return pp.inputs.status(), true
}

// Step advances every player by one tick.
func (s *Simulator) Step(t tick.Tick) {
	for _, client := range s.order {
		pp := s.players[client]
		if !s.world.Valid(pp.Entity) {
			continue
		}
		frame, ok := pp.inputs.take(t)
		if !ok {
			pp.missed++
		}

		entry := s.world.Entry(pp.Entity)
		tr := netcomponents.Transform.Get(entry)
		m := netcomponents.Motion.Get(entry)

		before := tr.Translation
		pose := gamemath.Step(s.movers, netcomponents.PoseOf(*tr, *m), frame)
		netcomponents.SetPose(tr, m, pose)
		if ok {
			m.LastInputTick = uint32(t)
		}

		if before != s.movers.Spawn && pose.Translation == s.movers.Spawn && pose.Velocity == (mgl64.Vec3{}) {
			log.Printf("[server] client %d respawned at tick %d", client, t)
		}

		if c, ok := pp.bodyCollider(s.world); ok {
			s.arena.Space.Place(c, pose.Translation.Add(mgl64.Vec3{0, bodyRadius, 0}))
		}
	}
}
