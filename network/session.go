package network

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/automoto/netfps/shared/arena"
	"github.com/automoto/netfps/shared/gamemath"
	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netcomponents"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/replication"
	"github.com/automoto/netfps/shared/tick"
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"
)

var (
	// ErrSecondLocalPlayer is returned when the server hands this client a
	// second predicted player while one is already live.
	ErrSecondLocalPlayer = errors.New("network: local player already exists")
	ErrRejected          = errors.New("network: connection rejected")
	ErrUnknownMessage    = errors.New("network: unknown message")
	ErrTickRate          = errors.New("network: server tick rate differs")
)

// SessionConfig tunes the client side of the netcode.
type SessionConfig struct {
	InterpolationDelayTicks int
	InputRedundancy         int
	InputLeadTicks          int
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		InterpolationDelayTicks: netconfig.InterpolationDelayTicks,
		InputRedundancy:         netconfig.InputRedundancy,
		InputLeadTicks:          netconfig.InputLeadTicks,
	}
}

// LocalPlayer is the single predicted player of this client.
type LocalPlayer struct {
	Entity donburi.Entity
	ID     esync.NetworkId
	Group  uint64
}

// RenderPose is what a renderer needs to draw one entity.
type RenderPose struct {
	Entity    donburi.Entity
	ID        esync.NetworkId
	Transform netcomponents.TransformData
	Local     bool
}

// Session is the client half of the game: it mirrors the server world,
// predicts the local player and interpolates everyone else. It is driven by
// a single goroutine, one Tick per client tick.
type Session struct {
	world    donburi.World
	arena    *arena.Arena
	movers   gamemath.World
	receiver *replication.Receiver
	clock    *tick.Clock
	cfg      SessionConfig

	capture    *Capture
	prediction *Prediction
	interp     *Interpolator
	// epoch counts clock shifts. Input status for another epoch is stale.
	epoch uint32

	accepted   *messages.ConnectAccepted
	local      *LocalPlayer
	correction float64
	snaps      int
}

// NewSession builds a session over world. The arena must have been built in
// the same world from the same level as the server's.
func NewSession(world donburi.World, a *arena.Arena, registry *replication.Registry, source DeviceSource, cfg SessionConfig) *Session {
	if cfg.InputLeadTicks <= 0 {
		cfg.InputLeadTicks = netconfig.InputLeadTicks
	}
	return &Session{
		world:    world,
		arena:    a,
		movers:   a.World(),
		receiver: replication.NewReceiver(world, registry),
		clock:    tick.NewClock(netconfig.TickRate),
		cfg:      cfg,
		capture:  NewCapture(source, cfg.InputRedundancy),
		interp:   NewInterpolator(cfg.InterpolationDelayTicks),
	}
}

// Accept lines the client clock up with the server: it runs InputLeadTicks
// ahead so inputs arrive before the server simulates their tick.
func (s *Session) Accept(msg messages.ConnectAccepted) {
	s.accepted = &msg
	s.clock.Set(tick.Tick(msg.ServerTick) + tick.Tick(s.cfg.InputLeadTicks))
	log.Printf("[session] accepted as network id %d, client tick %d", msg.NetworkID, s.clock.Current())
}

// Accepted reports whether the handshake has completed.
func (s *Session) Accepted() bool {
	return s.accepted != nil
}

// Handle applies one message from the server. Errors are per message: the
// caller logs them and carries on.
func (s *Session) Handle(msg any) error {
	switch m := msg.(type) {
	case messages.ConnectAccepted:
		if m.TickRate != 0 && m.TickRate != s.clock.Rate() {
			return fmt.Errorf("%w: server %d, client %d", ErrTickRate, m.TickRate, s.clock.Rate())
		}
		s.Accept(m)
		return nil
	case messages.ConnectRejected:
		return fmt.Errorf("%w: %s", ErrRejected, m.Reason)
	case messages.SpawnMessage:
		return s.handleSpawn(m)
	case messages.DespawnMessage:
		return s.handleDespawn(m)
	case messages.UpdateMessage:
		return s.handleUpdate(m)
	}
	return fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
}

// HandleAll applies msgs in order and logs the ones that fail.
func (s *Session) HandleAll(msgs []any) {
	for _, m := range msgs {
		if err := s.Handle(m); err != nil {
			if errors.Is(err, replication.ErrStale) {
				continue
			}
			log.Printf("[session] %T: %v", m, err)
		}
	}
}

func (s *Session) handleSpawn(m messages.SpawnMessage) error {
	spawned, err := s.receiver.HandleSpawn(m)
	if err != nil {
		return err
	}
	t := tick.Tick(m.Tick)
	for _, sp := range spawned {
		entry := s.world.Entry(sp.Entity)
		if !entry.HasComponent(netcomponents.Transform) {
			continue
		}
		if sp.Predicted && entry.HasComponent(netcomponents.PlayerID) {
			if err := s.claimLocal(sp, t); err != nil {
				return err
			}
			continue
		}
		s.interp.Push(sp.Entity, t, *netcomponents.Transform.Get(entry))
	}
	return nil
}

func (s *Session) claimLocal(sp replication.Spawned, t tick.Tick) error {
	if s.local != nil && s.local.ID != sp.ID {
		return fmt.Errorf("%w: have %d, got %d", ErrSecondLocalPlayer, s.local.ID, sp.ID)
	}
	entry := s.world.Entry(sp.Entity)
	var motion netcomponents.MotionData
	if entry.HasComponent(netcomponents.Motion) {
		motion = *netcomponents.Motion.Get(entry)
	}
	pose := netcomponents.PoseOf(*netcomponents.Transform.Get(entry), motion)

	s.local = &LocalPlayer{Entity: sp.Entity, ID: sp.ID, Group: sp.Group}
	s.prediction = NewPrediction(s.movers, t, pose)
	log.Printf("[session] local player %d spawned at %v", sp.ID, pose.Translation)
	return nil
}

func (s *Session) handleDespawn(m messages.DespawnMessage) error {
	removed, err := s.receiver.HandleDespawn(m)
	if err != nil {
		return err
	}
	for _, r := range removed {
		s.interp.Remove(r.Entity)
		if s.local != nil && s.local.Entity == r.Entity {
			log.Printf("[session] local player %d despawned", r.ID)
			s.local = nil
			s.prediction = nil
		}
	}
	return nil
}

func (s *Session) handleUpdate(m messages.UpdateMessage) error {
	updates, err := s.receiver.HandleUpdate(m)
	if err != nil {
		return err
	}
	t := tick.Tick(m.Tick)
	for _, u := range updates {
		if s.local != nil && u.Entity == s.local.Entity {
			s.reconcile(u, t)
			continue
		}
		for _, v := range u.Values {
			if tr, ok := v.Value.(netcomponents.TransformData); ok && v.Kind.Interpolated {
				s.interp.Push(u.Entity, t, tr)
				continue
			}
			if err := s.receiver.Apply(u.Entity, v); err != nil {
				log.Printf("[session] apply %s: %v", v.Kind.Name, err)
			}
		}
	}
	if s.local != nil && m.Group == s.local.Group {
		if m.Input.Epoch == s.epoch {
			s.capture.Ack(tick.Tick(m.Input.Ack))
		}
		s.syncClock(t, m.Input)
	}
	return nil
}

// reconcile writes the server's view of the local player into its mirror and
// rewinds prediction to it.
func (s *Session) reconcile(u replication.EntityUpdate, t tick.Tick) {
	for _, v := range u.Values {
		if err := s.receiver.Apply(u.Entity, v); err != nil {
			log.Printf("[session] apply %s: %v", v.Kind.Name, err)
		}
	}
	if s.prediction == nil {
		return
	}
	entry := s.world.Entry(u.Entity)
	if !entry.HasComponent(netcomponents.Motion) {
		return
	}
	server := netcomponents.PoseOf(*netcomponents.Transform.Get(entry), *netcomponents.Motion.Get(entry))
	s.correction = s.prediction.Reconcile(t, server)
	if s.correction > netconfig.SnapThreshold {
		s.snaps++
	}
}

// syncClock keeps input arriving just ahead of the server. The server
// reports the lead of the newest frame it got: a late or far too early
// stream moves the clock so the lead lands on InputSlackTicks. Reports from
// an older epoch predate the last move and are ignored, which holds the
// clock still for a round trip after every shift. Without a report the
// clock only has to stay ahead of the server tick it sees.
func (s *Session) syncClock(server tick.Tick, st messages.InputStatus) {
	now := s.clock.Current()
	if st.Reported && st.Epoch == s.epoch {
		switch {
		case st.Lead < 0:
			s.shiftClock(now+tick.Tick(netconfig.InputSlackTicks-st.Lead), server)
		case st.Lead > netconfig.MaxInputLeadTicks:
			s.shiftClock(now-tick.Tick(st.Lead-netconfig.InputSlackTicks), server)
		}
		return
	}
	if !tick.Before(server, now) {
		s.shiftClock(server+tick.Tick(s.cfg.InputLeadTicks), server)
	}
}

// shiftClock moves the clock to to and starts a new input epoch. Frames of
// the old timeline are dropped so they are never resent, and prediction
// restarts from the last confirmed pose.
func (s *Session) shiftClock(to, server tick.Tick) {
	from := s.clock.Current()
	s.clock.Set(to)
	s.epoch++
	s.capture.Reset()
	if s.prediction != nil {
		s.prediction.Rebase()
	}
	log.Printf("[session] clock resync: %d -> %d (server %d, epoch %d)", from, to, server, s.epoch)
}

// Epoch returns the current input epoch.
func (s *Session) Epoch() uint32 {
	return s.epoch
}

// Tick runs one client tick: it captures input, predicts the local player,
// moves interpolation forward and returns the input message to send. Before
// the handshake it returns false.
func (s *Session) Tick() (messages.InputMessage, bool) {
	if s.accepted == nil {
		return messages.InputMessage{}, false
	}
	t := s.clock.Current()
	frame := s.capture.Capture(t)
	if s.prediction != nil {
		s.prediction.Predict(t, frame)
	}
	s.interp.Advance(1)
	s.clock.Advance()
	return s.capture.Outgoing(s.epoch), true
}

// Clock returns the client clock.
func (s *Session) Clock() *tick.Clock {
	return s.clock
}

// Local returns the local player handle, if it has spawned.
func (s *Session) Local() (LocalPlayer, bool) {
	if s.local == nil {
		return LocalPlayer{}, false
	}
	return *s.local, true
}

// LocalPose returns the predicted pose of the local player.
func (s *Session) LocalPose() (gamemath.Pose, bool) {
	if s.prediction == nil {
		return gamemath.Pose{}, false
	}
	return s.prediction.Pose(), true
}

// Prediction exposes the local player's predictor, or nil.
func (s *Session) Prediction() *Prediction {
	return s.prediction
}

// LastCorrection returns the size of the latest reconciliation and the
// number of corrections above the snap threshold so far.
func (s *Session) LastCorrection() (float64, int) {
	return s.correction, s.snaps
}

// RemotePose returns the interpolated transform of a remote mirror.
func (s *Session) RemotePose(e donburi.Entity) (netcomponents.TransformData, bool) {
	return s.interp.Sample(e)
}

// Mirror returns the local mirror of a network id.
func (s *Session) Mirror(id esync.NetworkId) (donburi.Entity, bool) {
	return s.receiver.Entity(id)
}

// Poses returns the pose of every drawable entity, ordered by network id.
func (s *Session) Poses() []RenderPose {
	var out []RenderPose
	esync.NetworkEntityQuery.Each(s.world, func(entry *donburi.Entry) {
		if !entry.HasComponent(netcomponents.Transform) {
			return
		}
		e := entry.Entity()
		id, ok := s.receiver.NetworkID(e)
		if !ok {
			return
		}
		if s.local != nil && s.local.Entity == e && s.prediction != nil {
			p := s.prediction.Pose()
			out = append(out, RenderPose{
				Entity:    e,
				ID:        id,
				Transform: netcomponents.TransformData{Translation: p.Translation, Rotation: p.Rotation()},
				Local:     true,
			})
			return
		}
		tr, ok := s.interp.Sample(e)
		if !ok {
			tr = *netcomponents.Transform.Get(entry)
		}
		out = append(out, RenderPose{Entity: e, ID: id, Transform: tr})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Mirrors returns the number of replicated entities mirrored locally.
func (s *Session) Mirrors() int {
	return s.receiver.Len()
}

// Teardown removes every mirror and forgets all session state, as after a
// disconnect. The arena is left in place for the next connection.
func (s *Session) Teardown() {
	n := s.receiver.Len()
	s.receiver.Reset()
	s.interp.Reset()
	s.capture = NewCapture(s.capture.source, s.cfg.InputRedundancy)
	s.epoch = 0
	s.local = nil
	s.prediction = nil
	s.accepted = nil
	s.correction = 0
	log.Printf("[session] torn down, %d mirrors removed", n)
}

// Arena returns the level the session predicts against.
func (s *Session) Arena() *arena.Arena {
	return s.arena
}
