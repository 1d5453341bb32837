package network

import (
	"errors"
	"testing"

	"github.com/automoto/netfps/shared/arena"
	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netcomponents"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/protocol"
	"github.com/automoto/netfps/shared/replication"
	"github.com/automoto/netfps/shared/tick"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

const (
	me    netconfig.ClientID = 1
	rival netconfig.ClientID = 2
)

type serverFixture struct {
	world   donburi.World
	rep     *replication.Replicator
	players map[netconfig.ClientID]donburi.Entity
}

func newServerFixture(t *testing.T, registry *replication.Registry) *serverFixture {
	t.Helper()
	w := donburi.NewWorld()
	return &serverFixture{
		world:   w,
		rep:     replication.NewReplicator(w, registry),
		players: make(map[netconfig.ClientID]donburi.Entity),
	}
}

func (f *serverFixture) join(t *testing.T, client netconfig.ClientID, at mgl64.Vec3) {
	t.Helper()
	e := f.world.Create(netcomponents.PlayerID, netcomponents.PlayerName, netcomponents.Transform, netcomponents.Motion)
	entry := f.world.Entry(e)
	netcomponents.PlayerID.SetValue(entry, netcomponents.PlayerIDData{ClientID: uint64(client)})
	netcomponents.Transform.SetValue(entry, netcomponents.NewTransform(at))

	f.rep.AddClient(client)
	if _, err := f.rep.CreateGroup(client); err != nil {
		t.Fatal(err)
	}
	if _, err := f.rep.AddEntity(client, entry); err != nil {
		t.Fatal(err)
	}
	f.players[client] = e
}

func (f *serverFixture) move(client netconfig.ClientID, to mgl64.Vec3) {
	entry := f.world.Entry(f.players[client])
	netcomponents.Transform.Get(entry).Translation = to
}

// deliver collects tick t and hands client its traffic in send order.
func (f *serverFixture) deliver(t *testing.T, s *Session, client netconfig.ClientID, tk tick.Tick) []error {
	t.Helper()
	var errs []error
	for _, o := range f.rep.Collect(tk) {
		if o.Client != client {
			continue
		}
		for _, m := range o.Reliable {
			if err := s.Handle(m); err != nil {
				errs = append(errs, err)
			}
		}
		for _, u := range o.Updates {
			if err := s.Handle(u); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

func newTestSession(t *testing.T) (*Session, *replication.Registry) {
	t.Helper()
	registry, err := protocol.RegisterComponents()
	if err != nil {
		t.Fatal(err)
	}
	w := donburi.NewWorld()
	s := NewSession(w, arena.Empty(), registry, &ScriptedSource{}, DefaultSessionConfig())
	return s, registry
}

func TestTickWaitsForAccept(t *testing.T) {
	s, _ := newTestSession(t)
	if _, ok := s.Tick(); ok {
		t.Fatal("Tick produced input before the handshake")
	}

	s.Accept(messages.ConnectAccepted{ServerTick: 100})
	msg, ok := s.Tick()
	if !ok {
		t.Fatal("no input after accept")
	}
	want := uint32(100 + netconfig.InputLeadTicks)
	if len(msg.Frames) != 1 || msg.Frames[0].Tick != want {
		t.Errorf("frames = %+v, want one frame at tick %d", msg.Frames, want)
	}
	if s.Clock().Current() != tick.Tick(want+1) {
		t.Errorf("clock = %d, want %d", s.Clock().Current(), want+1)
	}
}

func TestSpawnSplitsLocalAndRemote(t *testing.T) {
	s, registry := newTestSession(t)
	srv := newServerFixture(t, registry)
	srv.join(t, me, mgl64.Vec3{0, 12, 0})
	srv.join(t, rival, mgl64.Vec3{5, 0, 5})
	s.Accept(messages.ConnectAccepted{ServerTick: 1})

	if errs := srv.deliver(t, s, me, 1); len(errs) > 0 {
		t.Fatalf("deliver: %v", errs)
	}

	local, ok := s.Local()
	if !ok {
		t.Fatal("local player not claimed")
	}
	pose, _ := s.LocalPose()
	if pose.Translation != (mgl64.Vec3{0, 12, 0}) {
		t.Errorf("local pose = %v, want spawn point", pose.Translation)
	}
	if s.Mirrors() != 2 {
		t.Errorf("mirrors = %d, want 2", s.Mirrors())
	}

	poses := s.Poses()
	if len(poses) != 2 {
		t.Fatalf("poses = %d, want 2", len(poses))
	}
	for _, p := range poses {
		if p.Local != (p.Entity == local.Entity) {
			t.Errorf("pose %d local=%v", p.ID, p.Local)
		}
		if !p.Local && p.Transform.Translation != (mgl64.Vec3{5, 0, 5}) {
			t.Errorf("remote pose = %v", p.Transform.Translation)
		}
	}
}

func TestRemoteUpdatesFeedInterpolation(t *testing.T) {
	s, registry := newTestSession(t)
	srv := newServerFixture(t, registry)
	srv.join(t, me, mgl64.Vec3{0, 12, 0})
	srv.join(t, rival, mgl64.Vec3{0, 0, 0})
	s.Accept(messages.ConnectAccepted{ServerTick: 1})
	srv.deliver(t, s, me, 1)

	for tk := tick.Tick(2); tk <= 20; tk++ {
		srv.move(rival, mgl64.Vec3{float64(tk), 0, 0})
		if errs := srv.deliver(t, s, me, tk); len(errs) > 0 {
			t.Fatalf("tick %d: %v", tk, errs)
		}
		s.Tick()
	}

	rivalMirror := donburi.Entity(0)
	for _, p := range s.Poses() {
		if !p.Local {
			rivalMirror = p.Entity
		}
	}
	got, ok := s.RemotePose(rivalMirror)
	if !ok {
		t.Fatal("no interpolated pose for remote player")
	}
	want := float64(20 - netconfig.InterpolationDelayTicks)
	if got.Translation[0] != want {
		t.Errorf("remote x = %v, want %v", got.Translation[0], want)
	}

	// The mirror itself keeps the spawn value; interpolation owns the pose.
	if tr := netcomponents.Transform.Get(s.world.Entry(rivalMirror)); tr.Translation[0] != 0 {
		t.Errorf("interpolated transform written to mirror: %v", tr.Translation)
	}
}

func TestUpdateBeforeSpawnRejected(t *testing.T) {
	s, _ := newTestSession(t)
	s.Accept(messages.ConnectAccepted{ServerTick: 1})
	err := s.Handle(messages.UpdateMessage{Tick: 2, Group: 1})
	if !errors.Is(err, replication.ErrNotSpawned) {
		t.Fatalf("err = %v, want ErrNotSpawned", err)
	}
}

func TestSecondLocalPlayerRejected(t *testing.T) {
	s, registry := newTestSession(t)
	srv := newServerFixture(t, registry)
	srv.join(t, me, mgl64.Vec3{0, 12, 0})
	s.Accept(messages.ConnectAccepted{ServerTick: 1})

	var spawn messages.SpawnMessage
	for _, o := range srv.rep.Collect(1) {
		if o.Client == me {
			spawn = o.Reliable[0].(messages.SpawnMessage)
		}
	}
	if err := s.Handle(spawn); err != nil {
		t.Fatal(err)
	}

	imposter := spawn
	imposter.Seq++
	imposter.Group = 99
	imposter.Entities = []messages.EntityState{spawn.Entities[0]}
	imposter.Entities[0].Entity = 999

	if err := s.Handle(imposter); !errors.Is(err, ErrSecondLocalPlayer) {
		t.Fatalf("err = %v, want ErrSecondLocalPlayer", err)
	}
	local, _ := s.Local()
	if local.ID == 999 {
		t.Error("second player replaced the local handle")
	}
}

func TestLocalUpdateReconcilesAndAcks(t *testing.T) {
	s, registry := newTestSession(t)
	srv := newServerFixture(t, registry)
	srv.join(t, me, mgl64.Vec3{0, 0, 0})
	s.Accept(messages.ConnectAccepted{ServerTick: 1})
	srv.deliver(t, s, me, 1)

	msg, _ := s.Tick()
	first := tick.Tick(msg.Frames[0].Tick)
	s.Tick()

	// Server reports the player a full unit off what was predicted.
	srv.move(me, mgl64.Vec3{3, 0, 0})
	srv.rep.SetInputStatus(me, messages.InputStatus{Ack: uint32(first), Lead: 3, Reported: true})
	if errs := srv.deliver(t, s, me, 2); len(errs) > 0 {
		t.Fatal(errs)
	}

	if c, _ := s.LastCorrection(); c < 1 {
		t.Errorf("correction = %v, want a visible snap", c)
	}
	if got := s.capture.Frame(first); !got.IsEmpty() || got.Tick != uint32(first) {
		t.Errorf("acked frame still buffered: %+v", got)
	}
	if s.Prediction().Len() == 0 {
		t.Error("replay log emptied by an older confirmation")
	}
}

func TestDespawnAndTeardown(t *testing.T) {
	s, registry := newTestSession(t)
	srv := newServerFixture(t, registry)
	srv.join(t, me, mgl64.Vec3{0, 12, 0})
	srv.join(t, rival, mgl64.Vec3{1, 0, 1})
	s.Accept(messages.ConnectAccepted{ServerTick: 1})
	srv.deliver(t, s, me, 1)

	if _, err := srv.rep.RemoveGroup(rival, 2); err != nil {
		t.Fatal(err)
	}
	srv.deliver(t, s, me, 2)
	if s.Mirrors() != 1 {
		t.Errorf("mirrors = %d after remote despawn, want 1", s.Mirrors())
	}
	if _, ok := s.Local(); !ok {
		t.Error("remote despawn cleared the local player")
	}

	s.Teardown()
	if s.Mirrors() != 0 {
		t.Errorf("mirrors = %d after teardown", s.Mirrors())
	}
	if _, ok := s.Local(); ok || s.Accepted() {
		t.Error("teardown left session state behind")
	}
	if len(s.Poses()) != 0 {
		t.Error("teardown left drawable entities")
	}
}

// claimedSession returns a session holding a local player, accepted at
// serverTick.
func claimedSession(t *testing.T, serverTick uint32) (*Session, *serverFixture) {
	t.Helper()
	s, registry := newTestSession(t)
	srv := newServerFixture(t, registry)
	srv.join(t, me, mgl64.Vec3{0, 0, 0})
	s.Accept(messages.ConnectAccepted{ServerTick: serverTick, TickRate: netconfig.TickRate})
	if errs := srv.deliver(t, s, me, 100); len(errs) > 0 {
		t.Fatal(errs)
	}
	if _, ok := s.Local(); !ok {
		t.Fatal("local player not claimed")
	}
	return s, srv
}

func TestLateInputMovesClockForward(t *testing.T) {
	s, srv := claimedSession(t, 100)
	for i := 0; i < 4; i++ {
		s.Tick()
	}
	before := s.Clock().Current()

	srv.move(me, mgl64.Vec3{1, 0, 0})
	srv.rep.SetInputStatus(me, messages.InputStatus{Lead: -8, Reported: true})
	srv.deliver(t, s, me, 101)

	want := before + tick.Tick(netconfig.InputSlackTicks+8)
	if got := s.Clock().Current(); got != want {
		t.Fatalf("clock = %d, want %d", got, want)
	}
	if s.Epoch() != 1 {
		t.Errorf("epoch = %d, want 1", s.Epoch())
	}
	msg, _ := s.Tick()
	if msg.Epoch != 1 || len(msg.Frames) != 1 || msg.Frames[0].Tick != uint32(want) {
		t.Errorf("first message after the shift = %+v", msg)
	}

	// The same report again belongs to the old epoch.
	srv.move(me, mgl64.Vec3{2, 0, 0})
	srv.rep.SetInputStatus(me, messages.InputStatus{Lead: -8, Reported: true})
	srv.deliver(t, s, me, 102)
	if s.Epoch() != 1 {
		t.Errorf("stale report shifted the clock again, epoch %d", s.Epoch())
	}
}

func TestEarlyInputMovesClockBackWithoutResending(t *testing.T) {
	s, srv := claimedSession(t, 190)
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	before := s.Clock().Current()

	srv.move(me, mgl64.Vec3{1, 0, 0})
	srv.rep.SetInputStatus(me, messages.InputStatus{Ack: uint32(before - 5), Lead: 90, Reported: true})
	srv.deliver(t, s, me, 101)

	want := before - tick.Tick(90-netconfig.InputSlackTicks)
	if got := s.Clock().Current(); got != want {
		t.Fatalf("clock = %d, want %d", got, want)
	}
	msg, _ := s.Tick()
	if len(msg.Frames) != 1 || msg.Frames[0].Tick != uint32(want) {
		t.Errorf("frames after moving back = %+v, want only tick %d", msg.Frames, want)
	}
	if msg.Epoch != 1 {
		t.Errorf("epoch = %d, want 1", msg.Epoch)
	}
}

func TestSteadyLeadKeepsClock(t *testing.T) {
	s, srv := claimedSession(t, 100)
	s.Tick()
	before := s.Clock().Current()

	srv.move(me, mgl64.Vec3{1, 0, 0})
	srv.rep.SetInputStatus(me, messages.InputStatus{Lead: netconfig.InputSlackTicks, Reported: true})
	srv.deliver(t, s, me, 101)

	if s.Clock().Current() != before || s.Epoch() != 0 {
		t.Errorf("clock %d epoch %d, want %d and 0", s.Clock().Current(), s.Epoch(), before)
	}
}

func TestAcceptRejectsOtherTickRate(t *testing.T) {
	s, _ := newTestSession(t)
	err := s.Handle(messages.ConnectAccepted{ServerTick: 1, TickRate: netconfig.TickRate * 2})
	if !errors.Is(err, ErrTickRate) {
		t.Fatalf("err = %v, want ErrTickRate", err)
	}
	if s.Accepted() {
		t.Error("session accepted a server running at another rate")
	}
}
