package gamemath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/automoto/netfps/shared/messages"
	"github.com/go-gl/mathgl/mgl64"
)

// flatGround is a single infinite floor at height Y.
type flatGround struct{ Y float64 }

func (g flatGround) SurfaceBelow(_, y, _ float64) (float64, bool) {
	if y < g.Y {
		return 0, false
	}
	return g.Y, true
}

func randomFrames(seed int64, n int) []messages.InputFrame {
	r := rand.New(rand.NewSource(seed))
	frames := make([]messages.InputFrame, n)
	for i := range frames {
		frames[i] = messages.InputFrame{
			Tick:   uint32(i),
			MoveX:  r.Float64()*2 - 1,
			MoveY:  r.Float64()*2 - 1,
			LookX:  (r.Float64() - 0.5) * 0.1,
			LookY:  (r.Float64() - 0.5) * 0.1,
			Jump:   r.Intn(10) == 0,
			Crouch: r.Intn(7) == 0,
			Walk:   r.Intn(5) == 0,
		}
	}
	return frames
}

func TestStepIsDeterministic(t *testing.T) {
	w := NewWorld(flatGround{Y: 0}, mgl64.Vec3{0, 12, 0})
	frames := randomFrames(42, 500)

	a := Pose{Translation: w.Spawn}
	b := Pose{Translation: w.Spawn}
	for _, f := range frames {
		a = Step(w, a, f)
	}
	for _, f := range frames {
		b = Step(w, b, f)
	}

	if a != b {
		t.Fatalf("independent runs diverged:\n a=%+v\n b=%+v", a, b)
	}
}

func TestStepRunsForwardAtRunSpeed(t *testing.T) {
	w := NewWorld(flatGround{Y: 0}, mgl64.Vec3{0, 12, 0})
	p := Pose{Translation: w.Spawn}

	for i := 0; i < 50; i++ {
		p = Step(w, p, messages.InputFrame{Tick: uint32(i), MoveY: 1})
	}

	if want := 50 * RunSpeed; math.Abs(p.Translation.X()-want) > 1e-9 {
		t.Fatalf("x = %v, want %v", p.Translation.X(), want)
	}
	if p.Translation.Z() != 0 {
		t.Fatalf("z drifted to %v", p.Translation.Z())
	}
}

func TestStepWalkAndCrouchSlowDown(t *testing.T) {
	w := NewWorld(flatGround{Y: 0}, mgl64.Vec3{})
	run := Step(w, Pose{}, messages.InputFrame{MoveY: 1})
	walk := Step(w, Pose{}, messages.InputFrame{MoveY: 1, Walk: true})
	crouch := Step(w, Pose{}, messages.InputFrame{MoveY: 1, Crouch: true})

	if !(crouch.Translation.X() < walk.Translation.X() && walk.Translation.X() < run.Translation.X()) {
		t.Fatalf("expected crouch < walk < run, got %v %v %v",
			crouch.Translation.X(), walk.Translation.X(), run.Translation.X())
	}
}

func TestStepDiagonalIsNormalized(t *testing.T) {
	w := NewWorld(flatGround{Y: 0}, mgl64.Vec3{})
	p := Step(w, Pose{}, messages.InputFrame{MoveX: 1, MoveY: 1})
	horizontal := math.Hypot(p.Velocity.X(), p.Velocity.Z())
	if math.Abs(horizontal-RunSpeed) > 1e-12 {
		t.Fatalf("diagonal speed = %v, want %v", horizontal, RunSpeed)
	}
}

func TestStepLandsOnGroundAndJumps(t *testing.T) {
	w := NewWorld(flatGround{Y: 0}, mgl64.Vec3{0, 2, 0})
	p := Pose{Translation: w.Spawn}

	for i := 0; i < 200 && !p.Grounded; i++ {
		p = Step(w, p, messages.InputFrame{})
	}
	if !p.Grounded || p.Translation.Y() != 0 || p.Velocity.Y() != 0 {
		t.Fatalf("expected to rest on the floor, got %+v", p)
	}

	p = Step(w, p, messages.InputFrame{Jump: true})
	if p.Grounded || p.Translation.Y() <= 0 {
		t.Fatalf("expected to leave the ground, got %+v", p)
	}
}

func TestStepRespawnsBelowKillHeight(t *testing.T) {
	spawn := mgl64.Vec3{0, 12, 0}
	w := NewWorld(nil, spawn)
	p := Pose{Translation: mgl64.Vec3{3, -49.9, 4}, Velocity: mgl64.Vec3{0.2, -1, 0}}

	p = Step(w, p, messages.InputFrame{MoveY: 1})

	if p.Translation != spawn {
		t.Fatalf("translation = %v, want spawn %v", p.Translation, spawn)
	}
	if p.Velocity != (mgl64.Vec3{}) {
		t.Fatalf("velocity = %v, want zero", p.Velocity)
	}
}

func TestRespawnLeavesPlayersAboveKillHeight(t *testing.T) {
	w := NewWorld(nil, mgl64.Vec3{0, 12, 0})
	p := Pose{Translation: mgl64.Vec3{1, -10, 1}, Velocity: mgl64.Vec3{0, -0.5, 0}}
	if got := Respawn(w, p); got != p {
		t.Fatalf("Respawn changed a live player: %+v", got)
	}
}

func TestPitchIsClamped(t *testing.T) {
	w := NewWorld(nil, mgl64.Vec3{})
	p := Pose{}
	for i := 0; i < 100; i++ {
		p = Step(w, p, messages.InputFrame{LookY: -0.5})
	}
	if p.Pitch > MaxPitch {
		t.Fatalf("pitch %v exceeds %v", p.Pitch, MaxPitch)
	}
}

func TestRotationFacesMovementDirection(t *testing.T) {
	w := NewWorld(flatGround{Y: 0}, mgl64.Vec3{})
	p := Pose{Yaw: 0.7, Grounded: true}
	next := Step(w, p, messages.InputFrame{MoveY: 1})

	moved := next.Translation.Sub(p.Translation)
	moved[1] = 0
	facing := next.Rotation().Rotate(mgl64.Vec3{1, 0, 0})
	if !facing.ApproxEqualThreshold(moved.Normalize(), 1e-9) {
		t.Fatalf("facing %v, moved along %v", facing, moved.Normalize())
	}
}
