package gamemath

import (
	"math"

	"github.com/automoto/netfps/shared/messages"
	"github.com/go-gl/mathgl/mgl64"
)

// Pose is the canonical simulated state of one player.
type Pose struct {
	Translation mgl64.Vec3
	Velocity    mgl64.Vec3
	Yaw         float64
	Pitch       float64
	Grounded    bool
}

// Rotation returns the body orientation: it turns +X onto the forward
// direction Step moves along. Only yaw turns the body; pitch is carried for
// the camera.
func (p Pose) Rotation() mgl64.Quat {
	return mgl64.QuatRotate(-p.Yaw, mgl64.Vec3{0, 1, 0})
}

// Ground answers "what is the highest walkable surface at (x, z) that is not
// above y". Implementations must be pure for a given static level.
type Ground interface {
	SurfaceBelow(x, y, z float64) (float64, bool)
}

// World is the static environment a step runs in. Client and server build it
// from the same level data, so it is identical on both sides.
type World struct {
	Ground Ground
	Spawn  mgl64.Vec3
	// KillY is the height below which a player is respawned.
	KillY float64
}

// NewWorld returns a world with the default kill height.
func NewWorld(ground Ground, spawn mgl64.Vec3) World {
	return World{Ground: ground, Spawn: spawn, KillY: RespawnHeight}
}

// Step advances one player by one tick. It is a pure function of its
// arguments: the server's authoritative simulation and the client's
// prediction replay both call it, and they must agree bit for bit.
func Step(w World, p Pose, in messages.InputFrame) Pose {
	// --- Look ---
	p.Yaw -= in.LookX
	p.Pitch = Clamp(p.Pitch-in.LookY, MaxPitch)

	// --- Horizontal movement, relative to yaw (yaw 0 faces +X) ---
	strafe, forward := ClampAxis(in.MoveX, in.MoveY)
	speed := RunSpeed
	if in.Walk {
		speed *= WalkFactor
	}
	if in.Crouch {
		speed *= CrouchFactor
	}
	cos, sin := math.Cos(p.Yaw), math.Sin(p.Yaw)
	p.Velocity[0] = speed * (forward*cos - strafe*sin)
	p.Velocity[2] = speed * (forward*sin + strafe*cos)

	// --- Jump ---
	if in.Jump && p.Grounded {
		p.Velocity[1] = JumpSpeed
		p.Grounded = false
	}

	// --- Gravity ---
	p.Velocity[1] -= Gravity
	if p.Velocity[1] < -MaxFallSpeed {
		p.Velocity[1] = -MaxFallSpeed
	}

	p.Translation[0] += p.Velocity[0]
	p.Translation[2] += p.Velocity[2]

	// --- Vertical resolve against the ground ---
	p = resolveVertical(w, p)

	// --- Respawn ---
	return Respawn(w, p)
}

func resolveVertical(w World, p Pose) Pose {
	y := p.Translation[1]
	next := y + p.Velocity[1]

	if w.Ground != nil && p.Velocity[1] <= 0 {
		if surface, ok := w.Ground.SurfaceBelow(p.Translation[0], y+GroundSnap, p.Translation[2]); ok && next <= surface {
			p.Translation[1] = surface
			p.Velocity[1] = 0
			p.Grounded = true
			return p
		}
	}

	p.Translation[1] = next
	p.Grounded = false
	return p
}

// Respawn moves a player that fell below the kill height back to the spawn
// point and zeroes its velocity. Players above the kill height are returned
// unchanged.
func Respawn(w World, p Pose) Pose {
	if p.Translation[1] >= w.KillY {
		return p
	}
	p.Translation = w.Spawn
	p.Velocity = mgl64.Vec3{}
	p.Grounded = false
	return p
}
