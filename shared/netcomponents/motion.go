package netcomponents

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// MotionData is the part of a player's canonical state that only its owner
// needs: what prediction must restore before replaying inputs.
type MotionData struct {
	Velocity mgl64.Vec3
	Yaw      float64
	Pitch    float64
	Grounded bool
	// LastInputTick is the last input tick the server applied.
	LastInputTick uint32
}

var Motion = donburi.NewComponentType[MotionData]()
