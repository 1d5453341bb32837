package gamemath

import "math"

// Movement constants, in world units per tick. Client prediction and the
// server share these through Step; there is no second copy.
const (
	RunSpeed      = 0.2
	WalkFactor    = 0.5
	CrouchFactor  = 0.35
	JumpSpeed     = 0.18
	Gravity       = 0.006
	MaxFallSpeed  = 1.2
	MaxPitch      = math.Pi/2 - 0.01
	GroundSnap    = 0.05
	RespawnHeight = -50.0
)

// Clamp clamps v to [-max, max].
func Clamp(v, max float64) float64 {
	if v > max {
		return max
	}
	if v < -max {
		return -max
	}
	return v
}

// ClampAxis clamps an analog axis pair to the unit disc.
func ClampAxis(x, y float64) (float64, float64) {
	l := x*x + y*y
	if l <= 1 {
		return x, y
	}
	inv := 1 / math.Sqrt(l)
	return x * inv, y * inv
}
