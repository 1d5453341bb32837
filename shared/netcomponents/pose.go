package netcomponents

import "github.com/automoto/netfps/shared/gamemath"

// PoseOf assembles the simulation pose of a player from its components.
func PoseOf(tr TransformData, m MotionData) gamemath.Pose {
	return gamemath.Pose{
		Translation: tr.Translation,
		Velocity:    m.Velocity,
		Yaw:         m.Yaw,
		Pitch:       m.Pitch,
		Grounded:    m.Grounded,
	}
}

// SetPose writes a simulation pose back into a player's components.
// LastInputTick is left alone.
func SetPose(tr *TransformData, m *MotionData, p gamemath.Pose) {
	tr.Translation = p.Translation
	tr.Rotation = p.Rotation()
	m.Velocity = p.Velocity
	m.Yaw = p.Yaw
	m.Pitch = p.Pitch
	m.Grounded = p.Grounded
}
