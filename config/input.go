package config

import "github.com/hajimehoshi/ebiten/v2"

// ActionID represents a logical player action
type ActionID int

const (
	ActionNone ActionID = iota
	ActionForward
	ActionBack
	ActionStrafeLeft
	ActionStrafeRight
	ActionLookLeft
	ActionLookRight
	ActionLookUp
	ActionLookDown
	ActionWalk
	ActionJump
	ActionCrouch
	ActionCount // Must be last - used for array sizing
)

// InputBinding represents the keys bound to an action
type InputBinding struct {
	Keys []ebiten.Key
}

// InputConfig holds all input mappings
type InputConfig struct {
	Bindings map[ActionID]InputBinding
	// KeyLookSpeed is the look rate, in radians per tick, of the look keys.
	KeyLookSpeed float64
	// MouseSensitivity converts cursor pixels to radians.
	MouseSensitivity float64
}

// Input is the global input configuration
var Input InputConfig

func init() {
	Input = InputConfig{
		KeyLookSpeed:     0.04,
		MouseSensitivity: 0.003,
		Bindings: map[ActionID]InputBinding{
			ActionForward:     {Keys: []ebiten.Key{ebiten.KeyW, ebiten.KeyUp}},
			ActionBack:        {Keys: []ebiten.Key{ebiten.KeyS, ebiten.KeyDown}},
			ActionStrafeLeft:  {Keys: []ebiten.Key{ebiten.KeyA}},
			ActionStrafeRight: {Keys: []ebiten.Key{ebiten.KeyD}},
			ActionLookLeft:    {Keys: []ebiten.Key{ebiten.KeyLeft, ebiten.KeyQ}},
			ActionLookRight:   {Keys: []ebiten.Key{ebiten.KeyRight, ebiten.KeyE}},
			ActionLookUp:      {Keys: []ebiten.Key{ebiten.KeyPageUp}},
			ActionLookDown:    {Keys: []ebiten.Key{ebiten.KeyPageDown}},
			ActionWalk:        {Keys: []ebiten.Key{ebiten.KeyShiftLeft}},
			ActionJump:        {Keys: []ebiten.Key{ebiten.KeySpace}},
			ActionCrouch:      {Keys: []ebiten.Key{ebiten.KeyControlLeft, ebiten.KeyC}},
		},
	}
}
