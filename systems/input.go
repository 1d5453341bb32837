package systems

import (
	cfg "github.com/automoto/netfps/config"
	"github.com/automoto/netfps/network"
	"github.com/hajimehoshi/ebiten/v2"
)

// KeyboardSource reads the local player's intent from the keyboard, and from
// the mouse while the cursor is captured. Sample must be called from the
// ebiten update goroutine.
type KeyboardSource struct {
	lastX, lastY int
	tracking     bool
}

func NewKeyboardSource() *KeyboardSource {
	return &KeyboardSource{}
}

func (k *KeyboardSource) Sample() network.Intents {
	in := IntentsFrom(actionPressed)

	if ebiten.CursorMode() != ebiten.CursorModeCaptured {
		k.tracking = false
		return in
	}
	x, y := ebiten.CursorPosition()
	if k.tracking {
		in.LookX += float64(x-k.lastX) * cfg.Input.MouseSensitivity
		in.LookY += float64(y-k.lastY) * cfg.Input.MouseSensitivity
	}
	k.lastX, k.lastY, k.tracking = x, y, true
	return in
}

// IntentsFrom maps the pressed actions onto movement axes. Opposing actions
// cancel out.
func IntentsFrom(pressed func(cfg.ActionID) bool) network.Intents {
	axis := func(neg, pos cfg.ActionID) float64 {
		v := 0.0
		if pressed(neg) {
			v--
		}
		if pressed(pos) {
			v++
		}
		return v
	}
	return network.Intents{
		MoveX:  axis(cfg.ActionStrafeLeft, cfg.ActionStrafeRight),
		MoveY:  axis(cfg.ActionBack, cfg.ActionForward),
		LookX:  axis(cfg.ActionLookLeft, cfg.ActionLookRight) * cfg.Input.KeyLookSpeed,
		LookY:  axis(cfg.ActionLookUp, cfg.ActionLookDown) * cfg.Input.KeyLookSpeed,
		Jump:   pressed(cfg.ActionJump),
		Crouch: pressed(cfg.ActionCrouch),
		Walk:   pressed(cfg.ActionWalk),
	}
}

func actionPressed(action cfg.ActionID) bool {
	for _, key := range cfg.Input.Bindings[action].Keys {
		if ebiten.IsKeyPressed(key) {
			return true
		}
	}
	return false
}
