package systems

import (
	"testing"

	cfg "github.com/automoto/netfps/config"
)

func pressing(actions ...cfg.ActionID) func(cfg.ActionID) bool {
	set := make(map[cfg.ActionID]bool)
	for _, a := range actions {
		set[a] = true
	}
	return func(a cfg.ActionID) bool { return set[a] }
}

func TestIntentsFromMovement(t *testing.T) {
	in := IntentsFrom(pressing(cfg.ActionForward, cfg.ActionStrafeLeft, cfg.ActionJump))
	if in.MoveY != 1 || in.MoveX != -1 {
		t.Errorf("move = (%v, %v), want (-1, 1)", in.MoveX, in.MoveY)
	}
	if !in.Jump || in.Crouch || in.Walk {
		t.Errorf("buttons = %+v", in)
	}
}

func TestIntentsFromOpposingCancel(t *testing.T) {
	in := IntentsFrom(pressing(cfg.ActionForward, cfg.ActionBack, cfg.ActionLookLeft, cfg.ActionLookRight))
	if in.MoveY != 0 || in.LookX != 0 {
		t.Errorf("opposing actions did not cancel: %+v", in)
	}
}

func TestIntentsFromLookKeys(t *testing.T) {
	in := IntentsFrom(pressing(cfg.ActionLookRight, cfg.ActionLookUp))
	if in.LookX != cfg.Input.KeyLookSpeed || in.LookY != -cfg.Input.KeyLookSpeed {
		t.Errorf("look = (%v, %v)", in.LookX, in.LookY)
	}
}
