package messages

// InputFrame is one tick's worth of player intent. It is a value type and is
// never mutated after capture.
type InputFrame struct {
	Tick uint32

	// Run axes: MoveX strafes right, MoveY moves forward. Each in [-1, 1].
	MoveX, MoveY float64
	// Look axes, in radians for this tick.
	LookX, LookY float64

	Jump   bool
	Crouch bool
	Walk   bool
}

// EmptyFrame is the all-false frame used when no input exists for a tick.
func EmptyFrame(tick uint32) InputFrame {
	return InputFrame{Tick: tick}
}

// IsEmpty reports whether the frame carries no intent at all.
func (f InputFrame) IsEmpty() bool {
	return f.MoveX == 0 && f.MoveY == 0 && f.LookX == 0 && f.LookY == 0 &&
		!f.Jump && !f.Crouch && !f.Walk
}

// InputMessage is sent from client to server every tick. It carries the
// newest unacknowledged frames, oldest first, so a dropped message does not
// lose input.
type InputMessage struct {
	// Epoch changes every time the client moves its clock. Frames of an
	// older epoch than the server has seen are discarded.
	Epoch  uint32
	Frames []InputFrame
}

// InputStatus is the server's view of one client's input stream, echoed on
// that client's own updates.
type InputStatus struct {
	// Epoch is the newest input epoch received.
	Epoch uint32
	// Ack is the newest input tick received in Epoch.
	Ack uint32
	// Lead is how many ticks the newest frame of the last input message was
	// ahead of the server tick when it arrived. Negative means late.
	Lead int32
	// Reported is false until a message of Epoch has arrived.
	Reported bool
}
