package network

import (
	"log"

	"github.com/automoto/netfps/shared/gamemath"
	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/tick"
)

// InputRecord stores an input alongside the pose predicted after applying it.
type InputRecord struct {
	Tick      tick.Tick
	Input     messages.InputFrame
	Predicted gamemath.Pose
}

// Prediction runs the local player ahead of the server and rewinds to the
// server's pose whenever a confirmation arrives. The log holds one record per
// tick after the confirmed tick, with no gaps: a tick without captured input
// is recorded with the empty frame, as the server would simulate it.
type Prediction struct {
	world   gamemath.World
	maxLog  int
	history []InputRecord

	confirmed     gamemath.Pose
	confirmedTick tick.Tick
	predicted     gamemath.Pose
	predictedTick tick.Tick

	desynced bool
}

// NewPrediction starts predicting from a server pose at tick t.
func NewPrediction(world gamemath.World, t tick.Tick, pose gamemath.Pose) *Prediction {
	return &Prediction{
		world:         world,
		maxLog:        netconfig.PredictionLogSize,
		confirmed:     pose,
		confirmedTick: t,
		predicted:     pose,
		predictedTick: t,
	}
}

// Predict applies the input for tick t on top of the current prediction and
// returns the new pose. Ticks at or before the last predicted one are ignored.
func (p *Prediction) Predict(t tick.Tick, in messages.InputFrame) gamemath.Pose {
	if t <= p.predictedTick {
		return p.predicted
	}
	for k := p.predictedTick + 1; k < t; k++ {
		p.push(k, messages.EmptyFrame(uint32(k)))
	}
	p.push(t, in)
	return p.predicted
}

func (p *Prediction) push(t tick.Tick, in messages.InputFrame) {
	p.predicted = gamemath.Step(p.world, p.predicted, in)
	p.predictedTick = t
	p.history = append(p.history, InputRecord{Tick: t, Input: in, Predicted: p.predicted})
	if len(p.history) > p.maxLog {
		drop := len(p.history) - p.maxLog
		p.history = append(p.history[:0], p.history[drop:]...)
		if !p.desynced {
			log.Printf("[prediction] replay log full at tick %d, oldest inputs dropped", t)
		}
		p.desynced = true
	}
}

// Reconcile rewinds to the server pose at tick t and replays every logged
// input after it. It returns how far the current prediction moved. A
// confirmation no newer than the last one is ignored.
func (p *Prediction) Reconcile(t tick.Tick, server gamemath.Pose) float64 {
	if t <= p.confirmedTick {
		return 0
	}
	before := p.predicted.Translation

	p.confirmed = server
	p.confirmedTick = t

	if t >= p.predictedTick {
		p.history = p.history[:0]
		p.predicted = server
		p.predictedTick = t
		p.desynced = false
		return before.Sub(server.Translation).Len()
	}

	keep := p.history[:0]
	for _, r := range p.history {
		if r.Tick > t {
			keep = append(keep, r)
		}
	}
	p.history = keep
	p.desynced = len(p.history) == 0 || p.history[0].Tick != t+1

	pose := server
	next := 0
	for k := t + 1; k <= p.predictedTick; k++ {
		in := messages.EmptyFrame(uint32(k))
		if next < len(p.history) && p.history[next].Tick == k {
			in = p.history[next].Input
			pose = gamemath.Step(p.world, pose, in)
			p.history[next].Predicted = pose
			next++
			continue
		}
		pose = gamemath.Step(p.world, pose, in)
	}
	p.predicted = pose

	correction := before.Sub(pose.Translation).Len()
	if correction > netconfig.SnapThreshold {
		log.Printf("[prediction] snapped %.3f at tick %d", correction, t)
	}
	return correction
}

// Rebase drops the log and continues from the confirmed pose. The session
// calls it when the client clock is resynchronized; the next Predict fills
// the skipped ticks with empty input.
func (p *Prediction) Rebase() {
	p.history = p.history[:0]
	p.predicted = p.confirmed
	p.predictedTick = p.confirmedTick
	p.desynced = false
}

// PredictionError returns the distance between what was predicted for tick t
// and the server pose for it, or false when t is no longer logged.
func (p *Prediction) PredictionError(t tick.Tick, server gamemath.Pose) (float64, bool) {
	for _, r := range p.history {
		if r.Tick == t {
			return r.Predicted.Translation.Sub(server.Translation).Len(), true
		}
	}
	return 0, false
}

// Pose returns the current predicted pose.
func (p *Prediction) Pose() gamemath.Pose {
	return p.predicted
}

// Tick returns the tick of the current predicted pose.
func (p *Prediction) Tick() tick.Tick {
	return p.predictedTick
}

// Confirmed returns the last server pose and its tick.
func (p *Prediction) Confirmed() (tick.Tick, gamemath.Pose) {
	return p.confirmedTick, p.confirmed
}

// Desynced reports whether inputs were lost from the log since the last
// clean reconciliation.
func (p *Prediction) Desynced() bool {
	return p.desynced
}

// Len returns the number of logged inputs.
func (p *Prediction) Len() int {
	return len(p.history)
}
