package network

import (
	"sort"

	"github.com/automoto/netfps/shared/netcomponents"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/tick"
	"github.com/yohamta/donburi"
)

type snapshot struct {
	tick      tick.Tick
	transform netcomponents.TransformData
}

// SnapshotBuffer keeps the recent server transforms of one remote entity in
// tick order.
type SnapshotBuffer struct {
	snaps []snapshot
	size  int
}

func NewSnapshotBuffer(size int) *SnapshotBuffer {
	if size < 2 {
		size = netconfig.InterpolationBufferSize
	}
	return &SnapshotBuffer{size: size}
}

// Push inserts a transform for tick t. A second snapshot for the same tick
// replaces the first; the oldest snapshot is evicted when the buffer is full.
func (b *SnapshotBuffer) Push(t tick.Tick, tr netcomponents.TransformData) {
	i := sort.Search(len(b.snaps), func(i int) bool { return b.snaps[i].tick >= t })
	if i < len(b.snaps) && b.snaps[i].tick == t {
		b.snaps[i].transform = tr
		return
	}
	b.snaps = append(b.snaps, snapshot{})
	copy(b.snaps[i+1:], b.snaps[i:])
	b.snaps[i] = snapshot{tick: t, transform: tr}
	if len(b.snaps) > b.size {
		b.snaps = append(b.snaps[:0], b.snaps[len(b.snaps)-b.size:]...)
	}
}

// Sample returns the transform at render time rt, in ticks. Between two
// snapshots it blends them; before the first or after the last it holds the
// nearest one and never extrapolates.
func (b *SnapshotBuffer) Sample(rt float64) (netcomponents.TransformData, bool) {
	if len(b.snaps) == 0 {
		return netcomponents.TransformData{}, false
	}
	first, last := b.snaps[0], b.snaps[len(b.snaps)-1]
	if len(b.snaps) == 1 || rt <= float64(first.tick) {
		return first.transform, true
	}
	if rt >= float64(last.tick) {
		return last.transform, true
	}
	i := sort.Search(len(b.snaps), func(i int) bool { return float64(b.snaps[i].tick) > rt })
	from, to := b.snaps[i-1], b.snaps[i]
	alpha := (rt - float64(from.tick)) / float64(to.tick-from.tick)
	return netcomponents.LerpTransform(from.transform, to.transform, alpha), true
}

// Prune drops snapshots that can no longer be sampled at or after rt, always
// keeping the one just before it.
func (b *SnapshotBuffer) Prune(rt float64) {
	i := sort.Search(len(b.snaps), func(i int) bool { return float64(b.snaps[i].tick) > rt })
	if i > 1 {
		b.snaps = append(b.snaps[:0], b.snaps[i-1:]...)
	}
}

// Len returns the number of buffered snapshots.
func (b *SnapshotBuffer) Len() int {
	return len(b.snaps)
}

// Interpolator renders remote entities a fixed number of ticks behind the
// newest server tick it has seen. Render time only moves forward.
type Interpolator struct {
	delay   float64
	buffers map[donburi.Entity]*SnapshotBuffer

	newest     tick.Tick
	seen       bool
	renderTime float64
}

func NewInterpolator(delayTicks int) *Interpolator {
	if delayTicks < 0 {
		delayTicks = netconfig.InterpolationDelayTicks
	}
	return &Interpolator{
		delay:   float64(delayTicks),
		buffers: make(map[donburi.Entity]*SnapshotBuffer),
	}
}

// Push records the server transform of e at tick t.
func (ip *Interpolator) Push(e donburi.Entity, t tick.Tick, tr netcomponents.TransformData) {
	b, ok := ip.buffers[e]
	if !ok {
		b = NewSnapshotBuffer(netconfig.InterpolationBufferSize)
		ip.buffers[e] = b
	}
	b.Push(t, tr)
	if !ip.seen {
		ip.newest = t
		ip.seen = true
		ip.renderTime = float64(t) - ip.delay
		return
	}
	if t > ip.newest {
		ip.newest = t
	}
}

// Advance moves render time forward by dt ticks, capped at the delayed
// newest tick. If render time has fallen more than a full delay behind, it
// jumps forward to the target.
func (ip *Interpolator) Advance(dt float64) float64 {
	if !ip.seen {
		return ip.renderTime
	}
	target := float64(ip.newest) - ip.delay
	next := ip.renderTime + dt
	switch {
	case next > target:
		next = max(ip.renderTime, target)
	case next < target-ip.delay:
		next = target
	}
	ip.renderTime = next
	for _, b := range ip.buffers {
		b.Prune(ip.renderTime)
	}
	return ip.renderTime
}

// RenderTime returns the current render time in ticks.
func (ip *Interpolator) RenderTime() float64 {
	return ip.renderTime
}

// Sample returns the interpolated transform of e at the current render time.
// The second result is false when e has no snapshots.
func (ip *Interpolator) Sample(e donburi.Entity) (netcomponents.TransformData, bool) {
	b, ok := ip.buffers[e]
	if !ok {
		return netcomponents.TransformData{}, false
	}
	return b.Sample(ip.renderTime)
}

// Remove forgets e, as after a despawn.
func (ip *Interpolator) Remove(e donburi.Entity) {
	delete(ip.buffers, e)
}

// Reset forgets every entity and the render clock.
func (ip *Interpolator) Reset() {
	clear(ip.buffers)
	ip.seen = false
	ip.newest = 0
	ip.renderTime = 0
}
