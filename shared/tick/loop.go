package tick

import (
	"context"
	"log"
	"sync"
	"time"
)

// StepFunc runs one simulation step for the given tick.
type StepFunc func(t Tick)

// Loop drives a StepFunc at the clock's fixed rate. Steps never overlap, and
// the clock only advances after a step has returned.
type Loop struct {
	name  string
	clock *Clock
	step  StepFunc

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewLoop returns a loop named name (used in log lines).
func NewLoop(name string, clock *Clock, step StepFunc) *Loop {
	return &Loop{
		name:     name,
		clock:    clock,
		step:     step,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks, stepping once per tick until Stop is called or ctx ends.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.clock.Duration())
	defer ticker.Stop()

	log.Printf("[%s] loop started at %d ticks/second", l.name, l.clock.Rate())

	for {
		select {
		case <-ctx.Done():
			log.Printf("[%s] loop stopped: %v", l.name, ctx.Err())
			return
		case <-l.stopChan:
			log.Printf("[%s] loop stopped", l.name)
			return
		case <-ticker.C:
			l.Step()
		}
	}
}

// Step runs a single step outside of Run. Tests and the ebiten viewer, which
// owns its own fixed-rate update loop, call it directly.
func (l *Loop) Step() {
	l.step(l.clock.Current())
	l.clock.Advance()
}

// Stop ends Run. It is safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopChan) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
