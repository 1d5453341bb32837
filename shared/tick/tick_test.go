package tick

import (
	"context"
	"testing"
	"time"
)

func TestClockAdvancesOnePerStep(t *testing.T) {
	clock := NewClock(64)
	var seen []Tick
	loop := NewLoop("test", clock, func(t Tick) { seen = append(seen, t) })

	for i := 0; i < 5; i++ {
		loop.Step()
	}

	if got := clock.Current(); got != 5 {
		t.Fatalf("Current() = %d, want 5", got)
	}
	for i, tk := range seen {
		if tk != Tick(i) {
			t.Fatalf("step %d saw tick %d", i, tk)
		}
	}
}

func TestClockDoesNotAdvanceMidStep(t *testing.T) {
	clock := NewClock(64)
	loop := NewLoop("test", clock, func(tk Tick) {
		if clock.Current() != tk {
			t.Fatalf("clock moved during step: %d != %d", clock.Current(), tk)
		}
	})
	loop.Step()
	loop.Step()
}

func TestClockDuration(t *testing.T) {
	clock := NewClock(64)
	if got, want := clock.Duration(), time.Second/64; got != want {
		t.Fatalf("Duration() = %v, want %v", got, want)
	}
	if NewClock(0).Rate() != 1 {
		t.Fatalf("rate should clamp to 1")
	}
}

func TestSince(t *testing.T) {
	tests := []struct {
		from, to Tick
		want     uint32
	}{
		{0, 10, 10},
		{10, 10, 0},
		{12, 10, 0},
	}
	for _, tt := range tests {
		if got := Since(tt.from, tt.to); got != tt.want {
			t.Errorf("Since(%d, %d) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestLoopRunStops(t *testing.T) {
	clock := NewClock(1000)
	steps := make(chan Tick, 1024)
	loop := NewLoop("test", clock, func(tk Tick) {
		select {
		case steps <- tk:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	select {
	case <-steps:
	case <-time.After(2 * time.Second):
		t.Fatal("loop never stepped")
	}

	loop.Stop()
	loop.Stop()
	select {
	case <-loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}
