package engine

import (
	"math"
	"testing"
	"time"
)

func TestOptimizedDepthWithoutFreeCells(t *testing.T) {
	for depth := 1; depth <= 10; depth++ {
		for _, target := range []int64{0, 1, 1000, math.MaxInt64} {
			if got := OptimizedDepth(depth, 0, target); got != depth {
				t.Fatalf("expected %d for no free cells (target %d), got %d", depth, target, got)
			}
		}
	}
}

func TestOptimizedDepthNeverBelowStart(t *testing.T) {
	for free := int64(0); free <= 64; free++ {
		for _, target := range []int64{0, 1, 10, 1 << 20, math.MaxInt64} {
			if got := OptimizedDepth(MinDepth, free, target); got < MinDepth {
				t.Fatalf("expected at least %d for free=%d target=%d, got %d", MinDepth, free, target, got)
			}
		}
	}
}

func TestOptimizedDepthValues(t *testing.T) {
	cases := []struct {
		free   int64
		target int64
		want   int
	}{
		{free: 7, target: 8, want: 3},
		{free: 7, target: math.MaxInt64, want: 5},
		{free: 4, target: math.MaxInt64, want: 3},
		{free: 42, target: 1 << 20, want: 6},
	}
	for _, tc := range cases {
		if got := OptimizedDepth(MinDepth, tc.free, tc.target); got != tc.want {
			t.Fatalf("expected %d for free=%d target=%d, got %d", tc.want, tc.free, tc.target, got)
		}
	}
}

func TestOptimizedDepthGrowsWithTarget(t *testing.T) {
	prev := OptimizedDepth(MinDepth, 42, 1)
	for target := int64(2); target < 1<<40; target *= 4 {
		got := OptimizedDepth(MinDepth, 42, target)
		if got < prev {
			t.Fatalf("expected depth to be non-decreasing in target, %d then %d at %d", prev, got, target)
		}
		prev = got
	}
}

func TestNextDepthFirstTurnUsesDefault(t *testing.T) {
	s := NewState()
	if got := s.nextDepth(7, time.Second); got != DefaultDepth {
		t.Fatalf("expected default depth %d, got %d", DefaultDepth, got)
	}
}

func TestNextDepthRescalesAndAverages(t *testing.T) {
	s := State{NodeCounter: 1000, AlphaBetaStarted: true, LastElapsed: 100 * time.Millisecond}
	s.nextDepth(7, 200*time.Millisecond)
	if s.NodesAverage != 2000 {
		t.Fatalf("expected rescaled average 2000, got %d", s.NodesAverage)
	}
	if s.NodeCounter != 0 || s.AlphaBetaStarted {
		t.Fatalf("expected counters reset, got %+v", s)
	}

	s.NodeCounter = 1000
	s.AlphaBetaStarted = true
	s.LastElapsed = 300 * time.Millisecond
	s.nextDepth(7, 200*time.Millisecond)
	if s.NodesAverage != 1500 {
		t.Fatalf("expected averaged 1500 without rescale, got %d", s.NodesAverage)
	}
}

func TestNextDepthKeepsAverageWhenSearchSkipped(t *testing.T) {
	s := State{NodeCounter: 1, NodesAverage: 4242, LastElapsed: time.Millisecond}
	depth := s.nextDepth(7, time.Second)
	if s.NodesAverage != 4242 {
		t.Fatalf("expected average untouched, got %d", s.NodesAverage)
	}
	if depth != OptimizedDepth(MinDepth, 7, 4242) {
		t.Fatalf("expected depth from the kept average, got %d", depth)
	}
}

func TestNextDepthSaturates(t *testing.T) {
	s := State{NodeCounter: 10, NodesAverage: math.MaxInt64, AlphaBetaStarted: true, LastElapsed: 0}
	s.nextDepth(7, time.Second)
	if s.NodesAverage != math.MaxInt64 {
		t.Fatalf("expected saturated average, got %d", s.NodesAverage)
	}

	s = State{NodeCounter: math.MaxInt64 / 2, AlphaBetaStarted: true, LastElapsed: time.Microsecond}
	s.nextDepth(7, time.Hour)
	if s.NodesAverage != math.MaxInt64 {
		t.Fatalf("expected overflowing rescale to saturate, got %d", s.NodesAverage)
	}
}
