package engine

import (
	"math"
	"time"
)

const (
	DefaultDepth = 6
	MinDepth     = 3
)

// OptimizedDepth estimates how deep a search can go before visiting target
// nodes. It assumes roughly the square root of the remaining options is
// explored per level and keeps two levels of margin for that optimism.
func OptimizedDepth(startDepth int, freeCells, target int64) int {
	depth := startDepth
	visited := isqrt(freeCells)
	for i := 1; i < startDepth && freeCells > 0; i++ {
		freeCells--
		next, ok := mulNonNegative(visited, isqrt(freeCells))
		if !ok {
			return withMargin(startDepth, depth)
		}
		visited = next
	}
	for visited < target {
		freeCells--
		if freeCells <= 0 {
			return withMargin(startDepth, depth)
		}
		next, ok := mulNonNegative(visited, isqrt(freeCells))
		if !ok {
			return withMargin(startDepth, depth)
		}
		visited = next
		depth++
	}
	return withMargin(startDepth, depth)
}

func withMargin(startDepth, depth int) int {
	return max(startDepth, depth-2)
}

func isqrt(n int64) int64 {
	if n <= 0 {
		return 0
	}
	r := int64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

func mulNonNegative(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64, false
	}
	return a * b, true
}

func addNonNegative(a, b int64) (int64, bool) {
	if a > math.MaxInt64-b {
		return math.MaxInt64, false
	}
	return a + b, true
}

// nextDepth folds the previous turn's counters into the running average and
// picks this turn's depth limit. Elapsed times are compared in microseconds.
func (s *State) nextDepth(columns int, budget time.Duration) int {
	if s.NodeCounter == 0 {
		s.Depth = DefaultDepth
		return s.Depth
	}
	if s.LastElapsed < budget {
		switch {
		case s.LastElapsed < 0:
			s.NodeCounter = math.MaxInt64
		case s.AlphaBetaStarted:
			elapsed := s.LastElapsed.Microseconds()
			if elapsed == 0 {
				s.NodeCounter = math.MaxInt64
			} else if scaled, ok := mulNonNegative(budget.Microseconds(), s.NodeCounter); ok {
				s.NodeCounter = scaled / elapsed
			} else {
				s.NodeCounter = math.MaxInt64
			}
		}
	}
	if s.AlphaBetaStarted {
		if s.NodesAverage == 0 {
			s.NodesAverage = s.NodeCounter
		} else if sum, ok := addNonNegative(s.NodeCounter, s.NodesAverage); ok {
			s.NodesAverage = sum / 2
		} else {
			s.NodesAverage = math.MaxInt64
		}
	}
	s.NodeCounter = 0
	s.AlphaBetaStarted = false
	s.Depth = OptimizedDepth(MinDepth, int64(columns), s.NodesAverage)
	return s.Depth
}
