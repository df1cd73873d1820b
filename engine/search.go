package engine

import (
	"math"
	"time"
)

// Progress describes the best root move found so far in a turn.
type Progress struct {
	Depth   int           `json:"depth"`
	Nodes   int64         `json:"nodes"`
	Best    Cell          `json:"best"`
	Score   int32         `json:"score"`
	Elapsed time.Duration `json:"elapsed"`
	Final   bool          `json:"final"`
}

type searcher struct {
	tree     *Tree
	eval     *Evaluator
	board    *Board
	free     *FreeCells
	our      CellState
	depth    int
	start    time.Time
	budget   time.Duration
	now      func() time.Time
	state    *State
	progress func(Progress)
}

func (s *searcher) checkTime() error {
	if s.now().Sub(s.start) >= s.budget {
		return errSearchTimeout
	}
	return nil
}

func (s *searcher) apply(c Cell, player CellState) {
	s.board.Set(c.Row, c.Col, player)
	s.free.Remove(c)
}

func (s *searcher) undo(c Cell) {
	s.board.Set(c.Row, c.Col, Free)
	s.free.Restore(c)
}

// searchRoot runs the maximizing pass over the root candidates and returns the
// best child found. On timeout the best child among the completed ones is
// returned together with the error.
func (s *searcher) searchRoot(root NodeID) (NodeID, error) {
	if err := s.checkTime(); err != nil {
		return NoNode, err
	}
	s.state.NodeCounter++

	candidates := s.tree.Candidates(root)
	if len(candidates) <= 1 || s.depth == 0 {
		s.state.AlphaBetaStarted = false
		return NoNode, nil
	}
	s.state.AlphaBetaStarted = true

	alpha, beta := int32(-math.MaxInt32), int32(math.MaxInt32)
	value := int32(-math.MaxInt32)
	best, bestValue := NoNode, value
	for i := range candidates {
		v, child, err := s.visit(root, i, s.our, alpha, beta, s.depth)
		if err != nil {
			return best, err
		}
		value = max(value, v)
		alpha = max(alpha, value)
		if value > bestValue {
			best, bestValue = child, value
			s.report(candidates[i].Cell, value)
		}
		if beta <= alpha {
			break
		}
	}
	return best, nil
}

func (s *searcher) search(id NodeID, alpha, beta int32, depth int, mover CellState) (int32, error) {
	if err := s.checkTime(); err != nil {
		return 0, err
	}
	s.state.NodeCounter++

	candidates := s.tree.Candidates(id)
	switch {
	case len(candidates) == 0:
		return 0, nil
	case len(candidates) == 1 && candidates[0].IsWin():
		plies := int32(s.depth - depth)
		if mover == s.our {
			return Win - plies, nil
		}
		return -Win + plies, nil
	case depth == 0:
		return s.eval.BoardScore(s.free, s.our), nil
	}

	if mover == s.our {
		value := int32(-math.MaxInt32)
		for i := range candidates {
			v, _, err := s.visit(id, i, mover, alpha, beta, depth)
			if err != nil {
				return 0, err
			}
			value = max(value, v)
			alpha = max(alpha, value)
			if beta <= alpha {
				break
			}
		}
		return value, nil
	}

	value := int32(math.MaxInt32)
	for i := range candidates {
		v, _, err := s.visit(id, i, mover, alpha, beta, depth)
		if err != nil {
			return 0, err
		}
		value = min(value, v)
		beta = min(beta, value)
		if beta <= alpha {
			break
		}
	}
	return value, nil
}

// visit plays candidate slot of parent for mover, searches the resulting
// position and takes the move back on every exit path.
func (s *searcher) visit(parent NodeID, slot int, mover CellState, alpha, beta int32, depth int) (int32, NodeID, error) {
	c := s.tree.Candidates(parent)[slot].Cell
	s.apply(c, mover)
	defer s.undo(c)

	next := mover.Opponent()
	child := s.tree.Child(parent, slot)
	if child == NoNode {
		var err error
		child, err = s.tree.AddChild(parent, slot, s.eval.Rank(s.free, next))
		if err != nil {
			return 0, NoNode, err
		}
	}
	v, err := s.search(child, alpha, beta, depth-1, next)
	return v, child, err
}

func (s *searcher) report(best Cell, score int32) {
	if s.progress == nil {
		return
	}
	s.progress(Progress{
		Depth:   s.depth,
		Nodes:   s.state.NodeCounter,
		Best:    best,
		Score:   score,
		Elapsed: s.now().Sub(s.start),
	})
}
