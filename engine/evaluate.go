package engine

// axis is the forward step of an alignment direction; the backward step is its negation.
type axis struct {
	dr int
	dc int
}

var axes = [4]axis{
	{dr: 1, dc: 0},  // vertical
	{dr: 0, dc: 1},  // horizontal
	{dr: 1, dc: 1},  // main diagonal
	{dr: -1, dc: 1}, // anti-diagonal
}

// Evaluator scores hypothetical moves on a board it reads but never writes.
type Evaluator struct {
	board   *Board
	connect int
	enabled [4]bool
}

func NewEvaluator(board *Board, connect int) *Evaluator {
	vertical := board.Rows() >= connect
	horizontal := board.Cols() >= connect
	diagonals := vertical && horizontal
	return &Evaluator{
		board:   board,
		connect: connect,
		enabled: [4]bool{vertical, horizontal, diagonals, diagonals},
	}
}

// Evaluate returns the heuristic value of player moving on c, or Win when
// the move completes an alignment.
func (e *Evaluator) Evaluate(c Cell, player CellState) int32 {
	var total int32
	for i, a := range axes {
		if !e.enabled[i] {
			continue
		}
		back, fwd, run := e.window(c, player, a)
		if run >= e.connect {
			return Win
		}
		total = addCapped(total, e.score(c, player, a, back, fwd))
	}
	return total
}

// SimpleEvaluate is Evaluate without the win check.
func (e *Evaluator) SimpleEvaluate(c Cell, player CellState) int32 {
	var total int32
	for i, a := range axes {
		if !e.enabled[i] {
			continue
		}
		back, fwd, _ := e.window(c, player, a)
		total = addCapped(total, e.score(c, player, a, back, fwd))
	}
	return total
}

func (e *Evaluator) IsWinningCell(c Cell, player CellState) bool {
	for i, a := range axes {
		if !e.enabled[i] {
			continue
		}
		run := 1 + e.contiguous(c, player, a.dr, a.dc) + e.contiguous(c, player, -a.dr, -a.dc)
		if run >= e.connect {
			return true
		}
	}
	return false
}

// BoardScore is the static value of the position for our player: every free
// cell, including the unreachable ones stacked above each droppable cell, adds
// our simple evaluation and subtracts the opponent's.
func (e *Evaluator) BoardScore(free *FreeCells, our CellState) int32 {
	opponent := our.Opponent()
	var sum int64
	for col, row := range free.top {
		if row < 0 {
			continue
		}
		for r := row; r < e.board.Rows(); r++ {
			c := Cell{Row: r, Col: col}
			sum += int64(e.SimpleEvaluate(c, our)) - int64(e.SimpleEvaluate(c, opponent))
		}
	}
	return clampFinite(sum)
}

// window walks up to connect-1 cells each way over player or free cells and
// stops at the opponent or the edge. run counts the player's pieces touching
// c on both sides, c included.
func (e *Evaluator) window(c Cell, player CellState, a axis) (back, fwd, run int) {
	limit := e.connect - 1
	run = 1

	touching := true
	row, col := c.Row-a.dr, c.Col-a.dc
	for back < limit && e.board.InBounds(row, col) {
		state := e.board.At(row, col)
		if state == player {
			if touching {
				run++
			}
		} else if state == Free {
			touching = false
		} else {
			break
		}
		back++
		row -= a.dr
		col -= a.dc
	}

	touching = true
	row, col = c.Row+a.dr, c.Col+a.dc
	for fwd < limit && e.board.InBounds(row, col) {
		state := e.board.At(row, col)
		if state == player {
			if touching {
				run++
			}
		} else if state == Free {
			touching = false
		} else {
			break
		}
		fwd++
		row += a.dr
		col += a.dc
	}
	return back, fwd, run
}

// score weights the player's pieces in the window: the weight grows by one
// per step from the window ends toward c and is capped at the number of
// winning sub-windows the window holds.
func (e *Evaluator) score(c Cell, player CellState, a axis, back, fwd int) int32 {
	n := back + fwd + 1
	if n < e.connect {
		return 0
	}
	maxN := n - e.connect + 1
	eval := maxN

	weight := 0
	for k := back; k > 0; k-- {
		if weight < maxN {
			weight++
		}
		if e.board.At(c.Row-k*a.dr, c.Col-k*a.dc) == player {
			eval += weight
		}
	}
	weight = 0
	for k := fwd; k > 0; k-- {
		if weight < maxN {
			weight++
		}
		if e.board.At(c.Row+k*a.dr, c.Col+k*a.dc) == player {
			eval += weight
		}
	}
	return clampFinite(int64(eval))
}

func (e *Evaluator) contiguous(c Cell, player CellState, dr, dc int) int {
	count := 0
	row, col := c.Row+dr, c.Col+dc
	for count < e.connect-1 && e.board.InBounds(row, col) && e.board.At(row, col) == player {
		count++
		row += dr
		col += dc
	}
	return count
}
