package engine

// Rank orders the mover's options on the current board. A move that wins on
// the spot, or the one cell that stops the opponent from winning, is returned
// alone with the Win or Block sentinel. Otherwise every free cell is scored as
// the sum of its value for the mover and for the opponent, best first.
func (e *Evaluator) Rank(free *FreeCells, mover CellState) []EvaluatedCell {
	opponent := mover.Opponent()
	cells := make([]EvaluatedCell, 0, free.Len())
	for col, row := range free.top {
		if row < 0 {
			continue
		}
		c := Cell{Row: row, Col: col}
		eval := e.Evaluate(c, mover)
		if eval == Win {
			return []EvaluatedCell{{Cell: c, Value: Win}}
		}
		evalOpponent := e.Evaluate(c, opponent)
		if evalOpponent == Win {
			// Earlier cells already failed the full win check.
			for next := col + 1; next < len(free.top); next++ {
				if free.top[next] < 0 {
					continue
				}
				other := Cell{Row: free.top[next], Col: next}
				if e.IsWinningCell(other, mover) {
					return []EvaluatedCell{{Cell: other, Value: Win}}
				}
			}
			return []EvaluatedCell{{Cell: c, Value: Block}}
		}
		cells = append(cells, EvaluatedCell{Cell: c, Value: eval + evalOpponent})
	}
	SortDescending(cells)
	return cells
}
