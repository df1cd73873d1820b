package connectx

import (
	"errors"
	"fmt"

	"github.com/frengor/cadregabot/engine"
)

var (
	ErrIllegalColumn = errors.New("connectx: illegal column")
	ErrGameOver      = errors.New("connectx: game over")
	ErrNoMoves       = errors.New("connectx: no moves to undo")
)

type GameState int

const (
	Open GameState = iota
	WinP1
	WinP2
	Draw
)

func (s GameState) String() string {
	switch s {
	case WinP1:
		return "win_p1"
	case WinP2:
		return "win_p2"
	case Draw:
		return "draw"
	default:
		return "open"
	}
}

func winFor(player engine.CellState) GameState {
	if player == engine.P1 {
		return WinP1
	}
	return WinP2
}

var directions = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// Board is the authoritative game: it applies gravity, alternates turns and
// decides the outcome. P1 always moves first.
type Board struct {
	rows    int
	cols    int
	connect int
	cells   []engine.CellState
	heights []int
	history []engine.Cell
	state   GameState
	line    []engine.Cell
}

func NewBoard(rows, cols, connect int) (*Board, error) {
	if rows <= 0 || cols <= 0 || connect <= 0 {
		return nil, fmt.Errorf("connectx: invalid board %dx%d connect %d", rows, cols, connect)
	}
	return &Board{
		rows:    rows,
		cols:    cols,
		connect: connect,
		cells:   make([]engine.CellState, rows*cols),
		heights: make([]int, cols),
	}, nil
}

func (b *Board) Rows() int    { return b.rows }
func (b *Board) Cols() int    { return b.cols }
func (b *Board) Connect() int { return b.connect }

func (b *Board) State() GameState {
	return b.state
}

func (b *Board) CellState(row, col int) engine.CellState {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return engine.Free
	}
	return b.cells[row*b.cols+col]
}

func (b *Board) CurrentPlayer() engine.CellState {
	if len(b.history)%2 == 0 {
		return engine.P1
	}
	return engine.P2
}

// PlayerAt returns who played the i-th move of the game.
func PlayerAt(i int) engine.CellState {
	if i%2 == 0 {
		return engine.P1
	}
	return engine.P2
}

// AvailableColumns lists the open columns in ascending order, or nothing once
// the game is over.
func (b *Board) AvailableColumns() []int {
	if b.state != Open {
		return nil
	}
	cols := make([]int, 0, b.cols)
	for col, h := range b.heights {
		if h < b.rows {
			cols = append(cols, col)
		}
	}
	return cols
}

func (b *Board) LastMove() (engine.Cell, bool) {
	if len(b.history) == 0 {
		return engine.Cell{}, false
	}
	return b.history[len(b.history)-1], true
}

// History returns a copy of every move played, oldest first.
func (b *Board) History() []engine.Cell {
	out := make([]engine.Cell, len(b.history))
	copy(out, b.history)
	return out
}

func (b *Board) MoveCount() int {
	return len(b.history)
}

// WinningLine returns the aligned cells of a won game.
func (b *Board) WinningLine() []engine.Cell {
	out := make([]engine.Cell, len(b.line))
	copy(out, b.line)
	return out
}

// MarkColumn drops the current player's piece in col and returns the new
// game state.
func (b *Board) MarkColumn(col int) (GameState, error) {
	if b.state != Open {
		return b.state, ErrGameOver
	}
	if col < 0 || col >= b.cols || b.heights[col] >= b.rows {
		return b.state, fmt.Errorf("%w: %d", ErrIllegalColumn, col)
	}
	player := b.CurrentPlayer()
	c := engine.Cell{Row: b.heights[col], Col: col}
	b.cells[c.Row*b.cols+c.Col] = player
	b.heights[col]++
	b.history = append(b.history, c)

	if line := b.alignment(c, player); line != nil {
		b.state = winFor(player)
		b.line = line
	} else if len(b.history) == b.rows*b.cols {
		b.state = Draw
	}
	return b.state, nil
}

// UnmarkColumn takes back the last move and reopens the game.
func (b *Board) UnmarkColumn() error {
	if len(b.history) == 0 {
		return ErrNoMoves
	}
	c := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]
	b.cells[c.Row*b.cols+c.Col] = engine.Free
	b.heights[c.Col]--
	b.state = Open
	b.line = nil
	return nil
}

func (b *Board) alignment(c engine.Cell, player engine.CellState) []engine.Cell {
	for _, d := range directions {
		line := []engine.Cell{c}
		for _, sign := range [2]int{1, -1} {
			row, col := c.Row+sign*d[0], c.Col+sign*d[1]
			for b.CellState(row, col) == player {
				line = append(line, engine.Cell{Row: row, Col: col})
				row += sign * d[0]
				col += sign * d[1]
			}
		}
		if len(line) >= b.connect {
			return line
		}
	}
	return nil
}

func (b *Board) Copy() *Board {
	cp := *b
	cp.cells = append([]engine.CellState(nil), b.cells...)
	cp.heights = append([]int(nil), b.heights...)
	cp.history = append([]engine.Cell(nil), b.history...)
	cp.line = append([]engine.Cell(nil), b.line...)
	return &cp
}

// Snapshot converts the position into an engine board.
func (b *Board) Snapshot() *engine.Board {
	out := engine.NewBoard(b.rows, b.cols)
	for _, c := range b.history {
		out.Set(c.Row, c.Col, b.CellState(c.Row, c.Col))
	}
	return out
}

func (b *Board) String() string {
	return engine.RenderTable(b.Snapshot(), nil)
}
