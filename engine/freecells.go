package engine

// FreeCells tracks the droppable cell of every active column. Iteration is
// always in ascending column order.
type FreeCells struct {
	rows int
	top  []int // droppable row per column, -1 when the column is inactive
	n    int
}

// NewFreeCells builds the set for the given legal columns of b.
func NewFreeCells(b *Board, columns []int) (*FreeCells, error) {
	f := &FreeCells{rows: b.Rows(), top: make([]int, b.Cols())}
	for i := range f.top {
		f.top[i] = -1
	}
	for _, col := range columns {
		if col < 0 || col >= b.Cols() {
			return nil, invariantf("legal column %d outside board of %d columns", col, b.Cols())
		}
		if f.top[col] >= 0 {
			continue
		}
		row := b.DropRow(col)
		if row < 0 {
			return nil, invariantf("legal column %d is full", col)
		}
		f.top[col] = row
		f.n++
	}
	return f, nil
}

func (f *FreeCells) Len() int {
	return f.n
}

func (f *FreeCells) Contains(c Cell) bool {
	return c.Col >= 0 && c.Col < len(f.top) && f.top[c.Col] == c.Row && c.Row >= 0
}

// Remove plays c: the cell above it becomes droppable, or the column closes.
func (f *FreeCells) Remove(c Cell) {
	if c.Row+1 < f.rows {
		f.top[c.Col] = c.Row + 1
		return
	}
	f.top[c.Col] = -1
	f.n--
}

// Restore undoes Remove for the same cell.
func (f *FreeCells) Restore(c Cell) {
	if f.top[c.Col] < 0 {
		f.n++
	}
	f.top[c.Col] = c.Row
}

func (f *FreeCells) Cells() []Cell {
	cells := make([]Cell, 0, f.n)
	for col, row := range f.top {
		if row >= 0 {
			cells = append(cells, Cell{Row: row, Col: col})
		}
	}
	return cells
}

func (f *FreeCells) Clone() *FreeCells {
	clone := &FreeCells{rows: f.rows, n: f.n, top: make([]int, len(f.top))}
	copy(clone.top, f.top)
	return clone
}

func (f *FreeCells) Equal(other *FreeCells) bool {
	if f.rows != other.rows || f.n != other.n || len(f.top) != len(other.top) {
		return false
	}
	for i := range f.top {
		if f.top[i] != other.top[i] {
			return false
		}
	}
	return true
}
