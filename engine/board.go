package engine

type Board struct {
	rows  int
	cols  int
	cells []CellState
}

func NewBoard(rows, cols int) *Board {
	b := &Board{}
	b.Resize(rows, cols)
	return b
}

func (b *Board) Resize(rows, cols int) {
	b.rows = rows
	b.cols = cols
	b.cells = make([]CellState, rows*cols)
}

func (b *Board) Reset() {
	for i := range b.cells {
		b.cells[i] = Free
	}
}

func (b *Board) Rows() int {
	return b.rows
}

func (b *Board) Cols() int {
	return b.cols
}

func (b *Board) At(row, col int) CellState {
	return b.cells[b.index(row, col)]
}

func (b *Board) Set(row, col int, value CellState) {
	b.cells[b.index(row, col)] = value
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < b.rows && col < b.cols
}

func (b *Board) IsFree(row, col int) bool {
	return b.InBounds(row, col) && b.At(row, col) == Free
}

func (b *Board) CountFree() int {
	count := 0
	for _, cell := range b.cells {
		if cell == Free {
			count++
		}
	}
	return count
}

// DropRow returns the row a piece dropped in col lands on, or -1 if the column is full.
func (b *Board) DropRow(col int) int {
	for row := b.rows - 1; row >= 0; row-- {
		if b.At(row, col) != Free {
			if row+1 >= b.rows {
				return -1
			}
			return row + 1
		}
	}
	return 0
}

func (b *Board) CopyFrom(src *Board) {
	if b.rows != src.rows || b.cols != src.cols {
		b.Resize(src.rows, src.cols)
	}
	copy(b.cells, src.cells)
}

func (b *Board) Clone() *Board {
	clone := &Board{rows: b.rows, cols: b.cols}
	clone.cells = make([]CellState, len(b.cells))
	copy(clone.cells, b.cells)
	return clone
}

func (b *Board) Equal(other *Board) bool {
	if b.rows != other.rows || b.cols != other.cols {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

func (b *Board) index(row, col int) int {
	return row*b.cols + col
}
