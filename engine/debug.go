package engine

import (
	"strconv"
	"strings"
)

// RenderTable draws the board top row first, with X for P1, O for P2 and the
// candidate values written in their cells.
func RenderTable(b *Board, candidates []EvaluatedCell) string {
	const width = 4
	values := make(map[Cell]string, len(candidates))
	for _, c := range candidates {
		switch {
		case c.IsWin():
			values[c.Cell] = "W"
		case c.IsBlock():
			values[c.Cell] = "B"
		default:
			values[c.Cell] = strconv.Itoa(int(c.Value))
		}
	}

	separator := "+" + strings.Repeat(strings.Repeat("-", width-1)+"+", b.Cols()) + "\n"
	var sb strings.Builder
	for row := b.Rows() - 1; row >= 0; row-- {
		sb.WriteString(separator)
		sb.WriteByte('|')
		for col := 0; col < b.Cols(); col++ {
			label := " "
			switch b.At(row, col) {
			case P1:
				label = "X"
			case P2:
				label = "O"
			default:
				if v, ok := values[Cell{Row: row, Col: col}]; ok {
					label = v
				}
			}
			sb.WriteString(padCenter(label, width-1))
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(separator)
	return sb.String()
}

func padCenter(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}
