package engine

import (
	"fmt"
	"math"
)

type CellState uint8

const (
	Free CellState = iota
	P1
	P2
)

func (s CellState) Opponent() CellState {
	switch s {
	case P1:
		return P2
	case P2:
		return P1
	default:
		return Free
	}
}

func (s CellState) String() string {
	switch s {
	case P1:
		return "P1"
	case P2:
		return "P2"
	default:
		return "Free"
	}
}

// Cell is a board coordinate. Row 0 is the bottom row, where pieces land first.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Sentinel scores live at the top of the int32 range. Every finite value is
// capped at MaxFinite, so the sum of two evaluations stays below Block.
const (
	Win       int32 = math.MaxInt32 - 1
	Block     int32 = math.MaxInt32 - 2
	MaxFinite int32 = 1 << 28
)

type EvaluatedCell struct {
	Cell  Cell  `json:"cell"`
	Value int32 `json:"value"`
}

func (e EvaluatedCell) IsWin() bool {
	return e.Value >= Win
}

func (e EvaluatedCell) IsBlock() bool {
	return e.Value == Block
}

func addCapped(a, b int32) int32 {
	return clampFinite(int64(a) + int64(b))
}

func clampFinite(v int64) int32 {
	if v > int64(MaxFinite) {
		return MaxFinite
	}
	if v < -int64(MaxFinite) {
		return -MaxFinite
	}
	return int32(v)
}
