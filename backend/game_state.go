package main

import (
	"github.com/frengor/cadregabot/connectx"
	"github.com/frengor/cadregabot/engine"
)

type GameStatus int

const (
	StatusNotStarted GameStatus = iota
	StatusRunning
	StatusFirstWon
	StatusSecondWon
	StatusDraw
	StatusAborted
)

type GameState struct {
	Board       *connectx.Board
	Status      GameStatus
	LastMessage string
	WinningLine []Move
}

func DefaultGameState(settings GameSettings) GameState {
	state := GameState{}
	state.Reset(settings)
	return state
}

func (s *GameState) Reset(settings GameSettings) {
	board, err := connectx.NewBoard(settings.Rows, settings.Cols, settings.WinLength)
	if err != nil {
		def := DefaultGameSettings()
		board, _ = connectx.NewBoard(def.Rows, def.Cols, def.WinLength)
	}
	s.Board = board
	s.Status = StatusNotStarted
	s.LastMessage = ""
	s.WinningLine = nil
}

func (s GameState) Clone() GameState {
	clone := s
	clone.Board = s.Board.Copy()
	clone.WinningLine = append([]Move(nil), s.WinningLine...)
	return clone
}

// ToMove is 1 or 2.
func (s GameState) ToMove() int {
	return cellToInt(s.Board.CurrentPlayer())
}

func cellToInt(cell engine.CellState) int {
	switch cell {
	case engine.P1:
		return 1
	case engine.P2:
		return 2
	default:
		return 0
	}
}

func movesFromCells(cells []engine.Cell) []Move {
	out := make([]Move, 0, len(cells))
	for _, c := range cells {
		out = append(out, Move{Col: c.Col, Row: c.Row})
	}
	return out
}
