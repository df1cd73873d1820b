package main

import (
	"errors"

	"github.com/frengor/cadregabot/connectx"
	"github.com/frengor/cadregabot/engine"
)

type Rules struct {
	settings GameSettings
}

func NewRules(settings GameSettings) Rules {
	return Rules{settings: settings}
}

func (r Rules) IsLegal(state GameState, move Move) (bool, string) {
	if state.Status != StatusRunning {
		return false, "game not running"
	}
	if !move.IsValid(r.settings.Cols) {
		return false, "out of bounds"
	}
	if state.Board.CellState(r.settings.Rows-1, move.Col) != engine.Free {
		return false, "column full"
	}
	return true, ""
}

// Apply drops the move on the board and reports the new status.
func (r Rules) Apply(state *GameState, move Move) (Move, error) {
	if _, err := state.Board.MarkColumn(move.Col); err != nil {
		if errors.Is(err, connectx.ErrIllegalColumn) {
			return move, errors.New("column full")
		}
		return move, err
	}
	last, _ := state.Board.LastMove()
	move.Row = last.Row
	state.Status = statusFromBoard(state.Board.State())
	state.WinningLine = movesFromCells(state.Board.WinningLine())
	return move, nil
}

func statusFromBoard(s connectx.GameState) GameStatus {
	switch s {
	case connectx.WinP1:
		return StatusFirstWon
	case connectx.WinP2:
		return StatusSecondWon
	case connectx.Draw:
		return StatusDraw
	default:
		return StatusRunning
	}
}
