package connectx

import (
	"context"

	"github.com/frengor/cadregabot/engine"
	"lukechampine.com/frand"
)

// Player chooses columns for one side of a game.
type Player interface {
	Init(rows, cols, connect int, first bool, timeoutSecs int) error
	SelectColumn(ctx context.Context, b *Board) (int, error)
	Name() string
}

// EnginePlayer drives an engine.Engine from the authoritative board.
type EnginePlayer struct {
	engine *engine.Engine
	seen   int
}

func NewEnginePlayer(e *engine.Engine) *EnginePlayer {
	return &EnginePlayer{engine: e}
}

func (p *EnginePlayer) Engine() *engine.Engine {
	return p.engine
}

func (p *EnginePlayer) Name() string {
	return p.engine.Name()
}

func (p *EnginePlayer) Init(rows, cols, connect int, first bool, timeoutSecs int) error {
	p.seen = 0
	return p.engine.Init(rows, cols, connect, first, timeoutSecs)
}

// SelectColumn forwards the moves played since the engine last moved. Only
// the opponent's reply is passed as the last move; earlier unseen plies are
// placed directly.
func (p *EnginePlayer) SelectColumn(ctx context.Context, b *Board) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	history := b.History()
	var last *engine.Cell
	for i := p.seen; i < len(history); i++ {
		c := history[i]
		player := PlayerAt(i)
		if i == len(history)-1 && player != p.engine.Player() {
			last = &c
			break
		}
		if err := p.engine.Place(c, player); err != nil {
			return 0, err
		}
	}
	cell, err := p.engine.SelectColumn(last, b.AvailableColumns())
	if err != nil {
		return 0, err
	}
	p.seen = len(history) + 1
	return cell.Col, nil
}

// RandomPlayer picks uniformly among the open columns.
type RandomPlayer struct{}

func (RandomPlayer) Init(int, int, int, bool, int) error { return nil }

func (RandomPlayer) Name() string { return "Random" }

func (RandomPlayer) SelectColumn(ctx context.Context, b *Board) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cols := b.AvailableColumns()
	if len(cols) == 0 {
		return 0, ErrGameOver
	}
	return cols[frand.Intn(len(cols))], nil
}
