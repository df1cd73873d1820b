package connectx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frengor/cadregabot/engine"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"
)

const (
	ReasonConnect = "connect"
	ReasonDraw    = "draw"
	ReasonError   = "error"
	ReasonIllegal = "illegal_column"
	ReasonTimeout = "timeout"
)

// Match configures a single game.
type Match struct {
	Rows         int
	Cols         int
	Connect      int
	TimeoutSecs  int           // per-move budget handed to the players
	Grace        time.Duration // tolerated lateness on top of TimeoutSecs
	OpeningPlies int           // random plies played before either player moves
	Logger       zerolog.Logger
}

func (m Match) limit() time.Duration {
	return time.Duration(m.TimeoutSecs)*time.Second + m.Grace
}

type Result struct {
	State     GameState       `json:"state"`
	Winner    int             `json:"winner"` // 0 for a draw, else 1 or 2
	Reason    string          `json:"reason"`
	Forfeit   bool            `json:"forfeit"`
	Names     [2]string       `json:"names"`
	Moves     []engine.Cell   `json:"moves"`
	MoveTimes []time.Duration `json:"move_times"`
	Opening   int             `json:"opening"`
}

type selection struct {
	col int
	err error
}

// Play runs a full game between p1, who moves first, and p2. A player that
// fails, answers an illegal column or overruns the time limit loses by
// forfeit. The returned error is only set when ctx is cancelled or the match
// itself is invalid.
func Play(ctx context.Context, p1, p2 Player, m Match) (Result, error) {
	board, err := NewBoard(m.Rows, m.Cols, m.Connect)
	if err != nil {
		return Result{}, err
	}
	players := [2]Player{p1, p2}
	res := Result{Names: [2]string{p1.Name(), p2.Name()}}

	for i, p := range players {
		if err := p.Init(m.Rows, m.Cols, m.Connect, i == 0, m.TimeoutSecs); err != nil {
			m.Logger.Warn().Err(err).Str("player", p.Name()).Msg("init failed")
			return forfeit(res, board, i, ReasonError), nil
		}
	}

	res.Opening = PlayOpening(board, m.OpeningPlies)

	for board.State() == Open {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		turn := board.MoveCount() % 2
		p := players[turn]

		start := time.Now()
		col, err := selectWithLimit(ctx, p, board.Copy(), m.limit())
		elapsed := time.Since(start)
		switch {
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			m.Logger.Warn().Str("player", p.Name()).Dur("elapsed", elapsed).Msg("move timed out")
			return forfeit(res, board, turn, ReasonTimeout), nil
		case ctx.Err() != nil:
			return res, ctx.Err()
		case err != nil:
			m.Logger.Warn().Err(err).Str("player", p.Name()).Msg("player failed")
			return forfeit(res, board, turn, ReasonError), nil
		}

		if _, err := board.MarkColumn(col); err != nil {
			m.Logger.Warn().Err(err).Str("player", p.Name()).Int("col", col).Msg("illegal move")
			return forfeit(res, board, turn, ReasonIllegal), nil
		}
		res.MoveTimes = append(res.MoveTimes, elapsed)
		m.Logger.Debug().
			Str("player", p.Name()).
			Int("col", col).
			Dur("elapsed", elapsed).
			Int("ply", board.MoveCount()).
			Msg("move played")
	}

	res.State = board.State()
	res.Moves = board.History()
	switch res.State {
	case WinP1:
		res.Winner, res.Reason = 1, ReasonConnect
	case WinP2:
		res.Winner, res.Reason = 2, ReasonConnect
	default:
		res.Reason = ReasonDraw
	}
	return res, nil
}

func selectWithLimit(ctx context.Context, p Player, b *Board, limit time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	done := make(chan selection, 1)
	go func() {
		col, err := p.SelectColumn(ctx, b)
		done <- selection{col: col, err: err}
	}()
	select {
	case s := <-done:
		return s.col, s.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// PlayOpening drops up to plies random pieces, skipping any that would end
// the game, and returns how many were played.
func PlayOpening(b *Board, plies int) int {
	played := 0
	for played < plies {
		cols := b.AvailableColumns()
		frand.Shuffle(len(cols), func(i, j int) { cols[i], cols[j] = cols[j], cols[i] })
		placed := false
		for _, col := range cols {
			state, err := b.MarkColumn(col)
			if err != nil {
				continue
			}
			if state != Open {
				_ = b.UnmarkColumn()
				continue
			}
			placed = true
			break
		}
		if !placed {
			break
		}
		played++
	}
	return played
}

func forfeit(res Result, b *Board, loser int, reason string) Result {
	res.Forfeit = true
	res.Reason = reason
	res.Moves = b.History()
	res.Winner = 2 - loser
	res.State = WinP1
	if res.Winner == 2 {
		res.State = WinP2
	}
	return res
}

func (r Result) String() string {
	if r.Winner == 0 {
		return fmt.Sprintf("draw after %d moves", len(r.Moves))
	}
	return fmt.Sprintf("%s wins by %s after %d moves", r.Names[r.Winner-1], r.Reason, len(r.Moves))
}
