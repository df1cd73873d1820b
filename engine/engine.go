package engine

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

const (
	Name = "CadregaBot"

	// InitMargin and TurnMargin are kept off the host's per-move budget.
	InitMargin = 1000 * time.Millisecond
	TurnMargin = 500 * time.Millisecond
)

type Option func(*Engine)

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock replaces time.Now for deadline checks and telemetry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithProgress registers a callback invoked each time the root best move
// improves and once when the turn commits.
func WithProgress(fn func(Progress)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// Engine selects moves for one side of one game. It is not safe for
// concurrent use.
type Engine struct {
	rows    int
	cols    int
	connect int
	our     CellState
	budget  time.Duration

	board   *Board
	scratch *Board
	eval    *Evaluator
	tree    Tree
	root    NodeID
	state   State

	now      func() time.Time
	logger   zerolog.Logger
	progress func(Progress)
}

func New(opts ...Option) *Engine {
	e := &Engine{
		root:   NoNode,
		state:  NewState(),
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string {
	return Name
}

// Init prepares a new game and runs one warm-up search on an empty board so
// the first real turn already has throughput telemetry to size its depth.
func (e *Engine) Init(rows, cols, connect int, first bool, timeoutSecs int) error {
	if rows <= 0 || cols <= 0 || connect <= 0 {
		return invariantf("invalid board %dx%d connect %d", rows, cols, connect)
	}
	e.rows, e.cols, e.connect = rows, cols, connect
	e.budget = time.Duration(timeoutSecs)*time.Second - InitMargin
	e.state = NewState()
	e.root = NoNode
	e.tree.Reset()
	e.board = NewBoard(rows, cols)
	e.scratch = NewBoard(rows, cols)
	e.eval = NewEvaluator(e.scratch, connect)

	var last *Cell
	if first {
		e.our = P1
	} else {
		e.our = P2
		last = &Cell{Row: 0, Col: cols / 2}
	}

	warm := NewBoard(rows, cols)
	if last != nil {
		warm.Set(last.Row, last.Col, e.our.Opponent())
	}
	columns := make([]int, 0, cols)
	for col := 0; col < cols; col++ {
		if warm.DropRow(col) >= 0 {
			columns = append(columns, col)
		}
	}
	if len(columns) > 0 {
		progress := e.progress
		e.progress = nil
		_, err := e.SelectColumn(last, columns)
		e.progress = progress
		if err != nil {
			return err
		}
	}

	e.board.Reset()
	e.scratch.Reset()
	e.tree.Reset()
	e.root = NoNode
	e.state.Depth = DefaultDepth
	e.budget = time.Duration(timeoutSecs)*time.Second - TurnMargin
	e.logger.Debug().
		Int("rows", rows).
		Int("cols", cols).
		Int("connect", connect).
		Bool("first", first).
		Int64("warmup_nodes", e.state.NodeCounter).
		Dur("warmup_elapsed", e.state.LastElapsed).
		Msg("engine initialized")
	return nil
}

// SelectColumn applies the opponent's last move, if any, searches and commits
// the chosen cell. Only invariant violations are reported as errors; running
// out of time falls back to the best answer known.
func (e *Engine) SelectColumn(last *Cell, columns []int) (Cell, error) {
	if e.board == nil {
		return Cell{}, invariantf("engine used before Init")
	}
	start := e.now()
	e.state.TurnStart = start
	if len(columns) == 0 {
		return Cell{}, invariantf("no legal columns")
	}
	depth := e.state.nextDepth(len(columns), e.budget)

	if last != nil {
		if !e.board.IsFree(last.Row, last.Col) {
			return Cell{}, invariantf("opponent move %s is not on a free cell", *last)
		}
		e.board.Set(last.Row, last.Col, e.our.Opponent())
	}
	e.scratch.CopyFrom(e.board)
	free, err := NewFreeCells(e.scratch, columns)
	if err != nil {
		return Cell{}, err
	}

	reused := e.reanchor(last, free)
	e.state.Reused = reused
	candidates := e.tree.Candidates(e.root)
	if len(candidates) == 0 {
		return Cell{}, invariantf("no candidates with %d legal columns", len(columns))
	}

	freeBefore := free.Clone()
	s := &searcher{
		tree:     &e.tree,
		eval:     e.eval,
		board:    e.scratch,
		free:     free,
		our:      e.our,
		depth:    depth,
		start:    start,
		budget:   e.budget,
		now:      e.now,
		state:    &e.state,
		progress: e.progress,
	}
	best, err := s.searchRoot(e.root)
	timedOut := errors.Is(err, errSearchTimeout)
	if err != nil && !timedOut {
		return Cell{}, err
	}
	if !e.scratch.Equal(e.board) || !free.Equal(freeBefore) {
		return Cell{}, invariantf("scratch state not restored after search")
	}
	e.state.LastElapsed = e.now().Sub(start)

	move := candidates[0]
	if best != NoNode {
		move = e.tree.Move(best)
	}
	if ev := e.logger.Trace(); ev.Enabled() {
		ev.Str("table", RenderTable(e.board, candidates)).Msg("candidates")
	}
	e.board.Set(move.Cell.Row, move.Cell.Col, e.our)
	// Only the subtree under our move can be reached next turn.
	e.root = e.tree.Promote(best)

	e.logger.Debug().
		Int("depth", depth).
		Int64("nodes", e.state.NodeCounter).
		Int64("nodes_average", e.state.NodesAverage).
		Bool("alphabeta", e.state.AlphaBetaStarted).
		Bool("timed_out", timedOut).
		Bool("reused", reused).
		Int("tree_nodes", e.tree.Len()).
		Int("free_cells", e.board.CountFree()).
		Stringer("move", move.Cell).
		Int32("value", move.Value).
		Dur("elapsed", e.state.LastElapsed).
		Msg("turn committed")
	if e.progress != nil {
		e.progress(Progress{
			Depth:   depth,
			Nodes:   e.state.NodeCounter,
			Best:    move.Cell,
			Score:   move.Value,
			Elapsed: e.state.LastElapsed,
			Final:   true,
		})
	}
	return move.Cell, nil
}

// Place puts a piece the engine did not choose, such as a forced opening ply.
// The search tree no longer matches the position and is discarded.
func (e *Engine) Place(c Cell, player CellState) error {
	if e.board == nil {
		return invariantf("engine used before Init")
	}
	if player != P1 && player != P2 {
		return invariantf("cannot place %s at %s", player, c)
	}
	if !e.board.InBounds(c.Row, c.Col) || e.board.DropRow(c.Col) != c.Row {
		return invariantf("placed piece %s is not droppable", c)
	}
	e.board.Set(c.Row, c.Col, player)
	e.tree.Reset()
	e.root = NoNode
	return nil
}

// reanchor re-roots the tree on the subtree matching the opponent's move when
// the previous turn expanded it, and otherwise builds a fresh root.
func (e *Engine) reanchor(last *Cell, free *FreeCells) bool {
	if e.root != NoNode && last != nil {
		if child := e.tree.ChildByMove(e.root, *last); child != NoNode {
			e.root = e.tree.Promote(child)
			return true
		}
	}
	e.root = e.tree.NewRoot(e.eval.Rank(free, e.our))
	return false
}

// State returns a copy of the turn telemetry.
func (e *Engine) State() State {
	return e.state
}

// Board returns a copy of the engine's view of the game.
func (e *Engine) Board() *Board {
	if e.board == nil {
		return nil
	}
	return e.board.Clone()
}

func (e *Engine) Player() CellState {
	return e.our
}
