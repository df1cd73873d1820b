package engine

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func allColumns(b *Board) []int {
	columns := make([]int, 0, b.Cols())
	for col := 0; col < b.Cols(); col++ {
		if b.DropRow(col) >= 0 {
			columns = append(columns, col)
		}
	}
	return columns
}

func newTestEngine(t *testing.T, rows, cols, connect int, first bool, opts ...Option) *Engine {
	t.Helper()
	e := New(opts...)
	if err := e.Init(rows, cols, connect, first, 10); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
	return e
}

func TestEngineName(t *testing.T) {
	if got := New().Name(); got != "CadregaBot" {
		t.Fatalf("expected CadregaBot, got %q", got)
	}
}

func TestEngineInitResetsBoard(t *testing.T) {
	for _, first := range []bool{true, false} {
		e := newTestEngine(t, 4, 5, 3, first)
		if got := e.Board().CountFree(); got != 20 {
			t.Fatalf("expected empty board after init (first=%v), got %d free", first, got)
		}
		want := P1
		if !first {
			want = P2
		}
		if e.Player() != want {
			t.Fatalf("expected player %v, got %v", want, e.Player())
		}
		if e.State().Depth != DefaultDepth {
			t.Fatalf("expected default depth after init, got %d", e.State().Depth)
		}
	}
}

func TestEngineInitRejectsBadBoard(t *testing.T) {
	if err := New().Init(0, 7, 4, true, 10); !IsInvariant(err) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestEngineInitOnSingleCell(t *testing.T) {
	e := newTestEngine(t, 1, 1, 1, false)
	if e.Board().CountFree() != 1 {
		t.Fatalf("expected single free cell")
	}
}

func TestEngineTakesImmediateWin(t *testing.T) {
	e := newTestEngine(t, 3, 3, 3, true)
	e.board.Set(0, 0, P1)
	e.board.Set(0, 1, P1)
	e.board.Set(1, 0, P2)
	e.board.Set(1, 1, P2)

	got, err := e.SelectColumn(nil, []int{0, 1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Cell{Row: 0, Col: 2}) {
		t.Fatalf("expected winning move (0,2), got %v", got)
	}
	if e.board.At(0, 2) != P1 {
		t.Fatalf("expected the move committed to the board")
	}
}

func TestEngineBlocksOpponentWin(t *testing.T) {
	// Reached by P1 0, P2 0, P1 1, P2 2, P1 0, P2 1: P2 threatens (1,2) and
	// P1 has no win of its own.
	e := newTestEngine(t, 3, 3, 3, true)
	e.board.Set(0, 0, P1)
	e.board.Set(1, 0, P2)
	e.board.Set(0, 1, P1)
	e.board.Set(0, 2, P2)
	e.board.Set(2, 0, P1)

	got, err := e.SelectColumn(&Cell{Row: 1, Col: 1}, []int{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Cell{Row: 1, Col: 2}) {
		t.Fatalf("expected blocking move (1,2), got %v", got)
	}
}

func TestEngineCommitsTopCandidateOnTimeout(t *testing.T) {
	clock := &stepClock{base: time.Unix(0, 0)}
	e := newTestEngine(t, 6, 7, 4, true, WithClock(clock.now))
	columns := allColumns(e.board)

	before := e.Board()
	free, err := NewFreeCells(before.Clone(), columns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := NewEvaluator(before, 4).Rank(free, P1)[0].Cell

	clock.limit = clock.calls + 3
	got, err := e.SelectColumn(nil, columns)
	if err != nil {
		t.Fatalf("expected the timeout to be absorbed, got %v", err)
	}
	if got != want {
		t.Fatalf("expected the top candidate %v, got %v", want, got)
	}
	if e.board.At(got.Row, got.Col) != P1 {
		t.Fatalf("expected the move committed to the board")
	}
	if !e.scratch.Equal(before) {
		t.Fatalf("expected the scratch board restored")
	}
	if e.root != NoNode {
		t.Fatalf("expected no subtree kept without a finished child, got %d", e.root)
	}
	if e.State().LastElapsed < time.Minute {
		t.Fatalf("expected the turn to have run out of time, got %v", e.State().LastElapsed)
	}
}

func TestEngineIsDeterministic(t *testing.T) {
	var first []Cell
	for run := 0; run < 3; run++ {
		e := newTestEngine(t, 4, 4, 3, true)
		var moves []Cell
		var last *Cell
		for turn := 0; turn < 3; turn++ {
			move, err := e.SelectColumn(last, allColumns(e.board))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			moves = append(moves, move)
			// Opponent always answers in the leftmost open column.
			col := allColumns(e.board)[0]
			last = &Cell{Row: e.board.DropRow(col), Col: col}
		}
		if run == 0 {
			first = moves
			continue
		}
		for i := range moves {
			if moves[i] != first[i] {
				t.Fatalf("expected identical moves across runs, got %v and %v", first, moves)
			}
		}
	}
}

func TestEngineReusesSubtree(t *testing.T) {
	e := newTestEngine(t, 4, 4, 3, true)
	first, err := e.SelectColumn(nil, allColumns(e.board))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.root == NoNode {
		t.Fatalf("expected the chosen move to keep its subtree")
	}
	if e.tree.Parent(e.root) != NoNode || e.tree.Move(e.root).Cell != first {
		t.Fatalf("expected the committed move to become the root")
	}
	for id := NodeID(1); int(id) < e.tree.Len(); id++ {
		if e.tree.Parent(id) == NoNode {
			t.Fatalf("expected siblings of the committed move to be dropped, node %d is detached", id)
		}
	}
	reply := e.tree.Candidates(e.root)[0].Cell
	if e.tree.ChildByMove(e.root, reply) == NoNode {
		t.Fatalf("expected the principal reply to be expanded")
	}
	if _, err := e.SelectColumn(&reply, allColumns(e.board)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !e.State().Reused {
		t.Fatalf("expected the second turn to start from the reused subtree")
	}
}

func TestEngineRejectsMoveOnOccupiedCell(t *testing.T) {
	e := newTestEngine(t, 4, 4, 3, true)
	move, err := e.SelectColumn(nil, allColumns(e.board))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.SelectColumn(&move, allColumns(e.board)); !IsInvariant(err) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestEngineRequiresInit(t *testing.T) {
	if _, err := New().SelectColumn(nil, []int{0}); !IsInvariant(err) {
		t.Fatalf("expected invariant error before init, got %v", err)
	}
}

func TestEngineReportsProgressAndLogs(t *testing.T) {
	var buf bytes.Buffer
	var updates []Progress
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	e := newTestEngine(t, 4, 4, 3, true,
		WithLogger(logger),
		WithProgress(func(p Progress) { updates = append(updates, p) }),
	)
	if len(updates) != 0 {
		t.Fatalf("expected the warm-up search to stay silent, got %d updates", len(updates))
	}

	move, err := e.SelectColumn(nil, allColumns(e.board))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updates) == 0 || !updates[len(updates)-1].Final {
		t.Fatalf("expected a final progress update, got %v", updates)
	}
	if updates[len(updates)-1].Best != move {
		t.Fatalf("expected final progress to carry the committed move")
	}
	if !strings.Contains(buf.String(), "turn committed") {
		t.Fatalf("expected a debug log line, got %q", buf.String())
	}
}

func TestEnginePlaceDropsTree(t *testing.T) {
	e := newTestEngine(t, 4, 4, 3, true)
	if err := e.Place(Cell{Row: 0, Col: 1}, P1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Place(Cell{Row: 0, Col: 1}, P2); !IsInvariant(err) {
		t.Fatalf("expected invariant error for occupied cell, got %v", err)
	}
	if err := e.Place(Cell{Row: 2, Col: 0}, P2); !IsInvariant(err) {
		t.Fatalf("expected invariant error for floating cell, got %v", err)
	}
	if err := e.Place(Cell{Row: 1, Col: 1}, P2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.SelectColumn(nil, allColumns(e.board)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.State().Reused {
		t.Fatalf("expected a fresh tree after placing pieces")
	}
}
