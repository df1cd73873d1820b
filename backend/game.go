package main

import (
	"errors"
	"time"

	"github.com/frengor/cadregabot/connectx"
	"github.com/frengor/cadregabot/engine"
	"github.com/rs/zerolog/log"
)

type Game struct {
	settings     GameSettings
	rules        Rules
	state        GameState
	history      MoveHistory
	firstPlayer  IPlayer
	secondPlayer IPlayer
	turnStart    time.Time
}

func NewGame(settings GameSettings) Game {
	g := Game{}
	g.Reset(settings)
	return g
}

func (g *Game) Reset(settings GameSettings) {
	g.stopAIPlayers()
	if !settings.valid() {
		settings = DefaultGameSettings()
	}
	g.settings = settings
	g.rules = NewRules(settings)
	g.state.Reset(settings)
	g.history.Clear()
	g.createPlayers()
	g.turnStart = time.Now()
	g.logMatchup()
}

func (g *Game) Start() {
	if g.state.Status != StatusNotStarted {
		return
	}
	g.state.Status = StatusRunning
	if plies := GetConfig().OpeningPlies; plies > 0 {
		played := connectx.PlayOpening(g.state.Board, plies)
		history := g.state.Board.History()
		for i, c := range history[len(history)-played:] {
			g.history.Push(HistoryEntry{
				Move:    Move{Col: c.Col, Row: c.Row},
				Player:  cellToInt(connectx.PlayerAt(len(history) - played + i)),
				Opening: true,
			})
		}
	}
	g.turnStart = time.Now()
}

func (g *Game) State() GameState {
	return g.state.Clone()
}

func (g *Game) History() MoveHistory {
	return g.history
}

func (g *Game) TurnStartedAtMs() int64 {
	if g.turnStart.IsZero() {
		return 0
	}
	return g.turnStart.UnixMilli()
}

func (g *Game) TryApplyMove(move Move) (bool, string) {
	if ok, reason := g.rules.IsLegal(g.state, move); !ok {
		g.state.LastMessage = "Illegal move: " + reason
		return false, g.state.LastMessage
	}
	player := g.currentPlayer()
	isAiMove := player != nil && !player.IsHuman()
	toMove := g.state.ToMove()
	elapsedMs := float64(time.Since(g.turnStart).Microseconds()) / 1000

	applied, err := g.rules.Apply(&g.state, move)
	if err != nil {
		g.state.LastMessage = "Illegal move: " + err.Error()
		return false, g.state.LastMessage
	}
	g.state.LastMessage = ""
	g.history.Push(HistoryEntry{
		Move:      applied,
		Player:    toMove,
		ElapsedMs: elapsedMs,
		IsAi:      isAiMove,
		Depth:     applied.Depth,
		Nodes:     applied.Nodes,
	})
	log.Debug().
		Int("player", toMove).
		Int("col", applied.Col).
		Int("row", applied.Row).
		Float64("elapsed_ms", elapsedMs).
		Bool("ai", isAiMove).
		Int("depth", applied.Depth).
		Msg("move played")
	if g.state.Status != StatusRunning {
		log.Info().
			Str("status", statusToString(g.state.Status)).
			Int("moves", g.history.Size()).
			Msg("game over")
	}
	g.turnStart = time.Now()
	return true, ""
}

func (g *Game) Tick(ghostEnabled bool, ghostSink func(ghostPayload)) bool {
	if g.state.Status != StatusRunning {
		return false
	}
	switch player := g.currentPlayer().(type) {
	case *HumanPlayer:
		if player.HasPendingMove() {
			applied, _ := g.TryApplyMove(player.TakePendingMove())
			return applied
		}
		return false
	case *AIPlayer:
		if player.HasMoveReady() {
			move, err := player.TakeMove()
			if err != nil {
				g.abort(player, err)
				return true
			}
			applied, reason := g.TryApplyMove(move)
			if !applied {
				g.abort(player, errors.New(reason))
				return true
			}
			return true
		}
		if !player.IsThinking() {
			var sink func(engine.Progress)
			if ghostEnabled && ghostSink != nil {
				toMove := g.state.ToMove()
				historyLen := g.history.Size()
				sink = func(p engine.Progress) {
					ghostSink(ghostFromProgress(p, toMove, historyLen))
				}
			}
			if GetConfig().DebugTables {
				if table, err := g.DebugTable(); err == nil {
					log.Info().Int("player", g.state.ToMove()).Str("table", table).Msg("candidates")
				}
			}
			player.StartThinking(g.state.Board.Copy(), sink)
		}
	}
	return false
}

// abort ends the game after an AI failure. Invariant violations are engine
// defects and are logged as errors.
func (g *Game) abort(player IPlayer, err error) {
	event := log.Warn()
	if engine.IsInvariant(err) {
		event = log.Error()
	}
	event.Err(err).Str("player", player.Name()).Int("moves", g.history.Size()).Msg("game aborted")
	g.state.Status = StatusAborted
	g.state.LastMessage = "AI failure: " + err.Error()
}

func (g *Game) SubmitHumanMove(move Move) bool {
	human, ok := g.currentPlayer().(*HumanPlayer)
	if !ok {
		return false
	}
	human.SetPendingMove(move)
	return true
}

func (g *Game) CurrentPlayerIsHuman() bool {
	player := g.currentPlayer()
	return player != nil && player.IsHuman()
}

func (g *Game) currentPlayer() IPlayer {
	if g.state.ToMove() == 1 {
		return g.firstPlayer
	}
	return g.secondPlayer
}

func (g *Game) createPlayers() {
	g.stopAIPlayers()
	g.firstPlayer = newPlayer(g.settings.FirstType, g.settings, true)
	g.secondPlayer = newPlayer(g.settings.SecondType, g.settings, false)
	for _, p := range []IPlayer{g.firstPlayer, g.secondPlayer} {
		if ai, ok := p.(*AIPlayer); ok {
			ai.Prepare()
		}
	}
}

func newPlayer(t PlayerType, settings GameSettings, first bool) IPlayer {
	switch t {
	case PlayerAI:
		return NewAIPlayer(settings, first)
	case PlayerRandom:
		return NewRandomAIPlayer(settings, first)
	default:
		return NewHumanPlayer()
	}
}

func (g *Game) stopAIPlayers() {
	for _, p := range []IPlayer{g.firstPlayer, g.secondPlayer} {
		if ai, ok := p.(*AIPlayer); ok {
			ai.StopThinking()
		}
	}
}

func (g *Game) logMatchup() {
	log.Info().
		Int("rows", g.settings.Rows).
		Int("cols", g.settings.Cols).
		Int("win_length", g.settings.WinLength).
		Str("first", g.firstPlayer.Name()).
		Str("second", g.secondPlayer.Name()).
		Msg("new game")
}

func (g *Game) AiThinking() bool {
	if ai, ok := g.currentPlayer().(*AIPlayer); ok {
		return ai.IsThinking()
	}
	return false
}

func (g *Game) ResetForConfigChange() {
	for _, p := range []IPlayer{g.firstPlayer, g.secondPlayer} {
		if ai, ok := p.(*AIPlayer); ok {
			ai.ResetForConfigChange()
		}
	}
}

// DebugTable renders the current position with the mover's ranked candidates.
func (g *Game) DebugTable() (string, error) {
	board := g.state.Board
	snapshot := board.Snapshot()
	columns := board.AvailableColumns()
	if len(columns) == 0 {
		return engine.RenderTable(snapshot, nil), nil
	}
	free, err := engine.NewFreeCells(snapshot, columns)
	if err != nil {
		return "", err
	}
	candidates := engine.NewEvaluator(snapshot, board.Connect()).Rank(free, board.CurrentPlayer())
	return engine.RenderTable(snapshot, candidates), nil
}
