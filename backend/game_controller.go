package main

import "sync"

// GameController serializes access to the game from the HTTP handlers, the
// websocket readers and the ticker.
type GameController struct {
	mu    sync.Mutex
	game  Game
	ghost ghostRoute
}

// ghostRoute forwards search progress to the ghost hub while it has listeners.
type ghostRoute struct {
	enabled func() bool
	publish func(ghostPayload)
}

func (r ghostRoute) active() bool {
	return r.enabled != nil && r.publish != nil && r.enabled()
}

func NewGameController(settings GameSettings) *GameController {
	return &GameController{game: NewGame(settings)}
}

func withGame[T any](gc *GameController, fn func(g *Game) T) T {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return fn(&gc.game)
}

func (gc *GameController) SetGhostPublisher(enabled func() bool, publish func(ghostPayload)) {
	gc.mu.Lock()
	gc.ghost = ghostRoute{enabled: enabled, publish: publish}
	gc.mu.Unlock()
}

// OnColumnClicked queues a column for the human to move, applied on the next tick.
func (gc *GameController) OnColumnClicked(col int) {
	withGame(gc, func(g *Game) bool { return g.SubmitHumanMove(Move{Col: col}) })
}

// ApplyHumanMove plays the move right away when a human is on turn.
func (gc *GameController) ApplyHumanMove(move Move) (bool, string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if !gc.game.CurrentPlayerIsHuman() {
		return false, "not human turn"
	}
	return gc.game.TryApplyMove(move)
}

// Tick advances the game by at most one move and reports whether it changed.
func (gc *GameController) Tick() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Tick(gc.ghost.active(), gc.ghost.publish)
}

func (gc *GameController) State() GameState {
	return withGame(gc, (*Game).State)
}

func (gc *GameController) Settings() GameSettings {
	return withGame(gc, func(g *Game) GameSettings { return g.settings })
}

func (gc *GameController) History() MoveHistory {
	return withGame(gc, (*Game).History)
}

func (gc *GameController) CurrentTurnStartedAtMs() int64 {
	return withGame(gc, (*Game).TurnStartedAtMs)
}

func (gc *GameController) LatestHistoryEntry() (HistoryEntry, bool) {
	entries := withGame(gc, func(g *Game) []HistoryEntry { return g.History().All() })
	if len(entries) == 0 {
		return HistoryEntry{}, false
	}
	return entries[len(entries)-1], true
}

func (gc *GameController) AiThinking() bool {
	return withGame(gc, (*Game).AiThinking)
}

func (gc *GameController) DebugTable() (string, error) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.DebugTable()
}

func (gc *GameController) Reset(settings GameSettings) {
	withGame(gc, func(g *Game) struct{} {
		g.Reset(settings)
		return struct{}{}
	})
}

func (gc *GameController) StartGame(settings GameSettings) {
	withGame(gc, func(g *Game) struct{} {
		g.Reset(settings)
		g.Start()
		return struct{}{}
	})
}

// UpdateSettings swaps the player types in place. A different board shape,
// or reset, starts over with an empty board.
func (gc *GameController) UpdateSettings(update GameSettings, reset bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	current := gc.game.settings
	sameShape := update.Rows == current.Rows && update.Cols == current.Cols && update.WinLength == current.WinLength
	if reset || !sameShape {
		gc.game.Reset(update)
		return
	}
	gc.game.settings = update
	gc.game.createPlayers()
}

func (gc *GameController) ResetForConfigChange() {
	withGame(gc, func(g *Game) struct{} {
		g.ResetForConfigChange()
		return struct{}{}
	})
}
