package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frengor/cadregabot/connectx"
	"github.com/frengor/cadregabot/engine"
	"github.com/rs/zerolog/log"
)

// AIPlayer runs a connectx.Player on a worker goroutine so the game loop never
// blocks on a search.
type AIPlayer struct {
	moveMutex  sync.Mutex
	sinkMutex  sync.Mutex
	workerDone chan struct{}
	thinking   atomic.Bool
	moveReady  atomic.Bool
	stopSignal atomic.Bool
	readyMove  Move
	readyErr   error

	player      connectx.Player
	bot         *connectx.EnginePlayer
	settings    GameSettings
	first       bool
	initialized atomic.Bool
	timeoutSecs int

	sink        func(engine.Progress)
	throttle    time.Duration
	lastPublish time.Time
}

// NewAIPlayer builds an engine-backed player for one side of a game.
func NewAIPlayer(settings GameSettings, first bool) *AIPlayer {
	a := &AIPlayer{settings: settings, first: first}
	seat := 2
	if first {
		seat = 1
	}
	e := engine.New(
		engine.WithLogger(log.Logger.With().Str("component", "engine").Int("player", seat).Logger()),
		engine.WithProgress(a.onProgress),
	)
	a.bot = connectx.NewEnginePlayer(e)
	a.player = a.bot
	return a
}

func NewRandomAIPlayer(settings GameSettings, first bool) *AIPlayer {
	return &AIPlayer{settings: settings, first: first, player: connectx.RandomPlayer{}}
}

func (a *AIPlayer) IsHuman() bool {
	return false
}

func (a *AIPlayer) Name() string {
	return a.player.Name()
}

// StartThinking searches board on a worker. sink, when set, receives the
// engine's progress reports, throttled by the ghost configuration.
func (a *AIPlayer) StartThinking(board *connectx.Board, sink func(engine.Progress)) {
	if a.thinking.Load() {
		return
	}
	if a.workerDone != nil {
		<-a.workerDone
	}
	a.thinking.Store(true)
	a.moveReady.Store(false)
	a.stopSignal.Store(false)

	config := GetConfig()
	a.sinkMutex.Lock()
	a.sink = sink
	a.throttle = config.ghostThrottle()
	a.lastPublish = time.Time{}
	a.sinkMutex.Unlock()

	done := make(chan struct{})
	a.workerDone = done
	go func() {
		defer close(done)
		move, err := a.think(board, config.AiTimeoutSecs)
		if a.stopSignal.Load() {
			// The engine committed a move the game never saw.
			a.initialized.Store(false)
			a.moveReady.Store(false)
			a.thinking.Store(false)
			return
		}
		a.moveMutex.Lock()
		a.readyMove = move
		a.readyErr = err
		a.moveMutex.Unlock()
		a.moveReady.Store(true)
		a.thinking.Store(false)
	}()
}

// Prepare runs Init on a worker as soon as the player exists, so the engine's
// warm-up search is not charged to its first turn.
func (a *AIPlayer) Prepare() {
	if a.workerDone != nil {
		return
	}
	timeoutSecs := GetConfig().AiTimeoutSecs
	done := make(chan struct{})
	a.workerDone = done
	go func() {
		defer close(done)
		if err := a.init(timeoutSecs); err != nil {
			log.Warn().Err(err).Str("player", a.Name()).Msg("ai init failed")
		}
	}()
}

func (a *AIPlayer) init(timeoutSecs int) error {
	err := a.player.Init(a.settings.Rows, a.settings.Cols, a.settings.WinLength, a.first, timeoutSecs)
	if err != nil {
		a.initialized.Store(false)
		return err
	}
	a.timeoutSecs = timeoutSecs
	a.initialized.Store(true)
	return nil
}

func (a *AIPlayer) think(board *connectx.Board, timeoutSecs int) (Move, error) {
	if !a.initialized.Load() || a.timeoutSecs != timeoutSecs {
		if err := a.init(timeoutSecs); err != nil {
			return Move{}, err
		}
	}
	col, err := a.player.SelectColumn(context.Background(), board)
	if err != nil {
		a.initialized.Store(false)
		return Move{}, err
	}
	move := Move{Col: col}
	if a.bot != nil {
		state := a.bot.Engine().State()
		move.Depth = state.Depth
		move.Nodes = state.NodeCounter
	}
	return move, nil
}

func (a *AIPlayer) onProgress(p engine.Progress) {
	a.sinkMutex.Lock()
	sink := a.sink
	if sink == nil {
		a.sinkMutex.Unlock()
		return
	}
	if !p.Final && a.throttle > 0 {
		now := time.Now()
		if !a.lastPublish.IsZero() && now.Sub(a.lastPublish) < a.throttle {
			a.sinkMutex.Unlock()
			return
		}
		a.lastPublish = now
	}
	a.sinkMutex.Unlock()
	sink(p)
}

func (a *AIPlayer) IsThinking() bool {
	return a.thinking.Load()
}

func (a *AIPlayer) HasMoveReady() bool {
	return a.moveReady.Load()
}

func (a *AIPlayer) TakeMove() (Move, error) {
	a.moveMutex.Lock()
	defer a.moveMutex.Unlock()
	a.moveReady.Store(false)
	return a.readyMove, a.readyErr
}

// StopThinking discards the running search. The engine cannot be interrupted,
// so its result is dropped when it arrives.
func (a *AIPlayer) StopThinking() {
	a.stopSignal.Store(true)
	a.moveReady.Store(false)
	a.sinkMutex.Lock()
	a.sink = nil
	a.sinkMutex.Unlock()
}

// Wait blocks until the worker, if any, has exited.
func (a *AIPlayer) Wait() {
	if a.workerDone != nil {
		<-a.workerDone
	}
}

// ResetForConfigChange forces a fresh Init so a new time budget applies.
func (a *AIPlayer) ResetForConfigChange() {
	if a.thinking.Load() {
		a.StopThinking()
		return
	}
	a.initialized.Store(false)
}
