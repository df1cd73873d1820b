package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/frengor/cadregabot/connectx"
	"github.com/frengor/cadregabot/engine"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type arena struct {
	logger   zerolog.Logger
	apiAddr  string
	games    int
	parallel int
	opponent string
	match    connectx.Match

	statusMu  sync.RWMutex
	status    arenaStatus
	jobMu     sync.Mutex
	jobCancel context.CancelFunc
	jobDone   chan struct{}
}

type arenaStatus struct {
	Running      bool    `json:"running"`
	Phase        string  `json:"phase"`
	Message      string  `json:"message"`
	Opponent     string  `json:"opponent"`
	StartedAt    string  `json:"started_at"`
	UpdatedAt    string  `json:"updated_at"`
	GamesTotal   int     `json:"games_total"`
	GamesPlayed  int     `json:"games_played"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Draws        int     `json:"draws"`
	Forfeits     int     `json:"forfeits"`
	AvgMoveMs    float64 `json:"avg_move_ms"`
	MaxMoveMs    float64 `json:"max_move_ms"`
	EngineMoves  int     `json:"engine_moves"`
	LastResult   string  `json:"last_result,omitempty"`
	engineMoveUs int64
}

func main() {
	logger, closeLog, err := buildLogger(getenv("ARENA_LOG_PATH", "/logs/arena.log"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	a := newArena(logger, arenaOptions{
		APIAddr:  getenv("ARENA_API_ADDR", ":8091"),
		Games:    getenvInt("ARENA_GAMES", 20),
		Parallel: getenvInt("ARENA_PARALLEL", 2),
		Opponent: getenv("ARENA_OPPONENT", "random"),
		Match: connectx.Match{
			Rows:         getenvInt("ARENA_ROWS", 6),
			Cols:         getenvInt("ARENA_COLS", 7),
			Connect:      getenvInt("ARENA_CONNECT", 4),
			TimeoutSecs:  getenvInt("ARENA_TIMEOUT_SECS", 1),
			Grace:        time.Duration(getenvFloat("ARENA_GRACE_SECS", 0.5) * float64(time.Second)),
			OpeningPlies: getenvInt("ARENA_OPENING_PLIES", 0),
		},
	})

	server := &http.Server{Addr: a.apiAddr, Handler: a.router()}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("arena api server error")
		}
	}()
	a.logger.Info().
		Str("addr", a.apiAddr).
		Int("games", a.games).
		Int("parallel", a.parallel).
		Str("opponent", a.opponent).
		Msg("arena service started")

	if autostart := getenv("ARENA_AUTOSTART", ""); autostart == "1" || autostart == "true" || autostart == "yes" {
		if err := a.startRun(); err != nil {
			a.logger.Warn().Err(err).Msg("autostart failed")
		}
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	<-sigCtx.Done()
	_ = a.stopRun("shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	a.logger.Info().Msg("arena service stopping")
}

type arenaOptions struct {
	APIAddr  string
	Games    int
	Parallel int
	Opponent string
	Match    connectx.Match
}

func newArena(logger zerolog.Logger, opts arenaOptions) *arena {
	if opts.Games < 1 {
		opts.Games = 1
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	if opts.Match.TimeoutSecs < 1 {
		opts.Match.TimeoutSecs = 1
	}
	opts.Match.Logger = logger.With().Str("component", "match").Logger()
	now := time.Now().UTC().Format(time.RFC3339)
	return &arena{
		logger:   logger,
		apiAddr:  opts.APIAddr,
		games:    opts.Games,
		parallel: opts.Parallel,
		opponent: opts.Opponent,
		match:    opts.Match,
		status: arenaStatus{
			Phase:     "idle",
			Message:   "service ready",
			Opponent:  opts.Opponent,
			StartedAt: now,
			UpdatedAt: now,
		},
	}
}

func (a *arena) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/api/arena/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": a.running()})
	})
	r.Get("/api/arena/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.getStatus())
	})
	r.Post("/api/arena/start", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Opponent string `json:"opponent"`
			Games    int    `json:"games"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Opponent != "" || payload.Games > 0 {
			if err := a.configure(payload.Opponent, payload.Games); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
		}
		if err := a.startRun(); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, a.getStatus())
	})
	r.Post("/api/arena/stop", func(w http.ResponseWriter, r *http.Request) {
		if err := a.stopRun("requested via api"); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, a.getStatus())
	})
	return r
}

func (a *arena) configure(opponent string, games int) error {
	a.jobMu.Lock()
	defer a.jobMu.Unlock()
	if a.jobCancel != nil {
		return fmt.Errorf("arena already running")
	}
	if opponent != "" {
		if _, err := newOpponent(opponent, a.logger); err != nil {
			return err
		}
		a.opponent = opponent
	}
	if games > 0 {
		a.games = games
	}
	return nil
}

func (a *arena) running() bool {
	a.jobMu.Lock()
	defer a.jobMu.Unlock()
	return a.jobCancel != nil
}

func (a *arena) getStatus() arenaStatus {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.status
}

func (a *arena) updateStatus(mutator func(*arenaStatus)) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	mutator(&a.status)
	a.status.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

func (a *arena) startRun() error {
	a.jobMu.Lock()
	defer a.jobMu.Unlock()
	if a.jobCancel != nil {
		return fmt.Errorf("arena already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.jobCancel = cancel
	a.jobDone = done
	games, opponent := a.games, a.opponent
	a.updateStatus(func(s *arenaStatus) {
		*s = arenaStatus{
			Running:    true,
			Phase:      "running",
			Message:    "tournament running",
			Opponent:   opponent,
			StartedAt:  time.Now().UTC().Format(time.RFC3339),
			GamesTotal: games,
		}
	})
	go func() {
		defer close(done)
		err := a.runTournament(ctx, games, opponent)
		a.updateStatus(func(s *arenaStatus) {
			s.Running = false
			switch {
			case err != nil && !errors.Is(err, context.Canceled):
				s.Phase = "error"
				s.Message = err.Error()
			case err != nil:
				s.Phase = "idle"
				s.Message = "tournament stopped"
			default:
				s.Phase = "idle"
				s.Message = "tournament finished"
			}
		})
		final := a.getStatus()
		a.logger.Info().
			Int("played", final.GamesPlayed).
			Int("wins", final.Wins).
			Int("losses", final.Losses).
			Int("draws", final.Draws).
			Int("forfeits", final.Forfeits).
			Float64("avg_move_ms", final.AvgMoveMs).
			Msg("tournament over")
		a.jobMu.Lock()
		a.jobCancel = nil
		a.jobDone = nil
		a.jobMu.Unlock()
	}()
	return nil
}

func (a *arena) stopRun(reason string) error {
	a.jobMu.Lock()
	cancel := a.jobCancel
	done := a.jobDone
	a.jobMu.Unlock()
	if cancel == nil {
		return fmt.Errorf("no running tournament")
	}
	a.logger.Info().Str("reason", reason).Msg("stopping tournament")
	cancel()
	if done != nil {
		<-done
	}
	return nil
}

// runTournament plays games between CadregaBot and the opponent, alternating
// who moves first.
func (a *arena) runTournament(parent context.Context, games int, opponent string) error {
	g, ctx := errgroup.WithContext(parent)
	g.SetLimit(a.parallel)
	for i := 0; i < games; i++ {
		i := i
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			bot := connectx.NewEnginePlayer(engine.New(
				engine.WithLogger(a.logger.With().Str("component", "engine").Int("game", i).Logger()),
			))
			other, err := newOpponent(opponent, a.logger)
			if err != nil {
				return err
			}
			engineSeat := i % 2
			p1, p2 := connectx.Player(bot), other
			if engineSeat == 1 {
				p1, p2 = other, bot
			}
			res, err := connectx.Play(ctx, p1, p2, a.match)
			if err != nil {
				return err
			}
			a.record(i, res, engineSeat)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return parent.Err()
}

func newOpponent(name string, logger zerolog.Logger) (connectx.Player, error) {
	switch name {
	case "", "random":
		return connectx.RandomPlayer{}, nil
	case "cadrega":
		return connectx.NewEnginePlayer(engine.New(
			engine.WithLogger(logger.With().Str("component", "engine").Str("side", "opponent").Logger()),
		)), nil
	default:
		return nil, fmt.Errorf("unknown opponent %q", name)
	}
}

// record folds one game into the status. engineSeat is 0 when the engine
// moved first.
func (a *arena) record(game int, res connectx.Result, engineSeat int) {
	var engineUs int64
	var engineMax time.Duration
	moves := 0
	// MoveTimes skips the opening plies.
	first := (engineSeat + res.Opening) % 2
	for i := first; i < len(res.MoveTimes); i += 2 {
		engineUs += res.MoveTimes[i].Microseconds()
		engineMax = max(engineMax, res.MoveTimes[i])
		moves++
	}
	a.updateStatus(func(s *arenaStatus) {
		s.GamesPlayed++
		switch res.Winner {
		case 0:
			s.Draws++
		case engineSeat + 1:
			s.Wins++
		default:
			s.Losses++
		}
		if res.Forfeit {
			s.Forfeits++
		}
		s.EngineMoves += moves
		s.engineMoveUs += engineUs
		if s.EngineMoves > 0 {
			s.AvgMoveMs = float64(s.engineMoveUs) / float64(s.EngineMoves) / 1000
		}
		s.MaxMoveMs = max(s.MaxMoveMs, float64(engineMax.Microseconds())/1000)
		s.LastResult = res.String()
	})
	a.logger.Info().
		Int("game", game).
		Int("engine_seat", engineSeat+1).
		Int("winner", res.Winner).
		Str("reason", res.Reason).
		Bool("forfeit", res.Forfeit).
		Int("moves", len(res.Moves)).
		Int("opening", res.Opening).
		Msg("game finished")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// buildLogger writes to stdout and appends to the file at path.
func buildLogger(path string) (zerolog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	level, err := zerolog.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	out := io.MultiWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, f)
	logger := zerolog.New(out).Level(level).With().Timestamp().Str("service", "arena").Logger()
	return logger, func() { _ = f.Close() }, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
