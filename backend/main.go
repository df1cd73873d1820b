package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type StatusResponse struct {
	Settings        GameSettingsDTO   `json:"settings"`
	Config          Config            `json:"config"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	Rows            int               `json:"rows"`
	Cols            int               `json:"cols"`
	WinLength       int               `json:"win_length"`
	Status          string            `json:"status"`
	Message         string            `json:"message,omitempty"`
	History         []historyEntryDTO `json:"history"`
	WinningLine     []Move            `json:"winning_line"`
	AiThinking      bool              `json:"ai_thinking"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type GameSettingsDTO struct {
	Mode        string `json:"mode"`
	HumanPlayer int    `json:"human_player"`
	Opponent    string `json:"opponent,omitempty"`
	Rows        int    `json:"rows,omitempty"`
	Cols        int    `json:"cols,omitempty"`
	WinLength   int    `json:"win_length,omitempty"`
}

type apiMove struct {
	Col int `json:"col"`
}

type historyEntryDTO struct {
	Col       int     `json:"col"`
	Row       int     `json:"row"`
	Player    int     `json:"player"`
	ElapsedMs float64 `json:"elapsed_ms"`
	IsAi      bool    `json:"is_ai"`
	Depth     int     `json:"depth"`
	Nodes     int64   `json:"nodes"`
	Opening   bool    `json:"opening,omitempty"`
}

type historyPayload struct {
	History []historyEntryDTO `json:"history"`
}

type resetPayload struct {
	History         []historyEntryDTO `json:"history"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	Status          string            `json:"status"`
	Rows            int               `json:"rows"`
	Cols            int               `json:"cols"`
	WinningLine     []Move            `json:"winning_line"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type settingsPayload struct {
	Settings GameSettingsDTO `json:"settings"`
	Config   Config          `json:"config"`
}

type debugTableResponse struct {
	Table string `json:"table"`
}

func main() {
	setupLogging(getenv("LOG_LEVEL", "info"), getenv("LOG_FORMAT", "console"))
	cfg := GetConfig()
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.AiTimeoutSecs = getenvInt("AI_TIMEOUT_SECS", cfg.AiTimeoutSecs)
	configStore.Update(cfg)
	addr := getenv("BACKEND_ADDR", ":8080")

	controller := NewGameController(DefaultGameSettings())
	hub := NewHub()
	ghostHub := NewGhostHub()
	controller.SetGhostPublisher(
		func() bool { return ghostHub.HasClients() && GetConfig().GhostMode },
		ghostHub.Publish,
	)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	g, ctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		hub.Run(ctx.Done())
		return nil
	})
	g.Go(func() error {
		ghostHub.Run(ctx.Done())
		return nil
	})
	g.Go(func() error {
		runGameLoop(ctx, controller, hub)
		return nil
	})

	server := &http.Server{
		Addr:    addr,
		Handler: newRouter(controller, hub, ghostHub),
	}
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Msg("graceful shutdown failed")
			return server.Close()
		}
		return nil
	})

	err := g.Wait()
	controller.Reset(controller.Settings())
	if err != nil {
		log.Error().Err(err).Msg("backend stopped")
		os.Exit(1)
	}
	log.Info().Msg("backend stopped")
}

func runGameLoop(ctx context.Context, controller *GameController, hub *Hub) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if controller.Tick() {
				if entry, ok := controller.LatestHistoryEntry(); ok {
					hub.PublishHistory(historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}})
				}
				hub.PublishStatus(controllerStatus(controller))
			}
		}
	}
}

func newRouter(controller *GameController, hub *Hub, ghostHub *GhostHub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/start", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings GameSettingsDTO `json:"settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		settings := settingsFromDTO(payload.Settings, controller.Settings())
		if !settings.valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid board"})
			return
		}
		controller.StartGame(settings)
		writeJSON(w, http.StatusOK, controllerStatus(controller))
		hub.PublishReset(resetFromController(controller))
	})

	r.Post("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		controller.Reset(controller.Settings())
		writeJSON(w, http.StatusOK, controllerStatus(controller))
		hub.PublishReset(resetFromController(controller))
	})

	r.Post("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings *GameSettingsDTO `json:"settings"`
			Config   *Config          `json:"config"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if payload.Config != nil {
			configStore.Update(*payload.Config)
			controller.ResetForConfigChange()
		}
		if payload.Settings != nil {
			settings := settingsFromDTO(*payload.Settings, controller.Settings())
			if !settings.valid() {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid board"})
				return
			}
			controller.UpdateSettings(settings, false)
		}
		hub.PublishSettings(settingsPayload{
			Settings: controllerSettingsDTO(controller.Settings()),
			Config:   GetConfig(),
		})
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/move", func(w http.ResponseWriter, r *http.Request) {
		var payload apiMove
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		applied, errMsg := controller.ApplyHumanMove(Move{Col: payload.Col})
		if !applied {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
			return
		}
		if entry, ok := controller.LatestHistoryEntry(); ok {
			hub.PublishHistory(historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}})
		}
		hub.PublishStatus(controllerStatus(controller))
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Get("/api/debug/table", func(w http.ResponseWriter, r *http.Request) {
		table, err := controller.DebugTable()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, debugTableResponse{Table: table})
	})

	r.Get("/ws/", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, controller, w, r)
	})
	r.Get("/ws/ghost", func(w http.ResponseWriter, r *http.Request) {
		serveGhostWS(ghostHub, w, r)
	})
	return r
}

func serveWS(hub *Hub, controller *GameController, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{hub: hub, send: make(chan []byte, 16)}
	hub.Register(client)
	client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controllerStatus(controller))})

	go func() {
		defer conn.Close()
		_ = writeWSWithHeartbeat(conn, client.send)
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_status":
			client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controllerStatus(controller))})
		case "move":
			var move apiMove
			if err := json.Unmarshal(msg.Payload, &move); err != nil {
				continue
			}
			controller.OnColumnClicked(move.Col)
		}
	}
}

func controllerStatus(controller *GameController) StatusResponse {
	state := controller.State()
	settings := controller.Settings()
	return StatusResponse{
		Settings:        controllerSettingsDTO(settings),
		Config:          GetConfig(),
		NextPlayer:      state.ToMove(),
		Winner:          winnerFromStatus(state.Status),
		Rows:            settings.Rows,
		Cols:            settings.Cols,
		WinLength:       settings.WinLength,
		Status:          statusToString(state.Status),
		Message:         state.LastMessage,
		History:         historyToDTO(controller.History()),
		WinningLine:     append([]Move(nil), state.WinningLine...),
		AiThinking:      controller.AiThinking(),
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
}

func settingsFromDTO(dto GameSettingsDTO, base GameSettings) GameSettings {
	settings := base
	if dto.Rows > 0 {
		settings.Rows = dto.Rows
	}
	if dto.Cols > 0 {
		settings.Cols = dto.Cols
	}
	if dto.WinLength > 0 {
		settings.WinLength = dto.WinLength
	}
	machine := PlayerAI
	if dto.Opponent == "random" {
		machine = PlayerRandom
	}
	switch dto.Mode {
	case "ai_vs_ai":
		settings.FirstType = machine
		settings.SecondType = machine
	case "human_vs_human":
		settings.FirstType = PlayerHuman
		settings.SecondType = PlayerHuman
	case "ai_vs_random":
		settings.FirstType = PlayerAI
		settings.SecondType = PlayerRandom
	case "ai_vs_human":
		if dto.HumanPlayer == 2 {
			settings.FirstType = machine
			settings.SecondType = PlayerHuman
		} else {
			settings.FirstType = PlayerHuman
			settings.SecondType = machine
		}
	}
	return settings
}

func controllerSettingsDTO(settings GameSettings) GameSettingsDTO {
	dto := GameSettingsDTO{
		Mode:      "ai_vs_human",
		Rows:      settings.Rows,
		Cols:      settings.Cols,
		WinLength: settings.WinLength,
	}
	first, second := settings.FirstType, settings.SecondType
	switch {
	case first == PlayerHuman && second == PlayerHuman:
		dto.Mode = "human_vs_human"
		dto.HumanPlayer = 1
	case first == PlayerAI && second == PlayerRandom:
		dto.Mode = "ai_vs_random"
	case first != PlayerHuman && second != PlayerHuman:
		dto.Mode = "ai_vs_ai"
	case first == PlayerHuman:
		dto.HumanPlayer = 1
	default:
		dto.HumanPlayer = 2
	}
	if first == PlayerRandom || (second == PlayerRandom && dto.Mode != "ai_vs_random") {
		dto.Opponent = "random"
	}
	return dto
}

func winnerFromStatus(status GameStatus) int {
	switch status {
	case StatusFirstWon:
		return 1
	case StatusSecondWon:
		return 2
	default:
		return 0
	}
}

func statusToString(status GameStatus) string {
	switch status {
	case StatusNotStarted:
		return "not_started"
	case StatusFirstWon:
		return "first_won"
	case StatusSecondWon:
		return "second_won"
	case StatusDraw:
		return "draw"
	case StatusAborted:
		return "aborted"
	default:
		return "running"
	}
}

func historyToDTO(history MoveHistory) []historyEntryDTO {
	entries := history.All()
	result := make([]historyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, historyEntryToDTO(entry))
	}
	return result
}

func historyEntryToDTO(entry HistoryEntry) historyEntryDTO {
	return historyEntryDTO{
		Col:       entry.Move.Col,
		Row:       entry.Move.Row,
		Player:    entry.Player,
		ElapsedMs: entry.ElapsedMs,
		IsAi:      entry.IsAi,
		Depth:     entry.Depth,
		Nodes:     entry.Nodes,
		Opening:   entry.Opening,
	}
}

func resetFromController(controller *GameController) resetPayload {
	state := controller.State()
	settings := controller.Settings()
	return resetPayload{
		History:         historyToDTO(controller.History()),
		NextPlayer:      state.ToMove(),
		Winner:          winnerFromStatus(state.Status),
		Status:          statusToString(state.Status),
		Rows:            settings.Rows,
		Cols:            settings.Cols,
		WinningLine:     append([]Move(nil), state.WinningLine...),
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
