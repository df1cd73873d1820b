package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *GameController) {
	t.Helper()
	controller := NewGameController(humanSettings(6, 7, 4))
	srv := httptest.NewServer(newRouter(controller, NewHub(), NewGhostHub()))
	t.Cleanup(srv.Close)
	return srv, controller
}

func postJSON(t *testing.T, url string, payload any, out any) int {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestAPIPing(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/ping")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAPIStartAndMove(t *testing.T) {
	srv, _ := newTestServer(t)

	var status StatusResponse
	code := postJSON(t, srv.URL+"/api/start", map[string]any{
		"settings": GameSettingsDTO{Mode: "human_vs_human", Rows: 5, Cols: 6, WinLength: 4},
	}, &status)
	if code != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", code)
	}
	if status.Status != "running" || status.Rows != 5 || status.Cols != 6 {
		t.Fatalf("expected a running 5x6 game, got %+v", status)
	}
	if status.Settings.Mode != "human_vs_human" {
		t.Fatalf("expected human_vs_human, got %s", status.Settings.Mode)
	}

	code = postJSON(t, srv.URL+"/api/move", apiMove{Col: 2}, &status)
	if code != http.StatusOK {
		t.Fatalf("expected 200 on move, got %d", code)
	}
	if len(status.History) != 1 || status.History[0].Col != 2 || status.NextPlayer != 2 {
		t.Fatalf("expected one move in column 2, got %+v", status)
	}

	var failure map[string]string
	code = postJSON(t, srv.URL+"/api/move", apiMove{Col: 6}, &failure)
	if code != http.StatusBadRequest || !strings.Contains(failure["error"], "out of bounds") {
		t.Fatalf("expected out of bounds rejection, got %d %v", code, failure)
	}
}

func TestAPIRejectsInvalidBoard(t *testing.T) {
	srv, _ := newTestServer(t)
	code := postJSON(t, srv.URL+"/api/start", map[string]any{
		"settings": GameSettingsDTO{Mode: "human_vs_human", Rows: 64, Cols: 7, WinLength: 4},
	}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAPISettingsUpdatesConfig(t *testing.T) {
	withConfig(t, func(*Config) {})
	srv, controller := newTestServer(t)

	cfg := GetConfig()
	cfg.GhostMode = true
	cfg.AiTimeoutSecs = 99
	code := postJSON(t, srv.URL+"/api/settings", map[string]any{
		"config":   cfg,
		"settings": GameSettingsDTO{Mode: "ai_vs_human", HumanPlayer: 2, Opponent: "random"},
	}, nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	got := GetConfig()
	if !got.GhostMode || got.AiTimeoutSecs != 60 {
		t.Fatalf("expected ghost mode and a clamped timeout, got %+v", got)
	}
	settings := controller.Settings()
	if settings.FirstType != PlayerRandom || settings.SecondType != PlayerHuman {
		t.Fatalf("expected random first and human second, got %d/%d", settings.FirstType, settings.SecondType)
	}
}

func TestAPIDebugTable(t *testing.T) {
	srv, controller := newTestServer(t)
	controller.StartGame(humanSettings(3, 3, 3))
	controller.ApplyHumanMove(Move{Col: 1})

	resp, err := http.Get(srv.URL + "/api/debug/table")
	if err != nil {
		t.Fatalf("debug table: %v", err)
	}
	defer resp.Body.Close()
	var out debugTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out.Table, "X") {
		t.Fatalf("expected the played piece in the table:\n%s", out.Table)
	}
}

func TestSettingsDTORoundTrip(t *testing.T) {
	base := DefaultGameSettings()
	for _, dto := range []GameSettingsDTO{
		{Mode: "human_vs_human", HumanPlayer: 1},
		{Mode: "ai_vs_ai"},
		{Mode: "ai_vs_random"},
		{Mode: "ai_vs_human", HumanPlayer: 1},
		{Mode: "ai_vs_human", HumanPlayer: 2},
	} {
		dto.Rows, dto.Cols, dto.WinLength = base.Rows, base.Cols, base.WinLength
		got := controllerSettingsDTO(settingsFromDTO(dto, base))
		if got != dto {
			t.Fatalf("expected %+v, got %+v", dto, got)
		}
	}
}
