package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyloom-dev/storyloom/internal/gen"
	"github.com/storyloom-dev/storyloom/internal/story"
)

// scriptedText serves canned responses; structured calls get the cast
// payload, free-text calls get prose.
type scriptedText struct {
	cast    string
	prose   string
	castErr error
}

func (s *scriptedText) Complete(ctx context.Context, req gen.Request) (string, error) {
	return s.prose, nil
}

func (s *scriptedText) Structured(ctx context.Context, req gen.Request) (json.RawMessage, error) {
	if strings.Contains(req.System, "showrunner") {
		if s.castErr != nil {
			return nil, s.castErr
		}
		return json.RawMessage(s.cast), nil
	}
	return json.RawMessage(`{"success": true}`), nil
}

func (s *scriptedText) Name() string { return "scripted" }

type scriptedImage struct{ url string }

func (s *scriptedImage) Generate(ctx context.Context, prompt string) (string, error) {
	return s.url, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *scriptedText) {
	t.Helper()
	text := &scriptedText{
		cast: `{
			"agents": [
				{"name": "Kara", "role": "Protagonist", "description": "a burglar", "personality": "cool"},
				{"name": "Vex", "role": "Antagonist", "description": "a warden", "personality": "stern"}
			],
			"visual_style": "Noir",
			"starting_location": "the skydock"
		}`,
		prose: "Kara crossed the skydock in silence.",
	}
	store := story.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	engine := story.NewEngine(text, &scriptedImage{url: "https://img.example/1.png"}, store)
	ts := httptest.NewServer(NewServer(engine, 0).Handler())
	t.Cleanup(ts.Close)
	return ts, text
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestStartEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := postJSON(t, ts.URL+"/story/start", StartRequest{Scenario: "a heist in a floating city"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state GameStateResponse
	require.NoError(t, json.Unmarshal(body, &state))
	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, 0, state.TurnCount)
	assert.Equal(t, "the skydock", state.CurrentLocation)
	assert.Equal(t, "Kara", state.ActiveActorName)
	assert.Contains(t, state.LastNarrative, "a heist in a floating city",
		"before any turn the narrative falls back to the seeded summary")
	assert.Empty(t, state.History)
}

func TestStartEndpointValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty scenario", `{"scenario": ""}`},
		{"malformed body", `{"scenario": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/story/start", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestStartEndpointCreateFailure(t *testing.T) {
	ts, text := newTestServer(t)
	text.castErr = errors.New("provider down")

	resp, body := postJSON(t, ts.URL+"/story/start", StartRequest{Scenario: "doomed"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var fail errorResponse
	require.NoError(t, json.Unmarshal(body, &fail))
	assert.Equal(t, "failed to create game", fail.Detail)
}

func TestTurnEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	_, body := postJSON(t, ts.URL+"/story/start", StartRequest{Scenario: "a heist in a floating city"})
	var started GameStateResponse
	require.NoError(t, json.Unmarshal(body, &started))

	resp, body := postJSON(t, ts.URL+"/story/turn", TurnRequest{
		SessionID:        started.SessionID,
		FateIntervention: "a storm rolls in",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state GameStateResponse
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, 1, state.TurnCount)
	assert.Equal(t, "Kara crossed the skydock in silence.", state.LastNarrative)
	assert.Equal(t, "https://img.example/1.png", state.ImageURL)
	require.Len(t, state.History, 1)
}

func TestTurnEndpointHistoryWindow(t *testing.T) {
	ts, _ := newTestServer(t)

	_, body := postJSON(t, ts.URL+"/story/start", StartRequest{Scenario: "a long story"})
	var started GameStateResponse
	require.NoError(t, json.Unmarshal(body, &started))

	var state GameStateResponse
	for i := 0; i < 7; i++ {
		_, body = postJSON(t, ts.URL+"/story/turn", TurnRequest{SessionID: started.SessionID})
	}
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, 7, state.TurnCount)
	assert.Len(t, state.History, historyWindow, "history echo is capped")
}

func TestTurnEndpointUnknownSession(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := postJSON(t, ts.URL+"/story/turn", TurnRequest{SessionID: "no-such-session"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var fail errorResponse
	require.NoError(t, json.Unmarshal(body, &fail))
	assert.Equal(t, "game session not found", fail.Detail)
}

func TestTurnEndpointValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := postJSON(t, ts.URL+"/story/turn", TurnRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRootEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status["status"])
}
