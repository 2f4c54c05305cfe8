package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunetrivia/internal/broadcast"
	"tunetrivia/internal/catalog"
	"tunetrivia/internal/game"
	"tunetrivia/internal/gamedata"
	"tunetrivia/internal/metrics"
	"tunetrivia/internal/rooms"
	"tunetrivia/internal/sessions"
	"tunetrivia/internal/wshub"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return &Server{
		Game: game.NewCoordinator(
			rooms.NewStore(gamedata.DefaultConfig()),
			sessions.NewTracker(),
			broadcast.NewBroadcaster(),
			game.Options{Metrics: m},
		),
		Registry: reg,
		Origins:  []string{"*"},
		Limits:   wshub.Limits{Rate: 100, Burst: 100},
	}
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth_NoDatabase(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetrics_Exposed(t *testing.T) {
	s := newTestServer(t)
	s.Game.Connect("c1", make(chan []byte, 8))

	rec := do(t, s, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tunetrivia_connections_active 1")
}

func TestRoom_NotFound(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/rooms/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoom_Summary(t *testing.T) {
	s := newTestServer(t)
	s.Game.Connect("c1", make(chan []byte, 8))
	s.Game.HandleFrame("c1", []byte(`{"event":"create-room","data":{"code":"abcd","host":"alice"}}`))
	s.Game.HandleFrame("c1", []byte(`{"event":"join","data":{"code":"ABCD","playerName":"alice"}}`))

	rec := do(t, s, http.MethodGet, "/api/rooms/abcd", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got game.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ABCD", got.Code)
	assert.Equal(t, "alice", got.Host)
	assert.Equal(t, []string{"alice"}, got.Players)
	assert.Equal(t, gamedata.PhaseLobby, got.Phase)
}

func TestTracks_NotConfigured(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/api/tracks?genre=pop", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/api/tracks/refresh?genre=pop", "").Code)
}

func TestTracks_Fetch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tracks":[{"id":"1","name":"Song","artists":["A"],"preview_url":"http://p"}]}`))
	}))
	defer upstream.Close()

	s := newTestServer(t)
	s.Catalog = catalog.NewClient(upstream.URL, time.Minute, nil)

	rec := do(t, s, http.MethodGet, "/api/tracks?genre=pop", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tracks []catalog.Track `json:"tracks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tracks, 1)
	assert.Equal(t, "Song", body.Tracks[0].Name)
}

func TestTracks_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	s := newTestServer(t)
	s.Catalog = catalog.NewClient(upstream.URL, time.Minute, nil)

	assert.Equal(t, http.StatusBadGateway, do(t, s, http.MethodPost, "/api/tracks/refresh?genre=pop", "").Code)
}

func TestCheckAnswer(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/answers/check", `{"guess":"beyonce","answer":"Beyoncé"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Correct bool `json:"correct"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Correct)

	rec = do(t, s, http.MethodPost, "/api/answers/check", `{"guess":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentGames_NoDatabase(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/games/recent", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t)
	s.Origins = []string{"https://play.example.com"}

	req := httptest.NewRequest(http.MethodOptions, "/api/tracks", nil)
	req.Header.Set("Origin", "https://play.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, "https://play.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginPatterns(t *testing.T) {
	s := &Server{Origins: []string{"https://play.example.com/", "http://localhost:5173"}}
	assert.Equal(t, []string{"play.example.com", "localhost:5173"}, s.originPatterns())

	s.Origins = nil
	assert.Equal(t, []string{"*"}, s.originPatterns())
}

type wireFrame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) wireFrame {
	t.Helper()
	for {
		var f wireFrame
		require.NoError(t, wsjson.Read(ctx, conn, &f))
		if f.Event == event {
			return f
		}
	}
}

func TestWebSocket_CreateAndJoin(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	host, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer host.CloseNow()
	guest, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer guest.CloseNow()

	require.NoError(t, wsjson.Write(ctx, host, map[string]any{
		"event": "create-room",
		"data":  map[string]any{"code": "WXYZ", "host": "alice"},
	}))
	created := readUntil(t, ctx, host, "room-created")
	assert.Equal(t, "WXYZ", created.Data["code"])

	require.NoError(t, wsjson.Write(ctx, host, map[string]any{
		"event": "join",
		"data":  map[string]any{"code": "WXYZ", "playerName": "alice"},
	}))
	readUntil(t, ctx, host, "join-success")
	first := readUntil(t, ctx, host, "players-updated")
	assert.Equal(t, []any{"alice"}, first.Data["players"])

	require.NoError(t, wsjson.Write(ctx, guest, map[string]any{
		"event": "join",
		"data":  map[string]any{"code": "wxyz", "playerName": "bob"},
	}))
	joined := readUntil(t, ctx, guest, "join-success")
	assert.Equal(t, "alice", joined.Data["host"])
	assert.Equal(t, false, joined.Data["isHost"])

	roster := readUntil(t, ctx, host, "players-updated")
	assert.ElementsMatch(t, []any{"alice", "bob"}, roster.Data["players"])

	guest.Close(websocket.StatusNormalClosure, "")
	left := readUntil(t, ctx, host, "playerLeft")
	assert.Equal(t, "bob", left.Data["playerName"])
}
