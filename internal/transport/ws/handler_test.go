package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/archive"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/game"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/identity"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/model"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/scheduler"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/service"
)

// tokenVerifier maps bearer tokens to identities.
type tokenVerifier map[string]identity.Identity

func (v tokenVerifier) Verify(ctx context.Context, token string) (identity.Identity, error) {
	id, ok := v[token]
	if !ok {
		return identity.Identity{}, identity.ErrInvalidToken
	}
	return id, nil
}

type staticSource struct{}

func (staticSource) Trivia(ctx context.Context) (*model.Question, error) {
	return &model.Question{
		ID:           "q1",
		Type:         model.QuestionTrivia,
		Prompt:       "Which planet is known as the red planet?",
		Options:      []string{"Venus", "Mars", "Jupiter", "Mercury"},
		CorrectIndex: 1,
	}, nil
}

func (staticSource) Visual(ctx context.Context) (*model.Question, error) {
	return nil, errors.New("no visual pool in this fixture")
}

func newTestServer(t *testing.T) (*httptest.Server, *scheduler.RoundTimers) {
	t.Helper()
	store := game.NewStore(time.Now)
	timers := scheduler.NewRoundTimers()
	t.Cleanup(timers.StopAll)

	svc := service.NewGameService(store, staticSource{}, archive.NewMemoryCounters(), timers, service.Options{})
	hub := NewHub()
	svc.SetBroadcaster(hub)

	verifier := tokenVerifier{
		"tok-a": {ID: "a", Username: "Alice"},
		"tok-b": {ID: "b", Username: "Bob"},
	}
	handler := NewHandler(hub, svc, verifier)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/ws", handler.ServeWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, timers
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + srv.URL[len("http"):] + "/api/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", query, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil consumes messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if msg.Type == event {
			return msg.Payload
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(&Message{Type: event, Payload: body}); err != nil {
		t.Fatal(err)
	}
}

func TestConnectionRejectedBeforeUpgrade(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		query  string
		status int
	}{
		{"token=tok-a", http.StatusBadRequest},                     // no room key
		{"channel_id=chan-1", http.StatusUnauthorized},             // no token
		{"channel_id=chan-1&token=bogus", http.StatusUnauthorized}, // bad token
	}
	for _, c := range cases {
		resp, err := http.Get(srv.URL + "/api/ws?" + c.query)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != c.status {
			t.Errorf("%s: status = %d, want %d", c.query, resp.StatusCode, c.status)
		}
	}
}

func TestFullRoundOverWebSocket(t *testing.T) {
	srv, timers := newTestServer(t)

	connA := dial(t, srv, "channel_id=chan-1&token=tok-a")

	var joined model.YouJoinedPayload
	if err := json.Unmarshal(readUntil(t, connA, model.EventYouJoined), &joined); err != nil {
		t.Fatal(err)
	}
	if joined.PlayerID != "a" || !joined.IsHost {
		t.Fatalf("joined = %+v, want host a", joined)
	}

	connB := dial(t, srv, "channel_id=chan-1&token=tok-b")
	if err := json.Unmarshal(readUntil(t, connB, model.EventYouJoined), &joined); err != nil {
		t.Fatal(err)
	}
	if joined.PlayerID != "b" || joined.IsHost {
		t.Fatalf("joined = %+v, want non-host b", joined)
	}

	// roster reaches both connections
	var roster model.RoomSnapshot
	if err := json.Unmarshal(readUntil(t, connA, model.EventRoomState), &roster); err != nil {
		t.Fatal(err)
	}

	send(t, connA, model.EventStartQuestion, nil)

	var started model.QuestionStartedPayload
	if err := json.Unmarshal(readUntil(t, connB, model.EventQuestionStarted), &started); err != nil {
		t.Fatal(err)
	}
	if started.Question == nil || len(started.Question.Options) != 4 {
		t.Fatalf("question payload = %+v", started)
	}
	if started.MaxTime != 15 {
		t.Fatalf("maxTime = %d", started.MaxTime)
	}
	if !timers.Active("chan-1") {
		t.Fatal("round timer should be armed")
	}

	send(t, connA, model.EventSelectOption, map[string]int{"optionIndex": 1})
	send(t, connB, model.EventSelectOption, map[string]int{"optionIndex": 2})

	// all connected players answered: round resolves without the timer
	var result model.RoundResult
	if err := json.Unmarshal(readUntil(t, connA, model.EventShowResult), &result); err != nil {
		t.Fatal(err)
	}
	if result.CorrectIndex != 1 {
		t.Fatalf("correctIndex = %d", result.CorrectIndex)
	}
	if result.Scores["a"] <= 0 || result.Scores["a"] > 150 {
		t.Fatalf("score a = %d, want within the curve range", result.Scores["a"])
	}
	if result.Scores["b"] != 0 {
		t.Fatalf("score b = %d, want 0 for wrong answer", result.Scores["b"])
	}
	if len(result.Selections) != 2 {
		t.Fatalf("selections = %+v", result.Selections)
	}

	// post-round roster returns to waiting
	for {
		if err := json.Unmarshal(readUntil(t, connB, model.EventRoomState), &roster); err != nil {
			t.Fatal(err)
		}
		if roster.GameState == "waiting" {
			break
		}
	}
}

func TestHostReassignedOnDisconnect(t *testing.T) {
	srv, _ := newTestServer(t)

	connA := dial(t, srv, "channel_id=chan-2&token=tok-a")
	readUntil(t, connA, model.EventYouJoined)
	connB := dial(t, srv, "channel_id=chan-2&token=tok-b")
	readUntil(t, connB, model.EventYouJoined)

	connA.Close()

	var promoted model.YouJoinedPayload
	if err := json.Unmarshal(readUntil(t, connB, model.EventYouJoined), &promoted); err != nil {
		t.Fatal(err)
	}
	if promoted.PlayerID != "b" || !promoted.IsHost {
		t.Fatalf("promotion = %+v", promoted)
	}
}

func TestReconnectReceivesSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)

	connA := dial(t, srv, "channel_id=chan-3&token=tok-a")
	readUntil(t, connA, model.EventYouJoined)
	connB := dial(t, srv, "channel_id=chan-3&token=tok-b")
	readUntil(t, connB, model.EventYouJoined)

	send(t, connA, model.EventStartQuestion, nil)
	readUntil(t, connA, model.EventQuestionStarted)

	// B's network flaps: a second connection arrives with the
	// reconnect flag before the first one is torn down.
	connB2 := dial(t, srv, "channel_id=chan-3&token=tok-b&reconnect=1")

	var snap model.GameStateSnapshot
	if err := json.Unmarshal(readUntil(t, connB2, model.EventGameState), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Question == nil || snap.Question.ID != "q1" {
		t.Fatalf("snapshot question = %+v", snap.Question)
	}
	if snap.TimeLeftMs <= 0 || snap.TimeLeftMs > 15000 {
		t.Fatalf("timeLeftMs = %d", snap.TimeLeftMs)
	}
}
