package game

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/model"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/scoring"
)

// fakeClock is a settable clock shared by room and store in tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func triviaQuestion(correct int) *model.Question {
	return &model.Question{
		ID:           "q1",
		Type:         model.QuestionTrivia,
		Prompt:       "Which planet is known as the red planet?",
		Options:      []string{"Venus", "Mars", "Jupiter", "Mercury"},
		CorrectIndex: correct,
		MaxTime:      15,
	}
}

func TestFirstJoinerBecomesHost(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)

	if !room.Join("a", "Alice", "", "conn-a", 0) {
		t.Fatal("first joiner should be host")
	}
	if room.Join("b", "Bob", "", "conn-b", 0) {
		t.Fatal("second joiner should not be host")
	}
	if room.HostID() != "a" {
		t.Fatalf("host = %s, want a", room.HostID())
	}
}

func TestHostInvariantAcrossRemovals(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)

	room.Join("a", "Alice", "", "conn-a", 0)
	room.Join("b", "Bob", "", "conn-b", 0)
	room.Join("c", "Cara", "", "conn-c", 0)

	removed, newHost, empty := room.Remove("conn-a")
	if removed == nil || removed.ID != "a" {
		t.Fatalf("expected to remove a, got %+v", removed)
	}
	if empty {
		t.Fatal("room should not be empty")
	}
	if newHost == "" || room.HostID() != newHost {
		t.Fatalf("host not reassigned: newHost=%q hostID=%q", newHost, room.HostID())
	}
	if _, ok := room.Player(newHost); !ok {
		t.Fatal("promoted host is not a room member")
	}

	// removing a non-host must not touch the host
	var other string
	for _, id := range []string{"b", "c"} {
		if id != newHost {
			other = id
		}
	}
	if _, changed, _ := room.Remove(other); changed != "" {
		t.Fatalf("host changed on non-host removal: %q", changed)
	}

	_, _, empty = room.Remove(newHost)
	if !empty {
		t.Fatal("room should be empty after last removal")
	}
}

func TestRejoinPreservesScoreByIdentity(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)

	room.Join("a", "Alice", "", "conn-a", 0)
	room.Join("b", "Bob", "", "conn-b", 0)
	room.BeginRound(triviaQuestion(1), false)
	clock.Advance(2 * time.Second)
	room.RecordSelection("a", "Alice", 1, false)
	room.RecordSelection("b", "Bob", 1, false)
	room.Resolve(scoring.TimeCurve(150, 2))
	room.ClearRound()

	before := room.Scores()["a"]
	if before == 0 {
		t.Fatal("setup: expected a nonzero score")
	}

	// same identity, new connection
	room.Join("a", "Alice", "", "conn-a2", 0)
	if got := room.Scores()["a"]; got != before {
		t.Fatalf("score lost on rejoin: %d, want %d", got, before)
	}
}

func TestScoresViewMatchesPlayers(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)

	room.Join("a", "Alice", "", "conn-a", 40)
	room.Join("b", "Bob", "", "conn-b", 0)
	room.BeginRound(triviaQuestion(0), false)
	clock.Advance(3 * time.Second)
	room.RecordSelection("a", "Alice", 0, false)
	room.Resolve(scoring.TimeCurve(150, 2))

	scores := room.Scores()
	for _, id := range []string{"a", "b"} {
		p, _ := room.Player(id)
		if scores[id] != p.Score {
			t.Errorf("scores[%s]=%d but player score=%d", id, scores[id], p.Score)
		}
	}
	room.Remove("conn-b")
	if _, ok := room.Scores()["b"]; ok {
		t.Error("score view still lists removed player")
	}
}

func TestPushSelectionIgnoredOnRepeat(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)
	room.Join("a", "Alice", "", "conn-a", 0)
	room.Join("b", "Bob", "", "conn-b", 0)
	room.BeginRound(triviaQuestion(2), false)

	clock.Advance(time.Second)
	if _, _, ok, _ := room.RecordSelection("a", "Alice", 2, false); !ok {
		t.Fatal("first selection should be accepted")
	}
	clock.Advance(time.Second)
	if _, _, ok, _ := room.RecordSelection("a", "Alice", 0, false); ok {
		t.Fatal("repeat selection should be silently ignored on the push path")
	}

	result, _ := room.Resolve(scoring.TimeCurve(150, 2))
	if result.Selections["a"].OptionIndex != 2 {
		t.Fatalf("kept selection = %d, want the first pick", result.Selections["a"].OptionIndex)
	}
}

func TestPullSelectionOverwrites(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)
	room.EnsurePlayer("p1", "Poller")
	room.BeginRound(triviaQuestion(2), false)

	clock.Advance(time.Second)
	_, changed, ok, _ := room.RecordSelection("p1", "Poller", 0, true)
	if !ok || changed {
		t.Fatalf("initial pick: ok=%v changed=%v", ok, changed)
	}
	clock.Advance(time.Second)
	sel, changed, ok, _ := room.RecordSelection("p1", "Poller", 2, true)
	if !ok || !changed {
		t.Fatalf("changed pick: ok=%v changed=%v", ok, changed)
	}
	if sel.OptionIndex != 2 || sel.TimeTaken != 2 {
		t.Fatalf("overwritten selection = %+v", sel)
	}
}

func TestSelectionRejectedOutOfRound(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)
	room.Join("a", "Alice", "", "conn-a", 0)

	if _, _, ok, _ := room.RecordSelection("a", "Alice", 0, false); ok {
		t.Fatal("selection before any round should be rejected")
	}

	room.BeginRound(triviaQuestion(0), false)
	clock.Advance(time.Second)
	room.RecordSelection("a", "Alice", 0, false)
	room.Resolve(scoring.TimeCurve(150, 2))

	if _, _, ok, _ := room.RecordSelection("a", "Alice", 1, true); ok {
		t.Fatal("selection after round end should be rejected")
	}
}

func TestAllAnsweredCountsConnectedOnly(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)
	room.Join("a", "Alice", "", "conn-a", 0)
	room.Join("b", "Bob", "", "conn-b", 0)
	room.Join("c", "Cara", "", "conn-c", 0)
	room.BeginRound(triviaQuestion(0), false)
	room.Remove("conn-c")

	clock.Advance(time.Second)
	if _, _, _, all := room.RecordSelection("a", "Alice", 0, false); all {
		t.Fatal("one of two answered, allAnswered should be false")
	}
	if _, _, _, all := room.RecordSelection("b", "Bob", 1, false); !all {
		t.Fatal("both connected players answered, allAnswered should be true")
	}
}

func TestResolveIdempotent(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)
	room.Join("a", "Alice", "", "conn-a", 0)
	room.Join("b", "Bob", "", "conn-b", 0)
	room.BeginRound(triviaQuestion(1), false)

	clock.Advance(2 * time.Second)
	room.RecordSelection("a", "Alice", 1, false)
	clock.Advance(8 * time.Second)
	room.RecordSelection("b", "Bob", 1, false)

	first, wasFirst := room.Resolve(scoring.TimeCurve(150, 2))
	if !wasFirst {
		t.Fatal("first resolve should report first=true")
	}
	if first.Scores["a"] != 113 || first.Scores["b"] != 17 {
		t.Fatalf("scores = %v, want a=113 b=17", first.Scores)
	}

	second, wasFirst := room.Resolve(scoring.TimeCurve(150, 2))
	if wasFirst {
		t.Fatal("second resolve should replay, not recompute")
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("replayed result differs:\n%s\n%s", a, b)
	}
	// at-most-once: cumulative scores unchanged by the replay
	if got := room.Scores()["a"]; got != 113 {
		t.Fatalf("score changed on replay: %d", got)
	}
}

func TestBeginRoundConvergence(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)
	room.EnsurePlayer("p1", "Poller")

	if !room.BeginRound(triviaQuestion(0), false) {
		t.Fatal("first begin should succeed")
	}
	if room.BeginRound(triviaQuestion(1), false) {
		t.Fatal("second begin during an active round should refuse")
	}
	q, left, ok := room.ActiveQuestion()
	if !ok || q.ID != "q1" {
		t.Fatalf("active question = %+v ok=%v", q, ok)
	}
	if left != 15000 {
		t.Fatalf("timeLeft = %dms, want 15000", left)
	}
	clock.Advance(4 * time.Second)
	if _, left, _ = room.ActiveQuestion(); left != 11000 {
		t.Fatalf("timeLeft after 4s = %dms, want 11000", left)
	}

	if !room.BeginRound(triviaQuestion(1), true) {
		t.Fatal("forced begin should supersede the active round")
	}
}

func TestSnapshotOrdersByScore(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)
	room.Join("a", "Alice", "", "conn-a", 10)
	room.Join("b", "Bob", "", "conn-b", 30)
	room.Join("c", "Cara", "", "conn-c", 20)

	snap := room.Snapshot()
	if len(snap.Players) != 3 {
		t.Fatalf("players = %d", len(snap.Players))
	}
	if snap.Players[0].ID != "b" || snap.Players[1].ID != "c" || snap.Players[2].ID != "a" {
		t.Fatalf("order = %s,%s,%s", snap.Players[0].ID, snap.Players[1].ID, snap.Players[2].ID)
	}
	if snap.HostID != "a" {
		t.Fatalf("hostId = %s", snap.HostID)
	}
}

func TestStateSnapshotHidesAnswer(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)
	room.Join("a", "Alice", "", "conn-a", 0)
	room.BeginRound(triviaQuestion(3), false)

	data, err := json.Marshal(room.StateSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	q, ok := decoded["question"].(map[string]any)
	if !ok {
		t.Fatal("snapshot missing question")
	}
	if _, leaked := q["correctIndex"]; leaked {
		t.Fatal("snapshot leaks the correct index")
	}
}

func TestInstantSelectionScoresFullPoints(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)
	room.Join("a", "Alice", "", "conn-a", 0)
	room.BeginRound(triviaQuestion(1), false)

	// answered in the same millisecond as the round start
	sel, _, ok, _ := room.RecordSelection("a", "Alice", 1, false)
	if !ok {
		t.Fatal("selection rejected")
	}
	if sel.TimeTaken <= 0 {
		t.Fatalf("timeTaken = %v, want positive", sel.TimeTaken)
	}

	result, _ := room.Resolve(scoring.TimeCurve(150, 2))
	if result.Scores["a"] != 150 {
		t.Fatalf("instant correct answer scored %d, want 150", result.Scores["a"])
	}
}

func TestClearRoundLeavesNewRoundRunning(t *testing.T) {
	clock := newFakeClock()
	room := NewRoom("chan-1", clock.Now)
	room.Join("a", "Alice", "", "conn-a", 0)
	room.BeginRound(triviaQuestion(1), false)
	clock.Advance(2 * time.Second)
	room.RecordSelection("a", "Alice", 1, false)
	room.Resolve(scoring.TimeCurve(150, 2))

	// a new round starts between resolution and the clear
	next := triviaQuestion(0)
	next.ID = "q2"
	if !room.BeginRound(next, false) {
		t.Fatal("begin after resolution should succeed")
	}
	room.ClearRound()

	q, _, ok := room.ActiveQuestion()
	if !ok || q.ID != "q2" {
		t.Fatalf("new round wiped by stale clear: q=%+v ok=%v", q, ok)
	}

	// an ended round is still cleared
	room.Resolve(scoring.TimeCurve(150, 2))
	room.ClearRound()
	if _, _, ok := room.ActiveQuestion(); ok {
		t.Fatal("resolved round should be cleared")
	}
}
