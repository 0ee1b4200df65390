package game

import (
	"testing"
	"time"
)

func TestGetOrCreate(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(clock.Now)

	room, created := store.GetOrCreate("chan-1")
	if !created {
		t.Fatal("first call should create")
	}
	again, created := store.GetOrCreate("chan-1")
	if created || again != room {
		t.Fatal("second call should return the same room")
	}
	if _, ok := store.Get("chan-2"); ok {
		t.Fatal("Get should not create rooms")
	}
}

func TestCleanupInactive(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(clock.Now)

	stale, _ := store.GetOrCreate("stale")
	stale.Join("a", "Alice", "", "conn-a", 0)

	clock.Advance(61 * time.Minute)
	fresh, _ := store.GetOrCreate("fresh")
	fresh.Join("b", "Bob", "", "conn-b", 0)

	evicted := store.CleanupInactive(time.Hour)
	if len(evicted) != 1 || evicted[0] != "stale" {
		t.Fatalf("evicted = %v, want [stale]", evicted)
	}
	if _, ok := store.Get("stale"); ok {
		t.Fatal("stale room still present")
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Fatal("fresh room evicted")
	}
}

func TestDayScoreRegistry(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(clock.Now)

	store.StashScore("chan-1", "a", 120)
	store.StashScore("chan-1", "b", 0) // not worth remembering

	if score, ok := store.TakeScore("chan-1", "a"); !ok || score != 120 {
		t.Fatalf("restore = %d,%v want 120,true", score, ok)
	}
	if _, ok := store.TakeScore("chan-1", "a"); ok {
		t.Fatal("stash should be consumed on restore")
	}
	if _, ok := store.TakeScore("chan-1", "b"); ok {
		t.Fatal("zero score should not be stashed")
	}

	store.StashScore("chan-1", "c", 50)
	store.ClearDayScores()
	if _, ok := store.TakeScore("chan-1", "c"); ok {
		t.Fatal("registry should be empty after the daily clear")
	}
}

func TestStats(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(clock.Now)

	r1, _ := store.GetOrCreate("chan-1")
	r1.Join("a", "Alice", "", "conn-a", 0)
	r1.Join("b", "Bob", "", "conn-b", 0)
	r2, _ := store.GetOrCreate("chan-2")
	r2.Join("c", "Cara", "", "conn-c", 0)

	rooms, players := store.Stats()
	if rooms != 2 || players != 3 {
		t.Fatalf("stats = %d rooms %d players, want 2/3", rooms, players)
	}
}
