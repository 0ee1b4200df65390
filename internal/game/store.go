package game

import (
	"sync"
	"time"
)

// Store is the authoritative in-memory room map, keyed by voice-channel
// id. Rooms are created lazily and evicted when empty or inactive. It
// also keeps the day-score registry: scores of players who left a room,
// stashed by identity so a rejoin the same day restores them.
type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	rooms     map[string]*Room
	dayScores map[string]map[string]int // roomKey -> playerID -> score
}

// NewStore creates a store with an injectable clock for tests.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:       now,
		rooms:     make(map[string]*Room),
		dayScores: make(map[string]map[string]int),
	}
}

// GetOrCreate returns the room for the key, constructing a fresh
// waiting room on first use. created reports whether this call made it.
func (s *Store) GetOrCreate(key string) (room *Room, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[key]
	if !ok {
		room = NewRoom(key, s.now)
		s.rooms[key] = room
		created = true
	}
	return room, created
}

// Get returns an existing room.
func (s *Store) Get(key string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[key]
	return room, ok
}

// Delete removes a room. Callers cancel the room's timer first.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, key)
}

// Rooms returns all live rooms.
func (s *Store) Rooms() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

// CleanupInactive evicts rooms untouched beyond the threshold and
// returns their keys so the caller can cancel timers and close
// connections.
func (s *Store) CleanupInactive(threshold time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-threshold)
	var evicted []string
	for key, room := range s.rooms {
		if room.LastActive().Before(cutoff) {
			delete(s.rooms, key)
			evicted = append(evicted, key)
		}
	}
	return evicted
}

// StashScore records a departing player's score in the day registry.
// Zero scores are not worth remembering.
func (s *Store) StashScore(roomKey, playerID string, score int) {
	if score == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dayScores[roomKey] == nil {
		s.dayScores[roomKey] = make(map[string]int)
	}
	s.dayScores[roomKey][playerID] = score
}

// TakeScore removes and returns a stashed score for a rejoining player.
func (s *Store) TakeScore(roomKey, playerID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scores, ok := s.dayScores[roomKey]
	if !ok {
		return 0, false
	}
	score, ok := scores[playerID]
	if ok {
		delete(scores, playerID)
	}
	return score, ok
}

// ClearDayScores empties the registry; run by the daily reset.
func (s *Store) ClearDayScores() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dayScores = make(map[string]map[string]int)
}

// Stats returns the live room and player counts for the admin surface.
func (s *Store) Stats() (rooms, players int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms = len(s.rooms)
	for _, r := range s.rooms {
		players += r.PlayerCount()
	}
	return rooms, players
}
