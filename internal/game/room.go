package game

import (
	"sort"
	"sync"
	"time"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/model"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/scoring"
)

// State is a room's lifecycle phase.
type State string

const (
	StateWaiting State = "waiting"
	StatePlaying State = "playing"
)

// Room is the unit of isolation for one voice channel's quiz session.
// All mutation goes through its methods, each of which holds the room
// mutex for its full read-modify-write, so invariants (single host,
// score view consistency, round idempotence) are enforced in one place.
type Room struct {
	Key string

	mu  sync.Mutex
	now func() time.Time

	players    map[string]*model.Player
	selections map[string]*model.Selection
	scores     map[string]int
	hostID     string
	state      State
	question   *model.Question
	roundEnded bool
	result     *model.RoundResult
	lastActive time.Time
	history    []model.QuestionRecord
}

// NewRoom constructs an empty waiting room.
func NewRoom(key string, now func() time.Time) *Room {
	if now == nil {
		now = time.Now
	}
	return &Room{
		Key:        key,
		now:        now,
		players:    make(map[string]*model.Player),
		selections: make(map[string]*model.Selection),
		scores:     make(map[string]int),
		state:      StateWaiting,
		lastActive: now(),
	}
}

// Join upserts a player by identity. A returning player keeps their
// score; a brand-new player starts from seedScore (the day registry's
// stash, or zero). The first joiner becomes host. Returns whether this
// player is now the host.
func (r *Room) Join(id, username, avatar, connID string, seedScore int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		p = &model.Player{ID: id, Score: seedScore}
		r.players[id] = p
	}
	p.Username = username
	p.Avatar = avatar
	p.ConnectionID = connID
	p.Connected = true
	p.LastActive = r.now()

	if r.hostID == "" {
		r.hostID = id
	}
	r.rebuildScoresLocked()
	r.touchLocked()
	return r.hostID == id
}

// Rebind reattaches an existing player to a new connection. Returns
// false if the identity is unknown to this room.
func (r *Room) Rebind(playerID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return false
	}
	p.ConnectionID = connID
	p.Connected = true
	p.LastActive = r.now()
	r.touchLocked()
	return true
}

// Remove deletes the player matching the given connection or player id.
// If the host left, an arbitrary remaining player is promoted. Returns
// the removed player (nil if none matched), the newly promoted host's
// id ("" if the host did not change) and whether the room is now empty.
func (r *Room) Remove(connOrPlayerID string) (removed *model.Player, newHostID string, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id string
	for pid, p := range r.players {
		if pid == connOrPlayerID || p.ConnectionID == connOrPlayerID {
			id = pid
			removed = p
			break
		}
	}
	if removed == nil {
		return nil, "", len(r.players) == 0
	}

	delete(r.players, id)
	delete(r.selections, id)
	r.rebuildScoresLocked()

	if r.hostID == id {
		r.hostID = ""
		for pid, p := range r.players {
			if p.Connected {
				r.hostID = pid
				break
			}
		}
		// fall back to any remaining player
		if r.hostID == "" {
			for pid := range r.players {
				r.hostID = pid
				break
			}
		}
		newHostID = r.hostID
	}
	r.touchLocked()
	return removed, newHostID, len(r.players) == 0
}

// EnsurePlayer upserts a poll-only participant, which has a display
// name but no persistent connection.
func (r *Room) EnsurePlayer(id, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		p = &model.Player{ID: id}
		r.players[id] = p
	}
	if username != "" {
		p.Username = username
	}
	p.Connected = true
	p.LastActive = r.now()
	if r.hostID == "" {
		r.hostID = id
	}
	r.rebuildScoresLocked()
	r.touchLocked()
}

// Player returns the player with the given id.
func (r *Room) Player(id string) (*model.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	return p, ok
}

// PlayerByConn returns the player bound to a connection id.
func (r *Room) PlayerByConn(connID string) (*model.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.ConnectionID == connID {
			return p, true
		}
	}
	return nil, false
}

// IsHostConn reports whether the connection belongs to the room host.
func (r *Room) IsHostConn(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[r.hostID]
	return ok && p.ConnectionID == connID
}

// HostID returns the current host's player id.
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// BeginRound attaches a question and moves the room to playing. It
// refuses while an un-ended round is in progress unless force is set,
// which is what makes racing start requests converge on one question:
// the loser's call returns false and it reads back the winner's round.
func (r *Room) BeginRound(q *model.Question, force bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.question != nil && !r.roundEnded && !force {
		return false
	}
	q.StartTime = r.now().UnixMilli()
	r.question = q
	r.state = StatePlaying
	r.roundEnded = false
	r.result = nil
	r.selections = make(map[string]*model.Selection)
	r.history = append(r.history, model.QuestionRecord{QuestionID: q.ID, StartTime: q.StartTime})
	r.touchLocked()
	return true
}

// ActiveQuestion returns the in-progress question and its remaining
// time in milliseconds, or ok=false when no un-ended round is running.
func (r *Room) ActiveQuestion() (q *model.Question, timeLeftMs int64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.question == nil || r.roundEnded {
		return nil, 0, false
	}
	return r.question, r.timeLeftLocked(), true
}

// RecordSelection stores a player's answer for the current round.
// With overwrite false (push path) a repeat from the same player is
// ignored; with overwrite true (pull path) it replaces the earlier
// pick. Returns the stored selection, whether it replaced an earlier
// one, whether it was accepted at all, and whether every connected
// player has now answered.
func (r *Room) RecordSelection(playerID, playerName string, optionIndex int, overwrite bool) (sel *model.Selection, changed, ok, allAnswered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.question == nil || r.roundEnded || r.state != StatePlaying {
		return nil, false, false, false
	}
	if _, exists := r.selections[playerID]; exists && !overwrite {
		return nil, false, false, false
	}

	nowMs := r.now().UnixMilli()
	elapsed := float64(nowMs-r.question.StartTime) / 1000
	if elapsed <= 0 {
		// a same-millisecond answer must stay distinguishable from the
		// scoring formula's no-answer zero
		elapsed = 0.001
	}
	sel = &model.Selection{
		OptionIndex: optionIndex,
		TimeTaken:   elapsed,
		Timestamp:   nowMs,
		PlayerName:  playerName,
	}
	_, changed = r.selections[playerID]
	r.selections[playerID] = sel
	if p, okP := r.players[playerID]; okP {
		p.LastActive = r.now()
	}
	r.touchLocked()

	allAnswered = true
	for pid, p := range r.players {
		if !p.Connected {
			continue
		}
		if _, answered := r.selections[pid]; !answered {
			allAnswered = false
			break
		}
	}
	return sel, changed, true, allAnswered
}

// Resolve scores the current round: each correct selection earns points
// from the strategy, added once to the player's cumulative score. The
// first call computes and caches the result; later calls replay the
// cache verbatim (first=false), which is the idempotence contract that
// prevents double scoring. Returns nil when there is no round at all.
func (r *Room) Resolve(strategy scoring.Strategy) (result *model.RoundResult, first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roundEnded && r.result != nil {
		return r.result, false
	}
	if r.question == nil {
		return nil, false
	}

	maxTime := float64(r.question.MaxTime)
	for pid, sel := range r.selections {
		p, ok := r.players[pid]
		if !ok {
			continue
		}
		if sel.OptionIndex == r.question.CorrectIndex {
			p.Score += strategy(sel.TimeTaken, maxTime)
		}
	}
	r.rebuildScoresLocked()

	selections := make(map[string]*model.Selection, len(r.selections))
	for pid, sel := range r.selections {
		selections[pid] = sel
	}
	scores := make(map[string]int, len(r.scores))
	for pid, s := range r.scores {
		scores[pid] = s
	}
	r.result = &model.RoundResult{
		CorrectIndex: r.question.CorrectIndex,
		Scores:       scores,
		Selections:   selections,
	}
	r.roundEnded = true
	r.touchLocked()
	return r.result, true
}

// ClearRound detaches the resolved question and returns the room to
// waiting. The push path calls it after broadcasting the result; the
// pull path leaves the ended round readable until the next start. Only
// an ended round is cleared: if a new round began between resolution
// and this call, it is left running.
func (r *Room) ClearRound() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.roundEnded {
		return
	}
	r.question = nil
	r.state = StateWaiting
	r.touchLocked()
}

// ResetScores zeroes every player's score and the score view, returning
// the pre-reset scores and archive entries for the daily reset.
func (r *Room) ResetScores() (previous map[string]int, entries []model.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous = make(map[string]int, len(r.players))
	entries = make([]model.Player, 0, len(r.players))
	for pid, p := range r.players {
		previous[pid] = p.Score
		entries = append(entries, *p)
		p.Score = 0
	}
	r.rebuildScoresLocked()
	return previous, entries
}

// Snapshot returns the roster view, players ordered by score descending.
func (r *Room) Snapshot() model.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// StateSnapshot returns the full poller/reconnect view, including the
// question (without its answer), selections and remaining time.
func (r *Room) StateSnapshot() model.GameStateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := model.GameStateSnapshot{
		RoomSnapshot: r.snapshotLocked(),
		RoundEnded:   r.roundEnded,
	}
	if r.question != nil {
		q := *r.question
		snap.Question = &q
		snap.TimeLeftMs = r.timeLeftLocked()
		snap.Selections = make(map[string]*model.Selection, len(r.selections))
		for pid, sel := range r.selections {
			snap.Selections[pid] = sel
		}
	}
	return snap
}

// LastActive returns the room's inactivity clock.
func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// PlayerCount returns the number of players in the room.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Scores returns a copy of the score view.
func (r *Room) Scores() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.scores))
	for pid, s := range r.scores {
		out[pid] = s
	}
	return out
}

// History returns the diagnostic log of past rounds.
func (r *Room) History() []model.QuestionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.QuestionRecord, len(r.history))
	copy(out, r.history)
	return out
}

func (r *Room) snapshotLocked() model.RoomSnapshot {
	players := make([]*model.Player, 0, len(r.players))
	for _, p := range r.players {
		cp := *p
		players = append(players, &cp)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].ID < players[j].ID
	})
	scores := make(map[string]int, len(r.scores))
	for pid, s := range r.scores {
		scores[pid] = s
	}
	return model.RoomSnapshot{
		RoomID:    r.Key,
		GameState: string(r.state),
		HostID:    r.hostID,
		Players:   players,
		Scores:    scores,
	}
}

// rebuildScoresLocked keeps the derived score view in sync with the
// players map after every score-affecting mutation.
func (r *Room) rebuildScoresLocked() {
	r.scores = make(map[string]int, len(r.players))
	for pid, p := range r.players {
		r.scores[pid] = p.Score
	}
}

func (r *Room) timeLeftLocked() int64 {
	if r.question == nil {
		return 0
	}
	left := int64(r.question.MaxTime)*1000 - (r.now().UnixMilli() - r.question.StartTime)
	if left < 0 {
		left = 0
	}
	return left
}

func (r *Room) touchLocked() {
	r.lastActive = r.now()
}
