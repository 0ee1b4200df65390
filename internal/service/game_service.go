package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/archive"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/game"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/identity"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/model"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/question"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/scheduler"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/scoring"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNoActiveRound = errors.New("no active round")
)

// GameService owns every room mutation for both transports. The push
// gateway calls the Connect/StartQuestion/SelectOption/Disconnect set;
// the polling gateway calls the Poll* set. Both act on the same store,
// so a room can be driven from either side without double scoring.
type GameService struct {
	store    *game.Store
	source   question.Source
	counters archive.Counters
	timers   *scheduler.RoundTimers
	bcast    Broadcaster
	now      func() time.Time

	roundDuration time.Duration
	pushStrategy  scoring.Strategy
	pullStrategy  scoring.Strategy

	inactivityThreshold time.Duration
}

// Options are the game tunables; zero values fall back to the
// defaults (15s rounds, time-curve scoring, hourly inactivity).
type Options struct {
	RoundDuration       time.Duration
	InactivityThreshold time.Duration
	PushStrategy        scoring.Strategy
	PullStrategy        scoring.Strategy
	Now                 func() time.Time
}

func NewGameService(store *game.Store, source question.Source, counters archive.Counters, timers *scheduler.RoundTimers, opts Options) *GameService {
	if opts.RoundDuration <= 0 {
		opts.RoundDuration = 15 * time.Second
	}
	if opts.InactivityThreshold <= 0 {
		opts.InactivityThreshold = time.Hour
	}
	if opts.PushStrategy == nil {
		opts.PushStrategy = scoring.TimeCurve(scoring.DefaultMaxPoints, scoring.DefaultExponent)
	}
	if opts.PullStrategy == nil {
		opts.PullStrategy = scoring.TimeCurve(scoring.DefaultMaxPoints, scoring.DefaultExponent)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &GameService{
		store:               store,
		source:              source,
		counters:            counters,
		timers:              timers,
		bcast:               NopBroadcaster{},
		now:                 opts.Now,
		roundDuration:       opts.RoundDuration,
		pushStrategy:        opts.PushStrategy,
		pullStrategy:        opts.PullStrategy,
		inactivityThreshold: opts.InactivityThreshold,
	}
}

// SetBroadcaster injects the push transport's fan-out.
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.bcast = b
}

// Store exposes the room store to the admin surface.
func (s *GameService) Store() *game.Store {
	return s.store
}

// --- push transport ---

// Connect joins an authenticated connection to a room. Reconnects
// rebind the existing player and get a direct state snapshot; fresh
// joins get their identity/host status and trigger a roster broadcast.
func (s *GameService) Connect(id identity.Identity, connID, roomKey string, reconnect bool) {
	room, created := s.store.GetOrCreate(roomKey)
	if created {
		log.Printf("room %s created", roomKey)
	}

	if reconnect && room.Rebind(id.ID, connID) {
		log.Printf("room %s: player %s reconnected", roomKey, id.ID)
		s.bcast.SendTo(roomKey, connID, model.EventGameState, room.StateSnapshot())
		return
	}

	seed, restored := s.store.TakeScore(roomKey, id.ID)
	isHost := room.Join(id.ID, id.Username, id.Avatar, connID, seed)
	if restored {
		log.Printf("room %s: restored score %d for returning player %s", roomKey, seed, id.ID)
	}
	log.Printf("room %s: player %s joined (host=%v)", roomKey, id.ID, isHost)

	s.bcast.SendTo(roomKey, connID, model.EventYouJoined, model.YouJoinedPayload{PlayerID: id.ID, IsHost: isHost})
	s.bcast.Broadcast(roomKey, model.EventRoomState, room.Snapshot())
}

// StartQuestion begins a round on the push path. Host-only and only
// between rounds; anything else is a silent no-op.
func (s *GameService) StartQuestion(ctx context.Context, roomKey, connID string) {
	room, ok := s.store.Get(roomKey)
	if !ok {
		return
	}
	if !room.IsHostConn(connID) {
		log.Printf("room %s: non-host start ignored", roomKey)
		return
	}

	q, err := s.source.Trivia(ctx)
	if err != nil {
		log.Printf("room %s: question selection failed: %v", roomKey, err)
		return
	}
	q.MaxTime = int(s.roundDuration.Seconds())

	if !room.BeginRound(q, false) {
		log.Printf("room %s: start during active round ignored", roomKey)
		return
	}
	s.counters.IncrQuestions(ctx)
	log.Printf("room %s: round started, question %s", roomKey, q.ID)

	s.bcast.Broadcast(roomKey, model.EventQuestionStarted, model.QuestionStartedPayload{
		Question:  q,
		StartTime: q.StartTime,
		MaxTime:   q.MaxTime,
	})
	s.timers.Arm(roomKey, s.roundDuration, func() {
		log.Printf("room %s: round timer expired", roomKey)
		s.resolveRound(roomKey)
	})
}

// SelectOption records a push-path answer: first pick wins, repeats are
// ignored, and when every connected player has answered the round
// resolves immediately with the same outcome the timer would produce.
func (s *GameService) SelectOption(ctx context.Context, roomKey, connID string, optionIndex int) {
	room, ok := s.store.Get(roomKey)
	if !ok {
		return
	}
	player, ok := room.PlayerByConn(connID)
	if !ok {
		return
	}

	sel, _, ok, allAnswered := room.RecordSelection(player.ID, player.Username, optionIndex, false)
	if !ok {
		return
	}
	s.counters.IncrAnswers(ctx)
	log.Printf("room %s: player %s picked option %d after %.1fs", roomKey, player.ID, optionIndex, sel.TimeTaken)

	s.bcast.Broadcast(roomKey, model.EventPlayerSelected, model.PlayerSelectedPayload{
		PlayerID:    player.ID,
		OptionIndex: optionIndex,
		PlayerName:  player.Username,
	})

	if allAnswered {
		log.Printf("room %s: all players answered, resolving early", roomKey)
		s.resolveRound(roomKey)
	}
}

// Disconnect removes a connection's player, reassigns the host if
// needed and deletes the room when the last player leaves. The player's
// score is stashed by identity so a same-day rejoin restores it.
func (s *GameService) Disconnect(roomKey, connID string) {
	room, ok := s.store.Get(roomKey)
	if !ok {
		return
	}
	removed, newHostID, empty := room.Remove(connID)
	if removed == nil {
		return
	}
	s.store.StashScore(roomKey, removed.ID, removed.Score)
	log.Printf("room %s: player %s left", roomKey, removed.ID)

	if empty {
		s.timers.Cancel(roomKey)
		s.store.Delete(roomKey)
		log.Printf("room %s deleted (empty)", roomKey)
		return
	}
	if newHostID != "" {
		log.Printf("room %s: host reassigned to %s", roomKey, newHostID)
		if p, ok := room.Player(newHostID); ok && p.ConnectionID != "" {
			s.bcast.SendTo(roomKey, p.ConnectionID, model.EventYouJoined, model.YouJoinedPayload{PlayerID: newHostID, IsHost: true})
		}
	}
	s.bcast.Broadcast(roomKey, model.EventRoomState, room.Snapshot())
}

// resolveRound settles the current round: cancel the timer, score via
// the push strategy, reveal the result, clear the question. The early
// and timer paths both land here, and the resolve itself is idempotent,
// so a race between them scores at most once.
func (s *GameService) resolveRound(roomKey string) {
	room, ok := s.store.Get(roomKey)
	if !ok {
		return
	}
	s.timers.Cancel(roomKey)

	result, first := room.Resolve(s.pushStrategy)
	if result == nil || !first {
		return
	}
	s.bcast.Broadcast(roomKey, model.EventShowResult, result)
	room.ClearRound()
	s.bcast.Broadcast(roomKey, model.EventRoomState, room.Snapshot())
}

// --- pull transport ---

// StartQuestionResult is the polling gateway's start response.
type StartQuestionResult struct {
	Question   *model.Question `json:"question"`
	StartTime  int64           `json:"questionStartTime"`
	TimeLeftMs int64           `json:"timeLeftMs"`
	Existing   bool            `json:"existing"`
}

// PollStartQuestion starts a round from the stateless path. While an
// un-ended round is running and forceNew is unset, every caller gets
// the same question with the remaining time, which is how concurrent
// pollers converge on one shared round instead of minting their own.
func (s *GameService) PollStartQuestion(ctx context.Context, roomKey string, forceNew bool, questionType string) (*StartQuestionResult, error) {
	room, _ := s.store.GetOrCreate(roomKey)

	if q, left, active := room.ActiveQuestion(); active && !forceNew {
		return &StartQuestionResult{Question: q, StartTime: q.StartTime, TimeLeftMs: left, Existing: true}, nil
	}

	var q *model.Question
	var err error
	if questionType == string(model.QuestionVisual) {
		q, err = s.source.Visual(ctx)
	} else {
		q, err = s.source.Trivia(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("select question: %w", err)
	}
	q.MaxTime = int(s.roundDuration.Seconds())

	if !room.BeginRound(q, forceNew) {
		// Lost the race: another caller just started a round between our
		// check and the begin. Converge on the winner's question.
		if existing, left, active := room.ActiveQuestion(); active {
			return &StartQuestionResult{Question: existing, StartTime: existing.StartTime, TimeLeftMs: left, Existing: true}, nil
		}
		return nil, ErrNoActiveRound
	}
	// The new round supersedes any timer armed for the previous one;
	// left running it would resolve this round at the old deadline.
	s.timers.Cancel(roomKey)
	s.counters.IncrQuestions(ctx)
	log.Printf("room %s: round started via poll, question %s", roomKey, q.ID)
	return &StartQuestionResult{Question: q, StartTime: q.StartTime, TimeLeftMs: int64(q.MaxTime) * 1000}, nil
}

// SelectOptionResult is the polling gateway's select response.
type SelectOptionResult struct {
	PlayerID  string           `json:"playerId"`
	Selection *model.Selection `json:"selection"`
	Changed   bool             `json:"changed"`
}

// PollSelectOption records a poll-path answer. Pollers may change their
// pick until the round ends; an empty player id gets a generated one so
// identity-less clients can still play.
func (s *GameService) PollSelectOption(ctx context.Context, roomKey, playerID, playerName string, optionIndex int) (*SelectOptionResult, error) {
	room, _ := s.store.GetOrCreate(roomKey)

	if playerID == "" {
		playerID = uuid.NewString()
	}
	room.EnsurePlayer(playerID, playerName)

	sel, changed, ok, _ := room.RecordSelection(playerID, playerName, optionIndex, true)
	if !ok {
		return nil, ErrNoActiveRound
	}
	if changed {
		log.Printf("room %s: player %s changed answer to option %d", roomKey, playerID, optionIndex)
	} else {
		s.counters.IncrAnswers(ctx)
		log.Printf("room %s: player %s locked in option %d", roomKey, playerID, optionIndex)
	}
	return &SelectOptionResult{PlayerID: playerID, Selection: sel, Changed: changed}, nil
}

// PollEndRound resolves the round with the time curve. The first caller
// computes and caches the result; every later caller gets the cached
// result verbatim, so duplicate end-round requests cannot score twice.
func (s *GameService) PollEndRound(ctx context.Context, roomKey string) (*model.RoundResult, error) {
	room, ok := s.store.Get(roomKey)
	if !ok {
		return nil, ErrRoomNotFound
	}
	s.timers.Cancel(roomKey)

	result, first := room.Resolve(s.pullStrategy)
	if result == nil {
		return nil, ErrNoActiveRound
	}
	if first {
		log.Printf("room %s: round resolved via poll", roomKey)
	}
	return result, nil
}

// GameState returns the read-only snapshot, lazily creating an empty
// room so an early poll cannot crash on an unknown key. It never
// generates questions or touches answer state.
func (s *GameService) GameState(roomKey string) model.GameStateSnapshot {
	room, _ := s.store.GetOrCreate(roomKey)
	return room.StateSnapshot()
}

// --- maintenance ---

// Cleanup evicts rooms idle beyond the threshold, cancelling their
// timers first and closing any straggler connections.
func (s *GameService) Cleanup() {
	evicted := s.store.CleanupInactive(s.inactivityThreshold)
	for _, key := range evicted {
		s.timers.Cancel(key)
		s.bcast.CloseRoom(key)
		log.Printf("room %s deleted (inactive)", key)
	}
}
