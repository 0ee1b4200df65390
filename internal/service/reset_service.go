package service

import (
	"context"
	"log"
	"time"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/archive"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/game"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/model"
)

// ResetService performs the daily leaderboard reset: archive every
// player's score, zero the boards, notify each room with its pre-reset
// scores and clear the process-wide daily state.
type ResetService struct {
	store    *game.Store
	sink     archive.Sink
	counters archive.Counters
	bcast    Broadcaster
	now      func() time.Time
}

func NewResetService(store *game.Store, sink archive.Sink, counters archive.Counters, now func() time.Time) *ResetService {
	if now == nil {
		now = time.Now
	}
	return &ResetService{
		store:    store,
		sink:     sink,
		counters: counters,
		bcast:    NopBroadcaster{},
		now:      now,
	}
}

func (s *ResetService) SetBroadcaster(b Broadcaster) {
	s.bcast = b
}

// Run executes one reset. Scores are archived under the day that is
// closing (the reset fires at the boundary, so a minute back lands on
// the day the points were earned).
func (s *ResetService) Run(ctx context.Context) {
	now := s.now().UTC()
	day := now.Add(-time.Minute).Format(archive.DayFormat)
	log.Printf("daily reset: archiving scores for %s", day)

	for _, room := range s.store.Rooms() {
		previous, players := room.ResetScores()
		if len(players) > 0 {
			entries := make([]archive.Entry, 0, len(players))
			for _, p := range players {
				entries = append(entries, archive.Entry{ID: p.ID, Name: p.Username, Score: p.Score, Avatar: p.Avatar})
			}
			if err := s.sink.Archive(ctx, day, room.Key, entries); err != nil {
				log.Printf("daily reset: archive room %s: %v", room.Key, err)
			}
		}
		s.bcast.Broadcast(room.Key, model.EventLeaderboardReset, model.LeaderboardResetPayload{
			PreviousScores: previous,
			Timestamp:      now.UnixMilli(),
		})
		s.bcast.Broadcast(room.Key, model.EventRoomState, room.Snapshot())
	}

	s.store.ClearDayScores()
	if err := s.counters.Reset(ctx); err != nil {
		log.Printf("daily reset: counters: %v", err)
	}
	log.Printf("daily reset complete")
}
