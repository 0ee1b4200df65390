package scheduler

import (
	"sync"
	"time"
)

// RoundTimers holds at most one expiry timer per room. Arming a key
// supersedes the previous timer and a superseded or cancelled timer's
// callback never runs, so a stale expiry cannot resolve a newer round
// or mutate a deleted room.
type RoundTimers struct {
	mu     sync.Mutex
	seq    uint64
	timers map[string]*roundTimer
}

type roundTimer struct {
	token uint64
	timer *time.Timer
}

func NewRoundTimers() *RoundTimers {
	return &RoundTimers{timers: make(map[string]*roundTimer)}
}

// Arm schedules fire after d, replacing any pending timer for the key.
// Returns the token identifying this arming.
func (rt *RoundTimers) Arm(key string, d time.Duration, fire func()) uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if prev, ok := rt.timers[key]; ok {
		prev.timer.Stop()
		delete(rt.timers, key)
	}

	rt.seq++
	token := rt.seq
	entry := &roundTimer{token: token}
	entry.timer = time.AfterFunc(d, func() {
		rt.mu.Lock()
		current, ok := rt.timers[key]
		if !ok || current.token != token {
			rt.mu.Unlock()
			return
		}
		delete(rt.timers, key)
		rt.mu.Unlock()
		fire()
	})
	rt.timers[key] = entry
	return token
}

// Cancel stops any pending timer for the key.
func (rt *RoundTimers) Cancel(key string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if entry, ok := rt.timers[key]; ok {
		entry.timer.Stop()
		delete(rt.timers, key)
	}
}

// Active reports whether a timer is pending for the key.
func (rt *RoundTimers) Active(key string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.timers[key]
	return ok
}

// StopAll cancels every pending timer; used at shutdown.
func (rt *RoundTimers) StopAll() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for key, entry := range rt.timers {
		entry.timer.Stop()
		delete(rt.timers, key)
	}
}
