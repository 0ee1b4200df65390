package archive

import (
	"context"
	"sync"
)

// MemorySink is the Redis-less archive used for local runs and tests.
type MemorySink struct {
	mu   sync.Mutex
	days map[string]map[string][]Entry // day -> roomKey -> entries
}

func NewMemorySink() *MemorySink {
	return &MemorySink{days: make(map[string]map[string][]Entry)}
}

func (s *MemorySink) Archive(ctx context.Context, day, roomKey string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.days[day] == nil {
		s.days[day] = make(map[string][]Entry)
	}
	s.days[day][roomKey] = append(s.days[day][roomKey], entries...)
	return nil
}

func (s *MemorySink) History(ctx context.Context, day string) (map[string][]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]Entry, len(s.days[day]))
	for roomKey, entries := range s.days[day] {
		cp := make([]Entry, len(entries))
		copy(cp, entries)
		out[roomKey] = cp
	}
	return out, nil
}

// MemoryCounters is the in-process counter implementation.
type MemoryCounters struct {
	mu        sync.Mutex
	questions int64
	answers   int64
}

func NewMemoryCounters() *MemoryCounters {
	return &MemoryCounters{}
}

func (c *MemoryCounters) IncrQuestions(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions++
}

func (c *MemoryCounters) IncrAnswers(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers++
}

func (c *MemoryCounters) Snapshot(ctx context.Context) (questions, answers int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.questions, c.answers
}

func (c *MemoryCounters) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions, c.answers = 0, 0
	return nil
}
