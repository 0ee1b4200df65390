package archive

import "context"

// DayFormat is the key format for per-day archives.
const DayFormat = "2006-01-02"

// Entry is one player's archived score for a day.
type Entry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Avatar string `json:"avatar,omitempty"`
}

// Sink is the append-only per-day score archive. The core only needs
// appends plus the history-by-day lookup used by the admin surface.
type Sink interface {
	Archive(ctx context.Context, day, roomKey string, entries []Entry) error
	History(ctx context.Context, day string) (map[string][]Entry, error)
}

// Counters tracks the process-wide daily aggregates. Increments are
// best effort; the daily reset zeroes them.
type Counters interface {
	IncrQuestions(ctx context.Context)
	IncrAnswers(ctx context.Context)
	Snapshot(ctx context.Context) (questions, answers int64)
	Reset(ctx context.Context) error
}
