package scheduler

import (
	"log"
	"time"
)

// NextRun returns the next occurrence of the given UTC wall-clock hour
// strictly after now.
func NextRun(now time.Time, hourUTC int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// DailyJob runs a task at a fixed UTC hour and reschedules itself for
// the following day after every run. Each delay is computed fresh from
// the clock, so drift shifts a run but never skips a day.
type DailyJob struct {
	hourUTC int
	now     func() time.Time
	run     func()
	stop    chan struct{}
	done    chan struct{}
}

func NewDailyJob(hourUTC int, now func() time.Time, run func()) *DailyJob {
	if now == nil {
		now = time.Now
	}
	return &DailyJob{
		hourUTC: hourUTC,
		now:     now,
		run:     run,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (j *DailyJob) Start() {
	go func() {
		defer close(j.done)
		for {
			next := NextRun(j.now(), j.hourUTC)
			delay := next.Sub(j.now())
			log.Printf("daily job scheduled for %s (in %s)", next.Format(time.RFC3339), delay.Round(time.Second))

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
				j.run()
			case <-j.stop:
				timer.Stop()
				return
			}
		}
	}()
}

func (j *DailyJob) Stop() {
	close(j.stop)
	<-j.done
}
