package scheduler

import "time"

// Sweeper runs a callback on a fixed interval; the service wires it to
// the inactive-room cleanup.
type Sweeper struct {
	interval time.Duration
	sweep    func()
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(interval time.Duration, sweep func()) *Sweeper {
	return &Sweeper{
		interval: interval,
		sweep:    sweep,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
