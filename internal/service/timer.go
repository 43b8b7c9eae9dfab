package service

import (
	"sync"
	"time"
)

// timerTick drives the remaining-time readout. The tick granularity only
// affects the smoothness of the progress indicator; the external contract
// is the budget and the binary expired-vs-cancelled outcome.
const timerTick = 50 * time.Millisecond

// TimerHandle is one round's countdown. Expiry fires at most once, from the
// timer's own goroutine, and only if the handle was not cancelled first.
type TimerHandle struct {
	mu       sync.Mutex
	resolved bool
	stop     chan struct{}
	started  time.Time
	deadline time.Time
	budget   time.Duration
}

// StartTimer begins a countdown over budget and invokes expire when the
// budget elapses before Cancel is called.
func StartTimer(budget time.Duration, expire func()) *TimerHandle {
	now := time.Now()
	h := &TimerHandle{
		stop:     make(chan struct{}),
		started:  now,
		deadline: now.Add(budget),
		budget:   budget,
	}
	go h.run(expire)
	return h
}

func (h *TimerHandle) run(expire func()) {
	ticker := time.NewTicker(timerTick)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			if now.Before(h.deadline) {
				continue
			}
			h.mu.Lock()
			fire := !h.resolved
			h.resolved = true
			h.mu.Unlock()
			if fire {
				expire()
			}
			return
		}
	}
}

// Cancel stops the countdown. It reports true when the timer had not yet
// expired, i.e. the answer arrived in time.
func (h *TimerHandle) Cancel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.resolved {
		return false
	}
	h.resolved = true
	close(h.stop)
	return true
}

// Remaining returns the fraction of the budget still left, in [0, 1].
// Feeds the presentation layer's progress indicator.
func (h *TimerHandle) Remaining() float64 {
	if h.budget <= 0 {
		return 0
	}
	left := time.Until(h.deadline)
	if left <= 0 {
		return 0
	}
	f := float64(left) / float64(h.budget)
	if f > 1 {
		f = 1
	}
	return f
}
