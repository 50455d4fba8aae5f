package poll

import (
	"context"
	"time"
)

// loop is the scheduling bookkeeping shared by Controller and ListController.
// Every method must be called with the owning controller's mutex held.
//
// gen is bumped on every start and stop; callbacks and cycles capture it at
// dispatch and become no-ops once it moves on.
type loop struct {
	clock    Clock
	running  bool
	gen      uint64
	inFlight bool
	timer    Timer
	cancel   context.CancelFunc
}

func (l *loop) start() uint64 {
	l.running = true
	l.gen++
	l.inFlight = false
	return l.gen
}

// stop invalidates the generation, stops the timer and cancels any request
// in flight. It reports whether the loop was running.
func (l *loop) stop() bool {
	if !l.running {
		return false
	}
	l.running = false
	l.gen++
	l.stopTimer()
	l.release()
	l.inFlight = false
	return true
}

func (l *loop) current(gen uint64) bool {
	return l.running && gen == l.gen
}

// arm schedules fn after interval, replacing any pending timer. A zero
// interval leaves nothing scheduled.
func (l *loop) arm(interval time.Duration, fn func()) {
	l.stopTimer()
	if interval <= 0 {
		return
	}
	l.timer = l.clock.AfterFunc(interval, fn)
}

// begin marks a cycle in flight and returns its context. It returns false
// when a cycle is already running.
func (l *loop) begin() (context.Context, bool) {
	if l.inFlight {
		return nil, false
	}
	l.inFlight = true
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	return ctx, true
}

// finish accepts a completed cycle if it still belongs to the current
// generation.
func (l *loop) finish(gen uint64) bool {
	if !l.current(gen) {
		return false
	}
	l.inFlight = false
	l.release()
	return true
}

func (l *loop) stopTimer() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (l *loop) release() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
