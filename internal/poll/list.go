package poll

import (
	"context"
	"sync"
	"time"

	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/internal/model"
)

// ListSink receives every ListState a ListController emits. The same rules
// as Sink apply.
type ListSink func(ListState)

// ListOptions configures a ListController.
type ListOptions struct {
	Fetcher Fetcher
	Sink    ListSink

	// Interval re-fetches the roster on this cadence. Zero fetches once.
	Interval time.Duration

	Clock  Clock
	Logger logger.Logger
}

// ListController fetches the host roster once or on an interval, with the
// same single-flight and generation rules as Controller.
type ListController struct {
	fetcher  Fetcher
	sink     ListSink
	interval time.Duration
	log      logger.Logger

	mu     sync.Mutex
	loop   loop
	cycles uint64
	state  ListState

	wg sync.WaitGroup
}

// NewListController builds a stopped list controller.
func NewListController(opts ListOptions) *ListController {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	sink := opts.Sink
	if sink == nil {
		sink = func(ListState) {}
	}
	return &ListController{
		fetcher:  opts.Fetcher,
		sink:     sink,
		interval: opts.Interval,
		log:      log,
		loop:     loop{clock: clock},
		state:    ListState{Status: Loading, Hosts: []model.Host{}},
	}
}

// Start issues the first roster fetch immediately.
func (l *ListController) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loop.running {
		return fwerrors.New(fwerrors.ErrUsage,
			"List controller is already running",
			"Use Refresh to fetch again")
	}
	gen := l.loop.start()
	l.beginLocked(gen)
	return nil
}

// Stop cancels any pending fetch. Safe to call more than once.
func (l *ListController) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loop.stop()
}

// Refresh fetches now unless a fetch is in flight. It reports whether a
// fetch was issued.
func (l *ListController) Refresh() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loop.running || l.loop.inFlight {
		return false
	}
	l.beginLocked(l.loop.gen)
	return true
}

// State returns the latest roster state.
func (l *ListController) State() ListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Wait blocks until every dispatched fetch has returned.
func (l *ListController) Wait() {
	l.wg.Wait()
}

func (l *ListController) beginLocked(gen uint64) {
	l.loop.arm(l.interval, func() { l.tick(gen) })

	ctx, ok := l.loop.begin()
	if !ok {
		return
	}
	l.cycles++
	number := l.cycles
	l.wg.Add(1)
	go l.run(ctx, gen, number)
}

func (l *ListController) tick(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loop.current(gen) {
		return
	}
	if l.loop.inFlight {
		l.log.Debug("roster fetch still running, skipping tick")
		l.loop.arm(l.interval, func() { l.tick(gen) })
		return
	}
	l.beginLocked(gen)
}

func (l *ListController) run(ctx context.Context, gen, number uint64) {
	defer l.wg.Done()

	hosts, err := l.fetcher.ListHosts(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loop.finish(gen) {
		return
	}

	next := ListState{
		Cycle:     number,
		Hosts:     l.state.Hosts,
		UpdatedAt: l.loop.clock.Now(),
	}
	if err != nil {
		next.Status = Error
		next.Err = err
		l.log.Warn("roster fetch failed: %s", fwerrors.Summary(err))
	} else {
		next.Status = Ready
		next.Hosts = hosts
		if next.Hosts == nil {
			next.Hosts = []model.Host{}
		}
		l.log.Debug("roster: %d hosts", len(hosts))
	}

	l.state = next
	l.sink(next)
}
