package poll

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/fleetwatch/internal/api"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/internal/model"
)

// DefaultInterval is the detail refresh cadence when none is configured.
const DefaultInterval = 60 * time.Second

// Sink receives every ViewState a Controller emits. It is called with the
// controller's lock held, so it must return promptly and must not call back
// into the controller. Queue.Push is a suitable Sink.
type Sink func(ViewState)

// Options configures a Controller.
type Options struct {
	Fetcher Fetcher
	Sink    Sink

	// Interval between cycle starts. Defaults to DefaultInterval.
	Interval time.Duration
	// HistoryLimit is the window requested each cycle. Defaults to 100.
	HistoryLimit int

	Clock  Clock
	Logger logger.Logger
}

// Controller polls one selected host. Each cycle fetches host detail, the
// latest snapshot and a history window concurrently, merges them with the
// previous state and emits exactly one ViewState.
//
// A cycle that is still running when the next tick fires causes that tick to
// be skipped. Stop and Reselect invalidate everything in flight; a cycle that
// completes afterwards is discarded, and nothing is emitted once Stop returns.
type Controller struct {
	fetcher  Fetcher
	sink     Sink
	interval time.Duration
	page     api.Page
	log      logger.Logger

	mu     sync.Mutex
	loop   loop
	hostID int
	cycles uint64
	state  ViewState

	wg sync.WaitGroup
}

// NewController builds a stopped controller.
func NewController(opts Options) *Controller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	page := api.DefaultPage()
	if opts.HistoryLimit > 0 {
		page.Limit = opts.HistoryLimit
	}
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
		sink = func(ViewState) {}
	}

	return &Controller{
		fetcher:  opts.Fetcher,
		sink:     sink,
		interval: interval,
		page:     page,
		log:      log,
		loop:     loop{clock: clock},
		state:    loadingState(0),
	}
}

// Start begins polling hostID. The first cycle is issued immediately.
func (c *Controller) Start(hostID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loop.running {
		return fwerrors.New(fwerrors.ErrUsage,
			"Controller is already running",
			"Use Reselect to switch hosts, or Stop first")
	}
	c.startLocked(hostID)
	return nil
}

// Stop cancels the timer and any request in flight. Results that arrive
// later are discarded. Safe to call more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loop.stop() {
		c.log.Debug("stopped polling host %d", c.hostID)
	}
}

// Reselect switches to hostID as Stop followed by Start, atomically. The new
// selection starts from Loading; nothing carries over from the old one.
func (c *Controller) Reselect(hostID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loop.running {
		return fwerrors.New(fwerrors.ErrUsage,
			"Reselect called on a controller that isn't running",
			"Call Start first")
	}
	c.loop.stop()
	c.startLocked(hostID)
	return nil
}

// Refresh issues a cycle now unless one is already in flight, and restarts
// the interval from this cycle. It reports whether a cycle was issued.
func (c *Controller) Refresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loop.running || c.loop.inFlight {
		return false
	}
	c.beginLocked(c.loop.gen)
	return true
}

// State returns the latest ViewState, or a Loading state before the first
// cycle of the current selection completes.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Running reports whether the controller has a selection.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loop.running
}

// HostID returns the current selection.
func (c *Controller) HostID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hostID
}

// Wait blocks until every dispatched cycle has returned, including ones
// that were discarded. Call it after Stop for a clean shutdown.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) startLocked(hostID int) {
	c.hostID = hostID
	c.cycles = 0
	c.state = loadingState(hostID)
	gen := c.loop.start()
	c.log.Debug("polling host %d every %s", hostID, c.interval)
	c.beginLocked(gen)
}

// beginLocked arms the next tick and dispatches a cycle.
func (c *Controller) beginLocked(gen uint64) {
	c.loop.arm(c.interval, func() { c.tick(gen) })

	ctx, ok := c.loop.begin()
	if !ok {
		return
	}
	c.cycles++
	req := cycleRequest{
		gen:    gen,
		number: c.cycles,
		id:     uuid.NewString(),
		hostID: c.hostID,
		page:   c.page,
	}
	c.wg.Add(1)
	go c.run(ctx, req)
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loop.current(gen) {
		return
	}
	if c.loop.inFlight {
		c.log.Debug("host %d: previous cycle still running, skipping tick", c.hostID)
		c.loop.arm(c.interval, func() { c.tick(gen) })
		return
	}
	c.beginLocked(gen)
}

type cycleRequest struct {
	gen    uint64
	number uint64
	id     string
	hostID int
	page   api.Page
}

type cycleResult struct {
	host       model.Host
	hostErr    error
	current    model.Snapshot
	currentErr error
	history    model.History
	historyErr error
}

func (c *Controller) run(ctx context.Context, req cycleRequest) {
	defer c.wg.Done()

	start := time.Now()
	c.log.Debug("cycle %s: host %d #%d started", req.id, req.hostID, req.number)

	var (
		res cycleResult
		wg  sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		res.host, res.hostErr = c.fetcher.GetHost(ctx, req.hostID)
	}()
	go func() {
		defer wg.Done()
		res.current, res.currentErr = c.fetcher.GetLatestSnapshot(ctx, req.hostID)
	}()
	go func() {
		defer wg.Done()
		res.history, res.historyErr = c.fetcher.GetHistory(ctx, req.hostID, req.page)
	}()
	wg.Wait()

	c.complete(req, res, time.Since(start))
}

func (c *Controller) complete(req cycleRequest, res cycleResult, took time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loop.finish(req.gen) {
		c.log.Debug("cycle %s: discarded, selection changed", req.id)
		return
	}

	now := c.loop.clock.Now()
	prev := c.state
	history := res.history
	if res.historyErr == nil {
		history = history.Normalize()
	}

	next := ViewState{
		HostID:    req.hostID,
		Cycle:     req.number,
		CycleID:   req.id,
		Host:      merge(prev.Host, res.host, res.hostErr, now, model.Host{}),
		Current:   merge(prev.Current, res.current, res.currentErr, now, model.Snapshot{}),
		History:   merge(prev.History, history, res.historyErr, now, model.History{}),
		UpdatedAt: now,
	}
	next.Status = statusOf(next.Host.Kind, next.Current.Kind, next.History.Kind)

	for name, err := range next.Errors() {
		c.log.Warn("cycle %s: host %d %s: %s", req.id, req.hostID, name, fwerrors.Summary(err))
	}
	c.log.Debug("cycle %s: host %d #%d %s in %s", req.id, req.hostID, req.number, next.Status, took.Round(time.Millisecond))

	c.state = next
	c.sink(next)
}
