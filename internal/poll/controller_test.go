package poll_test

import (
	"context"
	"testing"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/internal/model"
	"github.com/rileyhilliard/fleetwatch/internal/poll"
	polltest "github.com/rileyhilliard/fleetwatch/internal/poll/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const interval = time.Minute

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func ts(sec int) model.Timestamp {
	return model.NewTimestamp(epoch.Add(time.Duration(sec) * time.Second))
}

func host(id int, name string) model.Host {
	return model.Host{ID: id, Hostname: name, LastSeen: ts(0)}
}

func snapshot(id int, cpu float64) model.Snapshot {
	return model.Snapshot{HostID: id, Timestamp: ts(10), CPUUsage: cpu, MemoryUsed: 4, MemoryTotal: 16}
}

func history(points ...float64) model.History {
	h := model.History{}
	for i, cpu := range points {
		h = append(h, model.HistoryPoint{Timestamp: ts(i), CPUUsage: cpu, MemoryUsed: 1, MemoryTotal: 2})
	}
	return h
}

type harness struct {
	clock   *polltest.FakeClock
	fetcher *polltest.FakeFetcher
	queue   *poll.Queue[poll.ViewState]
	ctrl    *poll.Controller
	log     *logger.BufferLogger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:   polltest.NewFakeClock(epoch),
		fetcher: polltest.NewFakeFetcher(),
		queue:   poll.NewQueue[poll.ViewState](),
		log:     logger.NewBufferLogger(),
	}
	h.fetcher.
		AddHost(host(1, "alpha"), snapshot(1, 10), history(1, 2, 3)).
		AddHost(host(2, "beta"), snapshot(2, 20), history(4, 5))
	h.ctrl = poll.NewController(poll.Options{
		Fetcher:      h.fetcher,
		Sink:         h.queue.Push,
		Interval:     interval,
		HistoryLimit: 50,
		Clock:        h.clock,
		Logger:       h.log,
	})
	t.Cleanup(func() {
		h.fetcher.Release()
		h.ctrl.Stop()
		h.ctrl.Wait()
	})
	return h
}

// next waits for one emission.
func (h *harness) next(t *testing.T) poll.ViewState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, ok := h.queue.Next(ctx)
	require.True(t, ok, "timed out waiting for an emission")
	return v
}

// settle waits for every dispatched cycle to finish and returns what was emitted.
func (h *harness) settle() []poll.ViewState {
	h.ctrl.Wait()
	return h.queue.Drain()
}

func (h *harness) waitInFlight(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.fetcher.InFlight() == n }, 2*time.Second, time.Millisecond)
}

func TestController_StateIsLoadingBeforeFirstCycle(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, poll.Loading, h.ctrl.State().Status)

	h.fetcher.Hold()
	require.NoError(t, h.ctrl.Start(1))

	st := h.ctrl.State()
	assert.Equal(t, poll.Loading, st.Status)
	assert.Equal(t, 1, st.HostID)
	assert.NotNil(t, st.Points())
	assert.Empty(t, st.Points())
}

func TestController_FirstEmissionIsTerminal(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(1))

	v := h.next(t)
	assert.NotEqual(t, poll.Loading, v.Status)
	assert.Equal(t, poll.Ready, v.Status)
	assert.Equal(t, 1, v.HostID)
	assert.Equal(t, uint64(1), v.Cycle)
	assert.NotEmpty(t, v.CycleID)

	hostVal, ok := v.Host.Get()
	require.True(t, ok)
	assert.Equal(t, "alpha", hostVal.Hostname)
	cur, ok := v.Current.Get()
	require.True(t, ok)
	assert.Equal(t, 10.0, cur.CPUUsage)
	assert.Len(t, v.Points(), 3)
	assert.Equal(t, epoch, v.UpdatedAt)

	assert.Equal(t, v, h.ctrl.State())
}

func TestController_RequestsConfiguredHistoryWindow(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(1))
	h.next(t)

	pages := h.fetcher.Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, 0, pages[0].Skip)
	assert.Equal(t, 50, pages[0].Limit)
}

func TestController_StartTwiceIsUsageError(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(1))

	err := h.ctrl.Start(2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUsage))
	assert.Equal(t, 1, h.ctrl.HostID())
}

func TestController_ReselectBeforeStartIsUsageError(t *testing.T) {
	h := newHarness(t)

	err := h.ctrl.Reselect(2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUsage))
	assert.False(t, h.ctrl.Running())
	assert.Zero(t, h.fetcher.Calls(polltest.Detail))
}

func TestController_ReselectAfterStopIsUsageError(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(1))
	h.ctrl.Stop()

	err := h.ctrl.Reselect(2)
	assert.True(t, errors.IsCode(err, errors.ErrUsage))
}

func TestController_StartThenReselectEmitsOnlyForNewHost(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Hold()

	require.NoError(t, h.ctrl.Start(1))
	require.NoError(t, h.ctrl.Reselect(2))
	h.waitInFlight(t, 6)
	h.fetcher.Release()

	emitted := h.settle()
	require.Len(t, emitted, 1)
	assert.Equal(t, 2, emitted[0].HostID)
	assert.Equal(t, poll.Ready, emitted[0].Status)
	got, _ := emitted[0].Host.Get()
	assert.Equal(t, "beta", got.Hostname)
	assert.Equal(t, uint64(1), emitted[0].Cycle)
}

func TestController_ReselectStartsFromLoading(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(1))
	h.next(t)

	h.fetcher.Hold()
	require.NoError(t, h.ctrl.Reselect(2))

	st := h.ctrl.State()
	assert.Equal(t, poll.Loading, st.Status)
	assert.Equal(t, 2, st.HostID)
	assert.False(t, st.Host.Present(), "nothing carries over from the old selection")
}

func TestController_NoEmissionAfterStop(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Hold()

	require.NoError(t, h.ctrl.Start(1))
	h.waitInFlight(t, 3)

	h.ctrl.Stop()
	h.fetcher.Release()

	assert.Empty(t, h.settle())
	assert.Equal(t, poll.Loading, h.ctrl.State().Status)
	assert.Zero(t, h.clock.Pending(), "timer canceled")

	h.clock.Advance(10 * interval)
	assert.Empty(t, h.settle())
	assert.Equal(t, 1, h.fetcher.Calls(polltest.Detail))
}

func TestController_StopCancelsInFlightRequests(t *testing.T) {
	h := newHarness(t)
	h.fetcher.HonorContext = true
	h.fetcher.Hold()

	require.NoError(t, h.ctrl.Start(1))
	h.waitInFlight(t, 3)

	h.ctrl.Stop()
	h.waitInFlight(t, 0)
	assert.Empty(t, h.settle())
}

func TestController_StopIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Stop()
	require.NoError(t, h.ctrl.Start(1))
	h.next(t)
	h.ctrl.Stop()
	h.ctrl.Stop()
	assert.False(t, h.ctrl.Running())

	require.NoError(t, h.ctrl.Start(1), "restart after stop")
	v := h.next(t)
	assert.Equal(t, uint64(1), v.Cycle)
}

func TestController_IntervalMeasuredFromCycleStart(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(1))
	h.next(t)

	deadline, ok := h.clock.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(interval), deadline)

	h.clock.Advance(interval - time.Millisecond)
	assert.Empty(t, h.settle())

	h.clock.Advance(time.Millisecond)
	v := h.next(t)
	assert.Equal(t, uint64(2), v.Cycle)
	assert.Equal(t, epoch.Add(interval), v.UpdatedAt)
}

func TestController_TickDuringCycleIsSkipped(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Hold()

	require.NoError(t, h.ctrl.Start(1))
	h.waitInFlight(t, 3)

	// Two ticks pass while cycle 1 is stuck. Neither queues another cycle.
	h.clock.Advance(interval)
	h.clock.Advance(interval)
	assert.Equal(t, 1, h.fetcher.Calls(polltest.Detail))

	h.fetcher.Release()
	v := h.next(t)
	assert.Equal(t, uint64(1), v.Cycle)
	h.ctrl.Wait()
	assert.Zero(t, h.queue.Len())
	assert.Equal(t, 1, h.fetcher.Calls(polltest.Detail))

	h.clock.Advance(interval)
	v = h.next(t)
	assert.Equal(t, uint64(2), v.Cycle)
	assert.Equal(t, 2, h.fetcher.Calls(polltest.Detail))
	assert.True(t, h.log.HasLevel("debug"))
}

func TestController_EmitsExactlyOncePerCycle(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(1))
	h.next(t)

	for i := 0; i < 4; i++ {
		h.ctrl.Wait()
		h.clock.Advance(interval)
		h.next(t)
	}
	h.ctrl.Wait()
	assert.Zero(t, h.queue.Len())
	assert.Equal(t, 5, h.fetcher.Calls(polltest.Detail))
	assert.Equal(t, 5, h.fetcher.Calls(polltest.Latest))
	assert.Equal(t, 5, h.fetcher.Calls(polltest.History))
	assert.Equal(t, uint64(5), h.ctrl.State().Cycle)
}

func TestController_PartialFailureKeepsFreshValues(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Fail(polltest.Detail, 1, errors.New(errors.ErrNotFound, "Computer not found", ""))

	require.NoError(t, h.ctrl.Start(1))
	v := h.next(t)

	assert.Equal(t, poll.PartialError, v.Status)
	assert.Equal(t, poll.Failed, v.Host.Kind)
	assert.True(t, v.HostNotFound())
	assert.Equal(t, poll.Ok, v.Current.Kind)
	assert.Equal(t, poll.Ok, v.History.Kind)
	assert.Contains(t, v.Errors(), "host")
	assert.Len(t, v.Errors(), 1)
}

func TestController_LatestFailsFirstCycleLeavesCurrentAbsent(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Fail(polltest.Latest, 1, errors.New(errors.ErrTimeout, "Request timed out", ""))

	require.NoError(t, h.ctrl.Start(1))
	v := h.next(t)

	assert.Equal(t, poll.PartialError, v.Status)
	assert.Equal(t, poll.Failed, v.Current.Kind)
	assert.False(t, v.Current.Present(), "no earlier snapshot to fall back on")
	assert.True(t, errors.IsCode(v.Current.Err, errors.ErrTimeout))
	assert.True(t, v.Host.Present())
	assert.Equal(t, poll.Ok, v.History.Kind)
	assert.NotEmpty(t, v.Points())
	assert.False(t, v.HostNotFound())
}

func TestController_FailureAfterSuccessIsStale(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(1))
	first := h.next(t)
	require.Equal(t, poll.Ready, first.Status)
	h.ctrl.Wait()

	h.fetcher.Fail(polltest.Latest, 1, errors.New(errors.ErrTimeout, "Request timed out", ""))
	h.fetcher.SetHistory(1, history(7, 8, 9, 10))
	h.clock.Advance(interval)
	v := h.next(t)

	assert.Equal(t, poll.PartialError, v.Status)
	assert.Equal(t, poll.Stale, v.Current.Kind)
	assert.True(t, errors.IsCode(v.Current.Err, errors.ErrTimeout))
	cur, ok := v.Current.Get()
	require.True(t, ok)
	assert.Equal(t, 10.0, cur.CPUUsage, "previous snapshot retained")
	assert.Equal(t, first.Current.At, v.Current.At)

	assert.Equal(t, poll.Ok, v.History.Kind)
	assert.Len(t, v.Points(), 4, "fresh history replaces the old window")
	assert.False(t, v.HostNotFound())
	assert.True(t, h.log.HasLevel("warn"))
}

func TestController_TotalFailureWithoutPriorDataIsError(t *testing.T) {
	h := newHarness(t)
	boom := errors.New(errors.ErrNetwork, "Can't reach server", "")
	h.fetcher.Fail(polltest.Detail, 1, boom)
	h.fetcher.Fail(polltest.Latest, 1, boom)
	h.fetcher.Fail(polltest.History, 1, boom)

	require.NoError(t, h.ctrl.Start(1))
	v := h.next(t)

	assert.Equal(t, poll.Error, v.Status)
	assert.Equal(t, poll.Failed, v.Host.Kind)
	assert.Equal(t, poll.Failed, v.Current.Kind)
	assert.Equal(t, poll.Failed, v.History.Kind)
	assert.NotNil(t, v.History.Value, "history is empty, never absent")
	assert.Empty(t, v.Points())
}

func TestController_TotalFailureAfterSuccessIsPartial(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(1))
	h.next(t)
	h.ctrl.Wait()

	boom := errors.New(errors.ErrNetwork, "Can't reach server", "")
	h.fetcher.Fail(polltest.Detail, 1, boom)
	h.fetcher.Fail(polltest.Latest, 1, boom)
	h.fetcher.Fail(polltest.History, 1, boom)
	h.clock.Advance(interval)
	v := h.next(t)

	assert.Equal(t, poll.PartialError, v.Status)
	assert.Equal(t, poll.Stale, v.Host.Kind)
	assert.Equal(t, poll.Stale, v.Current.Kind)
	assert.Equal(t, poll.Stale, v.History.Kind)
	assert.Len(t, v.Points(), 3)
}

func TestController_RecoversToReady(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Fail(polltest.History, 1, errors.New(errors.ErrServer, "Server returned 500", ""))
	require.NoError(t, h.ctrl.Start(1))
	assert.Equal(t, poll.PartialError, h.next(t).Status)
	h.ctrl.Wait()

	h.fetcher.Heal(polltest.History, 1)
	h.clock.Advance(interval)
	v := h.next(t)
	assert.Equal(t, poll.Ready, v.Status)
	assert.Empty(t, v.Errors())
}

func TestController_HistoryIsOrderedOldestFirst(t *testing.T) {
	h := newHarness(t)
	h.fetcher.SetHistory(1, model.History{
		{Timestamp: ts(3), CPUUsage: 30},
		{Timestamp: ts(1), CPUUsage: 10},
		{Timestamp: ts(3), CPUUsage: 31},
		{Timestamp: ts(2), CPUUsage: 20},
	})

	require.NoError(t, h.ctrl.Start(1))
	v := h.next(t)

	var cpu []float64
	for _, p := range v.Points() {
		cpu = append(cpu, p.CPUUsage)
	}
	assert.Equal(t, []float64{10, 20, 30, 31}, cpu)
}

func TestController_Refresh(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.ctrl.Refresh(), "not running")

	h.fetcher.Hold()
	require.NoError(t, h.ctrl.Start(1))
	h.waitInFlight(t, 3)
	assert.False(t, h.ctrl.Refresh(), "cycle in flight")

	h.fetcher.Release()
	h.next(t)
	h.ctrl.Wait()

	h.clock.Advance(interval / 2)
	assert.True(t, h.ctrl.Refresh())
	v := h.next(t)
	assert.Equal(t, uint64(2), v.Cycle)

	deadline, ok := h.clock.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(interval/2+interval), deadline, "interval restarts from the manual cycle")
}

func TestController_DefaultsApplied(t *testing.T) {
	f := polltest.NewFakeFetcher().AddHost(host(1, "alpha"), snapshot(1, 1), history(1))
	q := poll.NewQueue[poll.ViewState]()
	c := poll.NewController(poll.Options{Fetcher: f, Sink: q.Push})
	t.Cleanup(func() { c.Stop(); c.Wait() })

	require.NoError(t, c.Start(1))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, ok := q.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, poll.Ready, v.Status)
	pages := f.Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, 100, pages[0].Limit)
}
