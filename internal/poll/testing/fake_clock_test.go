package testing

import (
	"context"
	"testing"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/api"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestFakeClock_FiresInDeadlineOrder(t *testing.T) {
	c := NewFakeClock(epoch)
	var order []string

	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(time.Second, func() { order = append(order, "a") })
	c.AfterFunc(3*time.Second, func() { order = append(order, "c") })

	c.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, epoch.Add(2*time.Second), c.Now())
	assert.Equal(t, 1, c.Pending())

	deadline, ok := c.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(3*time.Second), deadline)
}

func TestFakeClock_StopPreventsFire(t *testing.T) {
	c := NewFakeClock(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(time.Minute)
	assert.False(t, fired)
	assert.Zero(t, c.Pending())
}

func TestFakeClock_CallbackRearms(t *testing.T) {
	c := NewFakeClock(epoch)
	count := 0
	var rearm func()
	rearm = func() {
		count++
		c.AfterFunc(time.Second, rearm)
	}
	c.AfterFunc(time.Second, rearm)

	c.Advance(3500 * time.Millisecond)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, c.Pending())
}

func TestFakeFetcher_HoldAndRelease(t *testing.T) {
	f := NewFakeFetcher().AddHost(model.Host{ID: 1, Hostname: "a"}, model.Snapshot{HostID: 1}, model.History{})
	f.Hold()

	done := make(chan model.Host)
	go func() {
		h, _ := f.GetHost(context.Background(), 1)
		done <- h
	}()

	require.Eventually(t, func() bool { return f.InFlight() == 1 }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("call returned while held")
	default:
	}

	f.Release()
	assert.Equal(t, "a", (<-done).Hostname)
	assert.Zero(t, f.InFlight())
	assert.Equal(t, 1, f.Calls(Detail))
}

func TestFakeFetcher_HonorContext(t *testing.T) {
	f := NewFakeFetcher()
	f.HonorContext = true
	f.Hold()
	defer f.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ListHosts(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.InFlight())
}

func TestFakeFetcher_FailuresAndNotFound(t *testing.T) {
	f := NewFakeFetcher().AddHost(model.Host{ID: 1}, model.Snapshot{}, model.History{})
	ctx := context.Background()

	_, err := f.GetHost(ctx, 2)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))

	f.Fail(Latest, 1, errors.New(errors.ErrTimeout, "slow", ""))
	_, err = f.GetLatestSnapshot(ctx, 1)
	assert.True(t, errors.IsCode(err, errors.ErrTimeout))

	f.Heal(Latest, 1)
	_, err = f.GetLatestSnapshot(ctx, 1)
	assert.NoError(t, err)

	_, err = f.GetHistory(ctx, 1, api.Page{Limit: 5})
	assert.NoError(t, err)
	assert.Equal(t, []api.Page{{Limit: 5}}, f.Pages())
}
