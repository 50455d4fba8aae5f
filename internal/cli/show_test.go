package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/model"
	"github.com/rileyhilliard/fleetwatch/internal/poll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrinter(out *bytes.Buffer, format string, watch bool) (*statePrinter, *int) {
	calls := 0
	return &statePrinter{
		out:    out,
		format: format,
		watch:  watch,
		th:     testTh,
		now:    func() time.Time { return testNow },
		before: func() { calls++ },
	}, &calls
}

func TestStatePrinter_OneShotSkipsLoading(t *testing.T) {
	q := poll.NewQueue[poll.ViewState]()
	q.Push(poll.ViewState{HostID: 3, Status: poll.Loading})
	q.Push(readyState())
	q.Push(readyState())

	var buf bytes.Buffer
	p, before := newTestPrinter(&buf, "text", false)
	require.NoError(t, p.run(context.Background(), q))

	assert.Equal(t, 1, *before)
	assert.Equal(t, 1, strings.Count(buf.String(), "web-1 (#3)"), "only the first result is printed")
	assert.Equal(t, 1, q.Len(), "the rest stays queued")
}

func TestStatePrinter_OneShotNotFound(t *testing.T) {
	q := poll.NewQueue[poll.ViewState]()
	q.Push(notFoundState())

	var buf bytes.Buffer
	p, _ := newTestPrinter(&buf, "text", false)
	err := p.run(context.Background(), q)

	require.Error(t, err)
	assert.True(t, isSilent(err))
	assert.True(t, fwerrors.IsCode(err, fwerrors.ErrNotFound))
	assert.Equal(t, ExitError, ExitCode(err))
	assert.Contains(t, buf.String(), "No host with id 9")
}

func TestStatePrinter_WatchPrintsEveryState(t *testing.T) {
	q := poll.NewQueue[poll.ViewState]()
	first := readyState()
	second := readyState()
	second.Cycle = 3
	q.Push(first)
	q.Push(poll.ViewState{HostID: 3, Status: poll.Loading})
	q.Push(second)
	q.Close()

	var buf bytes.Buffer
	p, before := newTestPrinter(&buf, "text", true)
	require.NoError(t, p.run(context.Background(), q))

	out := buf.String()
	assert.Equal(t, 1, *before)
	assert.Contains(t, out, "cycle 2")
	assert.Contains(t, out, "cycle 3")
	assert.Equal(t, 1, strings.Count(out, strings.Repeat("─", 40)))
}

func TestStatePrinter_WatchJSONHasNoSeparator(t *testing.T) {
	q := poll.NewQueue[poll.ViewState]()
	q.Push(readyState())
	q.Push(readyState())
	q.Close()

	var buf bytes.Buffer
	p, _ := newTestPrinter(&buf, "json", true)
	require.NoError(t, p.run(context.Background(), q))

	assert.NotContains(t, buf.String(), "─")
	dec := json.NewDecoder(&buf)
	for i := 0; i < 2; i++ {
		var env JSONEnvelope
		require.NoError(t, dec.Decode(&env))
		assert.True(t, env.Success)
	}
}

func TestStatePrinter_WatchKeepsGoingThroughErrors(t *testing.T) {
	q := poll.NewQueue[poll.ViewState]()
	q.Push(notFoundState())
	q.Push(readyState())
	q.Close()

	var buf bytes.Buffer
	p, _ := newTestPrinter(&buf, "text", true)
	require.NoError(t, p.run(context.Background(), q))
	assert.Contains(t, buf.String(), "No host with id 9")
	assert.Contains(t, buf.String(), "web-1 (#3)")
}

func TestStatePrinter_StopsOnCancel(t *testing.T) {
	q := poll.NewQueue[poll.ViewState]()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	var buf bytes.Buffer
	p, before := newTestPrinter(&buf, "text", true)
	go func() { done <- p.run(ctx, q) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.Zero(t, *before)
	assert.Empty(t, buf.String())
}

func TestStateError(t *testing.T) {
	assert.NoError(t, stateError(readyState()))

	partial := readyState()
	partial.Status = poll.PartialError
	assert.NoError(t, stateError(partial))

	down := poll.ViewState{
		HostID: 4,
		Status: poll.Error,
		Host:   poll.Result[model.Host]{Kind: poll.Failed, Err: fwerrors.New(fwerrors.ErrNetwork, "refused", "")},
	}
	err := stateError(down)
	require.Error(t, err)
	assert.True(t, isSilent(err))
	assert.True(t, fwerrors.IsCode(err, fwerrors.ErrNetwork))
}

func TestShowCommand_AgainstDemoService(t *testing.T) {
	startDemo(t, 3)

	oldFormat, oldWatch := showFormat, showWatch
	defer func() { showFormat, showWatch = oldFormat, oldWatch }()
	showFormat, showWatch = FormatFlag{Format: "json"}, false

	var buf bytes.Buffer
	require.NoError(t, showCommand(context.Background(), &buf, []string{"1"}))

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			HostID int    `json:"host_id"`
			Status string `json:"status"`
			Host   struct {
				State string `json:"state"`
				Value struct {
					Hostname string `json:"hostname"`
				} `json:"value"`
			} `json:"host"`
			History struct {
				Value []map[string]interface{} `json:"value"`
			} `json:"history"`
			CPU struct {
				Max   float64 `json:"max"`
				Count int     `json:"count"`
			} `json:"cpu"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, 1, env.Data.HostID)
	assert.Equal(t, "ready", env.Data.Status)
	assert.Equal(t, "ok", env.Data.Host.State)
	assert.Equal(t, "demo-box", env.Data.Host.Value.Hostname)
	assert.Len(t, env.Data.History.Value, 3)
	assert.Equal(t, 30.0, env.Data.CPU.Max)
	assert.Equal(t, 3, env.Data.CPU.Count)
}

func TestShowCommand_UnknownHost(t *testing.T) {
	startDemo(t, 1)

	oldFormat, oldWatch := showFormat, showWatch
	defer func() { showFormat, showWatch = oldFormat, oldWatch }()
	showFormat, showWatch = FormatFlag{Format: "json"}, false

	var buf bytes.Buffer
	err := showCommand(context.Background(), &buf, []string{"99"})
	require.Error(t, err)
	assert.True(t, isSilent(err))
	assert.Equal(t, ExitError, ExitCode(err))
	assert.Contains(t, buf.String(), `"status": "error"`)
}

func TestShowCommand_NeedsHostWhenNotInteractive(t *testing.T) {
	startDemo(t, 1)

	oldFormat := showFormat
	defer func() { showFormat = oldFormat }()
	showFormat = FormatFlag{Format: "json"}

	err := showCommand(context.Background(), &bytes.Buffer{}, nil)
	require.Error(t, err)
	assert.Equal(t, ExitUsage, ExitCode(err))
}
