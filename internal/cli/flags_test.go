package cli

import (
	"testing"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/config"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withGlobals resets the global flag variables after the test.
func withGlobals(t *testing.T) {
	t.Helper()
	oc, osv, ot, od := cfgFile, serverFlag, timeoutFlag, debugFlag
	t.Cleanup(func() {
		cfgFile, serverFlag, timeoutFlag, debugFlag = oc, osv, ot, od
	})
	cfgFile, serverFlag, timeoutFlag, debugFlag = "", "", "", false
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("--timeout", "")
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = ParseDuration("--timeout", "1500ms")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	for _, bad := range []string{"soon", "0s", "-5s"} {
		_, err := ParseDuration("--timeout", bad)
		require.Error(t, err, bad)
		assert.True(t, fwerrors.IsCode(err, fwerrors.ErrUsage), bad)
		assert.Contains(t, err.Error(), "--timeout '"+bad+"'")
	}
}

func TestParseHostID(t *testing.T) {
	id, err := ParseHostID("7")
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	id, err = ParseHostID(" #12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	for _, bad := range []string{"", "0", "-3", "web-1", "1.5"} {
		_, err := ParseHostID(bad)
		require.Error(t, err, bad)
		assert.True(t, fwerrors.IsCode(err, fwerrors.ErrUsage), bad)
	}
}

func TestFormatFlagResolve(t *testing.T) {
	cfg := config.DefaultConfig()

	got, err := FormatFlag{}.Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, "text", got, "empty flag falls back to output.format")

	cfg.Output.Format = "yaml"
	got, err = FormatFlag{}.Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, "yaml", got)

	got, err = FormatFlag{Format: " JSON "}.Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, "json", got)

	_, err = FormatFlag{Format: "xml"}.Resolve(cfg)
	require.Error(t, err)
	assert.True(t, fwerrors.IsCode(err, fwerrors.ErrUsage))
}

func TestApplyGlobalFlags(t *testing.T) {
	withGlobals(t)

	serverFlag = " http://metrics.lan:8000/api/v1/system-info/ "
	timeoutFlag = "3s"
	debugFlag = true

	cfg := config.DefaultConfig()
	require.NoError(t, applyGlobalFlags(cfg))

	assert.Equal(t, "http://metrics.lan:8000/api/v1/system-info", cfg.Server)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyGlobalFlags_KeepsConfigWhenUnset(t *testing.T) {
	withGlobals(t)

	cfg := config.DefaultConfig()
	want := *cfg
	require.NoError(t, applyGlobalFlags(cfg))
	assert.Equal(t, want, *cfg)
}

func TestApplyGlobalFlags_BadTimeout(t *testing.T) {
	withGlobals(t)
	timeoutFlag = "forever"

	err := applyGlobalFlags(config.DefaultConfig())
	require.Error(t, err)
	assert.True(t, fwerrors.IsCode(err, fwerrors.ErrUsage))
}
