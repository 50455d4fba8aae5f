package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiPrefix = "/api/v1/system-info"

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...func(*Options)) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	o := Options{BaseURL: srv.URL + apiPrefix, UserAgent: "fleetwatch/test"}
	for _, fn := range opts {
		fn(&o)
	}
	c, err := New(o)
	require.NoError(t, err)
	return c, srv
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"valid http", "http://localhost:8000/api/v1/system-info", false},
		{"valid https", "https://fleet.example.com", false},
		{"empty", "", true},
		{"no scheme", "localhost:8000", true},
		{"wrong scheme", "ftp://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Options{BaseURL: tt.baseURL})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, fwerrors.IsCode(err, fwerrors.ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultTimeout, c.timeout)
		})
	}
}

func TestListHosts(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiPrefix+"/computers/", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "fleetwatch/test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "hostname": "alpha", "ip_address": "10.0.0.1", "mac_address": "aa", "os_info": "Linux", "created_at": "2024-05-01T09:00:00", "last_seen": "2024-05-01T12:00:00", "system_info": []},
			{"id": 2, "hostname": "beta", "ip_address": "10.0.0.2", "mac_address": "bb", "os_info": "Darwin", "created_at": "2024-05-01T09:00:00", "last_seen": "2024-05-01T12:00:00"}
		]`))
	})

	hosts, err := c.ListHosts(context.Background())
	require.NoError(t, err)
	require.Len(t, hosts, 2)
	assert.Equal(t, "alpha", hosts[0].Hostname)
	assert.Equal(t, 2, hosts[1].ID)
}

func TestListHosts_EmptyIsNonNil(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	hosts, err := c.ListHosts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, hosts)
	assert.Empty(t, hosts)
}

func TestGetHost(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiPrefix+"/computers/7", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 7, "hostname": "gamma", "ip_address": "10.0.0.7", "mac_address": "cc", "os_info": "Linux", "created_at": "2024-05-01T09:00:00", "last_seen": "2024-05-01T12:00:00.5"}`))
	})

	h, err := c.GetHost(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, h.ID)
	assert.Equal(t, "gamma", h.Hostname)
	assert.Equal(t, 500*time.Millisecond, time.Duration(h.LastSeen.Nanosecond()))
}

func TestGetLatestSnapshot(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiPrefix+"/computers/3/system-info/latest", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 10, "computer_id": 3, "timestamp": "2024-05-01T12:00:00", "cpu_usage": 12.5, "memory_used": 2, "memory_total": 8,
			"running_processes": [{"pid": 1, "name": "init", "cpu_percent": 0, "memory_percent": 0.1}],
			"disk_usage": {}, "network_stats": {"bytes_sent": 1, "bytes_recv": 2, "packets_sent": 3, "packets_recv": 4}}`))
	})

	s, err := c.GetLatestSnapshot(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.HostID)
	assert.Equal(t, 12.5, s.CPUUsage)
	assert.Equal(t, 25.0, s.MemoryPercent())
	require.Len(t, s.RunningProcesses, 1)
}

func TestGetHistory(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiPrefix+"/computers/3/system-info/history", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("skip"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		// Newest first, as the service sends it.
		_, _ = w.Write([]byte(`[
			{"timestamp": "2024-05-01T12:00:02", "cpu_usage": 3, "memory_used": 1, "memory_total": 4},
			{"timestamp": "2024-05-01T12:00:01", "cpu_usage": 2, "memory_used": 1, "memory_total": 4},
			{"timestamp": "2024-05-01T12:00:00", "cpu_usage": 1, "memory_used": 1, "memory_total": 4}
		]`))
	})

	h, err := c.GetHistory(context.Background(), 3, DefaultPage())
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.True(t, h.Sorted())
	assert.Equal(t, 1.0, h[0].CPUUsage)
	assert.Equal(t, 3.0, h[2].CPUUsage)
}

func TestGetHistory_PageClamped(t *testing.T) {
	tests := []struct {
		name      string
		page      Page
		wantSkip  string
		wantLimit string
	}{
		{"zero limit uses default", Page{}, "0", "100"},
		{"negative skip", Page{Skip: -5, Limit: 10}, "0", "10"},
		{"limit above max", Page{Skip: 20, Limit: 5000}, "20", "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantSkip, r.URL.Query().Get("skip"))
				assert.Equal(t, tt.wantLimit, r.URL.Query().Get("limit"))
				_, _ = w.Write([]byte(`[]`))
			})
			h, err := c.GetHistory(context.Background(), 1, tt.page)
			require.NoError(t, err)
			assert.NotNil(t, h)
			assert.Empty(t, h)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode string
		wantMsg  string
	}{
		{
			name: "404 with detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"detail": "Computer not found"}`))
			},
			wantCode: fwerrors.ErrNotFound,
			wantMsg:  "Computer not found",
		},
		{
			name: "404 without body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantCode: fwerrors.ErrNotFound,
			wantMsg:  "Not found",
		},
		{
			name: "500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`Internal Server Error`))
			},
			wantCode: fwerrors.ErrServer,
			wantMsg:  "Server returned 500",
		},
		{
			name: "422 with structured detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"detail": [{"loc": ["path", "computer_id"], "msg": "bad int"}]}`))
			},
			wantCode: fwerrors.ErrServer,
			wantMsg:  "bad int",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id": "not a number"`))
			},
			wantCode: fwerrors.ErrDecode,
			wantMsg:  "Unexpected response",
		},
		{
			name: "html instead of json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>proxy login</html>`))
			},
			wantCode: fwerrors.ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)
			_, err := c.GetHost(context.Background(), 1)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, fwerrors.Kind(err))
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(o *Options) { o.Timeout = 50 * time.Millisecond })

	start := time.Now()
	_, err := c.GetLatestSnapshot(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, fwerrors.ErrTimeout, fwerrors.Kind(err))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, fwerrors.Transient(err))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base})
	require.NoError(t, err)

	_, err = c.ListHosts(context.Background())
	require.Error(t, err)
	assert.Equal(t, fwerrors.ErrNetwork, fwerrors.Kind(err))
}

func TestCanceledContext(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListHosts(ctx)
	require.Error(t, err)
	assert.Equal(t, fwerrors.ErrNetwork, fwerrors.Kind(err))
	assert.Contains(t, err.Error(), "canceled")
	assert.Zero(t, calls.Load())
}

func TestNoRetry(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetHost(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebugLogging(t *testing.T) {
	log := logger.NewBufferLogger()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}, func(o *Options) { o.Logger = log })

	_, err := c.ListHosts(context.Background())
	require.NoError(t, err)
	require.True(t, log.HasLevel("debug"))
	assert.Contains(t, log.Entries()[0].Message, "/computers/ -> 200")
}

func TestBaseURLTrailingSlash(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiPrefix+"/computers/9", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 9}`))
	}, func(o *Options) { o.BaseURL += "/" })

	h, err := c.GetHost(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 9, h.ID)
}
