// Package demo serves this machine's metrics through the same read endpoints
// the fleet metrics service exposes, so the client can be tried without a
// deployed backend. The machine always appears as host 1.
package demo

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/internal/model"
)

// HostID is the id the local machine is served under.
const HostID = 1

// BasePath is where the service mounts its routes.
const BasePath = "/api/v1/system-info"

// DefaultSampleInterval is used when Options.Interval is zero.
const DefaultSampleInterval = 5 * time.Second

const (
	defaultSkip  = 0
	defaultLimit = 100
)

// Options configures a Service.
type Options struct {
	Sampler     Sampler
	Interval    time.Duration
	HistorySize int
	Logger      logger.Logger
	// Now defaults to time.Now. Tests pin it.
	Now func() time.Time
}

// Service samples the local machine and answers the read endpoints.
type Service struct {
	sampler  Sampler
	interval time.Duration
	log      logger.Logger
	now      func() time.Time
	ring     *Ring

	mu   sync.RWMutex
	host *model.Host
}

// New creates a service. Nothing is sampled until SampleOnce or Run.
func New(opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSampleInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		sampler:  opts.Sampler,
		interval: opts.Interval,
		log:      opts.Logger,
		now:      opts.Now,
		ring:     NewRing(opts.HistorySize),
	}
}

// SampleOnce records one snapshot, resolving the host identity on first use.
func (s *Service) SampleOnce(ctx context.Context) (model.Snapshot, error) {
	now := s.now().UTC()

	if err := s.ensureHost(ctx, now); err != nil {
		return model.Snapshot{}, err
	}

	snap, err := s.sampler.Sample(ctx)
	if err != nil {
		return model.Snapshot{}, fwerrors.WrapWithCode(err, fwerrors.ErrServer,
			"Couldn't sample local metrics", "")
	}
	snap.HostID = HostID
	snap.Timestamp = model.NewTimestamp(now)
	snap = s.ring.Push(snap)

	s.mu.Lock()
	s.host.LastSeen = model.NewTimestamp(now)
	s.mu.Unlock()

	s.log.Debug("sampled snapshot %d: cpu %.1f%%, mem %.2f/%.2f GB", snap.ID, snap.CPUUsage, snap.MemoryUsed, snap.MemoryTotal)
	return snap, nil
}

func (s *Service) ensureHost(ctx context.Context, now time.Time) error {
	s.mu.RLock()
	known := s.host != nil
	s.mu.RUnlock()
	if known {
		return nil
	}

	id, err := s.sampler.Identity(ctx)
	if err != nil {
		return fwerrors.WrapWithCode(err, fwerrors.ErrServer,
			"Couldn't read host identity", "")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.host == nil {
		s.host = &model.Host{
			ID:         HostID,
			Hostname:   id.Hostname,
			IPAddress:  id.IPAddress,
			MACAddress: id.MACAddress,
			OSInfo:     id.OSInfo,
			CreatedAt:  model.NewTimestamp(now),
			LastSeen:   model.NewTimestamp(now),
		}
	}
	return nil
}

// Run samples immediately and then every interval until ctx is done.
// Sampling failures are logged and the loop keeps going.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SampleOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("sample failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Host returns the served host once identity has been resolved.
func (s *Service) Host() (model.Host, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.host == nil {
		return model.Host{}, false
	}
	return *s.host, true
}

// Handler returns the gin engine serving the read endpoints.
func (s *Service) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group(BasePath)
	api.GET("/computers/", s.listComputers)
	api.GET("/computers/:id", s.getComputer)
	api.GET("/computers/:id/system-info/latest", s.getLatest)
	api.GET("/computers/:id/system-info/history", s.getHistory)
	return r
}

// ListenAndServe runs the sampler and the HTTP server until ctx is done.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("demo metrics on http://%s%s", addr, BasePath)

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		err = srv.Shutdown(shutdownCtx)
		done()
	}
	cancel()
	wg.Wait()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fwerrors.WrapWithCode(err, fwerrors.ErrNetwork,
			"Demo server stopped: "+err.Error(),
			"Is another process already listening on "+addr+"? Try --listen with a different port")
	}
	return nil
}

func (s *Service) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

func (s *Service) listComputers(c *gin.Context) {
	skip, limit, ok := pageParams(c)
	if !ok {
		return
	}
	hosts := []model.Host{}
	if h, known := s.Host(); known && skip == 0 && limit > 0 {
		hosts = append(hosts, h)
	}
	c.JSON(http.StatusOK, hosts)
}

func (s *Service) getComputer(c *gin.Context) {
	h, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Service) getLatest(c *gin.Context) {
	if _, ok := s.lookup(c); !ok {
		return
	}
	snap, ok := s.ring.Latest()
	if !ok {
		notFound(c, "No system info found")
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Service) getHistory(c *gin.Context) {
	if _, ok := s.lookup(c); !ok {
		return
	}
	skip, limit, ok := pageParams(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.ring.Window(skip, limit))
}

// lookup resolves the :id path parameter, writing the error response itself.
func (s *Service) lookup(c *gin.Context) (model.Host, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		invalid(c, "path", "computer_id", "value is not a valid integer")
		return model.Host{}, false
	}
	h, known := s.Host()
	if !known || id != HostID {
		notFound(c, "Computer not found")
		return model.Host{}, false
	}
	return h, true
}

func pageParams(c *gin.Context) (skip, limit int, ok bool) {
	skip, limit = defaultSkip, defaultLimit
	if raw := c.Query("skip"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			invalid(c, "query", "skip", "value is not a valid integer")
			return 0, 0, false
		}
		skip = v
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			invalid(c, "query", "limit", "value is not a valid integer")
			return 0, 0, false
		}
		limit = v
	}
	return skip, limit, true
}

func notFound(c *gin.Context, detail string) {
	c.JSON(http.StatusNotFound, gin.H{"detail": detail})
}

// invalid mirrors the validation error shape of the real service.
func invalid(c *gin.Context, in, field, msg string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"detail": []gin.H{{
			"loc":  []string{in, field},
			"msg":  msg,
			"type": "type_error.integer",
		}},
	})
}
