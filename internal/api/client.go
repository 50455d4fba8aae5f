// Package api is the transport client for the metrics service. It exposes
// the four read endpoints the dashboard needs and maps every failure onto
// one of the NOT_FOUND, TIMEOUT, NETWORK, SERVER or DECODE error codes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/internal/model"
)

const (
	// DefaultTimeout bounds a single request when Options.Timeout is unset.
	DefaultTimeout = 10 * time.Second

	// DefaultHistoryLimit is the window size the service uses when none is given.
	DefaultHistoryLimit = 100

	// MaxHistoryLimit is the largest window the client will request.
	MaxHistoryLimit = 1000

	// maxErrorBody caps how much of a non-2xx body is read for the message.
	maxErrorBody = 2048
)

// Page selects a window of history, newest samples first on the server side.
type Page struct {
	Skip  int
	Limit int
}

// DefaultPage is the window the dashboard requests every cycle.
func DefaultPage() Page {
	return Page{Skip: 0, Limit: DefaultHistoryLimit}
}

// normalized clamps the page to values the service accepts.
func (p Page) normalized() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultHistoryLimit
	}
	if p.Limit > MaxHistoryLimit {
		p.Limit = MaxHistoryLimit
	}
	return p
}

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api/v1/system-info.
	BaseURL string
	// Timeout bounds each request, independent of any poll cadence.
	Timeout time.Duration
	// UserAgent is sent with every request.
	UserAgent string
	// HTTP overrides the underlying client. Used by tests.
	HTTP   *http.Client
	Logger logger.Logger
}

// Client talks to the metrics service. It is safe for concurrent use.
// No request is retried and no response is cached.
type Client struct {
	baseURL   *url.URL
	timeout   time.Duration
	userAgent string
	http      *http.Client
	log       logger.Logger
}

// New constructs a Client. It fails only when the base URL is unusable.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, fwerrors.New(fwerrors.ErrConfig,
			"No server URL given",
			"Set server in .fleetwatch.yaml or pass --server")
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fwerrors.WrapWithCode(err, fwerrors.ErrConfig,
			fmt.Sprintf("Invalid server URL: %s", raw),
			"Use a full http(s) URL, e.g. http://localhost:8000/api/v1/system-info")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "fleetwatch"
	}

	return &Client{
		baseURL:   parsed,
		timeout:   timeout,
		userAgent: ua,
		http:      httpClient,
		log:       log,
	}, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListHosts returns every registered host.
func (c *Client) ListHosts(ctx context.Context) ([]model.Host, error) {
	var hosts []model.Host
	if err := c.get(ctx, "computers/", nil, &hosts); err != nil {
		return nil, err
	}
	if hosts == nil {
		hosts = []model.Host{}
	}
	return hosts, nil
}

// GetHost returns the identity record for one host.
func (c *Client) GetHost(ctx context.Context, id int) (model.Host, error) {
	var h model.Host
	if err := c.get(ctx, "computers/"+strconv.Itoa(id), nil, &h); err != nil {
		return model.Host{}, err
	}
	return h, nil
}

// GetLatestSnapshot returns the newest sample for a host.
func (c *Client) GetLatestSnapshot(ctx context.Context, id int) (model.Snapshot, error) {
	var s model.Snapshot
	if err := c.get(ctx, "computers/"+strconv.Itoa(id)+"/system-info/latest", nil, &s); err != nil {
		return model.Snapshot{}, err
	}
	return s, nil
}

// GetHistory returns a window of samples ordered oldest-first. The service
// pages newest-first, so Skip counts back from the most recent sample.
func (c *Client) GetHistory(ctx context.Context, id int, page Page) (model.History, error) {
	page = page.normalized()
	query := url.Values{}
	query.Set("skip", strconv.Itoa(page.Skip))
	query.Set("limit", strconv.Itoa(page.Limit))

	var points model.History
	if err := c.get(ctx, "computers/"+strconv.Itoa(id)+"/system-info/history", query, &points); err != nil {
		return nil, err
	}
	return points.Normalize(), nil
}

func (c *Client) endpoint(rel string, query url.Values) string {
	u := *c.baseURL
	trailing := strings.HasSuffix(rel, "/")
	u.Path = path.Join(u.Path, rel)
	if trailing {
		u.Path += "/"
	}
	u.RawPath = ""
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, rel string, query url.Values, out interface{}) error {
	endpoint := c.endpoint(rel, query)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fwerrors.WrapWithCode(err, fwerrors.ErrNetwork,
			"Couldn't build request for "+endpoint, "")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("GET %s -> %d (%s)", endpoint, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(endpoint, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return c.transportError(endpoint, ctxErr)
		}
		return fwerrors.WrapWithCode(err, fwerrors.ErrDecode,
			"Unexpected response from "+endpoint,
			"Check that --server points at the metrics API root")
	}
	return nil
}

func (c *Client) transportError(endpoint string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fwerrors.WrapWithCode(err, fwerrors.ErrTimeout,
			fmt.Sprintf("Request timed out after %s", c.timeout),
			"The metrics service is slow or unreachable; raise request_timeout if this persists")
	}
	if errors.Is(err, context.Canceled) {
		return fwerrors.WrapWithCode(err, fwerrors.ErrNetwork, "Request canceled", "")
	}
	return fwerrors.WrapWithCode(err, fwerrors.ErrNetwork,
		"Can't reach "+endpoint,
		"Check the server is running and the URL is correct")
}

// serviceError is the error body the metrics service sends.
type serviceError struct {
	Detail json.RawMessage `json:"detail"`
}

func statusError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(body))

	var se serviceError
	if json.Unmarshal(body, &se) == nil && len(se.Detail) > 0 {
		var s string
		if json.Unmarshal(se.Detail, &s) == nil {
			detail = s
		} else {
			detail = string(se.Detail)
		}
	}

	cause := fmt.Errorf("%s: HTTP %d: %s", endpoint, resp.StatusCode, detail)

	if resp.StatusCode == http.StatusNotFound {
		msg := detail
		if msg == "" {
			msg = "Not found"
		}
		return fwerrors.WrapWithCode(cause, fwerrors.ErrNotFound, msg, "")
	}
	return fwerrors.WrapWithCode(cause, fwerrors.ErrServer,
		fmt.Sprintf("Server returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		"")
}
