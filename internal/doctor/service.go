package doctor

import (
	"context"
	"fmt"
	"sort"
	"time"

	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/model"
)

// Service is the part of the transport client the checks need.
type Service interface {
	ListHosts(ctx context.Context) ([]model.Host, error)
	GetLatestSnapshot(ctx context.Context, id int) (model.Snapshot, error)
}

// ServiceCheck fetches the roster once. Hosts is set after a successful Run
// so host checks can be built from it.
type ServiceCheck struct {
	Service Service
	BaseURL string
	// Now defaults to time.Now.
	Now func() time.Time

	Hosts []model.Host
}

func (c *ServiceCheck) Name() string     { return "service_reachable" }
func (c *ServiceCheck) Category() string { return CategoryService }

func (c *ServiceCheck) Run(ctx context.Context) CheckResult {
	now := c.now()
	hosts, err := c.Service.ListHosts(ctx)
	took := c.now().Sub(now).Round(time.Millisecond)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s: %s", c.BaseURL, fwerrors.Summary(err)),
			Suggestion: serviceSuggestion(err),
		}
	}

	c.Hosts = hosts
	if len(hosts) == 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s answered in %s but has no hosts registered", c.BaseURL, took),
			Suggestion: "Start an agent on a machine, or run 'fleetwatch serve-demo'",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s answered in %s, %d host%s", c.BaseURL, took, len(hosts), pluralize(len(hosts))),
	}
}

func (c *ServiceCheck) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func serviceSuggestion(err error) string {
	switch fwerrors.Kind(err) {
	case fwerrors.ErrNetwork:
		return "Is the service running? Check the server URL and port"
	case fwerrors.ErrTimeout:
		return "The service is slow or unreachable; try a longer --timeout"
	case fwerrors.ErrNotFound, fwerrors.ErrDecode:
		return "The URL answers but isn't the system-info API; check the path, e.g. /api/v1/system-info"
	default:
		return "Check the service logs"
	}
}

// HostCheck verifies one host has reported recently and has a snapshot.
type HostCheck struct {
	Service Service
	Host    model.Host
	// QuietAfter is how old last_seen may be before the host warns.
	QuietAfter time.Duration
	Now        func() time.Time
}

func (c *HostCheck) Name() string     { return fmt.Sprintf("host_%d", c.Host.ID) }
func (c *HostCheck) Category() string { return CategoryHosts }

func (c *HostCheck) Run(ctx context.Context) CheckResult {
	label := c.label()

	snap, err := c.Service.GetLatestSnapshot(ctx, c.Host.ID)
	if err != nil {
		if fwerrors.IsCode(err, fwerrors.ErrNotFound) {
			return CheckResult{
				Name:       c.Name(),
				Status:     StatusWarn,
				Message:    fmt.Sprintf("%s: no snapshots yet", label),
				Suggestion: "Check the agent on that machine is running",
			}
		}
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusFail,
			Message: fmt.Sprintf("%s: %s", label, fwerrors.Summary(err)),
		}
	}

	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	seen := c.Host.LastSeen.Time
	if snap.Timestamp.After(seen) {
		seen = snap.Timestamp.Time
	}
	if seen.IsZero() || (c.QuietAfter > 0 && now.Sub(seen) > c.QuietAfter) {
		msg := fmt.Sprintf("%s: never reported", label)
		if !seen.IsZero() {
			msg = fmt.Sprintf("%s: last report %s ago", label, now.Sub(seen).Round(time.Second))
		}
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    msg,
			Suggestion: "The machine may be down or its agent stopped",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s: reporting, CPU %.1f%%", label, snap.CPUUsage),
	}
}

func (c *HostCheck) label() string {
	if c.Host.Hostname == "" {
		return fmt.Sprintf("#%d", c.Host.ID)
	}
	return fmt.Sprintf("%s (#%d)", c.Host.Hostname, c.Host.ID)
}

// NewHostChecks creates one check per host, ordered by id.
func NewHostChecks(svc Service, hosts []model.Host, quietAfter time.Duration, now func() time.Time) []Check {
	sorted := append([]model.Host{}, hosts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	checks := make([]Check, len(sorted))
	for i, h := range sorted {
		checks[i] = &HostCheck{Service: svc, Host: h, QuietAfter: quietAfter, Now: now}
	}
	return checks
}
