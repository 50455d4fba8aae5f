package poll

//go:generate mockgen -destination=mock_fetcher.go -package=poll github.com/rileyhilliard/fleetwatch/internal/poll Fetcher

import (
	"context"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/api"
	"github.com/rileyhilliard/fleetwatch/internal/model"
)

// Fetcher is the read side of the metrics service. *api.Client implements it.
type Fetcher interface {
	ListHosts(ctx context.Context) ([]model.Host, error)
	GetHost(ctx context.Context, id int) (model.Host, error)
	GetLatestSnapshot(ctx context.Context, id int) (model.Snapshot, error)
	GetHistory(ctx context.Context, id int, page api.Page) (model.History, error)
}

var _ Fetcher = (*api.Client)(nil)

// Clock abstracts time so tests can fire ticks deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc callback.
type Timer interface {
	Stop() bool
}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
