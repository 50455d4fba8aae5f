package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/rileyhilliard/fleetwatch/internal/api"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/model"
)

// Resource names used by Fail, Calls and friends.
const (
	Roster  = "list"
	Detail  = "host"
	Latest  = "latest"
	History = "history"
)

// FakeFetcher serves canned responses for the poll.Fetcher interface.
// Hold makes every subsequent call block until Release, which lets tests
// resolve requests after a Stop or Reselect.
type FakeFetcher struct {
	mu        sync.Mutex
	roster    []model.Host
	hosts     map[int]model.Host
	snapshots map[int]model.Snapshot
	histories map[int]model.History
	errs      map[string]error
	gate      chan struct{}
	calls     map[string]int
	inFlight  int

	// HonorContext makes held calls return ctx.Err() when canceled instead
	// of waiting for Release.
	HonorContext bool

	pages []api.Page
}

// NewFakeFetcher creates an empty fetcher. Unknown hosts answer NOT_FOUND.
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		hosts:     make(map[int]model.Host),
		snapshots: make(map[int]model.Snapshot),
		histories: make(map[int]model.History),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

// AddHost registers a host with a snapshot and history, all served successfully.
func (f *FakeFetcher) AddHost(h model.Host, s model.Snapshot, hist model.History) *FakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roster = append(f.roster, h)
	f.hosts[h.ID] = h
	f.snapshots[h.ID] = s
	f.histories[h.ID] = hist
	return f
}

// SetSnapshot replaces the latest snapshot served for id.
func (f *FakeFetcher) SetSnapshot(id int, s model.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[id] = s
}

// SetHistory replaces the history served for id.
func (f *FakeFetcher) SetHistory(id int, h model.History) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histories[id] = h
}

// SetRoster replaces the roster.
func (f *FakeFetcher) SetRoster(hosts []model.Host) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roster = hosts
}

// Fail makes resource calls for id return err. Use id 0 with Roster.
func (f *FakeFetcher) Fail(resource string, id int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[key(resource, id)] = err
}

// Heal clears a failure set by Fail.
func (f *FakeFetcher) Heal(resource string, id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errs, key(resource, id))
}

// Hold blocks every subsequent call until Release.
func (f *FakeFetcher) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate == nil {
		f.gate = make(chan struct{})
	}
}

// Release unblocks held calls.
func (f *FakeFetcher) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// Calls returns how many calls were made for resource across all ids.
func (f *FakeFetcher) Calls(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[resource]
}

// Pages returns every page requested from GetHistory, in call order.
func (f *FakeFetcher) Pages() []api.Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Page(nil), f.pages...)
}

// InFlight returns the number of calls currently blocked or executing.
func (f *FakeFetcher) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

func (f *FakeFetcher) ListHosts(ctx context.Context) ([]model.Host, error) {
	if err := f.enter(ctx, Roster); err != nil {
		return nil, err
	}
	defer f.exit()

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[key(Roster, 0)]; err != nil {
		return nil, err
	}
	return append([]model.Host{}, f.roster...), nil
}

func (f *FakeFetcher) GetHost(ctx context.Context, id int) (model.Host, error) {
	if err := f.enter(ctx, Detail); err != nil {
		return model.Host{}, err
	}
	defer f.exit()

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[key(Detail, id)]; err != nil {
		return model.Host{}, err
	}
	h, ok := f.hosts[id]
	if !ok {
		return model.Host{}, notFound(id)
	}
	return h, nil
}

func (f *FakeFetcher) GetLatestSnapshot(ctx context.Context, id int) (model.Snapshot, error) {
	if err := f.enter(ctx, Latest); err != nil {
		return model.Snapshot{}, err
	}
	defer f.exit()

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[key(Latest, id)]; err != nil {
		return model.Snapshot{}, err
	}
	s, ok := f.snapshots[id]
	if !ok {
		return model.Snapshot{}, notFound(id)
	}
	return s, nil
}

func (f *FakeFetcher) GetHistory(ctx context.Context, id int, page api.Page) (model.History, error) {
	f.mu.Lock()
	f.pages = append(f.pages, page)
	f.mu.Unlock()

	if err := f.enter(ctx, History); err != nil {
		return nil, err
	}
	defer f.exit()

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[key(History, id)]; err != nil {
		return nil, err
	}
	h, ok := f.histories[id]
	if !ok {
		return nil, notFound(id)
	}
	return append(model.History{}, h...), nil
}

func (f *FakeFetcher) enter(ctx context.Context, resource string) error {
	f.mu.Lock()
	f.calls[resource]++
	f.inFlight++
	gate := f.gate
	honor := f.HonorContext
	f.mu.Unlock()

	if gate == nil {
		return nil
	}
	if honor {
		select {
		case <-gate:
		case <-ctx.Done():
			f.exit()
			return ctx.Err()
		}
		return nil
	}
	<-gate
	return nil
}

func (f *FakeFetcher) exit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
}

func key(resource string, id int) string {
	return fmt.Sprintf("%s:%d", resource, id)
}

func notFound(id int) error {
	return errors.New(errors.ErrNotFound, fmt.Sprintf("Computer %d not found", id), "")
}
