package poll

import (
	"time"

	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/model"
)

// Status summarizes a ViewState or ListState.
type Status int

const (
	// Loading means no cycle has completed for the current selection.
	Loading Status = iota
	// Ready means every resource was fetched in the latest cycle.
	Ready
	// PartialError means at least one resource failed but something is shown.
	PartialError
	// Error means nothing good has ever been obtained for the selection.
	Error
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case PartialError:
		return "partial"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON and YAML output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ResultKind tags a Result.
type ResultKind int

const (
	// Pending means the resource has not been fetched yet.
	Pending ResultKind = iota
	// Ok carries a value from the latest cycle.
	Ok
	// Stale carries the previous value because the latest fetch failed.
	Stale
	// Failed carries no value; the fetch failed and nothing came before it.
	Failed
)

func (k ResultKind) String() string {
	switch k {
	case Pending:
		return "pending"
	case Ok:
		return "ok"
	case Stale:
		return "stale"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is one resource's outcome for a cycle: Ok(value), Stale(previous,
// reason) or Failed(reason).
type Result[T any] struct {
	Kind  ResultKind
	Value T
	Err   error
	// At is when Value was fetched. Zero unless a value is present.
	At time.Time
}

// OkResult wraps a freshly fetched value.
func OkResult[T any](v T, at time.Time) Result[T] {
	return Result[T]{Kind: Ok, Value: v, At: at}
}

// Present reports whether a value, fresh or stale, is available.
func (r Result[T]) Present() bool {
	return r.Kind == Ok || r.Kind == Stale
}

// Get returns the value and whether one is present.
func (r Result[T]) Get() (T, bool) {
	return r.Value, r.Present()
}

// merge folds a fetch outcome into the previous result for the same selection.
// empty is used as Value when nothing is present.
func merge[T any](prev Result[T], v T, err error, at time.Time, empty T) Result[T] {
	if err == nil {
		return OkResult(v, at)
	}
	if prev.Present() {
		return Result[T]{Kind: Stale, Value: prev.Value, Err: err, At: prev.At}
	}
	return Result[T]{Kind: Failed, Value: empty, Err: err}
}

// ViewState is the render-ready outcome of a cycle. Each emission is a new
// value; consumers may hold on to it without copying.
type ViewState struct {
	HostID int
	// Cycle counts completed cycles for this selection, starting at 1.
	Cycle uint64
	// CycleID correlates log lines for one cycle.
	CycleID   string
	Status    Status
	Host      Result[model.Host]
	Current   Result[model.Snapshot]
	History   Result[model.History]
	UpdatedAt time.Time
}

// loadingState is the state of a selection before its first cycle completes.
func loadingState(hostID int) ViewState {
	return ViewState{
		HostID:  hostID,
		Status:  Loading,
		History: Result[model.History]{Value: model.History{}},
	}
}

// Points returns the history window, never nil.
func (v ViewState) Points() model.History {
	if v.History.Value == nil {
		return model.History{}
	}
	return v.History.Value
}

// HostNotFound reports whether the latest host detail fetch said the host
// does not exist.
func (v ViewState) HostNotFound() bool {
	return v.Host.Kind != Ok && fwerrors.IsCode(v.Host.Err, fwerrors.ErrNotFound)
}

// Errors returns the failure reasons from the latest cycle, keyed by resource.
func (v ViewState) Errors() map[string]error {
	out := map[string]error{}
	if v.Host.Err != nil {
		out["host"] = v.Host.Err
	}
	if v.Current.Err != nil {
		out["latest"] = v.Current.Err
	}
	if v.History.Err != nil {
		out["history"] = v.History.Err
	}
	return out
}

// statusOf applies the merge rule: Ready when all three are fresh, Error only
// when all three failed with nothing to fall back on, PartialError otherwise.
func statusOf(host, current, history ResultKind) Status {
	switch {
	case host == Ok && current == Ok && history == Ok:
		return Ready
	case host == Failed && current == Failed && history == Failed:
		return Error
	default:
		return PartialError
	}
}

// ListState is the roster as last fetched.
type ListState struct {
	Cycle  uint64
	Status Status
	// Hosts keeps the last good roster when a refresh fails.
	Hosts     []model.Host
	Err       error
	UpdatedAt time.Time
}
