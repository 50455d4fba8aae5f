package monitor

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/internal/model"
	"github.com/rileyhilliard/fleetwatch/internal/poll"
)

// LayoutMode represents the responsive layout mode based on terminal size.
type LayoutMode int

const (
	// LayoutMinimal is for terminals < 80 columns: no graphs, single column
	LayoutMinimal LayoutMode = iota
	// LayoutCompact is for terminals 80-120 columns
	LayoutCompact
	// LayoutStandard is for terminals 120-160 columns
	LayoutStandard
	// LayoutWide is for terminals 160+ columns
	LayoutWide
)

// Width breakpoints for layout modes
const (
	BreakpointCompact  = 80
	BreakpointStandard = 120
	BreakpointWide     = 160
)

// HeightMinimal is the shortest terminal that still gets a footer.
const HeightMinimal = 24

// QuietAfter is how long a host can go unseen before its card is dimmed.
const QuietAfter = 5 * time.Minute

// spinnerInterval is the animation frame rate for the loading spinner
const spinnerInterval = 150 * time.Millisecond

// Options configures the dashboard.
type Options struct {
	Fetcher poll.Fetcher

	// PollInterval drives the detail view. RosterInterval re-fetches the
	// host list; zero fetches it once.
	PollInterval   time.Duration
	RosterInterval time.Duration
	HistoryLimit   int

	Thresholds Thresholds

	// InitialHost opens the detail view for that host straight away.
	InitialHost int

	// ServerLabel is shown in the header, usually the base URL.
	ServerLabel string

	Clock  poll.Clock
	Logger logger.Logger
}

// Model is the Bubble Tea model for the fleet dashboard. Data arrives from
// two poll controllers through queues; the model never fetches directly.
type Model struct {
	roster  *poll.ListController
	detail  *poll.Controller
	rosterQ *poll.Queue[poll.ListState]
	viewQ   *poll.Queue[poll.ViewState]
	ctx     context.Context
	cancel  context.CancelFunc

	initialHost int
	serverLabel string
	thresholds  Thresholds
	clock       poll.Clock
	log         logger.Logger

	list  poll.ListState
	hosts []model.Host
	view  poll.ViewState
	// viewing is the host the detail controller is polling, 0 for none.
	viewing int

	selected  int
	sortOrder SortOrder
	viewMode  ViewMode
	showHelp  bool
	width     int
	height    int
	quitting  bool
	err       error

	spinnerFrame int

	detailViewport viewport.Model
	viewportReady  bool
}

// rosterMsg carries a roster emission.
type rosterMsg poll.ListState

// viewMsg carries a detail emission.
type viewMsg poll.ViewState

// spinnerTickMsg signals a spinner animation frame update.
type spinnerTickMsg time.Time

// errMsg surfaces a controller error.
type errMsg struct{ err error }

// NewModel wires the controllers. Nothing is fetched until Init runs.
func NewModel(opts Options) Model {
	clock := opts.Clock
	if clock == nil {
		clock = poll.RealClock()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	t := opts.Thresholds
	if !t.valid() {
		t = DefaultThresholds
	}

	rosterQ := poll.NewQueue[poll.ListState]()
	viewQ := poll.NewQueue[poll.ViewState]()
	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		roster: poll.NewListController(poll.ListOptions{
			Fetcher:  opts.Fetcher,
			Sink:     rosterQ.Push,
			Interval: opts.RosterInterval,
			Clock:    clock,
			Logger:   log,
		}),
		detail: poll.NewController(poll.Options{
			Fetcher:      opts.Fetcher,
			Sink:         viewQ.Push,
			Interval:     opts.PollInterval,
			HistoryLimit: opts.HistoryLimit,
			Clock:        clock,
			Logger:       log,
		}),
		rosterQ:     rosterQ,
		viewQ:       viewQ,
		ctx:         ctx,
		cancel:      cancel,
		initialHost: opts.InitialHost,
		serverLabel: opts.ServerLabel,
		thresholds:  t,
		clock:       clock,
		log:         log,
		list:        poll.ListState{Status: poll.Loading, Hosts: []model.Host{}},
		hosts:       []model.Host{},
		sortOrder:   SortByID,
	}
	if opts.InitialHost > 0 {
		m.viewMode = ViewDetail
		m.viewing = opts.InitialHost
		m.view = poll.ViewState{HostID: opts.InitialHost, Status: poll.Loading}
	}
	return m
}

// Init starts the controllers and the message pumps.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.start(),
		waitFor(m.ctx, m.rosterQ, func(s poll.ListState) tea.Msg { return rosterMsg(s) }),
		waitFor(m.ctx, m.viewQ, func(v poll.ViewState) tea.Msg { return viewMsg(v) }),
		m.spinnerTickCmd(),
	)
}

// Close stops both controllers and releases the message pumps. Safe to call
// more than once.
func (m Model) Close() {
	m.detail.Stop()
	m.roster.Stop()
	m.cancel()
	m.rosterQ.Close()
	m.viewQ.Close()
}

// Wait blocks until fetches dispatched by either controller have returned.
func (m Model) Wait() {
	m.detail.Wait()
	m.roster.Wait()
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}
		if m.viewMode == ViewDetail && m.viewportReady {
			var vpCmd tea.Cmd
			m.detailViewport, vpCmd = m.detailViewport.Update(msg)
			return m, vpCmd
		}

	case tea.MouseMsg:
		if m.viewMode == ViewDetail && m.viewportReady {
			var vpCmd tea.Cmd
			m.detailViewport, vpCmd = m.detailViewport.Update(msg)
			return m, vpCmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Reserve space for header and footer
		headerHeight := 3
		footerHeight := 2
		viewportHeight := m.height - headerHeight - footerHeight
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.viewportReady {
			m.detailViewport = viewport.New(m.width, viewportHeight)
			m.detailViewport.YPosition = headerHeight
			m.viewportReady = true
		} else {
			m.detailViewport.Width = m.width
			m.detailViewport.Height = viewportHeight
		}
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}

	case rosterMsg:
		m.applyRoster(poll.ListState(msg))
		return m, waitFor(m.ctx, m.rosterQ, func(s poll.ListState) tea.Msg { return rosterMsg(s) })

	case viewMsg:
		v := poll.ViewState(msg)
		// Emissions queued before a Reselect or Stop belong to another host.
		if v.HostID == m.viewing && m.viewing != 0 {
			m.view = v
			if m.viewMode == ViewDetail {
				m.updateDetailViewportContent()
			}
		}
		return m, waitFor(m.ctx, m.viewQ, func(v poll.ViewState) tea.Msg { return viewMsg(v) })

	case spinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % 10000
		return m, m.spinnerTickCmd()

	case errMsg:
		m.err = msg.err
		m.log.Error("%v", msg.err)
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

// start launches the controllers. Errors come back as a message so Init
// stays a plain value method.
func (m Model) start() tea.Cmd {
	if err := m.roster.Start(); err != nil {
		return errCmd(err)
	}
	if m.initialHost > 0 {
		if err := m.detail.Start(m.initialHost); err != nil {
			return errCmd(err)
		}
	}
	return nil
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg { return errMsg{err} }
}

// waitFor blocks on q and wraps the next item. Each handled message
// re-issues it, so exactly one reader is outstanding per queue.
func waitFor[T any](ctx context.Context, q *poll.Queue[T], wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, ok := q.Next(ctx)
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

// spinnerTickCmd returns a command that sends a spinner tick for animation.
func (m Model) spinnerTickCmd() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

// applyRoster replaces the host list, keeping the selection on the same host.
func (m *Model) applyRoster(s poll.ListState) {
	selectedID := m.selectedID()
	m.list = s
	m.hosts = append([]model.Host{}, s.Hosts...)
	m.sortHosts(selectedID)
}

// open points the detail controller at the selected host.
func (m *Model) open() tea.Cmd {
	h, ok := m.SelectedHost()
	if !ok {
		return nil
	}
	return m.openHost(h.ID)
}

func (m *Model) openHost(id int) tea.Cmd {
	var err error
	if m.detail.Running() {
		err = m.detail.Reselect(id)
	} else {
		err = m.detail.Start(id)
	}
	if err != nil {
		m.err = err
		return nil
	}
	m.viewing = id
	m.view = poll.ViewState{HostID: id, Status: poll.Loading}
	m.viewMode = ViewDetail
	m.err = nil
	if m.viewportReady {
		m.detailViewport.GotoTop()
	}
	m.updateDetailViewportContent()
	return nil
}

// closeDetail stops polling the detail host and returns to the roster.
func (m *Model) closeDetail() {
	m.detail.Stop()
	m.viewQ.Drain()
	m.viewing = 0
	m.view = poll.ViewState{}
	m.viewMode = ViewList
}

// step moves the detail view to the previous or next host in roster order.
func (m *Model) step(delta int) tea.Cmd {
	if len(m.hosts) == 0 {
		return nil
	}
	idx := m.indexOf(m.viewing)
	if idx < 0 {
		idx = m.selected
	}
	next := (idx + delta + len(m.hosts)) % len(m.hosts)
	m.selected = next
	if m.hosts[next].ID == m.viewing {
		return nil
	}
	return m.openHost(m.hosts[next].ID)
}

func (m Model) indexOf(id int) int {
	for i, h := range m.hosts {
		if h.ID == id {
			return i
		}
	}
	return -1
}

// SelectedHost returns the roster entry under the cursor.
func (m Model) SelectedHost() (model.Host, bool) {
	if m.selected >= 0 && m.selected < len(m.hosts) {
		return m.hosts[m.selected], true
	}
	return model.Host{}, false
}

// ViewState returns the detail state currently shown.
func (m Model) ViewState() poll.ViewState {
	return m.view
}

// Viewing returns the host id the detail view polls, 0 when on the roster.
func (m Model) Viewing() int {
	return m.viewing
}

// Hosts returns the roster in display order.
func (m Model) Hosts() []model.Host {
	return m.hosts
}

// Mode returns the active view.
func (m Model) Mode() ViewMode {
	return m.viewMode
}

// LoadingSpinner returns the current spinner frame.
func (m Model) LoadingSpinner() string {
	return LoadingSpinnerFrames[m.spinnerFrame%len(LoadingSpinnerFrames)]
}

// Since formats the time elapsed since t using the model clock.
func (m Model) Since(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return FormatAgo(m.clock.Now().Sub(t))
}

// LayoutMode returns the current layout mode based on terminal width.
func (m Model) LayoutMode() LayoutMode {
	switch {
	case m.width >= BreakpointWide:
		return LayoutWide
	case m.width >= BreakpointStandard:
		return LayoutStandard
	case m.width >= BreakpointCompact:
		return LayoutCompact
	default:
		return LayoutMinimal
	}
}

// ShowFooter returns true if the terminal is tall enough to show the footer.
func (m Model) ShowFooter() bool {
	return m.height == 0 || m.height >= HeightMinimal
}

// selectedID is the id of the host under the cursor, or 0.
func (m *Model) selectedID() int {
	if h, ok := m.SelectedHost(); ok {
		return h.ID
	}
	return 0
}

// sortHosts sorts the roster based on the current sort order and moves the
// cursor to selectedID, or to the top when that host is gone.
func (m *Model) sortHosts(selectedID int) {

	switch m.sortOrder {
	case SortByName:
		sort.SliceStable(m.hosts, func(i, j int) bool {
			a, b := strings.ToLower(m.hosts[i].Hostname), strings.ToLower(m.hosts[j].Hostname)
			if a != b {
				return a < b
			}
			return m.hosts[i].ID < m.hosts[j].ID
		})

	case SortByLastSeen:
		sort.SliceStable(m.hosts, func(i, j int) bool {
			a, b := m.hosts[i].LastSeen.Time, m.hosts[j].LastSeen.Time
			if !a.Equal(b) {
				return a.After(b)
			}
			return m.hosts[i].ID < m.hosts[j].ID
		})

	default:
		sort.SliceStable(m.hosts, func(i, j int) bool {
			return m.hosts[i].ID < m.hosts[j].ID
		})
	}

	m.selected = 0
	if idx := m.indexOf(selectedID); idx >= 0 {
		m.selected = idx
	}
}
