// Package tui is the terminal market dashboard served over SSH.
package tui

import (
	"context"
	"time"

	"sharada-markets/internal/job"

	tea "github.com/charmbracelet/bubbletea"
)

// Board is the live widget state the dashboard renders.
type Board interface {
	Snapshots() map[string]any
	Refetch(ctx context.Context, name string) (any, error)
}

type Services struct {
	Board    Board
	Username string
}

type tab int

const (
	tabMarket tab = iota
	tabActivity
	tabNews
	tabSIP
	tabFD
)

var tabNames = []string{"Market", "FII/DII & PCR", "News", "SIP", "FD"}

// refreshEvery is how often the view re-reads hook snapshots. Hooks keep
// their own upstream periods.
const refreshEvery = 5 * time.Second

type snapshotsMsg map[string]any

type tickMsg time.Time

type AppModel struct {
	svc    Services
	width  int
	height int
	active tab
	snaps  map[string]any
	sip    calcForm
	fd     calcForm
	now    func() time.Time
}

func NewAppModel(svc Services) *AppModel {
	return &AppModel{
		svc:   svc,
		snaps: map[string]any{},
		sip:   newSIPForm(),
		fd:    newFDForm(),
		now:   time.Now,
	}
}

func (m *AppModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.loadSnapshots(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *AppModel) loadSnapshots() tea.Cmd {
	board := m.svc.Board
	return func() tea.Msg {
		if board == nil {
			return snapshotsMsg{}
		}
		return snapshotsMsg(board.Snapshots())
	}
}

// refetch forces the widgets of the current tab and reloads snapshots.
func (m *AppModel) refetch() tea.Cmd {
	board := m.svc.Board
	names := tabWidgets(m.active)
	if board == nil || len(names) == 0 {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		for _, name := range names {
			_, _ = board.Refetch(ctx, name)
		}
		return snapshotsMsg(board.Snapshots())
	}
}

func tabWidgets(t tab) []string {
	switch t {
	case tabMarket:
		return []string{job.WidgetIndices, job.WidgetGainers, job.WidgetLosers}
	case tabActivity:
		return []string{job.WidgetFIIDII, job.WidgetPCR}
	case tabNews:
		return []string{job.WidgetNews}
	}
	return nil
}

func (m *AppModel) isCalculator() bool {
	return m.active == tabSIP || m.active == tabFD
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case snapshotsMsg:
		m.snaps = msg
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.loadSnapshots(), tick())
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "right":
		m.active = (m.active + 1) % tab(len(tabNames))
		return m, nil
	case "shift+tab", "left":
		m.active = (m.active + tab(len(tabNames)) - 1) % tab(len(tabNames))
		return m, nil
	}

	var cmd tea.Cmd
	switch m.active {
	case tabSIP:
		m.sip, cmd = m.sip.update(msg)
		return m, cmd
	case tabFD:
		m.fd, cmd = m.fd.update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		return m, m.refetch()
	}
	return m, nil
}
