// Package tui renders the tracker in an interactive terminal table.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/tracker"
	"github.com/wonny/bazaar/pkg/logger"
)

// Controller is the tracker surface the screen drives
type Controller interface {
	Dispatch(ctx context.Context, cmd tracker.Command) (tracker.Result, error)
	State() *tracker.State
}

// chrome is the number of lines around the table (header, status, help)
const chrome = 8

var columns = []table.Column{
	{Title: "Item", Width: 32},
	{Title: "Buy", Width: 14},
	{Title: "Sell", Width: 14},
	{Title: "Profit", Width: 14},
	{Title: "Margin", Width: 10},
	{Title: "Volume", Width: 14},
}

// Model is the market screen
// ⭐ SSOT: 터미널 표현 계층 (상태는 트래커 소유, 여기서는 마지막 Update만 보관)
type Model struct {
	ctrl   Controller
	sink   *Sink
	logger *logger.Logger
	keys   KeyMap

	table   table.Model
	search  textinput.Model
	spinner spinner.Model
	help    help.Model

	update    tracker.Update
	items     []contracts.Item
	loading   bool
	searching bool
	detail    *contracts.ItemDetail
	status    string
	rows      int
	height    int
}

// New creates the screen showing at most rows table rows
func New(ctrl Controller, sink *Sink, rows int, log *logger.Logger) Model {
	search := textinput.New()
	search.Prompt = "search: "
	search.Placeholder = "item name"
	search.CharLimit = 64

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	m := Model{
		ctrl:    ctrl,
		sink:    sink,
		logger:  log.Component("tui"),
		keys:    DefaultKeyMap(),
		search:  search,
		spinner: sp,
		help:    help.New(),
		rows:    rows,
		table: table.New(
			table.WithColumns(columns),
			table.WithFocused(true),
			table.WithHeight(rows),
			table.WithStyles(tableStyles(contracts.MarginNeutral)),
		),
	}
	m.apply(ctrl.State().Update(tracker.CauseCycle))
	return m
}

// Init listens for tracker events and starts the first cycle
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.sink.Listen(),
		m.spinner.Tick,
		m.dispatch(tracker.Command{Type: tracker.CommandRefresh}),
	)
}

// dispatch runs a command off the event loop; broadcast effects come back through the sink
func (m Model) dispatch(cmd tracker.Command) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		result, err := ctrl.Dispatch(context.Background(), cmd)
		if err != nil {
			return commandErrMsg{err: err}
		}
		if cmd.Type == tracker.CommandShowDetail {
			return detailMsg{id: cmd.ID, detail: result.Detail}
		}
		return nil
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.table.SetHeight(m.tableHeight())
		m.table.SetWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	case loadingMsg:
		m.loading = msg.loading
		if msg.loading {
			m.status = ""
		}
		return m, m.sink.Listen()

	case renderMsg:
		m.apply(msg.update)
		return m, m.sink.Listen()

	case errorMsg:
		m.status = msg.message
		return m, m.sink.Listen()

	case detailMsg:
		if msg.detail == nil {
			m.status = fmt.Sprintf("%s is not in the current snapshot", msg.id)
			return m, nil
		}
		m.detail = msg.detail
		return m, nil

	case commandErrMsg:
		m.handleCommandError(msg.err)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch {
		case msg.Type == tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			return m, m.dispatch(tracker.Command{Type: tracker.CommandSetSearch, Term: m.search.Value()})
		case key.Matches(msg, m.keys.Back):
			m.searching = false
			m.search.Blur()
			m.search.SetValue(m.update.SearchTerm)
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	if m.detail != nil {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Detail):
			m.detail = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		return m, m.dispatch(tracker.Command{Type: tracker.CommandRefresh})

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.update.SearchTerm)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Clear):
		if m.update.SearchTerm == "" {
			return m, nil
		}
		return m, m.dispatch(tracker.Command{Type: tracker.CommandSetSearch, Term: ""})

	case key.Matches(msg, m.keys.Sort):
		next := m.update.SortKey.Next()
		return m, m.dispatch(tracker.Command{Type: tracker.CommandSetSort, Sort: string(next)})

	case key.Matches(msg, m.keys.Detail):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.dispatch(tracker.Command{Type: tracker.CommandShowDetail, ID: item.ID})
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.syncSelection()
	return m, cmd
}

func (m *Model) handleCommandError(err error) {
	var fetchErr *tracker.FetchError
	switch {
	case errors.Is(err, tracker.ErrCycleInFlight):
		m.status = "Refresh already running"
	case errors.As(err, &fetchErr):
		// reported through the sink
	default:
		m.logger.WithError(err).Warn("Command failed")
		m.status = err.Error()
	}
}

// apply replaces the table contents with a rendered update
func (m *Model) apply(update tracker.Update) {
	m.update = update
	m.items = update.View

	rows := make([]table.Row, len(update.View))
	for i, item := range update.View {
		rows[i] = table.Row{
			item.DisplayName,
			FormatCoins(item.BuyPrice),
			FormatCoins(item.SellPrice),
			FormatCoins(item.Profit),
			FormatMargin(item.ProfitMargin),
			humanize.Comma(item.Volume),
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
	m.syncSelection()
}

func (m *Model) selected() (contracts.Item, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.items) {
		return contracts.Item{}, false
	}
	return m.items[i], true
}

func (m *Model) syncSelection() {
	class := contracts.MarginNeutral
	if item, ok := m.selected(); ok {
		class = item.MarginClass()
	}
	m.table.SetStyles(tableStyles(class))
}

func (m Model) tableHeight() int {
	if m.height == 0 {
		return m.rows
	}
	return max(min(m.rows, m.height-chrome), 1)
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")

	if m.detail != nil {
		b.WriteString(m.detailView())
	} else {
		b.WriteString(tableBorder.Render(m.table.View()))
	}
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(m.search.View())
	case m.status != "":
		b.WriteString(errorStyle.Render(m.status))
	default:
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d of %d shown", len(m.items), m.total())))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) total() int {
	if m.update.Stats == nil {
		return 0
	}
	return m.update.Stats.TotalItems
}

func (m Model) headerView() string {
	parts := []string{titleStyle.Render("Bazaar")}

	if s := m.update.Stats; s != nil {
		parts = append(parts,
			fmt.Sprintf("%s items", humanize.Comma(int64(s.TotalItems))),
			fmt.Sprintf("avg %.2f%%", s.AvgProfitMargin),
			fmt.Sprintf("top %.2f%%", s.TopProfitMargin),
		)
	} else {
		parts = append(parts, "no data")
	}

	parts = append(parts, "sort: "+string(m.update.SortKey))
	if m.update.SearchTerm != "" {
		parts = append(parts, fmt.Sprintf("search: %q", m.update.SearchTerm))
	}

	switch {
	case m.loading:
		parts = append(parts, m.spinner.View()+" loading")
	case !m.update.UpdatedAt.IsZero():
		updated := "updated " + humanize.Time(m.update.UpdatedAt)
		if m.update.FromCache {
			updated += " (cached)"
		}
		parts = append(parts, updated)
	}

	return strings.Join(parts, mutedStyle.Render(" · "))
}

func (m Model) detailView() string {
	d := m.detail
	margin := lipgloss.NewStyle().Foreground(classColor(d.Class)).Bold(true)

	lines := []string{
		titleStyle.Render(d.DisplayName),
		mutedStyle.Render(d.ID),
		"",
		fmt.Sprintf("Buy price:   %s", FormatCoins(d.BuyPrice)),
		fmt.Sprintf("Sell price:  %s", FormatCoins(d.SellPrice)),
		fmt.Sprintf("Profit:      %s", FormatCoins(d.Profit)),
		fmt.Sprintf("Margin:      %s", margin.Render(FormatMargin(d.ProfitMargin))),
		fmt.Sprintf("Volume:      %s", humanize.Comma(d.Volume)),
	}
	return detailStyle.Render(strings.Join(lines, "\n"))
}

// Run starts the screen and blocks until the user quits or ctx ends
func Run(ctx context.Context, ctrl Controller, sink *Sink, rows int, log *logger.Logger) error {
	defer sink.Close()

	p := tea.NewProgram(
		New(ctrl, sink, rows, log),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
