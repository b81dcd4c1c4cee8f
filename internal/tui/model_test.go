package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/tracker"
	"github.com/wonny/bazaar/pkg/logger"
)

type sourceFunc func(ctx context.Context) (contracts.RawSnapshot, error)

func (f sourceFunc) FetchSnapshot(ctx context.Context) (contracts.RawSnapshot, error) {
	return f(ctx)
}

func marketSource() sourceFunc {
	q := func(id string, buy, sell float64) contracts.RawQuote {
		return contracts.RawQuote{
			ItemID: id, BuyPrice: contracts.Float(buy), SellPrice: contracts.Float(sell),
			BuyVolume: contracts.Float(1200), SellVolume: contracts.Float(34),
		}
	}
	return func(context.Context) (contracts.RawSnapshot, error) {
		return contracts.RawSnapshot{Quotes: map[string]contracts.RawQuote{
			"ENCHANTED_DIAMOND": q("ENCHANTED_DIAMOND", 100, 150),
			"DIAMOND_SWORD":     q("DIAMOND_SWORD", 40, 44),
			"WOODEN_SWORD":      q("WOODEN_SWORD", 2, 1),
		}}, nil
	}
}

func newScreen(t *testing.T, source tracker.Source) (Model, *tracker.Tracker, *Sink) {
	t.Helper()
	tr := tracker.New(source, logger.Nop())
	sink := NewSink(16)
	tr.AddSink(sink)
	t.Cleanup(sink.Close)
	return New(tr, sink, 10, logger.Nop()), tr, sink
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// drain feeds every buffered tracker event into the model
func drain(t *testing.T, m Model, sink *Sink) Model {
	t.Helper()
	for len(sink.events) > 0 {
		m, _ = press(t, m, sink.Listen()())
	}
	return m
}

func refreshed(t *testing.T) (Model, *tracker.Tracker, *Sink) {
	t.Helper()
	m, tr, sink := newScreen(t, marketSource())
	m, cmd := press(t, m, runes("r"))
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	return drain(t, m, sink), tr, sink
}

func displayNames(m Model) []string {
	out := make([]string, len(m.items))
	for i, item := range m.items {
		out[i] = item.DisplayName
	}
	return out
}

func TestModel_InitialScreen(t *testing.T) {
	m, _, _ := newScreen(t, marketSource())

	assert.Empty(t, m.table.Rows())
	assert.Contains(t, m.View(), "no data")
	assert.Contains(t, m.View(), "sort: profitMargin")
	assert.NotNil(t, m.Init())
}

func TestModel_RefreshRendersTable(t *testing.T) {
	m, _, _ := refreshed(t)

	assert.False(t, m.loading)
	assert.Equal(t, []string{"Enchanted Diamond", "Diamond Sword", "Wooden Sword"}, displayNames(m))
	require.Len(t, m.table.Rows(), 3)
	assert.Equal(t, []string{"Enchanted Diamond", "100.00", "150.00", "50.00", "+50.00%", "1,234"}, rowCells(m, 0))

	view := m.View()
	assert.Contains(t, view, "3 items")
	assert.Contains(t, view, "avg 3.33%")
	assert.Contains(t, view, "3 of 3 shown")
}

func rowCells(m Model, i int) []string {
	return []string(m.table.Rows()[i])
}

func TestModel_LoadingFlag(t *testing.T) {
	m, _, _ := newScreen(t, marketSource())

	m, cmd := press(t, m, loadingMsg{cycleID: "c1", loading: true})
	assert.True(t, m.loading)
	assert.NotNil(t, cmd, "keeps listening")
	assert.Contains(t, m.View(), "loading")

	m, _ = press(t, m, loadingMsg{cycleID: "c1", loading: false})
	assert.False(t, m.loading)
}

func TestModel_CycleSort(t *testing.T) {
	m, tr, sink := refreshed(t)

	m, cmd := press(t, m, runes("s"))
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	m = drain(t, m, sink)

	assert.Equal(t, contracts.SortProfitMarginAsc, tr.State().SortKey)
	assert.Equal(t, contracts.SortProfitMarginAsc, m.update.SortKey)
	assert.Equal(t, []string{"Wooden Sword", "Diamond Sword", "Enchanted Diamond"}, displayNames(m))
}

func TestModel_Search(t *testing.T) {
	m, tr, sink := refreshed(t)

	m, _ = press(t, m, runes("/"))
	require.True(t, m.searching)

	m, _ = press(t, m, runes("sword"))
	assert.Contains(t, m.View(), "sword")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.searching)
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	m = drain(t, m, sink)

	assert.Equal(t, "sword", tr.State().SearchTerm)
	assert.Equal(t, []string{"Diamond Sword", "Wooden Sword"}, displayNames(m))
	assert.Contains(t, m.View(), "2 of 3 shown")

	// esc abandons an edit
	m, _ = press(t, m, runes("/"))
	m, _ = press(t, m, runes("x"))
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, m.searching)
	assert.Equal(t, "sword", m.search.Value())

	// x clears the active search
	m, cmd = press(t, m, runes("x"))
	require.NotNil(t, cmd)
	cmd()
	m = drain(t, m, sink)
	assert.Empty(t, tr.State().SearchTerm)
	assert.Len(t, m.items, 3)
}

func TestModel_Detail(t *testing.T) {
	m, _, _ := refreshed(t)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, detailMsg{}, msg)

	m, _ = press(t, m, msg)
	require.NotNil(t, m.detail)
	assert.Equal(t, "ENCHANTED_DIAMOND", m.detail.ID)
	assert.Equal(t, contracts.MarginPositive, m.detail.Class)

	view := m.View()
	assert.Contains(t, view, "Buy price:   100.00")
	assert.Contains(t, view, "Volume:      1,234")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.detail)
}

func TestModel_DetailUnknownItem(t *testing.T) {
	m, _, _ := refreshed(t)

	m, _ = press(t, m, detailMsg{id: "GONE"})
	assert.Nil(t, m.detail)
	assert.Contains(t, m.View(), "GONE is not in the current snapshot")
}

func TestModel_DetailOnEmptyTable(t *testing.T) {
	m, _, _ := newScreen(t, marketSource())

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestModel_FetchFailure(t *testing.T) {
	failing := sourceFunc(func(context.Context) (contracts.RawSnapshot, error) {
		return contracts.RawSnapshot{}, errors.New("503")
	})
	m, _, sink := newScreen(t, failing)

	m, cmd := press(t, m, runes("r"))
	msg := cmd()
	require.IsType(t, commandErrMsg{}, msg)

	m, _ = press(t, m, msg)
	assert.Empty(t, m.status, "fetch failures arrive through the sink")

	m = drain(t, m, sink)
	assert.False(t, m.loading)
	assert.Equal(t, tracker.UserErrorMessage, m.status)
	assert.Contains(t, m.View(), tracker.UserErrorMessage)
}

func TestModel_RefreshInFlight(t *testing.T) {
	m, _, _ := newScreen(t, marketSource())

	m, _ = press(t, m, commandErrMsg{err: tracker.ErrCycleInFlight})
	assert.Equal(t, "Refresh already running", m.status)
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newScreen(t, marketSource())

	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_WindowSize(t *testing.T) {
	m, _, _ := newScreen(t, marketSource())

	m, _ = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 12})
	assert.Equal(t, 12-chrome, m.tableHeight())

	m, _ = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 100})
	assert.Equal(t, 10, m.tableHeight())
}

func TestSink_CloseReleasesSenders(t *testing.T) {
	sink := NewSink(1)
	sink.ReportError("first")
	assert.Equal(t, errorMsg{message: "first"}, sink.Listen()())

	sink.Close()
	sink.ReportError("dropped")
	sink.ReportError("dropped")
	assert.Nil(t, sink.Listen()())
}

func TestFormatCoins(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{1.5, "1.50"},
		{1234567.891, "1,234,567.89"},
		{-2500.25, "-2,500.25"},
		{-0.001, "0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCoins(tt.in), tt.in)
	}
}

func TestFormatMargin(t *testing.T) {
	assert.Equal(t, "+50.00%", FormatMargin(50))
	assert.Equal(t, "-12.50%", FormatMargin(-12.5))
	assert.Equal(t, "0.00%", FormatMargin(0))
}
