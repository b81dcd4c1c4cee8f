package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/tracker"
)

// Messages delivered to the model
type (
	loadingMsg struct {
		cycleID string
		loading bool
	}
	renderMsg struct {
		update tracker.Update
	}
	errorMsg struct {
		message string
	}
	detailMsg struct {
		id     string
		detail *contracts.ItemDetail
	}
	commandErrMsg struct {
		err error
	}
)

// Sink forwards tracker events into the bubbletea event loop. It implements
// tracker.Sink; the model drains it with Listen.
type Sink struct {
	events    chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
}

// NewSink creates a sink buffering up to buffer events
func NewSink(buffer int) *Sink {
	if buffer < 1 {
		buffer = 1
	}
	return &Sink{
		events: make(chan tea.Msg, buffer),
		done:   make(chan struct{}),
	}
}

func (s *Sink) send(msg tea.Msg) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- msg:
	case <-s.done:
	}
}

// Listen returns a command that waits for the next tracker event
func (s *Sink) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.events:
			return msg
		case <-s.done:
			return nil
		}
	}
}

// Close releases any blocked sender and stops Listen
func (s *Sink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// LoadingStarted implements tracker.Sink
func (s *Sink) LoadingStarted(cycleID string) {
	s.send(loadingMsg{cycleID: cycleID, loading: true})
}

// LoadingFinished implements tracker.Sink
func (s *Sink) LoadingFinished(cycleID string) {
	s.send(loadingMsg{cycleID: cycleID, loading: false})
}

// Render implements tracker.Sink
func (s *Sink) Render(update tracker.Update) {
	s.send(renderMsg{update: update})
}

// ReportError implements tracker.Sink
func (s *Sink) ReportError(message string) {
	s.send(errorMsg{message: message})
}
