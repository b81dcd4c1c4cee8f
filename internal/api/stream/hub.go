// Package stream pushes tracker updates to browsers over websocket and
// accepts user commands on the same connection.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/tracker"
	"github.com/wonny/bazaar/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Event types sent to clients
const (
	EventState   = "state"
	EventLoading = "loading"
	EventView    = "view"
	EventError   = "error"
	EventDetail  = "detail"
)

// Event is one server → client message
type Event struct {
	Type    string                `json:"type"`
	CycleID string                `json:"cycle_id,omitempty"`
	Loading *bool                 `json:"loading,omitempty"`
	Phase   string                `json:"phase,omitempty"`
	Update  *tracker.Update       `json:"update,omitempty"`
	Message string                `json:"message,omitempty"`
	Detail  *contracts.ItemDetail `json:"detail,omitempty"`
}

// Dispatcher executes client commands
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd tracker.Command) (tracker.Result, error)
	State() *tracker.State
	Phase() tracker.Phase
	InFlight() bool
}

// Hub fans tracker updates out to websocket clients. It implements tracker.Sink.
// ⭐ SSOT: 웹소켓 연결 관리는 이 허브에서만
type Hub struct {
	dispatcher Dispatcher
	logger     *logger.Logger
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
	wg      sync.WaitGroup
}

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// NewHub creates a hub dispatching commands to d
func NewHub(d Dispatcher, log *logger.Logger) *Hub {
	return &Hub{
		dispatcher: d,
		logger:     log.Component("stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the connection until it closes
// GET /ws
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		conn.Close()
		return
	}

	log := h.logger.WithField("client_id", c.id)
	log.WithField("remote", r.RemoteAddr).Info("Websocket client connected")

	h.queue(c, h.stateEvent())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.writeLoop(c)
	}()

	h.readLoop(c)

	h.unregister(c)
	log.Info("Websocket client disconnected")
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) stateEvent() Event {
	s := h.dispatcher.State()
	update := s.Update(tracker.CauseCycle)
	loading := h.dispatcher.InFlight()
	return Event{
		Type:    EventState,
		CycleID: s.CycleID,
		Loading: &loading,
		Phase:   h.dispatcher.Phase().String(),
		Update:  &update,
		Message: s.LastError,
	}
}

// readLoop decodes client commands until the connection fails
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WithError(err).WithField("client_id", c.id).Warn("Websocket read failed")
			}
			return
		}

		var cmd tracker.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.queue(c, Event{Type: EventError, Message: "invalid command"})
			continue
		}

		if cmd.Type == tracker.CommandRefresh {
			// a cycle can outlast the read deadline; keep reading pongs meanwhile
			go h.handle(c, cmd)
			continue
		}
		h.handle(c, cmd)
	}
}

// handle runs one command. Broadcast effects arrive through the Sink methods;
// only replies addressed to this client are queued here.
func (h *Hub) handle(c *client, cmd tracker.Command) {
	result, err := h.dispatcher.Dispatch(context.Background(), cmd)

	var fetchErr *tracker.FetchError
	switch {
	case err == nil:
	case errors.Is(err, tracker.ErrCycleInFlight):
		return
	case errors.As(err, &fetchErr):
		return
	case errors.Is(err, contracts.ErrUnknownSortKey), errors.Is(err, tracker.ErrUnknownCommand):
		h.queue(c, Event{Type: EventError, Message: err.Error()})
		return
	default:
		h.logger.WithError(err).WithField("client_id", c.id).Error("Command failed")
		h.queue(c, Event{Type: EventError, Message: "command failed"})
		return
	}

	if cmd.Type == tracker.CommandShowDetail && result.Detail != nil {
		h.queue(c, Event{Type: EventDetail, Detail: result.Detail})
	}
}

// writeLoop drains the send queue and keeps the connection alive with pings
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// queue sends ev to one client, dropping the client if its buffer is full
func (h *Hub) queue(c *client, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliver(c, data)
}

// deliver pushes data without blocking. Caller holds mu.
func (h *Hub) deliver(c *client, data []byte) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.WithField("client_id", c.id).Warn("Websocket client too slow, disconnecting")
		delete(h.clients, c.id)
		c.close()
	}
}

func (h *Hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		h.deliver(c, data)
	}
}

// LoadingStarted implements tracker.Sink
func (h *Hub) LoadingStarted(cycleID string) {
	loading := true
	h.broadcast(Event{Type: EventLoading, CycleID: cycleID, Loading: &loading})
}

// LoadingFinished implements tracker.Sink
func (h *Hub) LoadingFinished(cycleID string) {
	loading := false
	h.broadcast(Event{Type: EventLoading, CycleID: cycleID, Loading: &loading})
}

// Render implements tracker.Sink
func (h *Hub) Render(update tracker.Update) {
	h.broadcast(Event{Type: EventView, CycleID: update.CycleID, Update: &update})
}

// ReportError implements tracker.Sink
func (h *Hub) ReportError(message string) {
	h.broadcast(Event{Type: EventError, Message: message})
}

// Close disconnects every client and waits for their writers to exit
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		c.close()
	}
	h.mu.Unlock()

	h.wg.Wait()
}
