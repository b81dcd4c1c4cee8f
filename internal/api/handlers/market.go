package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/market"
	"github.com/wonny/bazaar/internal/tracker"
	"github.com/wonny/bazaar/pkg/logger"
)

// Tracker is the orchestrator surface used by the HTTP handlers
type Tracker interface {
	State() *tracker.State
	Phase() tracker.Phase
	InFlight() bool
	Refresh(ctx context.Context, trigger tracker.Trigger) (*tracker.State, error)
	SetSearch(term string) *tracker.State
	SetSort(key contracts.SortKey) (*tracker.State, error)
	Detail(id string) (contracts.ItemDetail, bool)
}

// MarketHandler serves the current view, stats and user commands
// ⭐ SSOT: 바자 API 핸들러는 이 구조체에서만
type MarketHandler struct {
	tracker Tracker
	logger  *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(t Tracker, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		tracker: t,
		logger:  log,
	}
}

// ViewResponse is a rendered view
type ViewResponse struct {
	CycleID   string            `json:"cycle_id"`
	Search    string            `json:"search"`
	Sort      contracts.SortKey `json:"sort"`
	Count     int               `json:"count"`
	Items     []contracts.Item  `json:"items"`
	UpdatedAt *time.Time        `json:"updated_at,omitempty"`
	FromCache bool              `json:"from_cache"`
}

func viewResponse(s *tracker.State, search string, sort contracts.SortKey, items []contracts.Item) ViewResponse {
	resp := ViewResponse{
		CycleID:   s.CycleID,
		Search:    search,
		Sort:      sort,
		Count:     len(items),
		Items:     items,
		FromCache: s.FromCache,
	}
	if !s.UpdatedAt.IsZero() {
		at := s.UpdatedAt
		resp.UpdatedAt = &at
	}
	return resp
}

func currentView(s *tracker.State) ViewResponse {
	return viewResponse(s, s.SearchTerm, s.SortKey, s.View)
}

// StatsResponse is the stats body; Empty is true when the collection has no items
type StatsResponse struct {
	Empty bool `json:"empty"`
	*contracts.Stats
}

// StatusResponse describes the orchestrator
type StatusResponse struct {
	Phase       tracker.Phase     `json:"phase"`
	InFlight    bool              `json:"in_flight"`
	CycleID     string            `json:"cycle_id,omitempty"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
	FromCache   bool              `json:"from_cache"`
	Items       int               `json:"items"`
	Skipped     int               `json:"skipped"`
	Visible     int               `json:"visible"`
	Search      string            `json:"search"`
	Sort        contracts.SortKey `json:"sort"`
	LastError   string            `json:"last_error,omitempty"`
	LastErrorAt *time.Time        `json:"last_error_at,omitempty"`
}

// GetStatus returns the orchestrator status
// GET /api/status
func (h *MarketHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	s := h.tracker.State()

	resp := StatusResponse{
		Phase:     h.tracker.Phase(),
		InFlight:  h.tracker.InFlight(),
		CycleID:   s.CycleID,
		FromCache: s.FromCache,
		Items:     s.Collection.Len(),
		Skipped:   s.Collection.Skipped(),
		Visible:   len(s.View),
		Search:    s.SearchTerm,
		Sort:      s.SortKey,
		LastError: s.LastError,
	}
	if !s.UpdatedAt.IsZero() {
		at := s.UpdatedAt
		resp.UpdatedAt = &at
	}
	if !s.LastErrorAt.IsZero() {
		at := s.LastErrorAt
		resp.LastErrorAt = &at
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetItems returns the active view, or an ad-hoc view when search or sort is given.
// An ad-hoc view never changes the active search or sort.
// GET /api/items?search=&sort=
func (h *MarketHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	s := h.tracker.State()
	query := r.URL.Query()

	if !query.Has("search") && !query.Has("sort") {
		respondJSON(w, http.StatusOK, currentView(s))
		return
	}

	search := s.SearchTerm
	if query.Has("search") {
		search = query.Get("search")
	}

	key := s.SortKey
	if query.Has("sort") {
		parsed, err := contracts.ParseSortKey(query.Get("sort"))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		key = parsed
	}

	respondJSON(w, http.StatusOK, viewResponse(s, search, key, market.View(s.Collection, search, key)))
}

// GetItem returns one item's detail
// GET /api/items/{id}
func (h *MarketHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	detail, ok := h.tracker.Detail(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Item not found")
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// GetStats returns collection stats
// GET /api/stats
func (h *MarketHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.tracker.State().Stats
	respondJSON(w, http.StatusOK, StatsResponse{Empty: stats == nil, Stats: stats})
}

// ViewRequest changes the active search and/or sort
type ViewRequest struct {
	Search *string `json:"search"`
	Sort   *string `json:"sort"`
}

// PutView sets the active search term and sort key
// PUT /api/view
func (h *MarketHandler) PutView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// validate before applying anything
	var key contracts.SortKey
	if req.Sort != nil {
		parsed, err := contracts.ParseSortKey(*req.Sort)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		key = parsed
	}

	state := h.tracker.State()
	if req.Search != nil {
		state = h.tracker.SetSearch(*req.Search)
	}
	if req.Sort != nil {
		next, err := h.tracker.SetSort(key)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		state = next
	}

	respondJSON(w, http.StatusOK, currentView(state))
}

// Refresh runs a manual refresh cycle. The cycle is shared by every sink, so
// it outlives the request if the client goes away.
// POST /api/refresh
func (h *MarketHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	state, err := h.tracker.Refresh(context.WithoutCancel(r.Context()), tracker.TriggerManual)
	if err != nil {
		var fetchErr *tracker.FetchError
		switch {
		case errors.Is(err, tracker.ErrCycleInFlight):
			respondError(w, http.StatusConflict, "Refresh already in progress")
		case errors.As(err, &fetchErr):
			respondError(w, http.StatusBadGateway, tracker.UserErrorMessage)
		default:
			h.logger.WithError(err).Error("Manual refresh failed")
			respondError(w, http.StatusInternalServerError, "Refresh failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, currentView(state))
}
