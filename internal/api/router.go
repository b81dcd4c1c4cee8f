package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/bazaar/internal/api/handlers"
	"github.com/wonny/bazaar/pkg/logger"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Market *handlers.MarketHandler
	Ops    *handlers.OpsHandler
	Stream http.Handler // websocket endpoint, optional
	Checks []Checker    // optional dependencies reported by /health
}

// Checker is an optional dependency probed by GET /health
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

const checkTimeout = 2 * time.Second

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	log = log.Component("http")
	r := mux.NewRouter()

	r.HandleFunc("/health", health(h.Checks)).Methods(http.MethodGet)
	if h.Stream != nil {
		r.Handle("/ws", h.Stream).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()

	// Market
	api.HandleFunc("/status", h.Market.GetStatus).Methods(http.MethodGet)
	api.HandleFunc("/items", h.Market.GetItems).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}", h.Market.GetItem).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.Market.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/view", h.Market.PutView).Methods(http.MethodPut)
	api.HandleFunc("/refresh", h.Market.Refresh).Methods(http.MethodPost)

	// Operations
	api.HandleFunc("/runs", h.Ops.GetRuns).Methods(http.MethodGet)
	api.HandleFunc("/scheduler/jobs", h.Ops.GetJobs).Methods(http.MethodGet)
	api.HandleFunc("/scheduler/jobs/{name}/history", h.Ops.GetJobHistory).Methods(http.MethodGet)
	api.HandleFunc("/scheduler/jobs/{name}/run", h.Ops.RunJob).Methods(http.MethodPost)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = notFound
		router.MethodNotAllowedHandler = notAllowed
	}

	// wrapped outside mux so unmatched requests get the same treatment
	return requestID(requestLogger(log)(recoverer(log)(r)))
}

// health reports the process and its optional dependencies.
// Tracker health is GET /api/status.
func health(checks []Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		deps := make(map[string]string, len(checks))

		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			err := c.Check(ctx)
			cancel()

			if err != nil {
				deps[c.Name()] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			deps[c.Name()] = "ok"
		}

		body := map[string]interface{}{
			"status":  status,
			"service": "bazaar-api",
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}
		writeJSON(w, code, body)
	}
}
