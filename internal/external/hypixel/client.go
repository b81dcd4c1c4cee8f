package hypixel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/pkg/httputil"
	"github.com/wonny/bazaar/pkg/logger"
)

// BazaarPath is the bazaar endpoint relative to the API base URL.
const BazaarPath = "/v2/skyblock/bazaar"

// ErrUnsuccessful is returned when the API answers with success=false.
var ErrUnsuccessful = errors.New("bazaar API reported failure")

// Client fetches bazaar snapshots from the Hypixel public API
// ⭐ SSOT: 바자 시세 조회는 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new bazaar client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// FetchSnapshot downloads the full bazaar and converts it to a raw snapshot.
// Entries that fail to decode are kept with missing fields.
func (c *Client) FetchSnapshot(ctx context.Context) (contracts.RawSnapshot, error) {
	var env envelope
	if err := c.httpClient.GetJSON(ctx, c.baseURL+BazaarPath, &env); err != nil {
		return contracts.RawSnapshot{}, fmt.Errorf("fetch bazaar: %w", err)
	}

	if !env.Success {
		cause := env.Cause
		if cause == "" {
			cause = "no cause given"
		}
		return contracts.RawSnapshot{}, fmt.Errorf("%w: %s", ErrUnsuccessful, cause)
	}

	snapshot := contracts.RawSnapshot{
		Quotes:    make(map[string]contracts.RawQuote, len(env.Products)),
		FetchedAt: c.now(),
	}
	if env.LastUpdated > 0 {
		snapshot.LastUpdated = time.UnixMilli(env.LastUpdated)
	}

	malformed := 0
	for id, raw := range env.Products {
		quote, ok := decodeProduct(id, raw)
		if !ok {
			malformed++
		}
		snapshot.Quotes[id] = quote
	}

	c.logger.WithFields(map[string]interface{}{
		"products":  len(snapshot.Quotes),
		"malformed": malformed,
	}).Debug("Bazaar snapshot fetched")

	return snapshot, nil
}
