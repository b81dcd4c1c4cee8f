package hypixel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bazaar/internal/market"
	"github.com/wonny/bazaar/pkg/httputil"
	"github.com/wonny/bazaar/pkg/logger"
)

const bazaarBody = `{
  "success": true,
  "lastUpdated": 1700000000000,
  "products": {
    "ENCHANTED_DIAMOND": {
      "product_id": "ENCHANTED_DIAMOND",
      "quick_status": {"productId": "ENCHANTED_DIAMOND", "buyPrice": 100, "sellPrice": 150, "buyVolume": 10, "sellVolume": 20, "buyOrders": 3}
    },
    "WHEAT": {
      "product_id": "WHEAT",
      "quick_status": {"buyPrice": 5, "sellPrice": 6, "buyVolume": 1000, "sellVolume": 500}
    },
    "NO_STATUS": {"product_id": "NO_STATUS"},
    "BAD_PRICE": {"product_id": "BAD_PRICE", "quick_status": {"buyPrice": "cheap", "sellPrice": 1, "buyVolume": 1, "sellVolume": 1}},
    "NULL_PRICE": {"product_id": "NULL_PRICE", "quick_status": {"buyPrice": null, "sellPrice": 1, "buyVolume": 1, "sellVolume": 1}}
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(logger.Nop()).DisableRetry()
	client := NewClient(httpClient, server.URL+"/", logger.Nop())
	client.now = func() time.Time { return time.Unix(1700000001, 0) }
	return client
}

func TestFetchSnapshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, BazaarPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bazaarBody))
	})

	snapshot, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, snapshot.Len())
	assert.Equal(t, time.UnixMilli(1700000000000), snapshot.LastUpdated)
	assert.Equal(t, time.Unix(1700000001, 0), snapshot.FetchedAt)

	diamond := snapshot.Quotes["ENCHANTED_DIAMOND"]
	require.NotNil(t, diamond.BuyPrice)
	assert.Equal(t, 100.0, *diamond.BuyPrice)
	assert.Equal(t, 150.0, *diamond.SellPrice)
	assert.Equal(t, 10.0, *diamond.BuyVolume)
	assert.Equal(t, 20.0, *diamond.SellVolume)

	for _, id := range []string{"NO_STATUS", "BAD_PRICE"} {
		q := snapshot.Quotes[id]
		assert.Equal(t, id, q.ItemID)
		assert.Nil(t, q.BuyPrice, id)
		assert.Nil(t, q.SellPrice, id)
	}
	assert.Nil(t, snapshot.Quotes["NULL_PRICE"].BuyPrice)
	assert.NotNil(t, snapshot.Quotes["NULL_PRICE"].SellPrice)
}

func TestFetchSnapshot_MalformedEntriesDroppedByBuilder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bazaarBody))
	})

	snapshot, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)

	collection := market.Build(snapshot)
	assert.Equal(t, 2, collection.Len())
	assert.Equal(t, 3, collection.Skipped())
}

func TestFetchSnapshot_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unsuccessful", status: http.StatusOK, body: `{"success": false, "cause": "Key throttle"}`, wantErr: ErrUnsuccessful},
		{name: "unsuccessful without cause", status: http.StatusOK, body: `{"success": false}`, wantErr: ErrUnsuccessful},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "forbidden", status: http.StatusForbidden, body: `{"success": false}`},
		{name: "garbage", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			snapshot, err := client.FetchSnapshot(context.Background())
			require.Error(t, err)
			assert.Zero(t, snapshot.Len())
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestFetchSnapshot_EmptyProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "products": {}}`))
	})

	snapshot, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snapshot.Len())
	assert.True(t, snapshot.LastUpdated.IsZero())
}
