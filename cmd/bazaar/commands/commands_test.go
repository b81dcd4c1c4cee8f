package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/runlog"
	"github.com/wonny/bazaar/internal/tracker"
	"github.com/wonny/bazaar/pkg/config"
	"github.com/wonny/bazaar/pkg/logger"
)

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		env = ""
		verbose = false
	})
}

func TestLoadConfig_Overrides(t *testing.T) {
	resetFlags(t)
	t.Setenv("ENV", "development")
	t.Setenv("LOG_LEVEL", "warn")

	env = "production"
	verbose = true

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_RejectsUnknownEnv(t *testing.T) {
	resetFlags(t)
	env = "qa"

	_, err := loadConfig()
	assert.ErrorContains(t, err, "--env")
}

const bazaarBody = `{
  "success": true,
  "lastUpdated": 1700000000000,
  "products": {
    "ENCHANTED_DIAMOND": {"product_id": "ENCHANTED_DIAMOND", "quick_status": {"buyPrice": 100, "sellPrice": 150, "buyVolume": 10, "sellVolume": 20}},
    "WOODEN_SWORD": {"product_id": "WOODEN_SWORD", "quick_status": {"buyPrice": 2, "sellPrice": 1, "buyVolume": 1, "sellVolume": 1}}
  }
}`

func TestNewApp_InMemoryWiring(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("API-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bazaarBody))
	}))
	defer server.Close()

	cfg := &config.Config{
		Env: "development",
		Bazaar: config.BazaarConfig{
			BaseURL: server.URL,
			APIKey:  "secret",
			Timeout: 5 * time.Second,
		},
		Refresh: config.RefreshConfig{
			Schedule:        "@every 60s",
			RunLogRetention: time.Hour,
		},
	}

	a, err := newApp(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &runlog.Memory{}, a.runs)
	assert.False(t, a.redis.Enabled())

	state, err := a.tracker.Refresh(context.Background(), tracker.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, 2, state.Collection.Len())

	runs, err := a.runs.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runlog.OutcomeSuccess, runs[0].Outcome)

	sched, err := a.newScheduler()
	require.NoError(t, err)
	assert.Equal(t, []string{"bazaar_refresh", "runlog_cleanup"}, sched.GetAllJobs())
	assert.Empty(t, a.checks(), "no external dependencies in memory mode")
}

func TestNewApp_BadPrefsFile(t *testing.T) {
	cfg := &config.Config{
		Env:       "development",
		PrefsFile: t.TempDir() + "/missing.yaml",
		Bazaar:    config.BazaarConfig{BaseURL: "http://localhost", Timeout: time.Second},
	}

	_, err := newApp(context.Background(), cfg, logger.Nop())
	assert.ErrorContains(t, err, "read prefs")
}

func sampleUpdate() tracker.Update {
	return tracker.Update{
		CycleID: "c1",
		SortKey: contracts.SortProfitMargin,
		View: []contracts.Item{
			{ID: "ENCHANTED_DIAMOND", DisplayName: "Enchanted Diamond", BuyPrice: 100, SellPrice: 150, Profit: 50, ProfitMargin: 50, Volume: 12345},
			{ID: "DIAMOND_SWORD", DisplayName: "Diamond Sword", BuyPrice: 40, SellPrice: 44, Profit: 4, ProfitMargin: 10, Volume: 2},
			{ID: "WOODEN_SWORD", DisplayName: "Wooden Sword", BuyPrice: 2, SellPrice: 1, Profit: -1, ProfitMargin: -50, Volume: 2},
		},
		Stats: &contracts.Stats{TotalItems: 3, AvgProfitMargin: 3.33, TopProfitMargin: 50},
	}
}

func TestPrintMarket(t *testing.T) {
	var buf bytes.Buffer
	printMarket(&buf, sampleUpdate(), 2)

	out := buf.String()
	assert.Contains(t, out, "Bazaar snapshot")
	assert.Contains(t, out, "Avg margin: 3.33%")
	assert.Contains(t, out, "Enchanted Diamond")
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "+50.00%")
	assert.NotContains(t, out, "Wooden Sword")
	assert.Contains(t, out, "2 of 3 shown")
}

func TestPrintMarket_Empty(t *testing.T) {
	var buf bytes.Buffer
	printMarket(&buf, tracker.Update{SortKey: contracts.SortName}, 0)

	assert.Contains(t, buf.String(), "no usable quotes")
	assert.Contains(t, buf.String(), "0 of 0 shown")
}

func TestPrintRuns(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runs := []runlog.Run{{
		ID:         "r1",
		Trigger:    string(tracker.TriggerScheduled),
		StartedAt:  now.Add(-2 * time.Minute),
		FinishedAt: now.Add(-2*time.Minute + 1500*time.Millisecond),
		Outcome:    runlog.OutcomeFailed,
		Error:      "status 503",
	}}

	var buf bytes.Buffer
	printRuns(&buf, runs, now)

	out := buf.String()
	assert.Contains(t, out, "2 minutes ago")
	assert.Contains(t, out, "scheduled")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "status 503")
}
