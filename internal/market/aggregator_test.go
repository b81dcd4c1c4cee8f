package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bazaar/internal/contracts"
)

func TestAggregate(t *testing.T) {
	c := NewCollection(
		contracts.Item{ID: "A", ProfitMargin: 10},
		contracts.Item{ID: "B", ProfitMargin: 20},
		contracts.Item{ID: "C", ProfitMargin: -5},
	)

	stats, ok := Aggregate(c)
	require.True(t, ok)
	assert.Equal(t, contracts.Stats{
		TotalItems:      3,
		AvgProfitMargin: 8.33,
		TopProfitMargin: 20,
	}, stats)
}

func TestAggregate_AllNegative(t *testing.T) {
	c := NewCollection(
		contracts.Item{ID: "A", ProfitMargin: -10},
		contracts.Item{ID: "B", ProfitMargin: -2.5},
	)

	stats, ok := Aggregate(c)
	require.True(t, ok)
	assert.Equal(t, -2.5, stats.TopProfitMargin, "top must not default to zero")
	assert.Equal(t, -6.25, stats.AvgProfitMargin)
}

func TestAggregate_Empty(t *testing.T) {
	stats, ok := Aggregate(Build(contracts.RawSnapshot{}))
	assert.False(t, ok)
	assert.False(t, math.IsNaN(stats.AvgProfitMargin))
	assert.Equal(t, contracts.Stats{}, stats)
}

func TestAggregate_EndToEnd(t *testing.T) {
	snapshot := contracts.RawSnapshot{
		Quotes: map[string]contracts.RawQuote{
			"ENCHANTED_DIAMOND": quote(100, 150, 5, 5),
		},
	}

	stats, ok := Aggregate(Build(snapshot))
	require.True(t, ok)
	assert.Equal(t, contracts.Stats{TotalItems: 1, AvgProfitMargin: 50, TopProfitMargin: 50}, stats)
}

func TestAggregate_UsesCollectionNotView(t *testing.T) {
	c := viewFixture()
	view := View(c, "sword", contracts.SortProfitMargin)
	require.Less(t, len(view), c.Len())

	stats, ok := Aggregate(c)
	require.True(t, ok)
	assert.Equal(t, c.Len(), stats.TotalItems)
	assert.Equal(t, 50.0, stats.TopProfitMargin)
}
