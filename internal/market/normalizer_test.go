package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bazaar/internal/contracts"
)

func quote(buy, sell, buyVol, sellVol float64) contracts.RawQuote {
	return contracts.RawQuote{
		BuyPrice:   contracts.Float(buy),
		SellPrice:  contracts.Float(sell),
		BuyVolume:  contracts.Float(buyVol),
		SellVolume: contracts.Float(sellVol),
	}
}

func TestNormalize_Accepted(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		quote  contracts.RawQuote
		profit float64
		margin float64
		volume int64
	}{
		{
			name:   "enchanted diamond",
			id:     "ENCHANTED_DIAMOND",
			quote:  quote(100, 150, 5, 5),
			profit: 50,
			margin: 50,
			volume: 10,
		},
		{
			name:   "repeating margin rounds to two decimals",
			id:     "WHEAT",
			quote:  quote(3, 4, 0, 0),
			profit: 1,
			margin: 33.33,
			volume: 0,
		},
		{
			name:   "negative profit",
			id:     "COBBLESTONE",
			quote:  quote(200, 150, 1000, 250),
			profit: -50,
			margin: -25,
			volume: 1250,
		},
		{
			name:   "negative margin rounds half-up",
			id:     "SAND",
			quote:  quote(7, 5, 1, 1),
			profit: -2,
			margin: -28.57,
			volume: 2,
		},
		{
			name:   "zero profit",
			id:     "FLINT",
			quote:  quote(12.5, 12.5, 3, 4),
			profit: 0,
			margin: 0,
			volume: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := Normalize(tt.id, tt.quote)
			require.True(t, ok)

			assert.Equal(t, tt.id, item.ID)
			assert.Equal(t, *tt.quote.BuyPrice, item.BuyPrice)
			assert.Equal(t, *tt.quote.SellPrice, item.SellPrice)
			assert.InDelta(t, tt.profit, item.Profit, 1e-9)
			assert.Equal(t, tt.margin, item.ProfitMargin)
			assert.Equal(t, tt.volume, item.Volume)
		})
	}
}

func TestNormalize_Rejected(t *testing.T) {
	valid := quote(10, 12, 1, 1)

	tests := []struct {
		name  string
		quote contracts.RawQuote
	}{
		{"zero buy price", quote(0, 12, 1, 1)},
		{"zero sell price", quote(10, 0, 1, 1)},
		{"negative buy price", quote(-1, 12, 1, 1)},
		{"negative sell price", quote(10, -3, 1, 1)},
		{"missing buy price", contracts.RawQuote{SellPrice: valid.SellPrice, BuyVolume: valid.BuyVolume, SellVolume: valid.SellVolume}},
		{"missing sell price", contracts.RawQuote{BuyPrice: valid.BuyPrice, BuyVolume: valid.BuyVolume, SellVolume: valid.SellVolume}},
		{"missing volume", contracts.RawQuote{BuyPrice: valid.BuyPrice, SellPrice: valid.SellPrice, SellVolume: valid.SellVolume}},
		{"NaN price", quote(math.NaN(), 12, 1, 1)},
		{"infinite price", quote(10, math.Inf(1), 1, 1)},
		{"negative volume", quote(10, 12, -1, 1)},
		{"infinite volume", quote(10, 12, 1, math.Inf(1))},
		{"fractional volume", quote(10, 12, 1.5, 1)},
		{"empty quote", contracts.RawQuote{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Normalize("ITEM", tt.quote)
			assert.False(t, ok)
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"ENCHANTED_DIAMOND", "Enchanted Diamond"},
		{"WHEAT", "Wheat"},
		{"ink_sack:3", "Ink Sack:3"},
		{"", ""},
		{"A__B", "A  B"},
		{"ÉCLAIR_BOX", "Éclair Box"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.id))
			// pure function of the id
			assert.Equal(t, DisplayName(tt.id), DisplayName(tt.id))
		})
	}
}

func TestNormalize_NegativeTieRoundsAwayFromZero(t *testing.T) {
	item, ok := Normalize("X", quote(800, 799, 1, 1))
	require.True(t, ok)
	assert.Equal(t, -0.13, item.ProfitMargin)
	assert.Equal(t, contracts.MarginNegative, item.MarginClass())
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{50, 50},
		{33.3333333, 33.33},
		{0.125, 0.13},
		{-0.125, -0.13},
		{1.115, 1.11},
		{2.675, 2.67},
		{1.005, 1},
		{-0.001, 0},
		{-2.675, -2.67},
		{8.3333333, 8.33},
		{-28.5714285, -28.57},
		{99.999, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}
