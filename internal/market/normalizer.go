package market

import (
	"math"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wonny/bazaar/internal/contracts"
)

// Normalize converts one raw quote into an Item.
// ⭐ SSOT: RawQuote → Item 변환 규칙은 여기서만
//
// ok is false when the quote is degenerate (non-positive price) or malformed
// (missing/non-finite field, negative or fractional volume). Rejection is a
// filtering decision, not an error.
func Normalize(itemID string, q contracts.RawQuote) (contracts.Item, bool) {
	if q.BuyPrice == nil || q.SellPrice == nil {
		return contracts.Item{}, false
	}
	buy, sell := *q.BuyPrice, *q.SellPrice
	if !isFinite(buy) || !isFinite(sell) {
		return contracts.Item{}, false
	}
	if buy <= 0 || sell <= 0 {
		return contracts.Item{}, false
	}

	buyVolume, ok := volume(q.BuyVolume)
	if !ok {
		return contracts.Item{}, false
	}
	sellVolume, ok := volume(q.SellVolume)
	if !ok {
		return contracts.Item{}, false
	}

	profit := sell - buy
	return contracts.Item{
		ID:           itemID,
		DisplayName:  DisplayName(itemID),
		BuyPrice:     buy,
		SellPrice:    sell,
		Profit:       profit,
		ProfitMargin: Round2((profit / buy) * 100),
		Volume:       buyVolume + sellVolume,
	}, true
}

// DisplayName renders an item id for humans: ENCHANTED_DIAMOND -> "Enchanted Diamond".
// Each underscore-separated token gets an upper-case first character and a
// lower-case remainder.
func DisplayName(itemID string) string {
	tokens := strings.Split(itemID, "_")
	for i, tok := range tokens {
		if tok == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(tok)
		tokens[i] = string(unicode.ToUpper(r)) + strings.ToLower(tok[size:])
	}
	return strings.Join(tokens, " ")
}

// Round2 rounds to 2 decimal places, ties away from zero, on the exact binary
// value of v. 1.115 is stored as 1.11499... and rounds to 1.11; 0.125 is exact
// and rounds to 0.13. This matches Number.prototype.toFixed(2).
func Round2(v float64) float64 {
	if !isFinite(v) || math.Abs(v) >= 1<<52 {
		return v
	}

	// |v| * 100 + 0.5 needs at most 60 significant bits; 128 keeps it exact
	x := new(big.Float).SetPrec(128).SetFloat64(math.Abs(v))
	x.Mul(x, big.NewFloat(100))
	x.Add(x, big.NewFloat(0.5))
	n, _ := x.Int(nil)

	r, _ := new(big.Float).SetPrec(53).Quo(new(big.Float).SetInt(n), big.NewFloat(100)).Float64()
	switch {
	case r == 0:
		return 0
	case v < 0:
		return -r
	default:
		return r
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// volume validates an order-book depth counter
func volume(v *float64) (int64, bool) {
	if v == nil || !isFinite(*v) || *v < 0 {
		return 0, false
	}
	if math.Trunc(*v) != *v {
		return 0, false
	}
	return int64(*v), true
}
