package contracts

import "time"

// RawQuote is one product entry of a bazaar snapshot as delivered by the data source.
// ⭐ SSOT: 데이터 소스 → 파이프라인 원시 시세
//
// Fields are pointers because upstream entries are routinely incomplete; a nil field
// marks a malformed quote which the builder drops.
type RawQuote struct {
	ItemID     string   `json:"item_id"`
	BuyPrice   *float64 `json:"buy_price"`   // instant-buy unit price
	SellPrice  *float64 `json:"sell_price"`  // instant-sell unit price
	BuyVolume  *float64 `json:"buy_volume"`  // order-book depth, buy side
	SellVolume *float64 `json:"sell_volume"` // order-book depth, sell side
}

// RawSnapshot is one full pull of the bazaar, keyed by item id.
type RawSnapshot struct {
	Quotes      map[string]RawQuote `json:"quotes"`
	LastUpdated time.Time           `json:"last_updated"` // upstream timestamp
	FetchedAt   time.Time           `json:"fetched_at"`
}

// Len returns the number of quotes in the snapshot
func (s RawSnapshot) Len() int {
	return len(s.Quotes)
}

// Float returns a pointer to v. Handy for building quotes in code and tests.
func Float(v float64) *float64 {
	return &v
}
