package hypixel

import (
	"encoding/json"

	"github.com/wonny/bazaar/internal/contracts"
)

// envelope is the top level of the bazaar response
type envelope struct {
	Success     bool                       `json:"success"`
	Cause       string                     `json:"cause"`
	LastUpdated int64                      `json:"lastUpdated"`
	Products    map[string]json.RawMessage `json:"products"`
}

type product struct {
	ProductID   string       `json:"product_id"`
	QuickStatus *quickStatus `json:"quick_status"`
}

// quickStatus is the aggregated top-of-book summary for one product.
// Pointers distinguish a missing field from zero.
type quickStatus struct {
	BuyPrice   *float64 `json:"buyPrice"`
	SellPrice  *float64 `json:"sellPrice"`
	BuyVolume  *float64 `json:"buyVolume"`
	SellVolume *float64 `json:"sellVolume"`
}

// decodeProduct converts one products entry. A malformed entry yields a
// quote with every field missing and ok=false.
func decodeProduct(id string, raw json.RawMessage) (contracts.RawQuote, bool) {
	quote := contracts.RawQuote{ItemID: id}

	var p product
	if err := json.Unmarshal(raw, &p); err != nil || p.QuickStatus == nil {
		return quote, false
	}

	quote.BuyPrice = p.QuickStatus.BuyPrice
	quote.SellPrice = p.QuickStatus.SellPrice
	quote.BuyVolume = p.QuickStatus.BuyVolume
	quote.SellVolume = p.QuickStatus.SellVolume
	return quote, true
}
