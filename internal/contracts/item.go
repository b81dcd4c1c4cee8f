package contracts

// Item is a derived, immutable bazaar record produced from exactly one RawQuote.
// ⭐ SSOT: 정규화된 상품 레코드
type Item struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"display_name"`
	BuyPrice     float64 `json:"buy_price"`
	SellPrice    float64 `json:"sell_price"`
	Profit       float64 `json:"profit"`        // sell - buy, signed
	ProfitMargin float64 `json:"profit_margin"` // percent, 2 decimals
	Volume       int64   `json:"volume"`        // buy + sell volume
}

// MarginClass labels the sign of the margin for sinks that colour rows.
type MarginClass string

const (
	MarginPositive MarginClass = "positive"
	MarginNegative MarginClass = "negative"
	MarginNeutral  MarginClass = "neutral"
)

// MarginClass returns the sign class of the item's margin
func (i Item) MarginClass() MarginClass {
	switch {
	case i.ProfitMargin > 0:
		return MarginPositive
	case i.ProfitMargin < 0:
		return MarginNegative
	default:
		return MarginNeutral
	}
}

// ItemDetail is the on-demand detail payload for a single item.
type ItemDetail struct {
	Item
	Class MarginClass `json:"class"`
}

// Detail wraps the item with its presentation class
func (i Item) Detail() ItemDetail {
	return ItemDetail{Item: i, Class: i.MarginClass()}
}
