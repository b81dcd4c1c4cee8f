package market

import "github.com/wonny/bazaar/internal/contracts"

// Aggregate computes summary statistics over the full collection.
// ⭐ SSOT: 통계 집계 (View가 아닌 Collection 기준)
//
// ok is false for an empty collection so sinks can show "no data" instead of zeros.
func Aggregate(c Collection) (stats contracts.Stats, ok bool) {
	if c.Len() == 0 {
		return contracts.Stats{}, false
	}

	// Items() is id-ordered, which keeps the float sum reproducible
	items := c.Items()
	sum := 0.0
	top := items[0].ProfitMargin
	for _, item := range items {
		sum += item.ProfitMargin
		if item.ProfitMargin > top {
			top = item.ProfitMargin
		}
	}

	return contracts.Stats{
		TotalItems:      len(items),
		AvgProfitMargin: Round2(sum / float64(len(items))),
		TopProfitMargin: top,
	}, true
}
