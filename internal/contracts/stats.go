package contracts

// Stats summarises the full collection of one refresh cycle.
// ⭐ SSOT: 집계 통계 (View가 아닌 전체 Collection 기준)
type Stats struct {
	TotalItems      int     `json:"total_items"`
	AvgProfitMargin float64 `json:"avg_profit_margin"`
	TopProfitMargin float64 `json:"top_profit_margin"`
}
