package models

import "time"

// Stock health buckets derived from the health score.
const (
	StockHealthExcellent      = "Excellent"
	StockHealthGood           = "Good"
	StockHealthFair           = "Fair"
	StockHealthNeedsAttention = "Needs Attention"
	StockHealthNotApplicable  = "N/A"
)

// ProductSummary is a compact product reference used inside analytics lists.
type ProductSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	MarginPercent float64 `json:"margin_percent"`
}

// CachedAnalytics is a snapshot of aggregate business metrics.
type CachedAnalytics struct {
	TotalProducts       int              `json:"total_products"`
	TotalStockUnits     int              `json:"total_stock_units"`
	TotalInventoryValue float64          `json:"total_inventory_value"`
	LowStockCount       int              `json:"low_stock_count"`
	OutOfStockCount     int              `json:"out_of_stock_count"`
	AveragePrice        float64          `json:"average_price"`
	AverageMargin       float64          `json:"average_margin"`
	TopProducts         []ProductSummary `json:"top_products"`
	HighMarginProducts  []ProductSummary `json:"high_margin_products"`
	ReorderSuggestions  []ProductSummary `json:"reorder_suggestions"`
	HealthScore         float64          `json:"health_score"`
	StockHealth         string           `json:"stock_health"`
	SupplierCount       int              `json:"supplier_count"`
	TotalRevenue        float64          `json:"total_revenue"`
	TransactionCount    int              `json:"transaction_count"`
	ComputedAt          time.Time        `json:"computed_at"`
}

// IsFresh reports whether the record was computed less than ttl before now.
func (a *CachedAnalytics) IsFresh(now time.Time, ttl time.Duration) bool {
	if a == nil || a.ComputedAt.IsZero() {
		return false
	}
	return now.Sub(a.ComputedAt) < ttl
}
