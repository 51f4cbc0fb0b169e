package analytics

import (
	"sort"

	"github.com/hyperjump/stockwise/internal/models"
)

// Options tunes what a summary contains.
type Options struct {
	TopProducts         int
	ReorderLimit        int
	HighMarginThreshold float64
}

// DefaultOptions returns the standard summary options.
func DefaultOptions() Options {
	return Options{TopProducts: 3, ReorderLimit: 5, HighMarginThreshold: 30}
}

// HealthScore returns 100 - ((low + out*2) / total * 100). The score goes negative when
// most products are out of stock. ok is false when there are no products.
func HealthScore(low, out, total int) (score float64, ok bool) {
	if total == 0 {
		return 0, false
	}
	score = 100 - (float64(low+out*2)/float64(total))*100
	return score, true
}

// HealthBucket maps a health score to its label.
func HealthBucket(score float64) string {
	switch {
	case score >= 90:
		return models.StockHealthExcellent
	case score >= 75:
		return models.StockHealthGood
	case score >= 60:
		return models.StockHealthFair
	default:
		return models.StockHealthNeedsAttention
	}
}

func summary(p models.Product) models.ProductSummary {
	return models.ProductSummary{ID: p.ID, Name: p.Name, Quantity: p.Quantity, MarginPercent: p.MarginPercent()}
}

// Summarize derives the aggregate record from raw entities. ComputedAt is left zero.
func Summarize(products []models.Product, suppliers []models.Supplier, sales []models.Sale, opts Options) *models.CachedAnalytics {
	a := &models.CachedAnalytics{
		TotalProducts:      len(products),
		SupplierCount:      len(suppliers),
		TransactionCount:   len(sales),
		TopProducts:        []models.ProductSummary{},
		HighMarginProducts: []models.ProductSummary{},
		ReorderSuggestions: []models.ProductSummary{},
	}

	var priceSum, marginSum float64
	var reorder []models.Product
	for _, p := range products {
		a.TotalStockUnits += p.Quantity
		a.TotalInventoryValue += p.TotalValue()
		priceSum += p.SellingPrice
		marginSum += p.MarginPercent()

		switch p.StockStatus() {
		case models.StockStatusOut:
			a.OutOfStockCount++
			reorder = append(reorder, p)
		case models.StockStatusLow:
			a.LowStockCount++
			reorder = append(reorder, p)
		}
		if p.MarginPercent() > opts.HighMarginThreshold {
			a.HighMarginProducts = append(a.HighMarginProducts, summary(p))
		}
	}
	if n := len(products); n > 0 {
		a.AveragePrice = priceSum / float64(n)
		a.AverageMargin = marginSum / float64(n)
	}

	sort.SliceStable(a.HighMarginProducts, func(i, j int) bool {
		return a.HighMarginProducts[i].MarginPercent > a.HighMarginProducts[j].MarginPercent
	})

	byQuantity := make([]models.Product, len(products))
	copy(byQuantity, products)
	sort.SliceStable(byQuantity, func(i, j int) bool {
		if byQuantity[i].Quantity != byQuantity[j].Quantity {
			return byQuantity[i].Quantity > byQuantity[j].Quantity
		}
		return byQuantity[i].Name < byQuantity[j].Name
	})
	for i := 0; i < len(byQuantity) && i < opts.TopProducts; i++ {
		a.TopProducts = append(a.TopProducts, summary(byQuantity[i]))
	}

	sort.SliceStable(reorder, func(i, j int) bool {
		if reorder[i].Quantity != reorder[j].Quantity {
			return reorder[i].Quantity < reorder[j].Quantity
		}
		return reorder[i].Name < reorder[j].Name
	})
	for i := 0; i < len(reorder) && i < opts.ReorderLimit; i++ {
		a.ReorderSuggestions = append(a.ReorderSuggestions, summary(reorder[i]))
	}

	for _, s := range sales {
		a.TotalRevenue += s.Amount()
	}

	if score, ok := HealthScore(a.LowStockCount, a.OutOfStockCount, a.TotalProducts); ok {
		a.HealthScore = score
		a.StockHealth = HealthBucket(score)
	} else {
		a.StockHealth = models.StockHealthNotApplicable
	}
	return a
}
