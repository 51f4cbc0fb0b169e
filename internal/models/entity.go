package models

import "time"

// Product is a stock item as held by the data store.
type Product struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Category     string    `json:"category" db:"category"`
	BuyingPrice  float64   `json:"buying_price" db:"buying_price"`
	SellingPrice float64   `json:"selling_price" db:"selling_price"`
	Quantity     int       `json:"quantity" db:"quantity"`
	ExpiryDate   string    `json:"expiry_date,omitempty" db:"expiry_date"` // YYYY-MM-DD, empty when not applicable
	SupplierID   string    `json:"supplier_id,omitempty" db:"supplier_id"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// MarginPercent returns ((sell-buy)/sell)*100, or 0 when the selling price is zero.
func (p Product) MarginPercent() float64 {
	if p.SellingPrice == 0 {
		return 0
	}
	return (p.SellingPrice - p.BuyingPrice) / p.SellingPrice * 100
}

// TotalValue returns the stock value at buying price.
func (p Product) TotalValue() float64 {
	return p.BuyingPrice * float64(p.Quantity)
}

// LowStockThreshold is the highest quantity still counted as low stock.
const LowStockThreshold = 5

// Stock status labels used in rendered text and analytics.
const (
	StockStatusOut = "out of stock"
	StockStatusLow = "low stock"
	StockStatusIn  = "in stock"
)

// StockStatus classifies the product quantity.
func (p Product) StockStatus() string {
	switch {
	case p.Quantity <= 0:
		return StockStatusOut
	case p.Quantity <= LowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// Supplier is a vendor contact.
type Supplier struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	WhatsApp  string    `json:"whatsapp" db:"whatsapp"`
	Email     string    `json:"email,omitempty" db:"email"`
	Category  string    `json:"category,omitempty" db:"category"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Sale is one sales transaction line.
type Sale struct {
	ID          string    `json:"id" db:"id"`
	ProductID   string    `json:"product_id,omitempty" db:"product_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	Category    string    `json:"category,omitempty" db:"category"`
	Quantity    int       `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Total       float64   `json:"total" db:"total"`
	SoldAt      time.Time `json:"sold_at" db:"sold_at"`
}

// Amount returns Total, or Quantity*UnitPrice when Total was not recorded.
func (s Sale) Amount() float64 {
	if s.Total != 0 {
		return s.Total
	}
	return float64(s.Quantity) * s.UnitPrice
}
