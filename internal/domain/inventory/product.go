package inventory

import (
	"time"

	"github.com/erp/pos-backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockStatus is the derived, non-stored stock level classification
type StockStatus string

const (
	StockStatusLow    StockStatus = "low"
	StockStatusNormal StockStatus = "normal"
	StockStatusHigh   StockStatus = "high"
)

// Defaults applied when a product is created without the field
const (
	DefaultUnit          = "pcs"
	DefaultMaxStockLevel = int64(1000)
)

// DefaultVATRate is the VAT percentage applied when none is supplied
var DefaultVATRate = decimal.NewFromFloat(16.00)

// Product is a sellable item or service with on-hand stock
type Product struct {
	ID                int64           `json:"id"`
	SKU               string          `json:"sku"`
	Barcode           *string         `json:"barcode,omitempty"`
	Name              string          `json:"name"`
	Description       *string         `json:"description,omitempty"`
	Category          *string         `json:"category,omitempty"`
	Brand             *string         `json:"brand,omitempty"`
	Unit              string          `json:"unit"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	IsVATInclusive    bool            `json:"is_vat_inclusive"`
	QuantityInStock   int64           `json:"quantity_in_stock"`
	ReorderLevel      int64           `json:"reorder_level"`
	MaxStockLevel     int64           `json:"max_stock_level"`
	IsActive          bool            `json:"is_active"`
	IsService         bool            `json:"is_service"`
	ImageURL          *string         `json:"image_url,omitempty"`
	CreatedBy         *int64          `json:"created_by,omitempty"`
	CreatedByUsername *string         `json:"created_by_username,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// StockStatus classifies the current stock against the product's thresholds
func (p *Product) StockStatus() StockStatus {
	return ClassifyStock(p.QuantityInStock, p.ReorderLevel, p.MaxStockLevel)
}

// IsLowStock reports whether on-hand stock is at or below the reorder level
func (p *Product) IsLowStock() bool {
	return p.QuantityInStock <= p.ReorderLevel
}

// Shortage returns how far stock is below the reorder level (negative when above)
func (p *Product) Shortage() int64 {
	return p.ReorderLevel - p.QuantityInStock
}

// InventoryValue returns quantity_in_stock * selling_price
func (p *Product) InventoryValue() decimal.Decimal {
	return p.SellingPrice.Mul(decimal.NewFromInt(p.QuantityInStock))
}

// ClassifyStock returns low when qty <= reorder, high when qty >= max, else normal.
// The low rule wins when both thresholds match.
func ClassifyStock(qty, reorderLevel, maxStockLevel int64) StockStatus {
	switch {
	case qty <= reorderLevel:
		return StockStatusLow
	case qty >= maxStockLevel:
		return StockStatusHigh
	default:
		return StockStatusNormal
	}
}

// ProductFromRow maps a products row (optionally joined with created_by_username)
func ProductFromRow(r shared.Row) *Product {
	return &Product{
		ID:                r.Int64("id"),
		SKU:               r.String("sku"),
		Barcode:           r.StringPtr("barcode"),
		Name:              r.String("name"),
		Description:       r.StringPtr("description"),
		Category:          r.StringPtr("category"),
		Brand:             r.StringPtr("brand"),
		Unit:              r.String("unit"),
		CostPrice:         r.Decimal("cost_price"),
		SellingPrice:      r.Decimal("selling_price"),
		VATRate:           r.Decimal("vat_rate"),
		IsVATInclusive:    r.Bool("is_vat_inclusive"),
		QuantityInStock:   r.Int64("quantity_in_stock"),
		ReorderLevel:      r.Int64("reorder_level"),
		MaxStockLevel:     r.Int64("max_stock_level"),
		IsActive:          r.Bool("is_active"),
		IsService:         r.Bool("is_service"),
		ImageURL:          r.StringPtr("image_url"),
		CreatedBy:         r.Int64Ptr("created_by"),
		CreatedByUsername: r.StringPtr("created_by_username"),
		CreatedAt:         r.Time("created_at"),
		UpdatedAt:         r.Time("updated_at"),
	}
}
