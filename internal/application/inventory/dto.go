package inventory

import (
	"github.com/erp/pos-backend/internal/domain/inventory"
	"github.com/erp/pos-backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Default list paging
const (
	DefaultPage  = 1
	DefaultLimit = 50
)

// CreateProductRequest represents a request to create a product.
// Optional fields left nil take the schema defaults.
type CreateProductRequest struct {
	SKU             string           `json:"sku" binding:"required"`
	Barcode         *string          `json:"barcode"`
	Name            string           `json:"name" binding:"required,min=2,max=200"`
	Description     *string          `json:"description"`
	Category        *string          `json:"category" binding:"omitempty,max=100"`
	Brand           *string          `json:"brand" binding:"omitempty,max=100"`
	Unit            *string          `json:"unit" binding:"omitempty,max=20"`
	CostPrice       decimal.Decimal  `json:"cost_price"`
	SellingPrice    decimal.Decimal  `json:"selling_price"`
	VATRate         *decimal.Decimal `json:"vat_rate"`
	IsVATInclusive  *bool            `json:"is_vat_inclusive"`
	QuantityInStock *int64           `json:"quantity_in_stock" binding:"omitempty,min=0"`
	ReorderLevel    *int64           `json:"reorder_level" binding:"omitempty,min=0"`
	MaxStockLevel   *int64           `json:"max_stock_level" binding:"omitempty,min=0"`
	IsActive        *bool            `json:"is_active"`
	IsService       *bool            `json:"is_service"`
	ImageURL        *string          `json:"image_url" binding:"omitempty,url"`
	CreatedBy       *int64           `json:"-"`
}

// ProductPatch is a partial update keyed by column name, as decoded from JSON
type ProductPatch map[string]any

// ProductFilter represents list filter options
type ProductFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	IsActive *bool  `form:"is_active"`
	LowStock bool   `form:"low_stock"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ProductResponse is a product with its derived stock status
type ProductResponse struct {
	inventory.Product
	StockStatus inventory.StockStatus `json:"stock_status"`
}

func toProductResponse(p *inventory.Product) *ProductResponse {
	return &ProductResponse{Product: *p, StockStatus: p.StockStatus()}
}

// ProductList is one page of products
type ProductList struct {
	Products   []*ProductResponse `json:"products"`
	Pagination shared.Pagination  `json:"pagination"`
}

// LowStockItem is one row of the low-stock report
type LowStockItem struct {
	ID              int64  `json:"id"`
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	QuantityInStock int64  `json:"quantity_in_stock"`
	ReorderLevel    int64  `json:"reorder_level"`
	Shortage        int64  `json:"shortage"`
}

// CategorySummary aggregates active products of one category
type CategorySummary struct {
	Category     string          `json:"category"`
	ProductCount int64           `json:"product_count"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

// DeleteResult reports which delete path was taken
type DeleteResult struct {
	ID          int64  `json:"id"`
	Deactivated bool   `json:"deactivated"`
	Message     string `json:"message"`
}

// StockAdjustmentRequest represents a manual stock adjustment
type StockAdjustmentRequest struct {
	ProductID      int64  `json:"product_id" binding:"required"`
	AdjustmentType string `json:"adjustment_type" binding:"required,oneof=increase decrease set"`
	Quantity       int64  `json:"quantity" binding:"min=0"`
	Reason         string `json:"reason" binding:"required"`
	Notes          string `json:"notes"`
}

// ToDomain converts the request into a domain adjustment
func (r StockAdjustmentRequest) ToDomain() inventory.StockAdjustment {
	return inventory.StockAdjustment{
		ProductID: r.ProductID,
		Type:      inventory.AdjustmentType(r.AdjustmentType),
		Quantity:  r.Quantity,
		Reason:    r.Reason,
		Notes:     r.Notes,
	}
}
