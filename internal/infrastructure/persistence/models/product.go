package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel maps the products table
type ProductModel struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	SKU             string          `gorm:"column:sku;type:varchar(50);not null;uniqueIndex:idx_products_sku"`
	Barcode         *string         `gorm:"type:varchar(50);uniqueIndex:idx_products_barcode"`
	Name            string          `gorm:"type:varchar(200);not null;index"`
	Description     *string         `gorm:"type:text"`
	Category        *string         `gorm:"type:varchar(100);index"`
	Brand           *string         `gorm:"type:varchar(100)"`
	Unit            string          `gorm:"type:varchar(20);not null;default:'pcs'"`
	CostPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	SellingPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	VATRate         decimal.Decimal `gorm:"column:vat_rate;type:decimal(5,2);not null;default:16.00"`
	IsVATInclusive  bool            `gorm:"column:is_vat_inclusive;not null;default:false"`
	QuantityInStock int64           `gorm:"not null;default:0;check:chk_products_quantity_non_negative,quantity_in_stock >= 0"`
	ReorderLevel    int64           `gorm:"not null;default:0"`
	MaxStockLevel   int64           `gorm:"not null;default:1000"`
	IsActive        bool            `gorm:"not null;default:true;index"`
	IsService       bool            `gorm:"not null;default:false"`
	ImageURL        *string         `gorm:"column:image_url;type:varchar(500)"`
	CreatedBy       *int64          `gorm:"index"`
	Creator         *UserModel      `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}
