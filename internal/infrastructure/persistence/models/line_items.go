package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemModel maps sale_items. Only its product reference is read here:
// a product with sale history is deactivated instead of deleted.
type SaleItemModel struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	SaleID    int64           `gorm:"not null;index"`
	ProductID int64           `gorm:"not null;index"`
	Product   *ProductModel   `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity  int64           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// PurchaseItemModel maps purchase_items
type PurchaseItemModel struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	PurchaseID int64           `gorm:"not null;index"`
	ProductID  int64           `gorm:"not null;index"`
	Product    *ProductModel   `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity   int64           `gorm:"not null"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseItemModel) TableName() string {
	return "purchase_items"
}
