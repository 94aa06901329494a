// Package models contains the GORM persistence models for the POS schema.
// Statements in the inventory workflow are written as parameterized SQL;
// these models describe the tables for AutoMigrate in development and tests
// and mirror the SQL migrations applied in production.
package models

// All returns every model in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&UserModel{},
		&ProductModel{},
		&SaleItemModel{},
		&PurchaseItemModel{},
	}
}
