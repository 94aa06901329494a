package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/pos-backend/internal/domain/inventory"
	"github.com/erp/pos-backend/internal/domain/shared"
	"go.uber.org/zap"
)

const productWithCreator = `SELECT p.*, u.username AS created_by_username
FROM products p
LEFT JOIN users u ON p.created_by = u.id`

// Service implements the inventory workflow on top of the primary store.
// Multi-statement mutations run inside one transaction; stock changes lock
// the product row for the read-modify-write.
type Service struct {
	store  shared.Store
	logger *zap.Logger
}

// NewService creates a new inventory Service
func NewService(store shared.Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.Named("inventory"),
	}
}

// GetProduct returns one product with its creator's username
func (s *Service) GetProduct(ctx context.Context, id int64) (*ProductResponse, error) {
	p, err := findProduct(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(p), nil
}

func findProduct(ctx context.Context, exec shared.Executor, id int64) (*inventory.Product, error) {
	rows, err := exec.Query(ctx, productWithCreator+" WHERE p.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.NotFound("Product not found")
	}
	return inventory.ProductFromRow(rows[0]), nil
}

// lockProduct takes the row lock on a product, failing with NotFound if absent
func lockProduct(ctx context.Context, tx shared.Executor, columns string, id int64) (shared.Row, error) {
	rows, err := tx.Query(ctx, shared.ForUpdate(tx, "SELECT "+columns+" FROM products WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.NotFound("Product not found")
	}
	return rows[0], nil
}

// ensureUnique fails with Conflict when another product already uses value
// in column. excludeID of 0 checks every product.
func ensureUnique(ctx context.Context, exec shared.Executor, column, label, value string, excludeID int64) error {
	query := "SELECT id FROM products WHERE " + column + " = ?"
	args := []any{value}
	if excludeID != 0 {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return shared.Conflict(label + " already exists")
	}
	return nil
}

// CreateProduct inserts a product after checking SKU and barcode uniqueness.
// A concurrent insert that slips past the checks still fails with Conflict
// on the unique indexes.
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if strings.TrimSpace(req.SKU) == "" {
		return nil, shared.Invalid("SKU is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, shared.Invalid("Name is required")
	}

	now := time.Now().UTC()
	values := []any{
		req.SKU,
		emptyAsNil(req.Barcode),
		req.Name,
		req.Description,
		req.Category,
		req.Brand,
		valueOr(req.Unit, inventory.DefaultUnit),
		req.CostPrice,
		req.SellingPrice,
		valueOr(req.VATRate, inventory.DefaultVATRate),
		valueOr(req.IsVATInclusive, false),
		valueOr(req.QuantityInStock, 0),
		valueOr(req.ReorderLevel, 0),
		valueOr(req.MaxStockLevel, inventory.DefaultMaxStockLevel),
		valueOr(req.IsActive, true),
		valueOr(req.IsService, false),
		req.ImageURL,
		req.CreatedBy,
		now,
		now,
	}

	var created *inventory.Product
	err := s.store.WithinTx(ctx, func(tx shared.Executor) error {
		if err := ensureUnique(ctx, tx, "sku", "SKU", req.SKU, 0); err != nil {
			return err
		}
		if b := emptyAsNil(req.Barcode); b != nil {
			if err := ensureUnique(ctx, tx, "barcode", "Barcode", *b, 0); err != nil {
				return err
			}
		}

		rows, err := tx.Query(ctx, `INSERT INTO products (
	sku, barcode, name, description, category, brand, unit,
	cost_price, selling_price, vat_rate, is_vat_inclusive,
	quantity_in_stock, reorder_level, max_stock_level,
	is_active, is_service, image_url, created_by, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING *`, values...)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert product %s: no row returned", req.SKU)
		}
		created = inventory.ProductFromRow(rows[0])
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product created", zap.Int64("product_id", created.ID), zap.String("sku", created.SKU))
	return toProductResponse(created), nil
}

// UpdateProduct applies a partial update restricted to the updatable columns.
// SKU and barcode uniqueness is re-checked only for the fields present,
// excluding the product itself.
func (s *Service) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (*ProductResponse, error) {
	assignments, err := normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	var updated *inventory.Product
	err = s.store.WithinTx(ctx, func(tx shared.Executor) error {
		if _, err := lockProduct(ctx, tx, "id", id); err != nil {
			return err
		}

		set := make([]string, 0, len(assignments)+1)
		args := make([]any, 0, len(assignments)+2)
		for _, a := range assignments {
			switch a.column {
			case "sku":
				if err := ensureUnique(ctx, tx, "sku", "SKU", a.value.(string), id); err != nil {
					return err
				}
			case "barcode":
				if b, ok := a.value.(string); ok && b != "" {
					if err := ensureUnique(ctx, tx, "barcode", "Barcode", b, id); err != nil {
						return err
					}
				}
			}
			set = append(set, a.column+" = ?")
			args = append(args, a.value)
		}
		set = append(set, "updated_at = ?")
		args = append(args, time.Now().UTC(), id)

		if _, err := tx.Exec(ctx, "UPDATE products SET "+strings.Join(set, ", ")+" WHERE id = ?", args...); err != nil {
			return err
		}

		p, err := findProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(updated), nil
}

// CanHardDelete reports whether a product has no sale or purchase lines and
// may be removed outright. The answer is only as fresh as the read: a sale
// recorded after it returns is not seen.
func CanHardDelete(ctx context.Context, exec shared.Executor, id int64) (bool, error) {
	rows, err := exec.Query(ctx, `SELECT
	(SELECT COUNT(*) FROM sale_items WHERE product_id = ?) AS sales_count,
	(SELECT COUNT(*) FROM purchase_items WHERE product_id = ?) AS purchase_count`, id, id)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return true, nil
	}
	return rows[0].Int64("sales_count") == 0 && rows[0].Int64("purchase_count") == 0, nil
}

// DeleteProduct hard-deletes a product without line-item history and
// deactivates one that has it. This is best-effort, not linearizable
// against concurrent sale creation.
func (s *Service) DeleteProduct(ctx context.Context, id int64) (*DeleteResult, error) {
	result := &DeleteResult{ID: id}

	err := s.store.WithinTx(ctx, func(tx shared.Executor) error {
		if _, err := lockProduct(ctx, tx, "id", id); err != nil {
			return err
		}

		hard, err := CanHardDelete(ctx, tx, id)
		if err != nil {
			return err
		}

		if !hard {
			_, err = tx.Exec(ctx, "UPDATE products SET is_active = ?, updated_at = ? WHERE id = ?",
				false, time.Now().UTC(), id)
			result.Deactivated = true
			result.Message = "Product deactivated successfully (has transaction history)"
			return err
		}

		_, err = tx.Exec(ctx, "DELETE FROM products WHERE id = ?", id)
		result.Message = "Product deleted successfully"
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product deleted", zap.Int64("product_id", id), zap.Bool("deactivated", result.Deactivated))
	return result, nil
}

// ListProducts returns one page of products matching the filter, ordered by name
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) (*ProductList, error) {
	page := filter.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := filter.Limit
	if limit < 1 {
		limit = DefaultLimit
	}

	var where []string
	var args []any
	if filter.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		where = append(where, `(LOWER(p.name) LIKE ? ESCAPE '\' OR LOWER(p.sku) LIKE ? ESCAPE '\' OR LOWER(p.barcode) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Category != "" {
		where = append(where, "p.category = ?")
		args = append(args, filter.Category)
	}
	if filter.IsActive != nil {
		where = append(where, "p.is_active = ?")
		args = append(args, *filter.IsActive)
	}
	if filter.LowStock {
		where = append(where, "p.quantity_in_stock <= p.reorder_level")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	countRows, err := s.store.Query(ctx, "SELECT COUNT(*) AS total FROM products p"+clause, args...)
	if err != nil {
		return nil, err
	}
	var total int64
	if len(countRows) > 0 {
		total = countRows[0].Int64("total")
	}

	pageArgs := append(append([]any{}, args...), limit, (page-1)*limit)
	rows, err := s.store.Query(ctx, productWithCreator+clause+" ORDER BY p.name ASC, p.id ASC LIMIT ? OFFSET ?", pageArgs...)
	if err != nil {
		return nil, err
	}

	products := make([]*ProductResponse, len(rows))
	for i, r := range rows {
		products[i] = toProductResponse(inventory.ProductFromRow(r))
	}

	return &ProductList{
		Products:   products,
		Pagination: shared.NewPagination(page, limit, total),
	}, nil
}

// AdjustStock applies an increase, decrease or set to a product's stock.
// The product row is locked for the duration of the read-modify-write so
// concurrent adjustments serialize instead of losing updates.
func (s *Service) AdjustStock(ctx context.Context, adj inventory.StockAdjustment) (*inventory.AdjustmentResult, error) {
	if err := adj.Validate(); err != nil {
		return nil, err
	}

	var result *inventory.AdjustmentResult
	err := s.store.WithinTx(ctx, func(tx shared.Executor) error {
		row, err := lockProduct(ctx, tx, "id, name, quantity_in_stock", adj.ProductID)
		if err != nil {
			return err
		}

		current := row.Int64("quantity_in_stock")
		next, err := adj.Apply(current)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, "UPDATE products SET quantity_in_stock = ?, updated_at = ? WHERE id = ?",
			next, time.Now().UTC(), adj.ProductID); err != nil {
			return err
		}

		result = &inventory.AdjustmentResult{
			ProductID:        adj.ProductID,
			Name:             row.String("name"),
			PreviousQuantity: current,
			NewQuantity:      next,
			Adjustment:       adj.Quantity,
			AdjustmentType:   adj.Type,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.Int64("product_id", adj.ProductID),
		zap.String("type", string(adj.Type)),
		zap.Int64("quantity", adj.Quantity),
		zap.Int64("previous_quantity", result.PreviousQuantity),
		zap.Int64("new_quantity", result.NewQuantity),
		zap.String("reason", adj.Reason),
		zap.String("notes", adj.Notes),
	)
	return result, nil
}

// LowStock lists active products at or below their reorder level, largest shortage first
func (s *Service) LowStock(ctx context.Context) ([]LowStockItem, error) {
	rows, err := s.store.Query(ctx, `SELECT id, sku, name, quantity_in_stock, reorder_level,
	(reorder_level - quantity_in_stock) AS shortage
FROM products
WHERE quantity_in_stock <= reorder_level AND is_active = ?
ORDER BY shortage DESC, id ASC`, true)
	if err != nil {
		return nil, err
	}

	items := make([]LowStockItem, len(rows))
	for i, r := range rows {
		items[i] = LowStockItem{
			ID:              r.Int64("id"),
			SKU:             r.String("sku"),
			Name:            r.String("name"),
			QuantityInStock: r.Int64("quantity_in_stock"),
			ReorderLevel:    r.Int64("reorder_level"),
			Shortage:        r.Int64("shortage"),
		}
	}
	return items, nil
}

// Categories returns product count and inventory value per non-empty category of active products
func (s *Service) Categories(ctx context.Context) ([]CategorySummary, error) {
	rows, err := s.store.Query(ctx, `SELECT category, COUNT(*) AS product_count,
	SUM(quantity_in_stock * selling_price) AS total_value
FROM products
WHERE category IS NOT NULL AND category <> '' AND is_active = ?
GROUP BY category
ORDER BY category ASC`, true)
	if err != nil {
		return nil, err
	}

	out := make([]CategorySummary, len(rows))
	for i, r := range rows {
		out[i] = CategorySummary{
			Category:     r.String("category"),
			ProductCount: r.Int64("product_count"),
			TotalValue:   r.Decimal("total_value"),
		}
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func emptyAsNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
