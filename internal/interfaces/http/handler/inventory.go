package handler

import (
	"context"

	appinventory "github.com/erp/pos-backend/internal/application/inventory"
	"github.com/erp/pos-backend/internal/domain/inventory"
	"github.com/erp/pos-backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InventoryService is the inventory workflow as seen by the HTTP layer
type InventoryService interface {
	ListProducts(ctx context.Context, filter appinventory.ProductFilter) (*appinventory.ProductList, error)
	GetProduct(ctx context.Context, id int64) (*appinventory.ProductResponse, error)
	CreateProduct(ctx context.Context, req appinventory.CreateProductRequest) (*appinventory.ProductResponse, error)
	UpdateProduct(ctx context.Context, id int64, patch appinventory.ProductPatch) (*appinventory.ProductResponse, error)
	DeleteProduct(ctx context.Context, id int64) (*appinventory.DeleteResult, error)
	AdjustStock(ctx context.Context, adj inventory.StockAdjustment) (*inventory.AdjustmentResult, error)
	LowStock(ctx context.Context) ([]appinventory.LowStockItem, error)
	Categories(ctx context.Context) ([]appinventory.CategorySummary, error)
}

// InventoryHandler handles product and stock HTTP requests
type InventoryHandler struct {
	BaseHandler
	service InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(service InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: BaseHandler{logger: logger},
		service:     service,
	}
}

// Routes returns the inventory route group
func (h *InventoryHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("inventory", "/inventory").
		GET("/products", h.ListProducts).
		POST("/products", h.CreateProduct).
		GET("/products/:id", h.GetProduct).
		PUT("/products/:id", h.UpdateProduct).
		DELETE("/products/:id", h.DeleteProduct).
		POST("/stock-adjustment", h.AdjustStock).
		GET("/low-stock", h.LowStock).
		GET("/categories", h.Categories)
}

// ListProducts handles GET /inventory/products
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	var filter appinventory.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	list, err := h.service.ListProducts(requestContext(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, list.Pagination)
}

// GetProduct handles GET /inventory/products/:id
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.service.GetProduct(requestContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// CreateProduct handles POST /inventory/products
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req appinventory.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = getUserID(c)

	product, err := h.service.CreateProduct(requestContext(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// UpdateProduct handles PUT /inventory/products/:id
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var patch appinventory.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.service.UpdateProduct(requestContext(c), id, patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// DeleteProduct handles DELETE /inventory/products/:id
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	result, err := h.service.DeleteProduct(requestContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AdjustStock handles POST /inventory/stock-adjustment
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req appinventory.StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.service.AdjustStock(requestContext(c), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// LowStock handles GET /inventory/low-stock
func (h *InventoryHandler) LowStock(c *gin.Context) {
	items, err := h.service.LowStock(requestContext(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Categories handles GET /inventory/categories
func (h *InventoryHandler) Categories(c *gin.Context) {
	summaries, err := h.service.Categories(requestContext(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summaries)
}
