package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appinventory "github.com/erp/pos-backend/internal/application/inventory"
	"github.com/erp/pos-backend/internal/domain/inventory"
	"github.com/erp/pos-backend/internal/domain/shared"
	"github.com/erp/pos-backend/internal/infrastructure/logger"
	"github.com/erp/pos-backend/internal/interfaces/http/dto"
	"github.com/erp/pos-backend/internal/interfaces/http/middleware"
	"github.com/erp/pos-backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockInventoryService is a mock implementation of InventoryService
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) ListProducts(ctx context.Context, filter appinventory.ProductFilter) (*appinventory.ProductList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.ProductList), args.Error(1)
}

func (m *MockInventoryService) GetProduct(ctx context.Context, id int64) (*appinventory.ProductResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.ProductResponse), args.Error(1)
}

func (m *MockInventoryService) CreateProduct(ctx context.Context, req appinventory.CreateProductRequest) (*appinventory.ProductResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.ProductResponse), args.Error(1)
}

func (m *MockInventoryService) UpdateProduct(ctx context.Context, id int64, patch appinventory.ProductPatch) (*appinventory.ProductResponse, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.ProductResponse), args.Error(1)
}

func (m *MockInventoryService) DeleteProduct(ctx context.Context, id int64) (*appinventory.DeleteResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.DeleteResult), args.Error(1)
}

func (m *MockInventoryService) AdjustStock(ctx context.Context, adj inventory.StockAdjustment) (*inventory.AdjustmentResult, error) {
	args := m.Called(ctx, adj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.AdjustmentResult), args.Error(1)
}

func (m *MockInventoryService) LowStock(ctx context.Context) ([]appinventory.LowStockItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appinventory.LowStockItem), args.Error(1)
}

func (m *MockInventoryService) Categories(ctx context.Context) ([]appinventory.CategorySummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appinventory.CategorySummary), args.Error(1)
}

func setupInventoryRouter(svc InventoryService) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(logger.GinMiddleware(zap.NewNop()))
	engine.Use(middleware.BodyLimit(1 << 10))
	router.NewRouter(engine).Register(NewInventoryHandler(svc, zap.NewNop()).Routes()).Setup()
	return engine
}

func doRequest(engine *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func sampleProduct(id int64) *appinventory.ProductResponse {
	p := inventory.Product{
		ID:              id,
		SKU:             "SKU-1",
		Name:            "Sugar 1kg",
		Unit:            "pcs",
		SellingPrice:    decimal.RequireFromString("2.50"),
		QuantityInStock: 3,
		ReorderLevel:    5,
		MaxStockLevel:   1000,
		IsActive:        true,
	}
	return &appinventory.ProductResponse{Product: p, StockStatus: p.StockStatus()}
}

func TestInventoryHandler_GetProduct(t *testing.T) {
	t.Run("returns the product", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("GetProduct", mock.Anything, int64(7)).Return(sampleProduct(7), nil).Once()

		w := doRequest(setupInventoryRouter(svc), http.MethodGet, "/api/v1/inventory/products/7", "")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "SKU-1", data["sku"])
		assert.Equal(t, "low", data["stock_status"])
		assert.Equal(t, "2.5", data["selling_price"])
		svc.AssertExpectations(t)
	})

	t.Run("maps not found to 404 with request id", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("GetProduct", mock.Anything, int64(9)).Return(nil, shared.NotFound("Product not found")).Once()

		w := doRequest(setupInventoryRouter(svc), http.MethodGet, "/api/v1/inventory/products/9", "",
			logger.RequestIDHeader, "req-404")

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decode(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
		assert.Equal(t, "Product not found", resp.Error.Message)
		assert.Equal(t, "req-404", resp.Error.RequestID)
	})

	t.Run("rejects a non-numeric id without calling the service", func(t *testing.T) {
		svc := new(MockInventoryService)

		w := doRequest(setupInventoryRouter(svc), http.MethodGet, "/api/v1/inventory/products/abc", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode(t, w).Error.Code)
		svc.AssertNotCalled(t, "GetProduct", mock.Anything, mock.Anything)
	})
}

func TestInventoryHandler_CreateProduct(t *testing.T) {
	t.Run("binds the body and the acting user", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("CreateProduct", mock.Anything, mock.MatchedBy(func(req appinventory.CreateProductRequest) bool {
			return req.SKU == "SKU-1" && req.Name == "Sugar 1kg" &&
				req.SellingPrice.Equal(decimal.RequireFromString("2.50")) &&
				req.CreatedBy != nil && *req.CreatedBy == 12
		})).Return(sampleProduct(1), nil).Once()

		w := doRequest(setupInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/products",
			`{"sku":"SKU-1","name":"Sugar 1kg","selling_price":"2.50"}`, UserIDHeader, "12")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, decode(t, w).Success)
		svc.AssertExpectations(t)
	})

	t.Run("malformed user header is ignored", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("CreateProduct", mock.Anything, mock.MatchedBy(func(req appinventory.CreateProductRequest) bool {
			return req.CreatedBy == nil
		})).Return(sampleProduct(1), nil).Once()

		w := doRequest(setupInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/products",
			`{"sku":"SKU-1","name":"Sugar 1kg"}`, UserIDHeader, "root")

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("missing required fields list the failures", func(t *testing.T) {
		svc := new(MockInventoryService)

		w := doRequest(setupInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/products", `{"name":"X"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"sku", "name"}, fields)
		svc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		svc := new(MockInventoryService)

		w := doRequest(setupInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/products", `{"sku":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode(t, w).Error.Code)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		svc := new(MockInventoryService)
		big := `{"sku":"A","name":"` + strings.Repeat("x", 2048) + `"}`

		w := doRequest(setupInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/products", big)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodeRequestTooLarge, decode(t, w).Error.Code)
	})

	t.Run("oversized body without declared length is rejected while binding", func(t *testing.T) {
		svc := new(MockInventoryService)
		big := `{"sku":"A","name":"` + strings.Repeat("x", 2048) + `"}`

		req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/products", bytes.NewBufferString(big))
		req.Header.Set("Content-Type", "application/json")
		req.ContentLength = -1
		w := httptest.NewRecorder()
		setupInventoryRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodeRequestTooLarge, decode(t, w).Error.Code)
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("CreateProduct", mock.Anything, mock.Anything).Return(nil, shared.Conflict("SKU already exists")).Once()

		w := doRequest(setupInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/products",
			`{"sku":"SKU-1","name":"Sugar 1kg"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
		assert.Equal(t, "SKU already exists", resp.Error.Message)
	})
}

func TestInventoryHandler_UpdateProduct(t *testing.T) {
	t.Run("passes the decoded patch through", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("UpdateProduct", mock.Anything, int64(3), appinventory.ProductPatch{
			"name":          "Brown sugar",
			"reorder_level": float64(8),
			"barcode":       nil,
		}).Return(sampleProduct(3), nil).Once()

		w := doRequest(setupInventoryRouter(svc), http.MethodPut, "/api/v1/inventory/products/3",
			`{"name":"Brown sugar","reorder_level":8,"barcode":null}`)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("validation failure from the workflow is 400", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("UpdateProduct", mock.Anything, int64(3), mock.Anything).
			Return(nil, shared.Invalid("No fields to update")).Once()

		w := doRequest(setupInventoryRouter(svc), http.MethodPut, "/api/v1/inventory/products/3", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode(t, w).Error.Code)
	})

	t.Run("non-object body is a bad request", func(t *testing.T) {
		svc := new(MockInventoryService)

		w := doRequest(setupInventoryRouter(svc), http.MethodPut, "/api/v1/inventory/products/3", `[1,2]`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode(t, w).Error.Code)
	})
}

func TestInventoryHandler_DeleteProduct(t *testing.T) {
	svc := new(MockInventoryService)
	svc.On("DeleteProduct", mock.Anything, int64(4)).Return(&appinventory.DeleteResult{
		ID: 4, Deactivated: true, Message: "Product deactivated successfully (has transaction history)",
	}, nil).Once()

	w := doRequest(setupInventoryRouter(svc), http.MethodDelete, "/api/v1/inventory/products/4", "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Equal(t, true, data["deactivated"])
	svc.AssertExpectations(t)
}

func TestInventoryHandler_ListProducts(t *testing.T) {
	t.Run("binds the query and fills meta", func(t *testing.T) {
		svc := new(MockInventoryService)
		active := true
		svc.On("ListProducts", mock.Anything, appinventory.ProductFilter{
			Search: "sug", Category: "Food", IsActive: &active, LowStock: true, Page: 2, Limit: 10,
		}).Return(&appinventory.ProductList{
			Products:   []*appinventory.ProductResponse{sampleProduct(1)},
			Pagination: shared.NewPagination(2, 10, 11),
		}, nil).Once()

		w := doRequest(setupInventoryRouter(svc), http.MethodGet,
			"/api/v1/inventory/products?search=sug&category=Food&is_active=true&low_stock=true&page=2&limit=10", "")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(11), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.Page)
		assert.Equal(t, 10, resp.Meta.PageSize)
		assert.Equal(t, 2, resp.Meta.TotalPages)
		data := resp.Data.(map[string]any)
		assert.Len(t, data["products"], 1)
		svc.AssertExpectations(t)
	})

	t.Run("out of range limit fails validation", func(t *testing.T) {
		svc := new(MockInventoryService)

		w := doRequest(setupInventoryRouter(svc), http.MethodGet, "/api/v1/inventory/products?limit=501", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode(t, w).Error.Code)
		svc.AssertNotCalled(t, "ListProducts", mock.Anything, mock.Anything)
	})

	t.Run("pool exhaustion maps to 503", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("ListProducts", mock.Anything, mock.Anything).
			Return(nil, errors.Join(errors.New("acquire"), shared.ErrPoolExhausted)).Once()

		w := doRequest(setupInventoryRouter(svc), http.MethodGet, "/api/v1/inventory/products", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodePoolExhausted, decode(t, w).Error.Code)
	})
}

func TestInventoryHandler_AdjustStock(t *testing.T) {
	t.Run("converts the request into a domain adjustment", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("AdjustStock", mock.Anything, inventory.StockAdjustment{
			ProductID: 5, Type: inventory.AdjustmentDecrease, Quantity: 10, Reason: "damaged", Notes: "dropped",
		}).Return(&inventory.AdjustmentResult{
			ProductID: 5, PreviousQuantity: 3, NewQuantity: 0, Adjustment: 10, AdjustmentType: inventory.AdjustmentDecrease,
		}, nil).Once()

		w := doRequest(setupInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/stock-adjustment",
			`{"product_id":5,"adjustment_type":"decrease","quantity":10,"reason":"damaged","notes":"dropped"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode(t, w).Success)
		svc.AssertExpectations(t)
	})

	t.Run("unknown adjustment type fails binding", func(t *testing.T) {
		svc := new(MockInventoryService)

		w := doRequest(setupInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/stock-adjustment",
			`{"product_id":5,"adjustment_type":"teleport","quantity":1,"reason":"x"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "adjustment_type", resp.Error.Details[0].Field)
	})

	t.Run("store outage maps to 503", func(t *testing.T) {
		svc := new(MockInventoryService)
		svc.On("AdjustStock", mock.Anything, mock.Anything).Return(nil, shared.ErrStoreUnavailable).Once()

		w := doRequest(setupInventoryRouter(svc), http.MethodPost, "/api/v1/inventory/stock-adjustment",
			`{"product_id":5,"adjustment_type":"set","quantity":1,"reason":"count"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodeStoreUnavailable, decode(t, w).Error.Code)
	})
}

func TestInventoryHandler_Reports(t *testing.T) {
	svc := new(MockInventoryService)
	svc.On("LowStock", mock.Anything).Return([]appinventory.LowStockItem{
		{ID: 1, SKU: "SKU-1", QuantityInStock: 3, ReorderLevel: 5, Shortage: 2},
	}, nil).Once()
	svc.On("Categories", mock.Anything).Return([]appinventory.CategorySummary{
		{Category: "Food", ProductCount: 2, TotalValue: decimal.RequireFromString("7.50")},
	}, nil).Once()
	engine := setupInventoryRouter(svc)

	w := doRequest(engine, http.MethodGet, "/api/v1/inventory/low-stock", "")
	assert.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w).Data.([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(2), items[0].(map[string]any)["shortage"])

	w = doRequest(engine, http.MethodGet, "/api/v1/inventory/categories", "")
	assert.Equal(t, http.StatusOK, w.Code)
	cats := decode(t, w).Data.([]any)
	require.Len(t, cats, 1)
	assert.Equal(t, "7.5", cats[0].(map[string]any)["total_value"])

	svc.AssertExpectations(t)
}

func TestInventoryHandler_UnknownErrorIsInternal(t *testing.T) {
	svc := new(MockInventoryService)
	svc.On("LowStock", mock.Anything).Return(nil, errors.New("boom")).Once()

	w := doRequest(setupInventoryRouter(svc), http.MethodGet, "/api/v1/inventory/low-stock", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
}

func TestInventoryHandler_ContextSurvivesClientCancel(t *testing.T) {
	svc := new(MockInventoryService)
	svc.On("LowStock", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	})).Return([]appinventory.LowStockItem{}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/low-stock", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	setupInventoryRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
