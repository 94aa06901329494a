package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/pos-backend/internal/infrastructure/logger"
	"github.com/erp/pos-backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type createRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Name     string `json:"name" binding:"required,min=2,max=5"`
	Type     string `json:"adjustment_type" binding:"omitempty,oneof=increase decrease set"`
	ImageURL string `json:"image_url" binding:"omitempty,url"`
	Limit    int    `json:"limit" binding:"omitempty,max=500"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()

	r := gin.New()
	r.Use(logger.GinMiddleware(zap.NewNop()))
	r.POST("/test", func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return r
}

func postJSON(r *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleValidationError_ReportsJSONFieldNames(t *testing.T) {
	r := newValidationRouter()

	w := postJSON(r, `{"name":"x","adjustment_type":"move","image_url":"nope","limit":501}`,
		map[string]string{logger.RequestIDHeader: "req-1"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "Request validation failed", resp.Error.Message)
	assert.Equal(t, "req-1", resp.Error.RequestID)

	got := map[string]string{}
	for _, d := range resp.Error.Details {
		got[d.Field] = d.Message
	}
	assert.Equal(t, map[string]string{
		"sku":             "This field is required",
		"name":            "Must be at least 2 characters",
		"adjustment_type": "Must be one of: increase decrease set",
		"image_url":       "Invalid URL format",
		"limit":           "Must be at most 500",
	}, got)
}

func TestHandleValidationError_ValidInputPasses(t *testing.T) {
	r := newValidationRouter()

	w := postJSON(r, `{"sku":"A1","name":"Tea","adjustment_type":"set"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFormatValidationErrors_NonValidationErrorHasNoDetails(t *testing.T) {
	resp := FormatValidationErrors(errors.New("unexpected EOF"), "req-2")

	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-2", resp.Error.RequestID)
	assert.Empty(t, resp.Error.Details)
	assert.False(t, IsValidationError(errors.New("unexpected EOF")))
}

func TestRequestID_FallsBackToHeader(t *testing.T) {
	r := gin.New()
	r.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(logger.RequestIDHeader, "from-header")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "from-header", w.Body.String())
}
