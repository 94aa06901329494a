package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/erp/pos-backend/internal/domain/shared"
	"github.com/erp/pos-backend/internal/infrastructure/logger"
	"github.com/erp/pos-backend/internal/interfaces/http/dto"
	"github.com/erp/pos-backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDHeader optionally names the acting user on write requests
const UserIDHeader = "X-User-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct {
	logger *zap.Logger
}

// requestContext detaches the workflow from client disconnects. A started
// transaction runs to commit or rollback even if the caller goes away.
func requestContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// getUserID returns the optional acting user id. A missing or malformed
// header yields nil.
func getUserID(c *gin.Context) *int64 {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, p shared.Pagination) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, p))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the status derived from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.RequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// BindError answers a failed ShouldBind call. Field validation failures
// list the offending fields; anything else is a malformed body.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		h.Error(c, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
	case middleware.IsValidationError(err):
		middleware.HandleValidationError(c, err)
	default:
		h.BadRequest(c, "Invalid request body: "+err.Error())
	}
}

// HandleError converts workflow errors to HTTP responses. Anything that is
// not a DomainError is logged and reported as an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, domainErr.Code, domainErr.Message)
		return
	}

	logger.L(c.Request.Context(), h.logger).Error("Unhandled error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	_ = c.Error(err)
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}
