package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/erp/pos-backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want error
	}{
		{"duplicate key", context.Background(), gorm.ErrDuplicatedKey, shared.ErrAlreadyExists},
		{"check constraint", context.Background(), gorm.ErrCheckConstraintViolated, shared.ErrValidationFailed},
		{"sqlite check constraint", context.Background(), errors.New("CHECK constraint failed: chk_products_quantity_non_negative"), shared.ErrValidationFailed},
		{"statement timeout", context.Background(), context.DeadlineExceeded, shared.ErrStoreUnavailable},
		{"caller canceled", canceled, context.Canceled, context.Canceled},
		{"bad connection", context.Background(), driver.ErrBadConn, shared.ErrStoreUnavailable},
		{"connection done", context.Background(), sql.ErrConnDone, shared.ErrStoreUnavailable},
		{"network", context.Background(), &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, shared.ErrStoreUnavailable},
		{"domain error kept", context.Background(), shared.NotFound("Product not found"), shared.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.ctx, "query", tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestTranslateError_CallerDeadlineIsNotStoreFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	got := translateError(ctx, "query", fmt.Errorf("driver: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, got, context.DeadlineExceeded)
	assert.NotErrorIs(t, got, shared.ErrStoreUnavailable)
}

func TestTranslateError_PassesThroughOtherErrors(t *testing.T) {
	assert.NoError(t, translateError(context.Background(), "query", nil))

	syntax := errors.New(`syntax error at or near "SELEC"`)
	got := translateError(context.Background(), "query", syntax)
	assert.ErrorIs(t, got, syntax)
	assert.Equal(t, `query: syntax error at or near "SELEC"`, got.Error())

	domainErr := shared.Conflict("SKU already exists")
	assert.Same(t, domainErr, translateError(context.Background(), "exec", domainErr))
}
