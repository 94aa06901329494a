package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/erp/pos-backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver and gorm failures onto domain error kinds.
// ctx is the caller's context: a deadline that fired on the statement's own
// timeout is a store problem, one that fired on the caller's is passed through.
func translateError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}

	var domainErr *shared.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w: %v", op, shared.ErrAlreadyExists, err)
	case isCheckViolation(err):
		return fmt.Errorf("%s: %w: %v", op, shared.ErrValidationFailed, err)
	case ctx.Err() != nil:
		return fmt.Errorf("%s: %w", op, ctx.Err())
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: statement timed out: %w", op, shared.ErrStoreUnavailable)
	case isConnectionError(err):
		return fmt.Errorf("%s: %w: %v", op, shared.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// isCheckViolation covers PostgreSQL 23514, which gorm translates, and the
// SQLite CHECK failure, which the sqlite dialector leaves untranslated.
func isCheckViolation(err error) bool {
	return errors.Is(err, gorm.ErrCheckConstraintViolated) ||
		strings.Contains(err.Error(), "CHECK constraint failed")
}
