package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/pos-backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TxState is the lifecycle state of a transaction handle
type TxState string

const (
	TxOpen       TxState = "open"
	TxCommitted  TxState = "committed"
	TxRolledBack TxState = "rolledback"
)

// TxHandle owns one pooled connection with an open transaction on it.
// It reaches exactly one terminal state; the pool slot is released on that
// transition whether or not the store accepted the commit or rollback.
type TxHandle struct {
	id           string
	tx           *gorm.DB
	dialect      string
	queryTimeout time.Duration
	release      func()
	logger       *zap.Logger
	startedAt    time.Time

	mu    sync.Mutex
	state TxState
}

func newTxHandle(tx *gorm.DB, dialect string, queryTimeout time.Duration, release func(), log *zap.Logger) *TxHandle {
	id := uuid.NewString()
	return &TxHandle{
		id:           id,
		tx:           tx,
		dialect:      dialect,
		queryTimeout: queryTimeout,
		release:      release,
		logger:       log.With(zap.String("tx_id", id)),
		startedAt:    time.Now(),
		state:        TxOpen,
	}
}

// ID returns the handle's correlation id
func (h *TxHandle) ID() string {
	return h.id
}

// State returns the current lifecycle state
func (h *TxHandle) State() TxState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Dialect returns the dialect of the underlying store
func (h *TxHandle) Dialect() string {
	return h.dialect
}

func (h *TxHandle) stateError(op string) error {
	return fmt.Errorf("%s on %s transaction %s: %w", op, h.state, h.id, shared.ErrInvalidTxState)
}

// Query runs a statement inside the transaction
func (h *TxHandle) Query(ctx context.Context, query string, args ...any) ([]shared.Row, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != TxOpen {
		return nil, h.stateError("query")
	}
	return runQuery(ctx, h.tx, h.queryTimeout, query, args)
}

// Exec runs a statement inside the transaction
func (h *TxHandle) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != TxOpen {
		return 0, h.stateError("exec")
	}
	return runExec(ctx, h.tx, h.queryTimeout, query, args)
}

// Commit commits the transaction. If the store rejects the commit the
// handle ends rolled back and the error is returned.
func (h *TxHandle) Commit() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != TxOpen {
		return h.stateError("commit")
	}
	defer h.release()

	if err := h.tx.Commit().Error; err != nil {
		h.state = TxRolledBack
		h.logger.Warn("commit failed, transaction rolled back", zap.Error(err))
		return translateError(context.Background(), "commit", err)
	}
	h.state = TxCommitted
	h.logger.Debug("transaction committed", zap.Duration("held", time.Since(h.startedAt)))
	return nil
}

// Rollback aborts the transaction
func (h *TxHandle) Rollback() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != TxOpen {
		return h.stateError("rollback")
	}
	defer h.release()

	h.state = TxRolledBack
	err := h.tx.Rollback().Error
	// A transaction whose context ended was already rolled back by database/sql.
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		h.logger.Error("rollback failed", zap.Error(err))
		return translateError(context.Background(), "rollback", err)
	}
	h.logger.Debug("transaction rolled back", zap.Duration("held", time.Since(h.startedAt)))
	return nil
}
