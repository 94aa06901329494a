package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/pos-backend/internal/domain/shared"
	"github.com/erp/pos-backend/internal/infrastructure/config"
	"github.com/erp/pos-backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the connection pool manager for the primary store.
//
// Every statement and every transaction holds one slot of a weighted
// semaphore sized to the pool. Waiters are admitted strictly in arrival
// order; a caller that cannot get a slot within the acquire timeout fails
// with shared.ErrPoolExhausted. The underlying sql.DB is capped at the same
// size so it never queues behind the semaphore.
type Database struct {
	DB *gorm.DB

	sqlDB          *sql.DB
	slots          *semaphore.Weighted
	poolSize       int64
	inUse          atomic.Int64
	slotWaits      atomic.Int64
	exhausted      atomic.Int64
	acquireTimeout time.Duration
	queryTimeout   time.Duration
	txOptions      *sql.TxOptions
	local          *LocalStore
	logger         *zap.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Option configures Open
type Option func(*openOptions)

type openOptions struct {
	local    *LocalStore
	sqlLevel gormlogger.LogLevel
}

// WithLocalStore attaches the secondary store to the pool manager
func WithLocalStore(ls *LocalStore) Option {
	return func(o *openOptions) {
		o.local = ls
	}
}

// WithSQLLogLevel sets the statement log level
func WithSQLLogLevel(level gormlogger.LogLevel) Option {
	return func(o *openOptions) {
		o.sqlLevel = level
	}
}

// NewDatabase connects to the PostgreSQL primary store and, when enabled,
// opens the local secondary store. An unreachable primary is returned as
// an error wrapping shared.ErrStoreUnavailable.
func NewDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Database, error) {
	opts := []Option{WithSQLLogLevel(logger.GormLevel(cfg.Log.Level))}

	if cfg.LocalStore.Enabled {
		ls, err := OpenLocalStore(cfg.LocalStore.Path, log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithLocalStore(ls))
	}

	db, err := Open(ctx, postgres.Open(cfg.Database.DSN()), &cfg.Database, log, opts...)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Open builds the pool manager over an arbitrary gorm dialector and probes
// the store with one dedicated connection before returning.
func Open(ctx context.Context, dialector gorm.Dialector, cfg *config.DatabaseConfig, log *zap.Logger, opts ...Option) (*Database, error) {
	o := openOptions{sqlLevel: gormlogger.Warn}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		closeLocal(o.local)
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(log, o.sqlLevel, logger.DefaultSlowThreshold),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		closeLocal(o.local)
		return nil, fmt.Errorf("failed to open database: %w: %v", shared.ErrStoreUnavailable, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		closeLocal(o.local)
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.PoolSize)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	d := &Database{
		DB:             gdb,
		sqlDB:          sqlDB,
		slots:          semaphore.NewWeighted(int64(cfg.PoolSize)),
		poolSize:       int64(cfg.PoolSize),
		acquireTimeout: cfg.AcquireTimeout,
		queryTimeout:   cfg.QueryTimeout,
		txOptions:      txOptionsFor(gdb.Dialector.Name(), cfg.Isolation),
		local:          o.local,
		logger:         log.Named("database"),
	}

	if err := d.probe(ctx); err != nil {
		_ = sqlDB.Close()
		closeLocal(o.local)
		return nil, err
	}

	d.logger.Info("database pool ready",
		zap.String("dialect", d.Dialect()),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Duration("acquire_timeout", cfg.AcquireTimeout),
		zap.Duration("query_timeout", cfg.QueryTimeout),
		zap.Bool("local_store", o.local != nil),
	)
	return d, nil
}

func closeLocal(ls *LocalStore) {
	if ls != nil {
		_ = ls.Close()
	}
}

func txOptionsFor(dialect, isolation string) *sql.TxOptions {
	if dialect == shared.DialectSQLite {
		return nil
	}
	level := sql.LevelReadCommitted
	switch isolation {
	case config.IsolationRepeatableRead:
		level = sql.LevelRepeatableRead
	case config.IsolationSerializable:
		level = sql.LevelSerializable
	}
	return &sql.TxOptions{Isolation: level}
}

// probe checks out one connection, pings it and returns it to the pool
func (d *Database) probe(ctx context.Context) error {
	release, err := d.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	probeCtx, cancel := context.WithTimeout(ctx, d.queryTimeout)
	defer cancel()

	conn, err := d.sqlDB.Conn(probeCtx)
	if err != nil {
		return fmt.Errorf("probe connection: %w: %v", shared.ErrStoreUnavailable, err)
	}
	defer conn.Close()

	if err := conn.PingContext(probeCtx); err != nil {
		return fmt.Errorf("probe ping: %w: %v", shared.ErrStoreUnavailable, err)
	}
	return nil
}

// acquire takes one pool slot, waiting at most the acquire timeout.
// The returned release func is safe to call more than once.
func (d *Database) acquire(ctx context.Context) (func(), error) {
	if d.closed.Load() {
		return nil, fmt.Errorf("acquire connection: pool is closed: %w", shared.ErrStoreUnavailable)
	}

	if !d.slots.TryAcquire(1) {
		d.slotWaits.Add(1)
		waitCtx, cancel := context.WithTimeout(ctx, d.acquireTimeout)
		err := d.slots.Acquire(waitCtx, 1)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("acquire connection: %w", ctx.Err())
			}
			d.exhausted.Add(1)
			d.logger.Warn("connection pool exhausted",
				zap.Int64("pool_size", d.poolSize),
				zap.Int64("in_use", d.inUse.Load()),
				zap.Duration("acquire_timeout", d.acquireTimeout),
			)
			return nil, fmt.Errorf("acquire connection after %s: %w", d.acquireTimeout, shared.ErrPoolExhausted)
		}
	}

	d.inUse.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			d.inUse.Add(-1)
			d.slots.Release(1)
		})
	}, nil
}

// Dialect returns the name of the primary store dialect
func (d *Database) Dialect() string {
	return d.DB.Dialector.Name()
}

// Query runs a parameterized statement on a pooled connection and returns its rows
func (d *Database) Query(ctx context.Context, query string, args ...any) ([]shared.Row, error) {
	release, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return runQuery(ctx, d.DB, d.queryTimeout, query, args)
}

// Exec runs a parameterized statement on a pooled connection and returns the affected row count
func (d *Database) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	release, err := d.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()
	return runExec(ctx, d.DB, d.queryTimeout, query, args)
}

// QueryLocal runs a statement against the secondary store
func (d *Database) QueryLocal(ctx context.Context, query string, args ...any) ([]shared.Row, error) {
	if d.local == nil {
		return nil, errLocalStoreDisabled
	}
	return d.local.Query(ctx, query, args...)
}

// ExecLocal runs a statement against the secondary store
func (d *Database) ExecLocal(ctx context.Context, query string, args ...any) (int64, error) {
	if d.local == nil {
		return 0, errLocalStoreDisabled
	}
	return d.local.Exec(ctx, query, args...)
}

// Local returns the secondary store, or nil when it is disabled
func (d *Database) Local() *LocalStore {
	return d.local
}

// Begin takes a pool slot and starts a transaction on it.
// The caller must Commit or Rollback the handle; until then the slot stays taken.
func (d *Database) Begin(ctx context.Context) (*TxHandle, error) {
	release, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}

	// The transaction is bound to the caller's context, not the acquire
	// deadline: database/sql rolls back when that context ends.
	tx := d.DB.WithContext(ctx).Begin(d.txOptions)
	if tx.Error != nil {
		release()
		return nil, translateError(ctx, "begin transaction", tx.Error)
	}

	return newTxHandle(tx, d.Dialect(), d.queryTimeout, release, d.logger), nil
}

// WithinTx runs fn inside a transaction. An error or panic from fn rolls
// the transaction back; otherwise it is committed. The slot is released
// in every case.
func (d *Database) WithinTx(ctx context.Context, fn func(tx shared.Executor) error) error {
	h, err := d.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := h.Rollback(); rbErr != nil {
				d.logger.Error("rollback after panic failed", zap.String("tx_id", h.ID()), zap.Error(rbErr))
			}
			panic(p)
		}
	}()

	if err := fn(h); err != nil {
		if rbErr := h.Rollback(); rbErr != nil {
			d.logger.Error("rollback failed", zap.String("tx_id", h.ID()), zap.Error(rbErr))
			return errors.Join(err, rbErr)
		}
		return err
	}

	return h.Commit()
}

// Ping checks that the primary store answers on a pooled connection
func (d *Database) Ping(ctx context.Context) error {
	release, err := d.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	pingCtx, cancel := context.WithTimeout(ctx, d.queryTimeout)
	defer cancel()
	if err := d.sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping: %w: %v", shared.ErrStoreUnavailable, err)
	}
	return nil
}

// ConnectionStats holds pool statistics
type ConnectionStats struct {
	PoolSize          int64         `json:"pool_size"`
	SlotsInUse        int64         `json:"slots_in_use"`
	SlotWaits         int64         `json:"slot_waits"`
	Exhausted         int64         `json:"exhausted"`
	OpenConnections   int           `json:"open_connections"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// Stats returns slot usage together with the sql.DB pool statistics
func (d *Database) Stats() ConnectionStats {
	s := d.sqlDB.Stats()
	return ConnectionStats{
		PoolSize:          d.poolSize,
		SlotsInUse:        d.inUse.Load(),
		SlotWaits:         d.slotWaits.Load(),
		Exhausted:         d.exhausted.Load(),
		OpenConnections:   s.OpenConnections,
		InUse:             s.InUse,
		Idle:              s.Idle,
		WaitCount:         s.WaitCount,
		WaitDuration:      s.WaitDuration,
		MaxIdleClosed:     s.MaxIdleClosed,
		MaxLifetimeClosed: s.MaxLifetimeClosed,
	}
}

// Close stops new acquisitions, waits up to the acquire timeout for
// in-flight holders to release their slots, then closes the primary and
// secondary stores. Later calls return the first result.
func (d *Database) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)

		drainCtx, cancel := context.WithTimeout(context.Background(), d.acquireTimeout)
		if err := d.slots.Acquire(drainCtx, d.poolSize); err != nil {
			d.logger.Warn("closing pool with connections still checked out",
				zap.Int64("in_use", d.inUse.Load()))
		}
		cancel()

		d.closeErr = d.sqlDB.Close()
		if d.local != nil {
			d.closeErr = errors.Join(d.closeErr, d.local.Close())
		}
		d.logger.Info("database pool closed")
	})
	return d.closeErr
}

func runQuery(ctx context.Context, db *gorm.DB, timeout time.Duration, query string, args []any) ([]shared.Row, error) {
	stmtCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// gorm only recognizes the unnamed map slice as a scan target.
	var raw []map[string]any
	if err := db.WithContext(stmtCtx).Raw(query, args...).Scan(&raw).Error; err != nil {
		return nil, translateError(ctx, "query", err)
	}

	rows := make([]shared.Row, len(raw))
	for i, r := range raw {
		rows[i] = shared.Row(r)
	}
	return rows, nil
}

func runExec(ctx context.Context, db *gorm.DB, timeout time.Duration, query string, args []any) (int64, error) {
	stmtCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := db.WithContext(stmtCtx).Exec(query, args...)
	if res.Error != nil {
		return 0, translateError(ctx, "exec", res.Error)
	}
	return res.RowsAffected, nil
}
