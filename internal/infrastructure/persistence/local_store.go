package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/erp/pos-backend/internal/domain/shared"
	"github.com/erp/pos-backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const localQueryTimeout = 30 * time.Second

var errLocalStoreDisabled = fmt.Errorf("local store is disabled: %w", shared.ErrStoreUnavailable)

// LocalStore is the embedded SQLite store kept on disk for offline use.
// It holds a single connection and serializes every statement; nothing is
// replicated to or from the primary store.
type LocalStore struct {
	db     *gorm.DB
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

// OpenLocalStore opens (creating if needed) the SQLite file at path
func OpenLocalStore(path string, log *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create local store directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.NewGormLogger(log, gormlogger.Warn, logger.DefaultSlowThreshold),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open local store %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	ls := &LocalStore{db: db, path: path, logger: log.Named("local_store")}
	ls.logger.Info("local store opened", zap.String("path", path))
	return ls, nil
}

// Path returns the database file location
func (s *LocalStore) Path() string {
	return s.path
}

// Dialect implements shared.Executor
func (s *LocalStore) Dialect() string {
	return shared.DialectSQLite
}

// Query implements shared.Executor
func (s *LocalStore) Query(ctx context.Context, query string, args ...any) ([]shared.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errLocalStoreClosed
	}
	return runQuery(ctx, s.db, localQueryTimeout, query, args)
}

// Exec implements shared.Executor
func (s *LocalStore) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errLocalStoreClosed
	}
	return runExec(ctx, s.db, localQueryTimeout, query, args)
}

var errLocalStoreClosed = fmt.Errorf("local store is closed: %w", shared.ErrStoreUnavailable)

// Close closes the store file. Calling it again is a no-op.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
