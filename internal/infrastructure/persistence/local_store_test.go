package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erp/pos-backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
)

func TestOpenLocalStore_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "offline", "offline.db")

	ls, err := OpenLocalStore(path, zap.NewNop())
	require.NoError(t, err)
	defer ls.Close()

	_, err = ls.Exec(context.Background(), "CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.Equal(t, path, ls.Path())
	assert.Equal(t, shared.DialectSQLite, ls.Dialect())
}

func TestLocalStore_SerializesConcurrentWriters(t *testing.T) {
	ls, err := OpenLocalStore(filepath.Join(t.TempDir(), "offline.db"), zap.NewNop())
	require.NoError(t, err)
	defer ls.Close()

	ctx := context.Background()
	_, err = ls.Exec(ctx, "CREATE TABLE notes (id INTEGER PRIMARY KEY AUTOINCREMENT, body TEXT NOT NULL)")
	require.NoError(t, err)

	g, gctx := errgroup.WithContext(ctx)
	for i := range 50 {
		g.Go(func() error {
			_, err := ls.Exec(gctx, "INSERT INTO notes (body) VALUES (?)", i)
			return err
		})
	}
	require.NoError(t, g.Wait())

	rows, err := ls.Query(ctx, "SELECT COUNT(*) AS n FROM notes")
	require.NoError(t, err)
	assert.Equal(t, int64(50), rows[0].Int64("n"))
}

func TestLocalStore_CloseIsIdempotent(t *testing.T) {
	ls, err := OpenLocalStore(filepath.Join(t.TempDir(), "offline.db"), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, ls.Close())
	require.NoError(t, ls.Close())

	_, err = ls.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
	_, err = ls.Exec(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
}

func TestDatabase_WithLocalStore(t *testing.T) {
	dir := t.TempDir()
	ls, err := OpenLocalStore(filepath.Join(dir, "offline.db"), zap.NewNop())
	require.NoError(t, err)

	db, err := Open(context.Background(), sqlite.Open(filepath.Join(dir, "primary.db")),
		testPoolConfig(2, 0), zap.NewNop(), WithLocalStore(ls))
	// A zero acquire timeout fails validation, which must also close the local store.
	require.Error(t, err)
	assert.Nil(t, db)
	_, err = ls.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)

	ls, err = OpenLocalStore(filepath.Join(dir, "offline.db"), zap.NewNop())
	require.NoError(t, err)
	db, err = Open(context.Background(), sqlite.Open(filepath.Join(dir, "primary.db")),
		testPoolConfig(2, time.Second), zap.NewNop(), WithLocalStore(ls))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = db.ExecLocal(ctx, "CREATE TABLE pending (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	_, err = db.ExecLocal(ctx, "INSERT INTO pending (id) VALUES (?)", 1)
	require.NoError(t, err)

	rows, err := db.QueryLocal(ctx, "SELECT id FROM pending")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// The primary store does not see local tables.
	_, err = db.Query(ctx, "SELECT id FROM pending")
	assert.Error(t, err)

	require.NoError(t, db.Close())
	_, err = ls.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
}
