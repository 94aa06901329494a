package shared

import "context"

// Dialect names reported by Executor.Dialect
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Executor runs parameterized statements against a relational store.
// Arguments are always bound through driver placeholders ("?"); statement
// text must never be assembled from caller-supplied values.
type Executor interface {
	// Query runs a statement that returns rows (SELECT, or INSERT/UPDATE ... RETURNING).
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Dialect returns the name of the underlying SQL dialect ("postgres", "sqlite").
	Dialect() string
}

// TxScope runs a function inside a single store transaction.
// If fn returns an error or panics the transaction is rolled back,
// otherwise it is committed. The connection is returned to the pool in every case.
type TxScope interface {
	WithinTx(ctx context.Context, fn func(tx Executor) error) error
}

// Store is an Executor that can also open transactions.
type Store interface {
	Executor
	TxScope
}

// ForUpdate appends a row-lock clause to query when the dialect supports it.
// SQLite has no row locks; writers there are serialized by BEGIN IMMEDIATE.
func ForUpdate(exec Executor, query string) string {
	if exec.Dialect() == DialectSQLite {
		return query
	}
	return query + " FOR UPDATE"
}
