// Package migrations holds the PostgreSQL schema migrations, embedded so
// the migrate binary needs no files next to it.
package migrations

import "embed"

// FS contains every *.up.sql / *.down.sql pair
//
//go:embed *.sql
var FS embed.FS
