// Package migrations embeds the SQLite schema migrations for the
// operator console's local store.
package migrations

import "embed"

// FS contains the ordered migration files.
//
//go:embed *.sql
var FS embed.FS
