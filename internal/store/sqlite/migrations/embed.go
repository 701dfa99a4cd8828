package migrations

import "embed"

// FS contains embedded SQLite migrations for slot storage.
//
//go:embed *.sql
var FS embed.FS
